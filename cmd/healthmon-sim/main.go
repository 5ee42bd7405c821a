package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	commonlog "healthmon/common/logger"
	mqttcommon "healthmon/common/mqtt"
	"healthmon/internal/config"
	"healthmon/internal/simulator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadSim()

	logger, err := commonlog.NewLogger(cfg.Log.Level, cfg.Log.Format, "healthmon-sim")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID = "sim-" + uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := simulator.NewClient(cfg.APIURL, logger)
	gen := simulator.NewGenerator(time.Now().UnixNano(), deviceID, cfg.PatientID)

	logger.Info("Starting device simulator",
		zap.String("api_url", cfg.APIURL),
		zap.String("device_id", deviceID),
		zap.Int("patient_id", cfg.PatientID),
		zap.Int("count", cfg.Count),
		zap.Duration("interval", cfg.Interval),
	)

	if err := client.RegisterDevice(ctx, deviceID, cfg.PatientID); err != nil {
		logger.Warn("Device registration failed, readings will register it implicitly", zap.Error(err))
	}

	// SIM_MQTT_BROKER 设置时走 MQTT，读数 id 由 API 端分配，这里拿不到
	send := client.PostReading
	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = deviceID
		}
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			logger.Fatal("MQTT connection failed", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		}
		defer mqttClient.Disconnect()
		sink := simulator.NewMQTTSink(mqttClient, cfg.MQTT.QoS)
		send = func(_ context.Context, rd simulator.Reading) (int64, error) {
			return 0, sink.PublishReading(rd)
		}
		logger.Info("Publishing readings over MQTT", zap.String("topic", simulator.ReadingTopic(deviceID)))
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	sent, failed := 0, 0
	for i := 0; i < cfg.Count; i++ {
		rd := gen.Next()
		id, err := send(ctx, rd)
		if err != nil {
			failed++
			logger.Error("Failed to post reading", zap.Int("seq", i+1), zap.Error(err))
		} else {
			sent++
			logger.Info("Reading posted",
				zap.Int("seq", i+1),
				zap.Int64("id", id),
				zap.Int("pulse_rate", rd.PulseRate),
				zap.Float64("temperature", *rd.Temperature),
				zap.Float64("oxygen_level", *rd.OxygenLevel),
			)
		}

		if i == cfg.Count-1 {
			break
		}
		select {
		case <-ctx.Done():
			logger.Info("Simulator interrupted", zap.Int("sent", sent), zap.Int("failed", failed))
			return
		case <-ticker.C:
		}
	}

	logger.Info("Simulator finished", zap.Int("sent", sent), zap.Int("failed", failed))
}
