package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"healthmon/common/database"
	commonlog "healthmon/common/logger"
	mqttcommon "healthmon/common/mqtt"
	rediscommon "healthmon/common/redis"
	"healthmon/internal/config"
	"healthmon/internal/events"
	httpapi "healthmon/internal/http"
	mqttbroker "healthmon/internal/mqtt"
	"healthmon/internal/repository"
	"healthmon/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// repositories 按 DB_ENABLED 选 Postgres 或内存实现
type repositories struct {
	patients    repository.PatientsRepository
	readings    repository.ReadingsRepository
	devices     repository.DevicesRepository
	diagnostics repository.DiagnosticsRepository
}

func main() {
	// .env 可选，不存在不报错
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := commonlog.NewLogger(cfg.Log.Level, cfg.Log.Format, "healthmon-api")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting healthmon-api",
		zap.Bool("db_enabled", cfg.DBEnabled),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	var repos repositories
	if cfg.DBEnabled {
		db, repos = openPostgres(ctx, cfg, logger)
		defer database.Close(db)
	} else {
		// DB 未启用：使用内存 repo 支持本地联调
		logger.Warn("DB disabled, using in-memory repositories (data is lost on restart)")
		store := repository.NewMemoryStore()
		repos = repositories{
			patients:    store.Patients(),
			readings:    store.Readings(),
			devices:     store.Devices(),
			diagnostics: store.Diagnostics(),
		}
	}

	// Redis Stream 广播（可选）
	var publisher events.ReadingPublisher = events.NopPublisher{}
	if cfg.Redis.Enabled {
		redisClient, err := rediscommon.Connect(ctx, &cfg.Redis.RedisConfig)
		if err != nil {
			logger.Warn("Redis not reachable, reading events will be retried per publish", zap.Error(err))
		}
		defer rediscommon.Close(redisClient)
		publisher = events.NewStreamPublisher(redisClient, cfg.Redis.Stream, cfg.Redis.StreamMaxLen, logger)
		logger.Info("Reading events enabled", zap.String("stream", cfg.Redis.Stream))
	}

	limits := service.ListLimits{Default: cfg.Readings.DefaultLimit, Max: cfg.Readings.MaxLimit}
	readingSvc := service.NewReadingService(repos.readings, repos.devices, publisher, limits, logger)
	patientSvc := service.NewPatientService(repos.patients, logger)
	deviceSvc := service.NewDeviceService(repos.devices, logger)

	// MQTT 上报（可选）
	if cfg.MQTT.Enabled {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT.MQTTConfig, logger)
		if err != nil {
			logger.Error("MQTT connection failed, MQTT ingestion disabled",
				zap.String("broker", cfg.MQTT.Broker),
				zap.Error(err),
			)
		} else {
			defer mqttClient.Disconnect()
			broker := mqttbroker.NewReadingBroker(readingSvc, logger)
			if err := broker.Start(mqttClient, cfg.MQTT.Topic, cfg.MQTT.QoS); err != nil {
				logger.Error("MQTT subscribe failed", zap.Error(err))
			} else {
				defer broker.Stop()
			}
		}
	}

	handler := httpapi.NewAPI(httpapi.Handlers{
		Sensor:      httpapi.NewSensorHandler(readingSvc, cfg.HTTP.MaxBodySize, logger),
		Patient:     httpapi.NewPatientHandler(patientSvc, cfg.HTTP.MaxBodySize, logger),
		Device:      httpapi.NewDeviceHandler(deviceSvc, cfg.HTTP.MaxBodySize, logger),
		Diagnostics: httpapi.NewDiagnosticsHandler(repos.diagnostics, logger),
	}, cfg.HTTP.CORSOrigin, logger)

	srv := service.NewServer(cfg.HTTP.Addr, handler, service.ServerTimeouts{
		Read:     cfg.HTTP.ReadTimeout,
		Write:    cfg.HTTP.WriteTimeout,
		Shutdown: cfg.HTTP.ShutdownTimeout,
	}, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
		return
	}
	logger.Info("healthmon-api stopped")
}

// openPostgres 打开连接池并初始化表结构。
// 连不上库不退出：请求会返回 "Database connection failed"，库恢复后自动可用。
func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, repositories) {
	if cfg.Admin.CreateDatabase {
		bootstrapDatabase(ctx, cfg, logger)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Invalid database configuration", zap.Error(err))
	}

	gw := repository.NewGateway(db, logger)
	gw.SetTarget(cfg.Database.Redacted())

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := gw.Ping(pingCtx); err != nil {
		logger.Error("Database not reachable at startup, schema initialization skipped",
			zap.String("target", cfg.Database.Redacted()),
			zap.Error(err),
		)
	} else if err := repository.NewSchemaManager(gw, logger).EnsureSchema(ctx); err != nil {
		// 已有部署可能表已存在，不退出，但后续查询大概率失败
		logger.Error("SCHEMA INITIALIZATION FAILED, continuing with existing schema", zap.Error(err))
	} else {
		logger.Info("DB enabled for healthmon-api", zap.String("target", cfg.Database.Redacted()))
	}

	return db, repositories{
		patients:    repository.NewPostgresPatientsRepo(gw),
		readings:    repository.NewPostgresReadingsRepo(gw),
		devices:     repository.NewPostgresDevicesRepo(gw),
		diagnostics: repository.NewPostgresDiagnosticsRepo(gw),
	}
}

// bootstrapDatabase 用管理员账号确保目标库存在
func bootstrapDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	adminCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	adminDB, err := database.NewPostgresDB(adminCtx, &cfg.Admin.Database)
	if err != nil {
		logger.Error("Admin connection failed, database bootstrap skipped",
			zap.String("target", cfg.Admin.Database.Redacted()),
			zap.Error(err),
		)
		return
	}
	defer database.Close(adminDB)

	admin := repository.NewGateway(adminDB, logger)
	admin.SetTarget(cfg.Admin.Database.Redacted())
	if err := repository.EnsureDatabase(adminCtx, admin, cfg.Database.Database, logger); err != nil {
		logger.Error("Database bootstrap failed", zap.Error(err))
	}
}
