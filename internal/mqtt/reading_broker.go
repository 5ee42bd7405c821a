package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqttcommon "healthmon/common/mqtt"
	"healthmon/internal/service"

	"go.uber.org/zap"
)

// Subscriber common/mqtt.Client 满足该接口
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// ReadingBroker 设备通过 MQTT 上报读数：topic healthmon/{device_id}/reading，
// payload 与 POST /api/sensor 的 JSON 相同，走同一套校验和写入
type ReadingBroker struct {
	readings service.ReadingService
	timeout  time.Duration
	logger   *zap.Logger

	sub   Subscriber
	topic string
}

func NewReadingBroker(readings service.ReadingService, logger *zap.Logger) *ReadingBroker {
	return &ReadingBroker{
		readings: readings,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// Start 订阅读数 topic
func (b *ReadingBroker) Start(sub Subscriber, topic string, qos byte) error {
	if err := sub.Subscribe(topic, qos, b.HandleMessage); err != nil {
		return err
	}
	b.sub, b.topic = sub, topic
	b.logger.Info("Subscribed to reading topic", zap.String("topic", topic))
	return nil
}

// Stop 取消订阅；未 Start 时什么都不做
func (b *ReadingBroker) Stop() error {
	if b.sub == nil {
		return nil
	}
	sub := b.sub
	b.sub = nil
	return sub.Unsubscribe(b.topic)
}

// deviceFromTopic 第二段是设备 id；通配符或空段返回空
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	id := strings.TrimSpace(parts[1])
	if id == "+" || id == "#" {
		return ""
	}
	return id
}

// HandleMessage 处理一条读数消息；返回的错误只记日志（消息丢弃，不重试）
func (b *ReadingBroker) HandleMessage(topic string, payload []byte) error {
	fields, err := service.ParseJSONFields(payload)
	if err != nil {
		return fmt.Errorf("topic %s: %w", topic, err)
	}
	// payload 里没带 device_id 时用 topic 里的
	if _, ok := fields["device_id"]; !ok {
		if id := deviceFromTopic(topic); id != "" {
			fields["device_id"] = id
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	resp, err := b.readings.Ingest(ctx, fields)
	if err != nil {
		if service.IsValidation(err) {
			b.logger.Warn("Dropping invalid MQTT reading",
				zap.String("topic", topic),
				zap.String("reason", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("ingest reading from %s: %w", topic, err)
	}

	b.logger.Debug("MQTT reading stored",
		zap.String("topic", topic),
		zap.Int64("id", resp.ID),
		zap.String("device_id", resp.DeviceID),
	)
	return nil
}
