package events

import (
	"context"
	"time"

	rediscommon "healthmon/common/redis"
	"healthmon/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ReadingPublisher 读数落库后的下游广播
type ReadingPublisher interface {
	// deviceID 可为空
	PublishReading(ctx context.Context, deviceID string, rd *domain.SensorReading) error
}

// NopPublisher REDIS_ENABLED=false 时使用
type NopPublisher struct{}

func (NopPublisher) PublishReading(context.Context, string, *domain.SensorReading) error { return nil }

// ReadingEvent 写入 stream 的 data 字段
type ReadingEvent struct {
	Type     string                `json:"type"`
	DeviceID string                `json:"device_id,omitempty"`
	Reading  *domain.SensorReading `json:"reading"`
}

const EventReadingStored = "reading.stored"

// StreamPublisher 把读数 XADD 到 Redis Stream
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

func NewStreamPublisher(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

var (
	_ ReadingPublisher = NopPublisher{}
	_ ReadingPublisher = (*StreamPublisher)(nil)
)

func (p *StreamPublisher) PublishReading(ctx context.Context, deviceID string, rd *domain.SensorReading) error {
	ev := ReadingEvent{Type: EventReadingStored, DeviceID: deviceID, Reading: rd}

	// 请求结束后 ctx 可能已取消，XADD 单独给一个短超时
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	id, err := rediscommon.PublishJSONToStream(pubCtx, p.client, p.stream, p.maxLen, ev)
	if err != nil {
		p.logger.Warn("Failed to publish reading event",
			zap.String("stream", p.stream),
			zap.Int64("reading_id", ev.Reading.ID),
			zap.Error(err),
		)
		return err
	}
	p.logger.Debug("Reading event published",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.Int64("reading_id", ev.Reading.ID),
	)
	return nil
}
