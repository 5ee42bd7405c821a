package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"healthmon/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStreamPublisher_PublishReading(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	temp := 36.6
	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	rd := &domain.SensorReading{ID: 42, PatientID: 5, HeartRate: 72, Temperature: &temp, Timestamp: &ts}

	p := NewStreamPublisher(client, "healthmon:readings:stream", 1000, zap.NewNop())
	require.NoError(t, p.PublishReading(context.Background(), "dev-1", rd))

	msgs, err := client.XRange(context.Background(), "healthmon:readings:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var ev ReadingEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &ev))
	assert.Equal(t, EventReadingStored, ev.Type)
	assert.Equal(t, "dev-1", ev.DeviceID)
	require.NotNil(t, ev.Reading)
	assert.Equal(t, int64(42), ev.Reading.ID)
	assert.Equal(t, 36.6, *ev.Reading.Temperature)
	assert.Nil(t, ev.Reading.SpO2)
}

func TestStreamPublisher_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	p := NewStreamPublisher(client, "s", 0, zap.NewNop())
	err := p.PublishReading(context.Background(), "", &domain.SensorReading{ID: 1})
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishReading(context.Background(), "", nil))
}
