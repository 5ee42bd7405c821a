package repository

import (
	"context"

	"healthmon/internal/domain"
)

// ReadingsRepository 传感器读数Repository接口
// 读数只追加；列表都按最新在前返回
type ReadingsRepository interface {
	CreateReading(ctx context.Context, in NewReading) (int64, error)
	// CreateReadingReturning 写入后返回完整行（含数据库生成的 timestamp）
	CreateReadingReturning(ctx context.Context, in NewReading) (*domain.SensorReading, error)

	ListRecent(ctx context.Context, limit int) ([]*domain.SensorReading, error)
	ListByPatient(ctx context.Context, patientID int, limit int) ([]*domain.SensorReading, error)
}

// NewReading 写入参数；Temperature/SpO2 为 nil 时落库为 NULL
type NewReading struct {
	PatientID   int
	HeartRate   int
	Temperature *float64
	SpO2        *float64
}
