package repository

import (
	"context"

	"healthmon/internal/domain"
)

// DevicesRepository 设备Repository接口
type DevicesRepository interface {
	// RegisterDevice 按 device_id upsert：已存在则刷新 last_seen，
	// patientID 非空时才覆盖原来的 patient_id
	RegisterDevice(ctx context.Context, deviceID string, patientID *int) error

	// UpdateStatus 命中并更新了一行才返回 true
	UpdateStatus(ctx context.Context, deviceID, status string) (bool, error)

	ListDevices(ctx context.Context) ([]*domain.Device, error)
}
