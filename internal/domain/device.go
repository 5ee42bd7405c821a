package domain

import "time"

// Device 设备（对应 devices 表），按 device_id upsert
type Device struct {
	DeviceID  string    `json:"device_id"`
	PatientID *int      `json:"patient_id"` // 首次注册写入；后续只有非空值才覆盖
	Status    string    `json:"status"`
	LastSeen  time.Time `json:"last_seen"`
}

const (
	DeviceStatusActive = "active"

	// 设备端没配置 id 时会上报这个值，视同未提供
	UnknownDeviceID = "unknown"
)
