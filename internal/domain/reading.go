package domain

import "time"

// SensorReading 传感器读数（对应 sensor_data 表），只追加不修改
type SensorReading struct {
	ID          int64      `json:"id"`          // BIGSERIAL
	PatientID   int        `json:"patient_id"`  // 不做外键约束
	HeartRate   int        `json:"heart_rate"`  // bpm
	Temperature *float64   `json:"temperature"` // 摄氏度, nullable
	SpO2        *float64   `json:"spo2"`        // 百分比, nullable
	Timestamp   *time.Time `json:"timestamp"`   // 插入时间
}

// 读数校验范围
const (
	MinPatientID   = 0 // 开区间
	MaxPatientID   = 1000
	MinHeartRate   = 30
	MaxHeartRate   = 200
	MinTemperature = 20.0
	MaxTemperature = 45.0
	MinSpO2        = 0.0
	MaxSpO2        = 100.0
)
