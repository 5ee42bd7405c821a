package domain

import "time"

// Patient 患者（对应 patients 表）
type Patient struct {
	ID          int64     `json:"id"`           // SERIAL
	Name        string    `json:"name"`         // NOT NULL
	Age         *int      `json:"age"`          // nullable
	CreatedDate time.Time `json:"created_date"` // 插入时由数据库生成，之后不变
}

// 启动时 patients 表为空则写入这一行
const (
	SeedPatientID   = 1
	SeedPatientName = "Test Patient"
	SeedPatientAge  = 30
)
