package repository

import (
	"context"

	"healthmon/internal/domain"
)

// PatientsRepository 患者Repository接口（只建不改不删）
type PatientsRepository interface {
	// CreatePatient 返回新患者 id；age 可为空
	CreatePatient(ctx context.Context, name string, age *int) (int64, error)
	// ListPatients 按 id 升序
	ListPatients(ctx context.Context) ([]*domain.Patient, error)
}
