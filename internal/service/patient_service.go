package service

import (
	"context"
	"strings"

	"healthmon/internal/domain"
	"healthmon/internal/repository"

	"go.uber.org/zap"
)

// PatientService 患者服务
type PatientService interface {
	CreatePatient(ctx context.Context, f Fields) (int64, error)
	ListPatients(ctx context.Context) ([]*domain.Patient, error)
}

type patientService struct {
	patients repository.PatientsRepository
	logger   *zap.Logger
}

func NewPatientService(patients repository.PatientsRepository, logger *zap.Logger) PatientService {
	return &patientService{patients: patients, logger: logger}
}

// CreatePatient name 去掉首尾空白后不能为空；age 可选
func (s *patientService) CreatePatient(ctx context.Context, f Fields) (int64, error) {
	raw, _ := f.Get("name")
	name := strings.TrimSpace(raw)
	if name == "" {
		return 0, invalid("name", "Patient name is required")
	}

	age, err := optionalInt(f, "age")
	if err != nil {
		return 0, err
	}
	if age != nil && *age < 0 {
		return 0, invalid("age", "Invalid age")
	}

	id, err := s.patients.CreatePatient(ctx, name, age)
	if err != nil {
		s.logger.Error("Failed to create patient", zap.Error(err))
		return 0, err
	}
	s.logger.Info("Patient created", zap.Int64("patient_id", id))
	return id, nil
}

func (s *patientService) ListPatients(ctx context.Context) ([]*domain.Patient, error) {
	items, err := s.patients.ListPatients(ctx)
	if err != nil {
		s.logger.Error("ListPatients failed", zap.Error(err))
		return nil, err
	}
	return items, nil
}
