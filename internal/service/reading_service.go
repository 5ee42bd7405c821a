package service

import (
	"context"
	"fmt"
	"strings"

	"healthmon/internal/domain"
	"healthmon/internal/events"
	"healthmon/internal/repository"

	"go.uber.org/zap"
)

// ReadingService 读数写入与查询
type ReadingService interface {
	// Ingest 设备上报一条读数（POST /api/sensor、MQTT）
	Ingest(ctx context.Context, f Fields) (*IngestResponse, error)
	// RecordVitals 完整体征（POST /api/health-data），三个字段都必填
	RecordVitals(ctx context.Context, f Fields) (*domain.SensorReading, error)

	ListRecent(ctx context.Context, limit int) ([]*domain.SensorReading, error)
	ListByPatient(ctx context.Context, patientID int, limit int) ([]*domain.SensorReading, error)
}

// IngestResponse 写入结果
type IngestResponse struct {
	ID       int64
	DeviceID string // 未提供或为 "unknown" 时为空
}

// ListLimits 列表条数：<=0 用默认值，超过上限截断
type ListLimits struct {
	Default int
	Max     int
}

func (l ListLimits) normalize(limit int) int {
	if limit <= 0 {
		limit = l.Default
	}
	if l.Max > 0 && limit > l.Max {
		limit = l.Max
	}
	return limit
}

type readingService struct {
	readings  repository.ReadingsRepository
	devices   repository.DevicesRepository
	publisher events.ReadingPublisher
	limits    ListLimits
	logger    *zap.Logger
}

// NewReadingService publisher 为 nil 时不广播
func NewReadingService(
	readings repository.ReadingsRepository,
	devices repository.DevicesRepository,
	publisher events.ReadingPublisher,
	limits ListLimits,
	logger *zap.Logger,
) ReadingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &readingService{
		readings:  readings,
		devices:   devices,
		publisher: publisher,
		limits:    limits,
		logger:    logger,
	}
}

// validateIngest 读数校验，失败时不做任何存储调用
func validateIngest(f Fields) (repository.NewReading, error) {
	var in repository.NewReading

	pid, err := intField(f, "patient_id")
	if err != nil {
		return in, err
	}
	if pid <= domain.MinPatientID || pid >= domain.MaxPatientID {
		return in, invalid("patient_id", "Invalid patient ID")
	}

	hr, err := intField(f, "heart_rate", "pulse_rate")
	if err != nil {
		return in, err
	}
	if hr < domain.MinHeartRate || hr > domain.MaxHeartRate {
		return in, invalid("heart_rate", "Invalid pulse rate")
	}

	temp, err := optionalFloat(f, "temperature")
	if err != nil {
		return in, err
	}
	if temp != nil && (*temp < domain.MinTemperature || *temp > domain.MaxTemperature) {
		return in, invalid("temperature", "Invalid temperature")
	}

	spo2, err := optionalFloat(f, "spo2", "oxygen_level")
	if err != nil {
		return in, err
	}
	if spo2 != nil && (*spo2 < domain.MinSpO2 || *spo2 > domain.MaxSpO2) {
		return in, invalid("spo2", "Invalid oxygen level")
	}

	in.PatientID = pid
	in.HeartRate = hr
	in.Temperature = temp
	in.SpO2 = spo2
	return in, nil
}

func deviceIDFrom(f Fields) string {
	raw, ok := f.Get("device_id")
	if !ok {
		return ""
	}
	id := strings.TrimSpace(raw)
	if id == domain.UnknownDeviceID {
		return ""
	}
	return id
}

func (s *readingService) Ingest(ctx context.Context, f Fields) (*IngestResponse, error) {
	// 1. 校验
	in, err := validateIngest(f)
	if err != nil {
		return nil, err
	}
	deviceID := deviceIDFrom(f)

	// 2. 写入
	rd, err := s.readings.CreateReadingReturning(ctx, in)
	if err != nil {
		s.logger.Error("Failed to store reading",
			zap.Int("patient_id", in.PatientID),
			zap.Error(err),
		)
		return nil, err
	}

	// 3. 设备登记（失败只记日志，读数已经落库）
	if deviceID != "" {
		s.touchDevice(ctx, deviceID, in.PatientID)
	}

	// 4. 广播落库后的行（时间戳以数据库为准）
	s.publish(ctx, deviceID, rd)

	s.logger.Info("Reading stored",
		zap.Int64("id", rd.ID),
		zap.Int("patient_id", in.PatientID),
		zap.String("device_id", deviceID),
	)
	return &IngestResponse{ID: rd.ID, DeviceID: deviceID}, nil
}

func (s *readingService) touchDevice(ctx context.Context, deviceID string, patientID int) {
	pid := patientID
	if err := s.devices.RegisterDevice(ctx, deviceID, &pid); err != nil {
		s.logger.Warn("Failed to register device",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return
	}
	if _, err := s.devices.UpdateStatus(ctx, deviceID, domain.DeviceStatusActive); err != nil {
		s.logger.Warn("Failed to update device status",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}
}

func (s *readingService) publish(ctx context.Context, deviceID string, rd *domain.SensorReading) {
	if err := s.publisher.PublishReading(ctx, deviceID, rd); err != nil {
		s.logger.Warn("Reading event dropped",
			zap.Int64("id", rd.ID),
			zap.Error(err),
		)
	}
}

func (s *readingService) RecordVitals(ctx context.Context, f Fields) (*domain.SensorReading, error) {
	// patient_id 缺省为 1
	pid := domain.SeedPatientID
	if p, err := optionalInt(f, "patient_id"); err != nil {
		return nil, err
	} else if p != nil {
		pid = *p
	}
	if pid <= domain.MinPatientID || pid >= domain.MaxPatientID {
		return nil, invalid("patient_id", "Invalid patient ID")
	}

	hr, err := intField(f, "heart_rate")
	if err != nil {
		return nil, err
	}
	if hr < domain.MinHeartRate || hr > domain.MaxHeartRate {
		return nil, invalid("heart_rate", "Invalid pulse rate")
	}

	temp, err := requiredFloat(f, "temperature")
	if err != nil {
		return nil, err
	}
	if temp < domain.MinTemperature || temp > domain.MaxTemperature {
		return nil, invalid("temperature", "Invalid temperature")
	}

	spo2, err := requiredFloat(f, "spo2")
	if err != nil {
		return nil, err
	}
	if spo2 < domain.MinSpO2 || spo2 > domain.MaxSpO2 {
		return nil, invalid("spo2", "Invalid oxygen level")
	}

	rd, err := s.readings.CreateReadingReturning(ctx, repository.NewReading{
		PatientID:   pid,
		HeartRate:   hr,
		Temperature: &temp,
		SpO2:        &spo2,
	})
	if err != nil {
		s.logger.Error("Failed to record vitals",
			zap.Int("patient_id", pid),
			zap.Error(err),
		)
		return nil, err
	}

	s.publish(ctx, "", rd)
	return rd, nil
}

func requiredFloat(f Fields, name string) (float64, error) {
	v, err := optionalFloat(f, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, invalid(name, "Missing required field: "+name)
	}
	return *v, nil
}

func (s *readingService) ListRecent(ctx context.Context, limit int) ([]*domain.SensorReading, error) {
	items, err := s.readings.ListRecent(ctx, s.limits.normalize(limit))
	if err != nil {
		s.logger.Error("ListRecent failed", zap.Error(err))
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return items, nil
}

func (s *readingService) ListByPatient(ctx context.Context, patientID int, limit int) ([]*domain.SensorReading, error) {
	items, err := s.readings.ListByPatient(ctx, patientID, s.limits.normalize(limit))
	if err != nil {
		s.logger.Error("ListByPatient failed",
			zap.Int("patient_id", patientID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list readings for patient %d: %w", patientID, err)
	}
	return items, nil
}
