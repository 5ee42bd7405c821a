package service

import (
	"context"
	"strings"

	"healthmon/internal/domain"
	"healthmon/internal/repository"

	"go.uber.org/zap"
)

// DeviceService 设备登记与状态
type DeviceService interface {
	// RegisterDevice 显式登记（POST /api/devices）
	RegisterDevice(ctx context.Context, f Fields) (*domain.Device, error)
	// UpdateStatus 没有命中设备时返回 ErrDeviceNotFound
	UpdateStatus(ctx context.Context, deviceID string, f Fields) error
	ListDevices(ctx context.Context) ([]*domain.Device, error)
}

type deviceService struct {
	devices repository.DevicesRepository
	logger  *zap.Logger
}

func NewDeviceService(devices repository.DevicesRepository, logger *zap.Logger) DeviceService {
	return &deviceService{devices: devices, logger: logger}
}

func (s *deviceService) RegisterDevice(ctx context.Context, f Fields) (*domain.Device, error) {
	raw, _ := f.Get("device_id")
	deviceID := strings.TrimSpace(raw)
	if deviceID == "" || deviceID == domain.UnknownDeviceID {
		return nil, invalid("device_id", "device_id is required")
	}

	pid, err := optionalInt(f, "patient_id")
	if err != nil {
		return nil, err
	}
	if pid != nil && (*pid <= domain.MinPatientID || *pid >= domain.MaxPatientID) {
		return nil, invalid("patient_id", "Invalid patient ID")
	}

	if err := s.devices.RegisterDevice(ctx, deviceID, pid); err != nil {
		s.logger.Error("Failed to register device",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return nil, err
	}
	// upsert 不改已有设备的 status，显式登记要重新置为 active
	if _, err := s.devices.UpdateStatus(ctx, deviceID, domain.DeviceStatusActive); err != nil {
		s.logger.Error("Failed to activate device",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return nil, err
	}
	return &domain.Device{DeviceID: deviceID, PatientID: pid, Status: domain.DeviceStatusActive}, nil
}

func (s *deviceService) UpdateStatus(ctx context.Context, deviceID string, f Fields) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return invalid("device_id", "device_id is required")
	}
	raw, _ := f.Get("status")
	status := strings.TrimSpace(raw)
	if status == "" {
		return invalid("status", "status is required")
	}

	ok, err := s.devices.UpdateStatus(ctx, deviceID, status)
	if err != nil {
		s.logger.Error("Failed to update device status",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return err
	}
	if !ok {
		s.logger.Warn("Device not found", zap.String("device_id", deviceID))
		return ErrDeviceNotFound
	}
	return nil
}

func (s *deviceService) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	items, err := s.devices.ListDevices(ctx)
	if err != nil {
		s.logger.Error("ListDevices failed", zap.Error(err))
		return nil, err
	}
	return items, nil
}
