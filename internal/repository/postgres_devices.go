package repository

import (
	"context"

	"healthmon/internal/domain"
)

type PostgresDevicesRepo struct {
	gw *Gateway
}

var _ DevicesRepository = (*PostgresDevicesRepo)(nil)

func NewPostgresDevicesRepo(gw *Gateway) *PostgresDevicesRepo {
	return &PostgresDevicesRepo{gw: gw}
}

func (r *PostgresDevicesRepo) RegisterDevice(ctx context.Context, deviceID string, patientID *int) error {
	_, err := r.gw.Exec(ctx, `
		INSERT INTO devices (device_id, patient_id, status, last_seen)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (device_id)
		DO UPDATE SET patient_id = COALESCE(EXCLUDED.patient_id, devices.patient_id),
		              last_seen = NOW()`,
		deviceID, patientID, domain.DeviceStatusActive,
	)
	return err
}

func (r *PostgresDevicesRepo) UpdateStatus(ctx context.Context, deviceID, status string) (bool, error) {
	n, err := r.gw.Exec(ctx, `
		UPDATE devices
		SET status = $1, last_seen = NOW()
		WHERE device_id = $2`,
		status, deviceID,
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresDevicesRepo) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	rows, err := r.gw.FetchAll(ctx, `
		SELECT device_id, patient_id, status, last_seen
		FROM devices
		ORDER BY last_seen DESC, device_id`)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Device, 0, len(rows))
	for _, row := range rows {
		d := &domain.Device{
			DeviceID:  row.String("device_id"),
			PatientID: row.IntPtr("patient_id"),
			Status:    row.String("status"),
		}
		if t, ok := row.Time("last_seen"); ok {
			d.LastSeen = t
		}
		out = append(out, d)
	}
	return out, nil
}
