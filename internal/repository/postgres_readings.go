package repository

import (
	"context"
	"fmt"

	"healthmon/internal/domain"
)

const readingColumns = `id, patient_id, heart_rate, temperature, spo2, timestamp`

type PostgresReadingsRepo struct {
	gw *Gateway
}

var _ ReadingsRepository = (*PostgresReadingsRepo)(nil)

func NewPostgresReadingsRepo(gw *Gateway) *PostgresReadingsRepo {
	return &PostgresReadingsRepo{gw: gw}
}

func (r *PostgresReadingsRepo) CreateReading(ctx context.Context, in NewReading) (int64, error) {
	return r.gw.Insert(ctx, `
		INSERT INTO sensor_data (patient_id, heart_rate, temperature, spo2)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		in.PatientID, in.HeartRate, in.Temperature, in.SpO2,
	)
}

func (r *PostgresReadingsRepo) CreateReadingReturning(ctx context.Context, in NewReading) (*domain.SensorReading, error) {
	row, err := r.gw.ExecReturning(ctx, `
		INSERT INTO sensor_data (patient_id, heart_rate, temperature, spo2)
		VALUES ($1, $2, $3, $4)
		RETURNING `+readingColumns,
		in.PatientID, in.HeartRate, in.Temperature, in.SpO2,
	)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: insert returned no row", ErrQuery)
	}
	return readingFromRow(row)
}

// ListRecent id 倒序即插入倒序（timestamp 默认值随 id 单调不减）
func (r *PostgresReadingsRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SensorReading, error) {
	rows, err := r.gw.FetchAll(ctx, `
		SELECT `+readingColumns+`
		FROM sensor_data
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return readingsFromRows(rows)
}

func (r *PostgresReadingsRepo) ListByPatient(ctx context.Context, patientID int, limit int) ([]*domain.SensorReading, error) {
	rows, err := r.gw.FetchAll(ctx, `
		SELECT `+readingColumns+`
		FROM sensor_data
		WHERE patient_id = $1
		ORDER BY id DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return readingsFromRows(rows)
}

func readingsFromRows(rows []Row) ([]*domain.SensorReading, error) {
	out := make([]*domain.SensorReading, 0, len(rows))
	for _, row := range rows {
		rd, err := readingFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, nil
}

func readingFromRow(row Row) (*domain.SensorReading, error) {
	id, ok := row.Int64("id")
	if !ok {
		return nil, fmt.Errorf("%w: sensor_data row without id", ErrQuery)
	}
	patientID, _ := row.Int64("patient_id")
	heartRate, _ := row.Int64("heart_rate")
	return &domain.SensorReading{
		ID:          id,
		PatientID:   int(patientID),
		HeartRate:   int(heartRate),
		Temperature: row.Float64Ptr("temperature"),
		SpO2:        row.Float64Ptr("spo2"),
		Timestamp:   row.TimePtr("timestamp"),
	}, nil
}
