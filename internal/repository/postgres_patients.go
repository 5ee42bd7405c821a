package repository

import (
	"context"
	"fmt"

	"healthmon/internal/domain"
)

type PostgresPatientsRepo struct {
	gw *Gateway
}

var _ PatientsRepository = (*PostgresPatientsRepo)(nil)

func NewPostgresPatientsRepo(gw *Gateway) *PostgresPatientsRepo {
	return &PostgresPatientsRepo{gw: gw}
}

func (r *PostgresPatientsRepo) CreatePatient(ctx context.Context, name string, age *int) (int64, error) {
	return r.gw.Insert(ctx,
		`INSERT INTO patients (name, age) VALUES ($1, $2) RETURNING id`,
		name, age,
	)
}

func (r *PostgresPatientsRepo) ListPatients(ctx context.Context) ([]*domain.Patient, error) {
	rows, err := r.gw.FetchAll(ctx, `
		SELECT id, name, age, created_date
		FROM patients
		ORDER BY id`)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Patient, 0, len(rows))
	for _, row := range rows {
		p, err := patientFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func patientFromRow(row Row) (*domain.Patient, error) {
	id, ok := row.Int64("id")
	if !ok {
		return nil, fmt.Errorf("%w: patients row without id", ErrQuery)
	}
	p := &domain.Patient{
		ID:   id,
		Name: row.String("name"),
		Age:  row.IntPtr("age"),
	}
	if t, ok := row.Time("created_date"); ok {
		p.CreatedDate = t
	}
	return p, nil
}
