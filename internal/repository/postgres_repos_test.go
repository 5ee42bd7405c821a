package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresReadingsRepo_CreateReading(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	temp := 36.6
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO sensor_data`).
		WithArgs(5, 72, 36.6, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	id, err := NewPostgresReadingsRepo(gw).CreateReading(context.Background(), NewReading{
		PatientID: 5, HeartRate: 72, Temperature: &temp,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadingsRepo_CreateReadingReturning(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	temp, spo2 := 37.1, 98.0
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO sensor_data (.+) RETURNING id, patient_id, heart_rate, temperature, spo2, timestamp`).
		WithArgs(1, 88, 37.1, 98.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "heart_rate", "temperature", "spo2", "timestamp"}).
			AddRow(int64(4), int64(1), int64(88), 37.1, 98.0, ts))
	mock.ExpectCommit()

	rd, err := NewPostgresReadingsRepo(gw).CreateReadingReturning(context.Background(), NewReading{
		PatientID: 1, HeartRate: 88, Temperature: &temp, SpO2: &spo2,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(4), rd.ID)
	assert.Equal(t, 88, rd.HeartRate)
	assert.Equal(t, 98.0, *rd.SpO2)
	require.NotNil(t, rd.Timestamp)
	assert.True(t, ts.Equal(*rd.Timestamp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadingsRepo_ListByPatient(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	ts := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "patient_id", "heart_rate", "temperature", "spo2", "timestamp"}).
		AddRow(int64(9), int64(5), int64(75), nil, nil, ts).
		AddRow(int64(3), int64(5), int64(72), 36.6, 97.5, ts.Add(-time.Minute))
	mock.ExpectQuery(`FROM sensor_data\s+WHERE patient_id = \$1\s+ORDER BY id DESC\s+LIMIT \$2`).
		WithArgs(5, 100).
		WillReturnRows(rows)

	list, err := NewPostgresReadingsRepo(gw).ListByPatient(context.Background(), 5, 100)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(9), list[0].ID)
	assert.Nil(t, list[0].Temperature)
	assert.Nil(t, list[0].SpO2)
	assert.Equal(t, int64(3), list[1].ID)
	assert.Equal(t, 36.6, *list[1].Temperature)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReadingsRepo_ListRecent_Empty(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER BY id DESC\s+LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "heart_rate", "temperature", "spo2", "timestamp"}))

	list, err := NewPostgresReadingsRepo(gw).ListRecent(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Len(t, list, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPatientsRepo(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	repo := NewPostgresPatientsRepo(gw)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO patients`).
		WithArgs("Jane Doe", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	id, err := repo.CreatePatient(context.Background(), "Jane Doe", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, name, age, created_date\s+FROM patients`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age", "created_date"}).
			AddRow(int64(1), "Test Patient", int64(30), created).
			AddRow(int64(2), "Jane Doe", nil, created))

	list, err := repo.ListPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 30, *list[0].Age)
	assert.Nil(t, list[1].Age)
	assert.Equal(t, "Jane Doe", list[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDevicesRepo_RegisterKeepsPatientWhenNil(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`patient_id = COALESCE(EXCLUDED.patient_id, devices.patient_id)`)).
		WithArgs("dev-1", nil, "active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresDevicesRepo(gw).RegisterDevice(context.Background(), "dev-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDevicesRepo_UpdateStatus(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	repo := NewPostgresDevicesRepo(gw)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE devices`).
		WithArgs("active", "dev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	ok, err := repo.UpdateStatus(context.Background(), "dev-1", "active")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE devices`).
		WithArgs("active", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	ok, err = repo.UpdateStatus(context.Background(), "ghost", "active")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDiagnosticsRepo_TableCounts(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	for i, table := range []string{"patients", "sensor_data", "devices"} {
		mock.ExpectQuery(`SELECT COUNT\(\*\) AS count FROM ` + table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(i + 1)))
	}

	counts, err := NewPostgresDiagnosticsRepo(gw).TableCounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"patients": 1, "sensor_data": 2, "devices": 3}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
