package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockGateway(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Gateway) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gw := NewGateway(db, zap.NewNop())
	gw.SetTarget("host=test port=5432 user=test password=**** dbname=test sslmode=disable")
	return db, mock, gw
}

func TestGateway_Insert_CommitsAndReturnsID(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	age := 40
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO patients`).
		WithArgs("Jane Doe", 40).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	id, err := gw.Insert(context.Background(), `INSERT INTO patients (name, age) VALUES ($1, $2) RETURNING id`, "Jane Doe", &age)

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_Insert_RollsBackOnQueryError(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO sensor_data`).
		WillReturnError(errors.New("relation \"sensor_data\" does not exist"))
	mock.ExpectRollback()

	_, err := gw.Insert(context.Background(), `INSERT INTO sensor_data (patient_id) VALUES ($1) RETURNING id`, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuery))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "does not exist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_Exec_ReturnsRowsAffected(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE devices`).
		WithArgs("inactive", "dev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := gw.Exec(context.Background(), `UPDATE devices SET status = $1 WHERE device_id = $2`, "inactive", "dev-1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_Exec_CommitFailure(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE devices`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	_, err := gw.Exec(context.Background(), `UPDATE devices SET status = 'x'`)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuery))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_BeginFailureIsUnavailable(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection reset by peer"))

	_, err := gw.Exec(context.Background(), `UPDATE devices SET status = 'x'`)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_ClosedPoolIsUnavailable(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	mock.ExpectClose()
	require.NoError(t, db.Close())

	_, err := gw.FetchAll(context.Background(), `SELECT 1`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = gw.Insert(context.Background(), `INSERT INTO patients (name) VALUES ($1) RETURNING id`, "x")
	assert.True(t, errors.Is(err, ErrUnavailable))

	assert.True(t, errors.Is(gw.Ping(context.Background()), ErrUnavailable))
}

func TestGateway_FetchAll_MapsColumnsByName(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"timestamp", "heart_rate", "id", "temperature"}).
		AddRow(ts, int64(72), int64(2), 36.6).
		AddRow(ts, int64(80), int64(1), nil)
	mock.ExpectQuery(`SELECT (.+) FROM sensor_data`).WillReturnRows(rows)

	out, err := gw.FetchAll(context.Background(), `SELECT id, heart_rate, temperature, timestamp FROM sensor_data`)

	require.NoError(t, err)
	require.Len(t, out, 2)
	id, ok := out[0].Int64("id")
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
	require.NotNil(t, out[0].Float64Ptr("temperature"))
	assert.Equal(t, 36.6, *out[0].Float64Ptr("temperature"))
	assert.Nil(t, out[1].Float64Ptr("temperature"))
	got, ok := out[1].Time("timestamp")
	assert.True(t, ok)
	assert.True(t, ts.Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_FetchOne_NoRows(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectQuery(`FROM pg_database`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"found"}))

	row, err := gw.FetchOne(context.Background(), `SELECT 1 AS found FROM pg_database WHERE datname = $1`, "missing")

	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_FetchAll_QueryError(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("syntax error"))

	_, err := gw.FetchAll(context.Background(), `SELECT nope`)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuery))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_ExecReturning(t *testing.T) {
	db, mock, gw := setupMockGateway(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO sensor_data`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "heart_rate"}).AddRow(int64(3), int64(90)))
	mock.ExpectCommit()

	row, err := gw.ExecReturning(context.Background(), `INSERT INTO sensor_data (heart_rate) VALUES ($1) RETURNING id, heart_rate`, 90)

	require.NoError(t, err)
	hr, _ := row.Int64("heart_rate")
	assert.Equal(t, int64(90), hr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementLabel(t *testing.T) {
	assert.Equal(t, "SELECT id FROM patients", statementLabel("\n\t\tSELECT id\n\t\tFROM patients"))
	long := statementLabel("SELECT " + string(make([]byte, 200)))
	assert.LessOrEqual(t, len(long), 83)
}

func TestRow_Conversions(t *testing.T) {
	r := Row{"a": "12", "b": int32(5), "c": "36.6", "d": "x", "e": nil}

	a, ok := r.Int64("a")
	assert.True(t, ok)
	assert.Equal(t, int64(12), a)
	assert.Equal(t, 5, *r.IntPtr("b"))
	assert.Equal(t, 36.6, *r.Float64Ptr("c"))
	assert.Nil(t, r.Float64Ptr("d"))
	assert.Nil(t, r.IntPtr("e"))
	assert.Nil(t, r.TimePtr("e"))
	assert.Equal(t, "x", r.String("d"))
	assert.Equal(t, "", r.String("missing"))
}
