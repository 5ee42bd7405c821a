package repository

import (
	"context"
	"errors"
	"fmt"

	"healthmon/internal/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrSchema 建表/种子数据失败
var ErrSchema = errors.New("schema initialization failed")

type schemaStatement struct {
	name  string
	query string
}

// 三张表 + 索引；全部 IF NOT EXISTS，每次启动都可以重复执行
var schemaStatements = []schemaStatement{
	{"patients", `
		CREATE TABLE IF NOT EXISTS patients (
			id           SERIAL PRIMARY KEY,
			name         VARCHAR(100) NOT NULL,
			age          INTEGER,
			created_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"sensor_data", `
		CREATE TABLE IF NOT EXISTS sensor_data (
			id          BIGSERIAL PRIMARY KEY,
			patient_id  INTEGER NOT NULL,
			heart_rate  INTEGER NOT NULL,
			temperature DOUBLE PRECISION,
			spo2        DOUBLE PRECISION,
			timestamp   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"idx_sensor_data_patient", `
		CREATE INDEX IF NOT EXISTS idx_sensor_data_patient
			ON sensor_data (patient_id, id DESC)`},
	{"devices", `
		CREATE TABLE IF NOT EXISTS devices (
			device_id  VARCHAR(100) PRIMARY KEY,
			patient_id INTEGER,
			status     VARCHAR(20) NOT NULL DEFAULT 'active',
			last_seen  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
}

// SchemaManager 启动时确保表存在并写入默认患者
type SchemaManager struct {
	gw     *Gateway
	logger *zap.Logger
}

func NewSchemaManager(gw *Gateway, logger *zap.Logger) *SchemaManager {
	return &SchemaManager{gw: gw, logger: logger}
}

// EnsureSchema 建表后检查 patients 是否为空，为空才写入种子行。
// 先查后插没有事务保护，假定只有一个进程在做初始化。
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	for _, st := range schemaStatements {
		if _, err := m.gw.Exec(ctx, st.query); err != nil {
			m.logger.Error("Failed to ensure schema object",
				zap.String("object", st.name),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %s: %w", ErrSchema, st.name, err)
		}
	}

	seeded, err := m.seedPatient(ctx)
	if err != nil {
		m.logger.Error("Failed to seed default patient", zap.Error(err))
		return fmt.Errorf("%w: seed: %w", ErrSchema, err)
	}

	m.logger.Info("Schema ready",
		zap.Int("tables", len(schemaStatements)-1),
		zap.Bool("seeded_patient", seeded),
	)
	return nil
}

func (m *SchemaManager) seedPatient(ctx context.Context) (bool, error) {
	row, err := m.gw.FetchOne(ctx, `SELECT COUNT(*) AS count FROM patients`)
	if err != nil {
		return false, err
	}
	if n, _ := row.Int64("count"); n > 0 {
		return false, nil
	}

	if _, err := m.gw.Exec(ctx,
		`INSERT INTO patients (id, name, age) VALUES ($1, $2, $3)`,
		domain.SeedPatientID, domain.SeedPatientName, domain.SeedPatientAge,
	); err != nil {
		return false, err
	}

	// 显式写了 id，序列要跟上，否则下一次 CreatePatient 会撞主键
	if _, err := m.gw.FetchOne(ctx,
		`SELECT setval(pg_get_serial_sequence('patients', 'id'), (SELECT MAX(id) FROM patients)) AS seq`,
	); err != nil {
		return true, err
	}
	return true, nil
}

// EnsureDatabase 用管理员连接检查目标库，不存在就创建（Postgres 没有 CREATE DATABASE IF NOT EXISTS）
func EnsureDatabase(ctx context.Context, admin *Gateway, name string, logger *zap.Logger) error {
	row, err := admin.FetchOne(ctx, `SELECT 1 AS found FROM pg_database WHERE datname = $1`, name)
	if err != nil {
		return fmt.Errorf("%w: check database: %w", ErrSchema, err)
	}
	if row != nil {
		logger.Info("Database exists", zap.String("database", name))
		return nil
	}

	if err := admin.Run(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("%w: create database: %w", ErrSchema, err)
	}
	logger.Info("Database created", zap.String("database", name))
	return nil
}
