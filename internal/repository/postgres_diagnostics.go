package repository

import (
	"context"
)

type PostgresDiagnosticsRepo struct {
	gw *Gateway
}

var _ DiagnosticsRepository = (*PostgresDiagnosticsRepo)(nil)

func NewPostgresDiagnosticsRepo(gw *Gateway) *PostgresDiagnosticsRepo {
	return &PostgresDiagnosticsRepo{gw: gw}
}

func (r *PostgresDiagnosticsRepo) Ping(ctx context.Context) error {
	return r.gw.Ping(ctx)
}

// TableCounts 每张表一条 COUNT(*)；表名来自固定列表，不拼接外部输入
func (r *PostgresDiagnosticsRepo) TableCounts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(knownTables))
	for _, table := range knownTables {
		row, err := r.gw.FetchOne(ctx, `SELECT COUNT(*) AS count FROM `+table)
		if err != nil {
			return nil, err
		}
		n, _ := row.Int64("count")
		out[table] = n
	}
	return out, nil
}
