package repository

import "context"

// DiagnosticsRepository /api/test-db, /api/debug-db 用
type DiagnosticsRepository interface {
	Ping(ctx context.Context) error
	// TableCounts 表名 -> 行数
	TableCounts(ctx context.Context) (map[string]int64, error)
}

// 诊断接口统计的表
var knownTables = []string{"patients", "sensor_data", "devices"}
