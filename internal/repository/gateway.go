package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable 拿不到连接（库不可达/认证失败）
	ErrUnavailable = errors.New("database unavailable")
	// ErrQuery 语句执行失败（已回滚）
	ErrQuery = errors.New("query failed")
)

// Gateway 每次调用独占一条连接、只执行一条语句，任何返回路径上都会释放连接。
// 写语句在事务里执行：成功提交，失败显式回滚。
type Gateway struct {
	db     *sql.DB
	logger *zap.Logger
	target string
}

func NewGateway(db *sql.DB, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{db: db, logger: logger}
}

// SetTarget 记录连接目标（已打码），连接失败时写进日志
func (g *Gateway) SetTarget(target string) {
	g.target = target
}

// Ping 连通性检查
func (g *Gateway) Ping(ctx context.Context) error {
	conn, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		g.logConnError(err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Insert 执行带 RETURNING id 的写语句，返回新行 id
func (g *Gateway) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := g.mutate(ctx, query, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Exec 执行写语句，返回影响行数
func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := g.mutate(ctx, query, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ExecReturning 执行带 RETURNING 的写语句，返回第一行（没有行时为 nil）
func (g *Gateway) ExecReturning(ctx context.Context, query string, args ...any) (Row, error) {
	var out Row
	err := g.mutate(ctx, query, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		list, err := scanRows(rows, 1)
		if err != nil {
			return err
		}
		if len(list) > 0 {
			out = list[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Run 执行不能放进事务块的语句（如 CREATE DATABASE）
func (g *Gateway) Run(ctx context.Context, query string, args ...any) error {
	conn, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		g.logQueryError(query, err)
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return nil
}

// FetchAll 查询多行，按列名返回
func (g *Gateway) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	return g.fetch(ctx, query, 0, args...)
}

// FetchOne 查询单行；没有结果时返回 (nil, nil)
func (g *Gateway) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := g.fetch(ctx, query, 1, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (g *Gateway) fetch(ctx context.Context, query string, limit int, args ...any) ([]Row, error) {
	conn, err := g.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		g.logQueryError(query, err)
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	out, err := scanRows(rows, limit)
	if err != nil {
		g.logQueryError(query, err)
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return out, nil
}

func (g *Gateway) mutate(ctx context.Context, query string, fn func(tx *sql.Tx) error) error {
	conn, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		g.logConnError(err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			g.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		g.logQueryError(query, err)
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}

	if err := tx.Commit(); err != nil {
		g.logQueryError(query, err)
		return fmt.Errorf("%w: commit: %w", ErrQuery, err)
	}
	return nil
}

func (g *Gateway) acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		g.logConnError(err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return conn, nil
}

func (g *Gateway) logConnError(err error) {
	g.logger.Error("Database connection failed",
		zap.String("target", g.target),
		zap.Error(err),
	)
}

func (g *Gateway) logQueryError(query string, err error) {
	g.logger.Error("Database query failed",
		zap.String("statement", statementLabel(query)),
		zap.Error(err),
	)
}

// statementLabel 日志里只保留语句开头，去掉换行和多余空白
func statementLabel(query string) string {
	s := strings.Join(strings.Fields(query), " ")
	if len(s) > 80 {
		s = s[:80] + "..."
	}
	return s
}

func scanRows(rows *sql.Rows, limit int) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[c] = v
		}
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}
