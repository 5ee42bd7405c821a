package repository

import (
	"strconv"
	"time"
)

// Row 一行结果：列名 -> 值，调用方不依赖列顺序
type Row map[string]any

// Int64 整型列；驱动可能给 int64/int32/float64/string
func (r Row) Int64(col string) (int64, bool) {
	switch v := r[col].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// IntPtr 可空整型列
func (r Row) IntPtr(col string) *int {
	i, ok := r.Int64(col)
	if !ok {
		return nil
	}
	n := int(i)
	return &n
}

// Float64Ptr 可空浮点列（NUMERIC 在 lib/pq 里是字符串）
func (r Row) Float64Ptr(col string) *float64 {
	var f float64
	switch v := r[col].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func (r Row) Time(col string) (time.Time, bool) {
	t, ok := r[col].(time.Time)
	return t, ok
}

func (r Row) TimePtr(col string) *time.Time {
	t, ok := r.Time(col)
	if !ok {
		return nil
	}
	return &t
}
