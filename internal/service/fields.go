package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Fields 按字段名取原始值；JSON、表单、查询串都统一成字符串。
// 第二个返回值为 false 表示字段不存在（JSON null 也视为不存在）。
type Fields interface {
	Get(name string) (string, bool)
}

// MapFields 最简单的 Fields 实现，JSON 请求体和 MQTT 消息都解析成它
type MapFields map[string]string

func (m MapFields) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// ErrInvalidJSON 请求体不是 JSON 对象
var ErrInvalidJSON = &PayloadError{Message: "Invalid JSON payload"}

// ParseJSONFields 把 JSON 对象的顶层字段转成 MapFields。
// 数字保留原始文本，null 丢弃；嵌套对象/数组原样保留文本，后续按类型解析时会报错。
func ParseJSONFields(body []byte) (MapFields, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, ErrInvalidJSON
	}
	if raw == nil {
		return nil, ErrInvalidJSON
	}
	// 对象后面只允许空白
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrInvalidJSON
	}

	out := make(MapFields, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			b, _ := json.Marshal(t)
			out[k] = string(b)
		}
	}
	return out, nil
}

// firstOf 取第一个非空的字段（别名，如 heart_rate / pulse_rate）；
// 全部缺失或为空时返回第一个名字
func firstOf(f Fields, names ...string) (string, string, bool) {
	for _, n := range names {
		if v, ok := f.Get(n); ok && strings.TrimSpace(v) != "" {
			return n, v, true
		}
	}
	return names[0], "", false
}

var errNotInteger = errors.New("not an integer")

// parseInt 接受 "72" 和 "72.0"，拒绝带小数部分的值
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotInteger
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errNotInteger
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a number")
	}
	return f, nil
}

// intField 必填整数字段
func intField(f Fields, names ...string) (int, error) {
	name, raw, ok := firstOf(f, names...)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, invalid(name, "Missing required field: "+name)
	}
	v, err := parseInt(raw)
	if err != nil {
		return 0, badType(name, "an integer")
	}
	return v, nil
}

// optionalFloat 缺失或空字符串返回 nil
func optionalFloat(f Fields, names ...string) (*float64, error) {
	name, raw, ok := firstOf(f, names...)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parseFloat(raw)
	if err != nil {
		return nil, badType(name, "a number")
	}
	return &v, nil
}

// optionalInt 缺失或空字符串返回 nil
func optionalInt(f Fields, names ...string) (*int, error) {
	name, raw, ok := firstOf(f, names...)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parseInt(raw)
	if err != nil {
		return nil, badType(name, "an integer")
	}
	return &v, nil
}
