package service

import (
	"errors"
	"fmt"
)

// ValidationError 字段值不在允许范围内或缺少必填字段，不会触达存储
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PayloadError 请求体无法解析，或数值字段类型不对
type PayloadError struct {
	Field   string
	Message string
}

func (e *PayloadError) Error() string {
	return e.Message
}

// ErrDeviceNotFound 状态更新没有命中任何设备
var ErrDeviceNotFound = errors.New("device not found")

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func badType(field, kind string) error {
	return &PayloadError{Field: field, Message: fmt.Sprintf("%s must be %s", field, kind)}
}

// IsValidation 校验类错误（ValidationError / PayloadError），对应 400
func IsValidation(err error) bool {
	var ve *ValidationError
	var pe *PayloadError
	return errors.As(err, &ve) || errors.As(err, &pe)
}
