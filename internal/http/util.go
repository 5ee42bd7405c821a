package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"healthmon/internal/repository"
	"healthmon/internal/service"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 所有错误响应都是 {"error": "..."}
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Not found")
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// writeServiceError 把 service / repository 错误映射成状态码：
// 校验 400，设备不存在 404，连不上库 500 + 固定文案，其余 500 + fallback
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var ve *service.ValidationError
	var pe *service.PayloadError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &pe):
		writeError(w, http.StatusBadRequest, pe.Message)
	case errors.Is(err, service.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "Device not found")
	case errors.Is(err, repository.ErrUnavailable):
		writeError(w, http.StatusInternalServerError, "Database connection failed")
	default:
		logger.Debug("Request failed", zap.String("response", fallback), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
