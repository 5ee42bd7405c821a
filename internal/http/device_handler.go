package httpapi

import (
	"net/http"
	"strings"

	"healthmon/internal/service"

	"go.uber.org/zap"
)

type DeviceHandler struct {
	devices     service.DeviceService
	maxBodySize int64
	logger      *zap.Logger
}

func NewDeviceHandler(devices service.DeviceService, maxBodySize int64, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, maxBodySize: maxBodySize, logger: logger}
}

// ServeDevices /api/devices
func (h *DeviceHandler) ServeDevices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := h.devices.ListDevices(r.Context())
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to fetch devices")
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		fields, err := requestFields(w, r, h.maxBodySize)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to register device")
			return
		}
		d, err := h.devices.RegisterDevice(r.Context(), fields)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to register device")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"device_id": d.DeviceID,
			"status":    d.Status,
		})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// ServeDeviceStatus /api/devices/{device_id}/status
func (h *DeviceHandler) ServeDeviceStatus(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	deviceID, tail, ok := strings.Cut(rest, "/")
	if !ok || deviceID == "" || tail != "status" {
		notFound(w)
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, http.MethodPut)
		return
	}

	fields, err := requestFields(w, r, h.maxBodySize)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update device status")
		return
	}
	if err := h.devices.UpdateStatus(r.Context(), deviceID, fields); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update device status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}
