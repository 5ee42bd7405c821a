package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"healthmon/internal/service"

	"go.uber.org/zap"
)

// SensorHandler 读数上报与查询
type SensorHandler struct {
	readings    service.ReadingService
	maxBodySize int64
	logger      *zap.Logger
}

func NewSensorHandler(readings service.ReadingService, maxBodySize int64, logger *zap.Logger) *SensorHandler {
	return &SensorHandler{readings: readings, maxBodySize: maxBodySize, logger: logger}
}

// ServeSensor /api/sensor
func (h *SensorHandler) ServeSensor(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListRecent(w, r)
	case http.MethodPost:
		h.Ingest(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// ServeHealthData /api/health-data：GET 同 /api/sensor，POST 写完整体征
func (h *SensorHandler) ServeHealthData(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListRecent(w, r)
	case http.MethodPost:
		h.RecordVitals(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// ServePatientReadings /api/sensor/patient/{patient_id}[/export]
func (h *SensorHandler) ServePatientReadings(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sensor/patient/"), "/")
	parts := strings.Split(rest, "/")
	if rest == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "export") {
		notFound(w)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	patientID, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid patient ID")
		return
	}

	if len(parts) == 2 {
		h.ExportPatientReadings(w, r, patientID)
		return
	}
	h.ListByPatient(w, r, patientID)
}

func (h *SensorHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	items, err := h.readings.ListRecent(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch data")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *SensorHandler) ListByPatient(w http.ResponseWriter, r *http.Request, patientID int) {
	items, err := h.readings.ListByPatient(r.Context(), patientID, parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch data")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *SensorHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	fields, err := requestFields(w, r, h.maxBodySize)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to insert data")
		return
	}

	resp, err := h.readings.Ingest(r.Context(), fields)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to insert data")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      resp.ID,
		"message": "Data inserted successfully",
	})
}

func (h *SensorHandler) RecordVitals(w http.ResponseWriter, r *http.Request) {
	fields, err := requestFields(w, r, h.maxBodySize)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to record health data")
		return
	}

	rd, err := h.readings.RecordVitals(r.Context(), fields)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to record health data")
		return
	}
	writeJSON(w, http.StatusOK, rd)
}
