package httpapi

import (
	"net/http"

	"healthmon/internal/service"

	"go.uber.org/zap"
)

type PatientHandler struct {
	patients    service.PatientService
	maxBodySize int64
	logger      *zap.Logger
}

func NewPatientHandler(patients service.PatientService, maxBodySize int64, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{patients: patients, maxBodySize: maxBodySize, logger: logger}
}

// ServePatients /api/patients
func (h *PatientHandler) ServePatients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := h.patients.ListPatients(r.Context())
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to fetch patients")
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		fields, err := requestFields(w, r, h.maxBodySize)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to create patient")
			return
		}
		id, err := h.patients.CreatePatient(r.Context(), fields)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to create patient")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"patient_id": id,
			"message":    "Patient created successfully",
		})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}
