package httpapi

import (
	"net/http"

	"healthmon/internal/repository"

	"go.uber.org/zap"
)

// DiagnosticsHandler 运维排查用：连通性和各表行数
type DiagnosticsHandler struct {
	diag   repository.DiagnosticsRepository
	logger *zap.Logger
}

func NewDiagnosticsHandler(diag repository.DiagnosticsRepository, logger *zap.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{diag: diag, logger: logger}
}

// Health GET /
func (h *DiagnosticsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Healthcare Backend API is running",
	})
}

// TestDB GET /api/test-db
func (h *DiagnosticsHandler) TestDB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if err := h.diag.Ping(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Database connection failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

// DebugDB GET /api/debug-db
func (h *DiagnosticsHandler) DebugDB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	counts, err := h.diag.TableCounts(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to inspect database")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": counts})
}
