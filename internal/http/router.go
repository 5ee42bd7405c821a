package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux；方法在各 handler 里判断，405/404 统一返回 JSON
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterDiagnosticsRoutes "/" 兜底：根路径是存活检查，其它未注册路径 404
func (r *Router) RegisterDiagnosticsRoutes(d *DiagnosticsHandler) {
	r.Handle("/", d.Health)
	r.Handle("/api/test-db", d.TestDB)
	r.Handle("/api/debug-db", d.DebugDB)
}

func (r *Router) RegisterSensorRoutes(s *SensorHandler) {
	r.Handle("/api/sensor", s.ServeSensor)
	r.Handle("/api/sensor/patient/", s.ServePatientReadings)
	r.Handle("/api/health-data", s.ServeHealthData)
}

func (r *Router) RegisterPatientRoutes(p *PatientHandler) {
	r.Handle("/api/patients", p.ServePatients)
}

func (r *Router) RegisterDeviceRoutes(d *DeviceHandler) {
	r.Handle("/api/devices", d.ServeDevices)
	r.Handle("/api/devices/", d.ServeDeviceStatus)
}

// Handlers 组装好的各 handler
type Handlers struct {
	Sensor      *SensorHandler
	Patient     *PatientHandler
	Device      *DeviceHandler
	Diagnostics *DiagnosticsHandler
}

// NewAPI 注册全部路由并套上 middleware（recover 在 access log 里面，panic 也会记一行访问日志）
func NewAPI(h Handlers, corsOrigin string, logger *zap.Logger) http.Handler {
	router := NewRouter(logger)
	router.RegisterDiagnosticsRoutes(h.Diagnostics)
	router.RegisterSensorRoutes(h.Sensor)
	router.RegisterPatientRoutes(h.Patient)
	router.RegisterDeviceRoutes(h.Device)

	return Chain(router,
		RequestID(),
		AccessLog(logger),
		CORS(corsOrigin),
		Recover(logger),
	)
}
