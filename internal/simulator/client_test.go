package simulator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"healthmon/internal/domain"
	httpapi "healthmon/internal/http"
	"healthmon/internal/repository"
	"healthmon/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryStore) {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	readingSvc := service.NewReadingService(store.Readings(), store.Devices(), nil, service.ListLimits{Default: 100}, logger)
	handler := httpapi.NewAPI(httpapi.Handlers{
		Sensor:      httpapi.NewSensorHandler(readingSvc, 1<<20, logger),
		Patient:     httpapi.NewPatientHandler(service.NewPatientService(store.Patients(), logger), 1<<20, logger),
		Device:      httpapi.NewDeviceHandler(service.NewDeviceService(store.Devices(), logger), 1<<20, logger),
		Diagnostics: httpapi.NewDiagnosticsHandler(store.Diagnostics(), logger),
	}, "*", logger)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestClient_PostGeneratedReadings(t *testing.T) {
	srv, store := newTestServer(t)
	client := NewClient(srv.URL, zap.NewNop())
	gen := NewGenerator(42, "sim-test", 3)
	ctx := context.Background()

	require.NoError(t, client.RegisterDevice(ctx, "sim-test", 3))
	for i := 0; i < 20; i++ {
		id, err := client.PostReading(ctx, gen.Next())
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	list, err := store.Readings().ListByPatient(ctx, 3, 100)
	require.NoError(t, err)
	assert.Len(t, list, 20)

	devices, _ := store.Devices().ListDevices(ctx)
	require.Len(t, devices, 1)
	assert.Equal(t, domain.DeviceStatusActive, devices[0].Status)
}

func TestClient_ValidationErrorNotRetried(t *testing.T) {
	srv, _ := newTestServer(t)
	client := NewClient(srv.URL, zap.NewNop())

	_, err := client.PostReading(context.Background(), Reading{PatientID: 3, PulseRate: 250})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid pulse rate", apiErr.Message)
}

func TestClient_ServerErrorSurfaced(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Database connection failed"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, zap.NewNop()).PostReading(context.Background(), Reading{PatientID: 1, PulseRate: 70})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "%v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Database connection failed", apiErr.Message)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestGenerator_StaysInRange(t *testing.T) {
	gen := NewGenerator(7, "sim", 1)
	for i := 0; i < 500; i++ {
		rd := gen.Next()
		assert.GreaterOrEqual(t, rd.PulseRate, domain.MinHeartRate)
		assert.LessOrEqual(t, rd.PulseRate, domain.MaxHeartRate)
		assert.GreaterOrEqual(t, *rd.Temperature, domain.MinTemperature)
		assert.LessOrEqual(t, *rd.Temperature, domain.MaxTemperature)
		assert.LessOrEqual(t, *rd.OxygenLevel, domain.MaxSpO2)
	}
}
