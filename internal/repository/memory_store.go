package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"healthmon/internal/domain"
)

// MemoryStore DB_ENABLED=false 时的内存实现（本地联调用），
// 三张表共用一个锁；patients 创建时写入与 EnsureSchema 相同的种子行。
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	patients []*domain.Patient
	readings []*domain.SensorReading
	devices  map[string]*domain.Device
	nextPID  int64
	nextRID  int64
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		now:     time.Now,
		devices: map[string]*domain.Device{},
		nextPID: domain.SeedPatientID,
		nextRID: 1,
	}
	age := domain.SeedPatientAge
	s.patients = append(s.patients, &domain.Patient{
		ID:          s.nextPID,
		Name:        domain.SeedPatientName,
		Age:         &age,
		CreatedDate: s.now().UTC(),
	})
	s.nextPID++
	return s
}

// Patients / Readings / Devices / Diagnostics 返回同一份数据上的各个Repository视图
func (s *MemoryStore) Patients() *MemoryPatientsRepo       { return &MemoryPatientsRepo{s: s} }
func (s *MemoryStore) Readings() *MemoryReadingsRepo       { return &MemoryReadingsRepo{s: s} }
func (s *MemoryStore) Devices() *MemoryDevicesRepo         { return &MemoryDevicesRepo{s: s} }
func (s *MemoryStore) Diagnostics() *MemoryDiagnosticsRepo { return &MemoryDiagnosticsRepo{s: s} }

var (
	_ PatientsRepository    = (*MemoryPatientsRepo)(nil)
	_ ReadingsRepository    = (*MemoryReadingsRepo)(nil)
	_ DevicesRepository     = (*MemoryDevicesRepo)(nil)
	_ DiagnosticsRepository = (*MemoryDiagnosticsRepo)(nil)
)

type MemoryPatientsRepo struct{ s *MemoryStore }

func (r *MemoryPatientsRepo) CreatePatient(_ context.Context, name string, age *int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := &domain.Patient{ID: r.s.nextPID, Name: name, CreatedDate: r.s.now().UTC()}
	if age != nil {
		a := *age
		p.Age = &a
	}
	r.s.patients = append(r.s.patients, p)
	r.s.nextPID++
	return p.ID, nil
}

func (r *MemoryPatientsRepo) ListPatients(_ context.Context) ([]*domain.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Patient, 0, len(r.s.patients))
	for _, p := range r.s.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type MemoryReadingsRepo struct{ s *MemoryStore }

func (r *MemoryReadingsRepo) CreateReading(ctx context.Context, in NewReading) (int64, error) {
	rd, err := r.CreateReadingReturning(ctx, in)
	if err != nil {
		return 0, err
	}
	return rd.ID, nil
}

func (r *MemoryReadingsRepo) CreateReadingReturning(_ context.Context, in NewReading) (*domain.SensorReading, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ts := r.s.now().UTC()
	rd := &domain.SensorReading{
		ID:          r.s.nextRID,
		PatientID:   in.PatientID,
		HeartRate:   in.HeartRate,
		Temperature: copyFloat(in.Temperature),
		SpO2:        copyFloat(in.SpO2),
		Timestamp:   &ts,
	}
	r.s.readings = append(r.s.readings, rd)
	r.s.nextRID++

	cp := *rd
	return &cp, nil
}

func (r *MemoryReadingsRepo) ListRecent(_ context.Context, limit int) ([]*domain.SensorReading, error) {
	return r.list(func(*domain.SensorReading) bool { return true }, limit), nil
}

func (r *MemoryReadingsRepo) ListByPatient(_ context.Context, patientID int, limit int) ([]*domain.SensorReading, error) {
	return r.list(func(rd *domain.SensorReading) bool { return rd.PatientID == patientID }, limit), nil
}

// list 从尾部往前扫，即 id 倒序
func (r *MemoryReadingsRepo) list(keep func(*domain.SensorReading) bool, limit int) []*domain.SensorReading {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.SensorReading{}
	for i := len(r.s.readings) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		rd := r.s.readings[i]
		if !keep(rd) {
			continue
		}
		cp := *rd
		out = append(out, &cp)
	}
	return out
}

type MemoryDevicesRepo struct{ s *MemoryStore }

func (r *MemoryDevicesRepo) RegisterDevice(_ context.Context, deviceID string, patientID *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now().UTC()
	d, ok := r.s.devices[deviceID]
	if !ok {
		d = &domain.Device{DeviceID: deviceID, Status: domain.DeviceStatusActive}
		r.s.devices[deviceID] = d
	}
	if patientID != nil {
		p := *patientID
		d.PatientID = &p
	}
	d.LastSeen = now
	return nil
}

func (r *MemoryDevicesRepo) UpdateStatus(_ context.Context, deviceID, status string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.devices[deviceID]
	if !ok {
		return false, nil
	}
	d.Status = status
	d.LastSeen = r.s.now().UTC()
	return true, nil
}

func (r *MemoryDevicesRepo) ListDevices(_ context.Context) ([]*domain.Device, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Device, 0, len(r.s.devices))
	for _, d := range r.s.devices {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out, nil
}

type MemoryDiagnosticsRepo struct{ s *MemoryStore }

func (r *MemoryDiagnosticsRepo) Ping(context.Context) error { return nil }

func (r *MemoryDiagnosticsRepo) TableCounts(context.Context) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return map[string]int64{
		"patients":    int64(len(r.s.patients)),
		"sensor_data": int64(len(r.s.readings)),
		"devices":     int64(len(r.s.devices)),
	}, nil
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
