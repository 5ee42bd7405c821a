package simulator

import (
	"math"
	"math/rand"
)

// Generator 生成围绕基线随机游走的体征数据，始终落在合法范围内
type Generator struct {
	rnd       *rand.Rand
	deviceID  string
	patientID int

	heartRate   float64
	temperature float64
	spo2        float64
}

func NewGenerator(seed int64, deviceID string, patientID int) *Generator {
	return &Generator{
		rnd:         rand.New(rand.NewSource(seed)),
		deviceID:    deviceID,
		patientID:   patientID,
		heartRate:   72,
		temperature: 36.6,
		spo2:        98,
	}
}

func (g *Generator) Next() Reading {
	g.heartRate = clamp(g.heartRate+g.rnd.NormFloat64()*3, 45, 160)
	g.temperature = clamp(g.temperature+g.rnd.NormFloat64()*0.1, 35.0, 40.5)
	g.spo2 = clamp(g.spo2+g.rnd.NormFloat64()*0.5, 88, 100)

	temp := round1(g.temperature)
	spo2 := round1(g.spo2)
	return Reading{
		PatientID:   g.patientID,
		PulseRate:   int(math.Round(g.heartRate)),
		Temperature: &temp,
		OxygenLevel: &spo2,
		DeviceID:    g.deviceID,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
