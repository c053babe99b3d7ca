// Package sensor produces synthetic temperature and humidity readings.
package sensor

import (
	"math"
	"math/rand/v2"
	"time"

	"sensor-simulator/internal/model"
)

const (
	baseTemperature = 22.5
	tempVariationLo = -5
	tempVariationHi = 8

	humidityMean   = 50
	humidityStddev = 15
	humidityMin    = 20
	humidityMax    = 90
)

// Generator creates readings on demand. It has no failure modes and touches
// no external state beyond its random source and clock.
type Generator struct {
	sensorID string
	location string
	rng      *rand.Rand
	now      func() time.Time
}

type Option func(*Generator)

// WithRand replaces the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithClock replaces the wall clock used for reading timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(sensorID, location string, opts ...Option) *Generator {
	g := &Generator{
		sensorID: sensorID,
		location: location,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Next returns one reading. Temperature is uniform around a base value,
// humidity normal around a mean and clamped to its physical range, both
// rounded to two decimals.
func (g *Generator) Next() model.Reading {
	span := float64(tempVariationHi - tempVariationLo)
	temp := baseTemperature + tempVariationLo + g.rng.Float64()*span
	hum := clamp(humidityMean+g.rng.NormFloat64()*humidityStddev, humidityMin, humidityMax)

	return model.Reading{
		SensorID:     g.sensorID,
		Timestamp:    g.now().Format(time.RFC3339),
		Temperature:  round2(temp),
		Humidity:     round2(hum),
		Location:     g.location,
		UnitTemp:     "°C",
		UnitHumidity: "%",
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
