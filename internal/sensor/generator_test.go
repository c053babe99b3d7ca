package sensor

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStaysWithinPhysicalRanges(t *testing.T) {
	g := New("sensor_01", "Office Room", WithRand(rand.New(rand.NewPCG(1, 2))))

	for i := 0; i < 5000; i++ {
		r := g.Next()
		assert.GreaterOrEqual(t, r.Temperature, 17.5)
		assert.LessOrEqual(t, r.Temperature, 30.5)
		assert.GreaterOrEqual(t, r.Humidity, 20.0)
		assert.LessOrEqual(t, r.Humidity, 90.0)
	}
}

func TestNextRoundsToTwoDecimals(t *testing.T) {
	g := New("sensor_01", "Office Room", WithRand(rand.New(rand.NewPCG(3, 4))))

	for i := 0; i < 100; i++ {
		r := g.Next()
		assert.InDelta(t, r.Temperature, math.Round(r.Temperature*100)/100, 1e-9)
		assert.InDelta(t, r.Humidity, math.Round(r.Humidity*100)/100, 1e-9)
	}
}

func TestNextPopulatesMetadata(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	g := New("sensor_42", "Server Room",
		WithRand(rand.New(rand.NewPCG(5, 6))),
		WithClock(func() time.Time { return at }))

	r := g.Next()
	assert.Equal(t, "sensor_42", r.SensorID)
	assert.Equal(t, "Server Room", r.Location)
	assert.Equal(t, "°C", r.UnitTemp)
	assert.Equal(t, "%", r.UnitHumidity)

	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	require.NoError(t, err)
	assert.True(t, ts.Equal(at))
}
