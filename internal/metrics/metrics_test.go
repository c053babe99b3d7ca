package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.Generated.Inc()
	s.Buffered.Inc()
	s.Buffered.Inc()
	s.Online.Set(1)
	s.BufferLen.Set(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.Generated))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.Buffered))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Online))
	assert.Equal(t, 4.0, testutil.ToFloat64(s.BufferLen))
}

func TestIndependentRegistriesDoNotCollide(t *testing.T) {
	New(prometheus.NewRegistry())
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
