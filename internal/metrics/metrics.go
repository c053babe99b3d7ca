// Package metrics holds the Prometheus instruments for the simulator.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Set struct {
	Generated      prometheus.Counter
	Published      prometheus.Counter
	LedgerSent     prometheus.Counter
	Buffered       prometheus.Counter
	ResyncResolved prometheus.Counter
	ResyncRetained prometheus.Counter
	BufferLen      prometheus.Gauge
	Online         prometheus.Gauge
}

// New registers the full instrument set on reg. Tests pass a fresh registry
// so independent coordinators never collide.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		Generated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_readings_generated_total",
			Help: "Readings produced by the generator.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_readings_published_total",
			Help: "Readings accepted by the MQTT channel.",
		}),
		LedgerSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_readings_ledger_total",
			Help: "Readings accepted by the ledger channel.",
		}),
		Buffered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_readings_buffered_total",
			Help: "Readings appended to the offline buffer.",
		}),
		ResyncResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_resync_resolved_total",
			Help: "Buffered readings delivered on both channels during resync.",
		}),
		ResyncRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_resync_retained_total",
			Help: "Buffered readings that still failed during resync.",
		}),
		BufferLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_offline_buffer_length",
			Help: "Readings currently in the offline buffer.",
		}),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_online",
			Help: "1 while the loop is in online mode, 0 while offline.",
		}),
	}
	reg.MustRegister(
		s.Generated, s.Published, s.LedgerSent, s.Buffered,
		s.ResyncResolved, s.ResyncRetained, s.BufferLen, s.Online,
	)
	return s
}
