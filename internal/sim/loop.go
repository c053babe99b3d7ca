// Package sim drives the generate-deliver cycle and the online/offline
// state machine on a fixed interval.
package sim

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"sensor-simulator/internal/delivery"
	"sensor-simulator/internal/metrics"
	"sensor-simulator/internal/model"
)

// Mode is the aggregate delivery state of the loop.
type Mode int

const (
	Online Mode = iota
	Offline
)

func (m Mode) String() string {
	if m == Online {
		return "online"
	}
	return "offline"
}

// Generator yields the next synthetic reading.
type Generator interface {
	Next() model.Reading
}

// Connector is the slice of the message channel the loop needs for its mode
// decisions: the initial connect and the offline reconnection probe.
type Connector interface {
	Connect(ctx context.Context) error
	Connected() bool
}

type Config struct {
	Interval time.Duration
	Duration time.Duration // zero runs until the context is cancelled
}

// Loop is a single goroutine; all state below is owned by Run.
type Loop struct {
	cfg     Config
	gen     Generator
	coord   *delivery.Coordinator
	conn    Connector
	log     *zap.Logger
	metrics *metrics.Set

	mode      Mode
	probe     *backoff.ExponentialBackOff
	nextProbe time.Time
}

func New(cfg Config, gen Generator, coord *delivery.Coordinator, conn Connector, log *zap.Logger, m *metrics.Set) *Loop {
	probe := backoff.NewExponentialBackOff()
	probe.InitialInterval = cfg.Interval
	probe.MaxInterval = 5 * time.Minute
	probe.MaxElapsedTime = 0 // probe for as long as the loop runs
	return &Loop{
		cfg:     cfg,
		gen:     gen,
		coord:   coord,
		conn:    conn,
		log:     log,
		metrics: m,
		probe:   probe,
	}
}

func (l *Loop) Mode() Mode { return l.mode }

// Run executes the simulation until ctx is cancelled or the configured
// duration elapses. The initial connection check decides the starting mode;
// when it succeeds, buffered readings are resynchronized before the first
// tick.
func (l *Loop) Run(ctx context.Context) error {
	if l.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Duration)
		defer cancel()
	}

	if err := l.conn.Connect(ctx); err != nil {
		l.log.Warn("initial broker connection failed, starting offline", zap.Error(err))
		l.setMode(Offline)
	} else {
		l.setMode(Online)
		l.coord.Resync(ctx)
	}

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				l.log.Info("simulation duration reached, stopping")
			}
			return nil
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	r := l.gen.Next()
	l.metrics.Generated.Inc()

	if l.mode == Offline {
		if !l.tryReconnect(ctx) {
			l.log.Info("offline mode, buffering reading directly")
			l.coord.BufferDirect(r)
			return
		}
		l.setMode(Online)
		l.coord.Resync(ctx)
	}

	if l.coord.Deliver(ctx, r).Failed() {
		l.log.Warn("both channels failed, switching to offline mode")
		l.setMode(Offline)
	}
}

// tryReconnect probes broker connectivity on a bounded exponential-backoff
// schedule. Ticks between probes buffer directly without touching the
// network.
func (l *Loop) tryReconnect(ctx context.Context) bool {
	if time.Now().Before(l.nextProbe) {
		return false
	}
	if !l.conn.Connected() {
		if err := l.conn.Connect(ctx); err != nil {
			wait := l.probe.NextBackOff()
			l.nextProbe = time.Now().Add(wait)
			l.log.Debug("reconnection probe failed",
				zap.Error(err), zap.Duration("next_probe_in", wait))
			return false
		}
	}
	l.log.Info("broker connection restored")
	return true
}

func (l *Loop) setMode(m Mode) {
	l.mode = m
	if m == Online {
		l.metrics.Online.Set(1)
		l.probe.Reset()
		l.nextProbe = time.Time{}
		return
	}
	l.metrics.Online.Set(0)
}
