// Package delivery implements the dual-channel delivery policy and the
// offline resync pass. Channel errors never escape this package: every
// failure becomes a boolean outcome, a log line and, where the policy says
// so, a buffered reading.
package delivery

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"sensor-simulator/internal/buffer"
	"sensor-simulator/internal/channel"
	"sensor-simulator/internal/metrics"
	"sensor-simulator/internal/model"
)

// Result is the per-channel outcome of one delivery attempt.
type Result struct {
	MessageOK bool
	LedgerOK  bool
}

// Delivered reports whether both channels accepted the reading.
func (r Result) Delivered() bool { return r.MessageOK && r.LedgerOK }

// Failed reports whether both channels rejected the reading.
func (r Result) Failed() bool { return !r.MessageOK && !r.LedgerOK }

// Coordinator attempts delivery of single readings on both channels and
// falls back to the offline buffer. Together with Resync it is the only
// writer of the buffer file.
type Coordinator struct {
	publisher channel.Publisher
	ledger    channel.Ledger
	store     *buffer.Store
	log       *zap.Logger
	metrics   *metrics.Set
}

func NewCoordinator(p channel.Publisher, l channel.Ledger, store *buffer.Store, log *zap.Logger, m *metrics.Set) *Coordinator {
	return &Coordinator{publisher: p, ledger: l, store: store, log: log, metrics: m}
}

// Deliver attempts the MQTT publish and the ledger send in sequence. A
// reading that failed on at least one channel is appended to the offline
// buffer exactly once, regardless of how many channels rejected it.
func (c *Coordinator) Deliver(ctx context.Context, r model.Reading) Result {
	res := c.attempt(ctx, r)
	if !res.Delivered() {
		c.bufferReading(r)
	}
	return res
}

// BufferDirect appends a reading straight to the offline buffer without
// touching either channel. Used by the loop while in offline mode.
func (c *Coordinator) BufferDirect(r model.Reading) {
	c.bufferReading(r)
}

// Resync re-attempts delivery of every buffered reading, in original order,
// without re-buffering failures. A reading is resolved only when both
// channels accept it; the buffer is rewritten with exactly the readings that
// still failed and deleted when none remain.
func (c *Coordinator) Resync(ctx context.Context) {
	pending := c.store.Drain()
	if len(pending) == 0 {
		c.log.Debug("offline buffer empty, nothing to resync")
		return
	}
	c.log.Info("resynchronizing offline readings", zap.Int("count", len(pending)))

	var retained []model.Reading
	for _, r := range pending {
		if c.attempt(ctx, r).Delivered() {
			c.metrics.ResyncResolved.Inc()
			continue
		}
		retained = append(retained, r)
	}

	if err := c.store.Replace(retained); err != nil {
		// stale file stays on disk; the next resync pass retries the same set
		return
	}
	c.metrics.BufferLen.Set(float64(len(retained)))
	if len(retained) == 0 {
		c.log.Info("offline readings resynchronized")
		return
	}
	c.metrics.ResyncRetained.Add(float64(len(retained)))
	c.log.Warn("readings still undelivered after resync", zap.Int("count", len(retained)))
}

func (c *Coordinator) attempt(ctx context.Context, r model.Reading) Result {
	payload, err := json.Marshal(r)
	if err != nil {
		c.log.Error("encode reading", zap.Error(err))
		return Result{}
	}

	var res Result
	if err := c.publisher.Publish(ctx, payload); err != nil {
		c.log.Error("mqtt publish failed", zap.Error(err))
	} else {
		res.MessageOK = true
		c.metrics.Published.Inc()
		c.log.Info("reading published",
			zap.String("sensor_id", r.SensorID),
			zap.Float64("temperature", r.Temperature),
			zap.Float64("humidity", r.Humidity))
	}

	if txID, err := c.ledger.Send(ctx, payload); err != nil {
		c.log.Error("ledger send failed", zap.Error(err))
	} else {
		res.LedgerOK = true
		c.metrics.LedgerSent.Inc()
		c.log.Info("reading recorded on ledger", zap.String("tx", txID))
	}
	return res
}

func (c *Coordinator) bufferReading(r model.Reading) {
	if err := c.store.Append(r); err != nil {
		return // the store already logged the storage failure
	}
	c.metrics.Buffered.Inc()
	c.metrics.BufferLen.Set(float64(c.store.Len()))
	c.log.Warn("reading buffered offline", zap.String("path", c.store.Path()))
}
