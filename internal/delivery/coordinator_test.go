package delivery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sensor-simulator/internal/buffer"
	"sensor-simulator/internal/metrics"
	"sensor-simulator/internal/model"
)

var errDown = errors.New("channel down")

type fakePublisher struct {
	connectErr error
	publishErr error
	errs       []error // when non-empty, consumed one per Publish call
	published  [][]byte
}

func (f *fakePublisher) Connect(context.Context) error { return f.connectErr }
func (f *fakePublisher) Connected() bool               { return f.connectErr == nil }
func (f *fakePublisher) Disconnect()                   {}

func (f *fakePublisher) Publish(_ context.Context, payload []byte) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	} else if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, payload)
	return nil
}

type fakeLedger struct {
	sendErr error
	sent    [][]byte
}

func (f *fakeLedger) Connected(context.Context) bool { return f.sendErr == nil }
func (f *fakeLedger) Close()                         {}

func (f *fakeLedger) Send(_ context.Context, payload []byte) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, payload)
	return "0xabc123", nil
}

func newTestCoordinator(t *testing.T, pub *fakePublisher, led *fakeLedger) (*Coordinator, *buffer.Store) {
	t.Helper()
	store, err := buffer.NewStore(filepath.Join(t.TempDir(), "offline.json"), zaptest.NewLogger(t))
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	return NewCoordinator(pub, led, store, zaptest.NewLogger(t), m), store
}

func reading(id string) model.Reading {
	return model.Reading{SensorID: id, Temperature: 21.0, Humidity: 55.5}
}

func TestDeliverBothChannelsSucceed(t *testing.T) {
	pub, led := &fakePublisher{}, &fakeLedger{}
	c, store := newTestCoordinator(t, pub, led)

	res := c.Deliver(context.Background(), reading("a"))

	assert.True(t, res.MessageOK)
	assert.True(t, res.LedgerOK)
	assert.True(t, res.Delivered())
	assert.Empty(t, store.Drain())
	assert.Len(t, pub.published, 1)
	assert.Len(t, led.sent, 1)
}

func TestDeliverMessageFailsLedgerSucceeds(t *testing.T) {
	pub, led := &fakePublisher{publishErr: errDown}, &fakeLedger{}
	c, store := newTestCoordinator(t, pub, led)

	res := c.Deliver(context.Background(), reading("a"))

	assert.False(t, res.MessageOK)
	assert.True(t, res.LedgerOK)
	assert.False(t, res.Failed())

	buffered := store.Drain()
	require.Len(t, buffered, 1)
	assert.Equal(t, "a", buffered[0].SensorID)
}

func TestDeliverBothChannelsFailBuffersOnce(t *testing.T) {
	pub, led := &fakePublisher{publishErr: errDown}, &fakeLedger{sendErr: errDown}
	c, store := newTestCoordinator(t, pub, led)

	res := c.Deliver(context.Background(), reading("a"))

	assert.True(t, res.Failed())
	assert.Len(t, store.Drain(), 1)
}

func TestBufferDirectSkipsChannels(t *testing.T) {
	pub, led := &fakePublisher{}, &fakeLedger{}
	c, store := newTestCoordinator(t, pub, led)

	c.BufferDirect(reading("a"))
	c.BufferDirect(reading("b"))

	assert.Empty(t, pub.published)
	assert.Empty(t, led.sent)

	buffered := store.Drain()
	require.Len(t, buffered, 2)
	assert.Equal(t, "a", buffered[0].SensorID)
	assert.Equal(t, "b", buffered[1].SensorID)
}

func TestResyncDeliversAndEmptiesBuffer(t *testing.T) {
	pub, led := &fakePublisher{}, &fakeLedger{}
	c, store := newTestCoordinator(t, pub, led)

	require.NoError(t, store.Append(reading("a")))
	require.NoError(t, store.Append(reading("b")))

	c.Resync(context.Background())

	assert.Empty(t, store.Drain())
	assert.Len(t, pub.published, 2)
	assert.Len(t, led.sent, 2)
}

func TestResyncIsIdempotent(t *testing.T) {
	pub, led := &fakePublisher{}, &fakeLedger{}
	c, store := newTestCoordinator(t, pub, led)

	require.NoError(t, store.Append(reading("a")))

	c.Resync(context.Background())
	c.Resync(context.Background())

	assert.Empty(t, store.Drain())
	assert.Len(t, pub.published, 1, "second resync must not re-deliver")
	assert.Len(t, led.sent, 1)
}

func TestResyncRetainsFailuresInOrderWithoutReBuffering(t *testing.T) {
	// the second of three buffered readings fails on the message channel
	pub := &fakePublisher{errs: []error{nil, errDown, nil}}
	led := &fakeLedger{}
	c, store := newTestCoordinator(t, pub, led)

	require.NoError(t, store.Replace([]model.Reading{reading("a"), reading("b"), reading("c")}))

	c.Resync(context.Background())

	retained := store.Drain()
	require.Len(t, retained, 1)
	assert.Equal(t, "b", retained[0].SensorID)
}

func TestResyncAllFailingLeavesBufferUnchanged(t *testing.T) {
	pub, led := &fakePublisher{publishErr: errDown}, &fakeLedger{sendErr: errDown}
	c, store := newTestCoordinator(t, pub, led)

	require.NoError(t, store.Replace([]model.Reading{reading("a"), reading("b"), reading("c")}))

	c.Resync(context.Background())
	c.Resync(context.Background())

	retained := store.Drain()
	require.Len(t, retained, 3, "resync must never grow the buffer")
	assert.Equal(t, "a", retained[0].SensorID)
	assert.Equal(t, "b", retained[1].SensorID)
	assert.Equal(t, "c", retained[2].SensorID)
}

func TestResyncPartialLedgerSuccessStillRetains(t *testing.T) {
	// message channel accepts but ledger rejects: not resolved
	pub, led := &fakePublisher{}, &fakeLedger{sendErr: errDown}
	c, store := newTestCoordinator(t, pub, led)

	require.NoError(t, store.Append(reading("a")))

	c.Resync(context.Background())

	assert.Len(t, store.Drain(), 1)
}

func TestBufferedReadingRoundTrip(t *testing.T) {
	pub, led := &fakePublisher{publishErr: errDown}, &fakeLedger{sendErr: errDown}
	c, store := newTestCoordinator(t, pub, led)

	c.Deliver(context.Background(), reading("a"))
	require.Len(t, store.Drain(), 1)

	// connectivity returns
	pub.publishErr, led.sendErr = nil, nil

	c.Resync(context.Background())
	assert.Empty(t, store.Drain())
}
