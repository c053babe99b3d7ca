package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"sensor-simulator/internal/model"
)

const measurement = "sensor_reading"

// Writer persists readings into an InfluxDB bucket.
type Writer struct {
	client influxdb2.Client
	api    api.WriteAPIBlocking
}

// NewWriter creates an InfluxDB write API client. Caller should call Close() when done.
func NewWriter(url, token, org, bucket string) *Writer {
	client := influxdb2.NewClient(url, token)
	return &Writer{client: client, api: client.WriteAPIBlocking(org, bucket)}
}

// Close releases the InfluxDB client.
func (w *Writer) Close() {
	w.client.Close()
}

// Health checks that InfluxDB is reachable and the token is valid.
func (w *Writer) Health(ctx context.Context) error {
	_, err := w.client.Health(ctx)
	return err
}

// Write saves one reading as a point at time at.
func (w *Writer) Write(ctx context.Context, r model.Reading, at time.Time) error {
	p := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("sensor_id", r.SensorID).
		AddTag("location", r.Location).
		AddField("temperature", r.Temperature).
		AddField("humidity", r.Humidity).
		SetTime(at)
	if err := w.api.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}
