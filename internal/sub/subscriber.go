// Package sub consumes published readings from the broker for downstream
// persistence.
package sub

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"sensor-simulator/internal/model"
)

// Handler receives each decoded reading together with its sample time.
type Handler func(r model.Reading, at time.Time) error

// Subscribe attaches h to topic, decoding each payload as a Reading.
// Malformed payloads are logged and skipped, never fatal.
func Subscribe(client mqtt.Client, topic string, qos byte, log *zap.Logger, h Handler) error {
	token := client.Subscribe(topic, qos, messageHandler(log, h))
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	log.Info("subscribed", zap.String("topic", topic), zap.Uint8("qos", qos))
	return nil
}

func messageHandler(log *zap.Logger, h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var r model.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Warn("invalid reading payload",
				zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		at := time.Now()
		if ts, err := ParseTimestamp(r.Timestamp); err != nil {
			log.Warn("invalid reading timestamp, using ingest time",
				zap.String("timestamp", r.Timestamp), zap.Error(err))
		} else if !ts.IsZero() {
			at = ts
		}
		if err := h(r, at); err != nil {
			log.Error("reading handler failed",
				zap.String("sensor_id", r.SensorID), zap.Error(err))
		}
	}
}

// ParseTimestamp accepts RFC3339 with or without fractional seconds, a
// zoneless ISO-8601 local time as older publishers emitted, or Unix seconds.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local); err == nil {
		return t, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: unrecognized format", s)
	}
	return time.Unix(sec, 0), nil
}
