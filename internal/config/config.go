// Package config reads process configuration from the environment. Every
// knob has a default so both binaries start against a local development
// stack with no environment at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the simulator surface.
type Config struct {
	BrokerHost string
	BrokerPort int
	Topic      string
	QoS        int
	ClientID   string
	Username   string
	Password   string

	LedgerURL      string
	SenderWallet   string
	ReceiverWallet string

	OfflineFile string
	Interval    time.Duration
	Duration    time.Duration // zero runs until interrupted

	SensorID string
	Location string

	MetricsAddr string // empty disables the /metrics listener
}

func FromEnv() (Config, error) {
	cfg := Config{
		BrokerHost:     getEnv("MQTT_BROKER_HOST", "localhost"),
		Topic:          getEnv("MQTT_TOPIC", "sensors/data"),
		ClientID:       getEnv("MQTT_CLIENT_ID", "sensor-simulator"),
		Username:       getEnv("MQTT_USER", ""),
		Password:       getEnv("MQTT_PASS", ""),
		LedgerURL:      getEnv("LEDGER_URL", "http://127.0.0.1:7545"),
		SenderWallet:   getEnv("LEDGER_SENDER", ""),
		ReceiverWallet: getEnv("LEDGER_RECEIVER", ""),
		OfflineFile:    getEnv("OFFLINE_FILE", "./data/offline-readings.json"),
		SensorID:       getEnv("SENSOR_ID", "sensor_01"),
		Location:       getEnv("SENSOR_LOCATION", "Office Room"),
		MetricsAddr:    getEnv("METRICS_ADDR", ""),
	}

	var err error
	if cfg.BrokerPort, err = getEnvInt("MQTT_BROKER_PORT", 1883); err != nil {
		return Config{}, err
	}
	if cfg.QoS, err = getEnvInt("MQTT_QOS", 1); err != nil {
		return Config{}, err
	}
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return Config{}, fmt.Errorf("MQTT_QOS: %d out of range [0,2]", cfg.QoS)
	}
	if cfg.Interval, err = getEnvDuration("SEND_INTERVAL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Interval <= 0 {
		return Config{}, fmt.Errorf("SEND_INTERVAL: must be positive, got %s", cfg.Interval)
	}
	if cfg.Duration, err = getEnvDuration("RUN_DURATION", 0); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WorkerConfig is the downstream worker surface: broker subscription plus
// the InfluxDB sink.
type WorkerConfig struct {
	BrokerHost string
	BrokerPort int
	Topic      string
	QoS        int
	ClientID   string
	Username   string
	Password   string

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

func WorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		BrokerHost:   getEnv("MQTT_BROKER_HOST", "localhost"),
		Topic:        getEnv("MQTT_TOPIC", "sensors/data"),
		ClientID:     getEnv("MQTT_CLIENT_ID", "sensor-worker"),
		Username:     getEnv("MQTT_USER", ""),
		Password:     getEnv("MQTT_PASS", ""),
		InfluxURL:    getEnv("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  getEnv("INFLUX_TOKEN", ""),
		InfluxOrg:    getEnv("INFLUX_ORG", "my-org"),
		InfluxBucket: getEnv("INFLUX_BUCKET", "sensors"),
	}

	var err error
	if cfg.BrokerPort, err = getEnvInt("MQTT_BROKER_PORT", 1883); err != nil {
		return WorkerConfig{}, err
	}
	if cfg.QoS, err = getEnvInt("MQTT_QOS", 1); err != nil {
		return WorkerConfig{}, err
	}
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return WorkerConfig{}, fmt.Errorf("MQTT_QOS: %d out of range [0,2]", cfg.QoS)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
