package channel

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

type MQTTConfig struct {
	BrokerHost string
	BrokerPort int
	Topic      string
	QoS        byte
	ClientID   string
	Username   string
	Password   string
}

// MQTT publishes readings to a single configured topic.
type MQTT struct {
	client mqtt.Client
	broker string
	topic  string
	qos    byte
	log    *zap.Logger
}

func NewMQTT(cfg MQTTConfig, log *zap.Logger) *MQTT {
	broker := fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, cfg.BrokerPort)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		// unique suffix so a restarted instance cannot kick its own session
		SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8])).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}
	return &MQTT{
		client: mqtt.NewClient(opts),
		broker: broker,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		log:    log,
	}
}

func (m *MQTT) Connect(ctx context.Context) error {
	token := m.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect %s: timeout after %s", m.broker, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", m.broker, err)
	}
	m.log.Info("connected to mqtt broker",
		zap.String("broker", m.broker),
		zap.String("topic", m.topic))
	return nil
}

func (m *MQTT) Connected() bool {
	return m.client.IsConnected()
}

func (m *MQTT) Publish(ctx context.Context, payload []byte) error {
	if !m.client.IsConnected() {
		return fmt.Errorf("mqtt publish: not connected to %s", m.broker)
	}
	token := m.client.Publish(m.topic, m.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish %s: timeout after %s", m.topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", m.topic, err)
	}
	return nil
}

func (m *MQTT) Disconnect() {
	m.client.Disconnect(250)
	m.log.Info("disconnected from mqtt broker", zap.String("broker", m.broker))
}
