package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"sensor-simulator/internal/config"
	"sensor-simulator/internal/influx"
	"sensor-simulator/internal/model"
	"sensor-simulator/internal/sub"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.WorkerFromEnv()
	if err != nil {
		logger.Fatal("configuration", zap.Error(err))
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, cfg.BrokerPort)).
		SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal("mqtt connect", zap.Error(token.Error()))
	}
	defer client.Disconnect(250)

	writer := influx.NewWriter(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	defer writer.Close()

	onReading := func(r model.Reading, at time.Time) error {
		return writer.Write(context.Background(), r, at)
	}
	if err := sub.Subscribe(client, cfg.Topic, byte(cfg.QoS), logger, onReading); err != nil {
		logger.Fatal("subscribe", zap.Error(err))
	}

	logger.Info("worker running",
		zap.String("topic", cfg.Topic),
		zap.String("bucket", cfg.InfluxBucket))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	logger.Info("shutting down")
}
