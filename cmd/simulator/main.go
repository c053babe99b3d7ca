package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sensor-simulator/internal/buffer"
	"sensor-simulator/internal/channel"
	"sensor-simulator/internal/config"
	"sensor-simulator/internal/delivery"
	"sensor-simulator/internal/metrics"
	"sensor-simulator/internal/sensor"
	"sensor-simulator/internal/sim"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := buffer.NewStore(cfg.OfflineFile, logger)
	if err != nil {
		logger.Fatal("offline buffer", zap.Error(err))
	}
	logger.Info("offline readings stored at", zap.String("path", store.Path()))

	pub := channel.NewMQTT(channel.MQTTConfig{
		BrokerHost: cfg.BrokerHost,
		BrokerPort: cfg.BrokerPort,
		Topic:      cfg.Topic,
		QoS:        byte(cfg.QoS),
		ClientID:   cfg.ClientID,
		Username:   cfg.Username,
		Password:   cfg.Password,
	}, logger)
	defer pub.Disconnect()

	ledger, err := channel.DialLedger(ctx, channel.LedgerConfig{
		URL:      cfg.LedgerURL,
		Sender:   cfg.SenderWallet,
		Receiver: cfg.ReceiverWallet,
	}, logger)
	if err != nil {
		logger.Fatal("ledger endpoint", zap.Error(err))
	}
	defer ledger.Close()
	if ledger.Connected(ctx) {
		logger.Info("connected to ledger", zap.String("url", cfg.LedgerURL))
	} else {
		logger.Warn("ledger endpoint unreachable at startup", zap.String("url", cfg.LedgerURL))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	gen := sensor.New(cfg.SensorID, cfg.Location)
	coord := delivery.NewCoordinator(pub, ledger, store, logger, m)
	loop := sim.New(sim.Config{Interval: cfg.Interval, Duration: cfg.Duration}, gen, coord, pub, logger, m)

	logger.Info("starting sensor simulation",
		zap.String("topic", cfg.Topic),
		zap.Duration("interval", cfg.Interval),
		zap.Duration("duration", cfg.Duration))

	if err := loop.Run(ctx); err != nil {
		logger.Error("simulation error", zap.Error(err))
	}
	logger.Info("sensor simulation ended")
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener", zap.Error(err))
	}
}
