package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/config"
	"github.com/garrikyx/FItflow/internal/leaderboard"
	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
	"github.com/garrikyx/FItflow/internal/platform/logging"
)

func main() {
	cfg, err := config.Load[config.ActivityConsumer]()
	if err != nil {
		panic(err)
	}
	logger := logging.Must("activity-consumer", cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opts)
	defer client.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	metricsMux.HandleFunc("GET /healthz", httpx.Healthz)
	metricsCfg := httpx.DefaultServerConfig(cfg.MetricsAddress)
	go func() {
		if err := httpx.Serve(ctx, metricsCfg, httpx.NewServer(metricsCfg, metricsMux), logger); err != nil {
			logger.Warn("metrics server error", zap.Error(err))
		}
	}()

	reader := broker.NewKafkaReader(cfg.KafkaBrokers, cfg.ConsumerGroupID, cfg.ConsumerTopic)
	defer reader.Close()

	handler := leaderboard.NewActivityHandler(leaderboard.NewBoard(client), logger.Named("leaderboard"))
	logger.Info("consumer started", zap.String("topic", cfg.ConsumerTopic), zap.String("group", cfg.ConsumerGroupID))
	if err := broker.NewProcessor(reader, handler, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped with error", zap.Error(err))
	}
	logger.Info("activity-consumer stopped")
}
