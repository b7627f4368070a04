package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/config"
	"github.com/garrikyx/FItflow/internal/notification"
	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
	"github.com/garrikyx/FItflow/internal/platform/logging"
)

func main() {
	cfg, err := config.Load[config.Notification]()
	if err != nil {
		panic(err)
	}
	logger := logging.Must("notification-api", cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var publisher broker.Publisher
	switch cfg.Broker {
	case "amqp":
		amqpPublisher, err := broker.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		publisher = amqpPublisher
	case "kafka":
		publisher = broker.NewKafkaProducer(cfg.KafkaBrokers)
	default:
		logger.Fatal("unsupported NOTIFY_BROKER", zap.String("broker", cfg.Broker))
	}
	defer publisher.Close()

	svc := notification.NewService(notification.NewSimulatedSender(cfg.SuccessRate), publisher, cfg.Topic, logger)

	scheduler, err := notification.NewScheduler(cfg.MonthlySummarySchedule, svc, logger.Named("cron"))
	if err != nil {
		logger.Fatal("failed to schedule monthly summary", zap.Error(err))
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	guard := auth.NewMiddleware(cfg.Auth())
	mux := http.NewServeMux()
	notification.NewHandler(svc).RegisterRoutes(mux, guard)
	mux.Handle("GET /metrics", promhttp.Handler())

	srvCfg := httpx.DefaultServerConfig(cfg.HTTPAddress)
	server := httpx.NewServer(srvCfg, httpx.Chain(mux,
		httpx.RequestLogger(logger),
		httpx.CORS(cfg.CORSOrigins),
		guard.Wrap,
	))
	if err := httpx.Serve(ctx, srvCfg, server, logger); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
