package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/activity"
	"github.com/garrikyx/FItflow/internal/activity/outbox"
	activitypg "github.com/garrikyx/FItflow/internal/activity/postgres"
	"github.com/garrikyx/FItflow/internal/config"
	"github.com/garrikyx/FItflow/internal/coordination"
	"github.com/garrikyx/FItflow/internal/leaderboard"
	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
	"github.com/garrikyx/FItflow/internal/platform/logging"
	"github.com/garrikyx/FItflow/internal/profile"
)

func main() {
	cfg, err := config.Load[config.Activity]()
	if err != nil {
		panic(err)
	}
	logger := logging.Must("activity-api", cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		repo       activity.Repository
		dispatcher *outbox.Dispatcher
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		producer := broker.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		repo = activitypg.NewRepository(pool)
		dispatcher = outbox.NewDispatcher(outbox.NewPostgresStore(pool, cfg.OutboxClaimLease), producer, logger.Named("outbox"), cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)

		replayer := outbox.NewReplayer(outbox.NewPostgresDLQStore(pool), cfg.DLQMaxRetries, cfg.DLQBaseDelay, logger.Named("dlq"))
		go replayer.Start(ctx, cfg.DLQPollInterval, cfg.OutboxBatchSize)
	} else {
		logger.Warn("POSTGRES_URL not set, using in-memory activity store without event publishing")
		repo = activity.NewInMemoryRepository()
	}

	guard := auth.NewMiddleware(cfg.Auth())
	mux := http.NewServeMux()
	activitySvc := activity.NewService(repo)
	activity.NewHandler(activitySvc).RegisterRoutes(mux, guard)
	coordinator := coordination.NewCoordinator(
		profile.NewClient(cfg.ProfileServiceURL, cfg.UpstreamTimeout),
		activitySvc,
		logger.Named("coordination"),
	)
	coordination.NewHandler(coordinator).RegisterRoutes(mux, guard)
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer client.Close()
		leaderboard.NewHandler(leaderboard.NewBoard(client)).RegisterRoutes(mux, guard)
	}

	srvCfg := httpx.DefaultServerConfig(cfg.HTTPAddress)
	server := httpx.NewServer(srvCfg, httpx.Chain(mux,
		httpx.RequestLogger(logger),
		httpx.CORS(cfg.CORSOrigins),
		guard.Wrap,
	))

	if err := httpx.Serve(ctx, srvCfg, server, logger); err != nil {
		logger.Error("server error", zap.Error(err))
	}
	cancel()

	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Info("activity-api stopped")
}
