package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/config"
	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
	"github.com/garrikyx/FItflow/internal/platform/logging"
	"github.com/garrikyx/FItflow/internal/profile"
	profilepg "github.com/garrikyx/FItflow/internal/profile/postgres"
)

func main() {
	cfg, err := config.Load[config.Profile]()
	if err != nil {
		panic(err)
	}
	logger := logging.Must("profile-api", cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var repo profile.Repository
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		repo = profilepg.NewRepository(pool)
	} else {
		logger.Warn("POSTGRES_URL not set, using in-memory profile store")
		repo = profile.NewInMemoryRepository()
	}

	guard := auth.NewMiddleware(cfg.Auth())
	mux := http.NewServeMux()
	profile.NewHandler(profile.NewService(repo)).RegisterRoutes(mux, guard)
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
