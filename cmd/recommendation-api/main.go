package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/config"
	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
	"github.com/garrikyx/FItflow/internal/platform/logging"
	"github.com/garrikyx/FItflow/internal/profile"
	"github.com/garrikyx/FItflow/internal/recommendation"
)

func main() {
	cfg, err := config.Load[config.Recommendation]()
	if err != nil {
		panic(err)
	}
	logger := logging.Must("recommendation-api", cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := recommendation.NewService(
		recommendation.NewWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey, cfg.UpstreamTimeout),
		recommendation.NewActivityClient(cfg.ActivityServiceURL, cfg.UpstreamTimeout),
		profile.NewClient(cfg.ProfileServiceURL, cfg.UpstreamTimeout),
		cfg.UpstreamTimeout,
	)
	dispatcher := recommendation.NewDispatcher(
		recommendation.NewNotificationClient(cfg.NotificationServiceURL, cfg.NotificationTimeout),
		cfg.NotificationTimeout,
		logger.Named("notify"),
	)

	guard := auth.NewMiddleware(cfg.Auth())
	mux := http.NewServeMux()
	recommendation.NewHandler(svc, dispatcher).RegisterRoutes(mux, guard)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.StartCleanup(ctx, time.Minute)
	srvCfg := httpx.DefaultServerConfig(cfg.HTTPAddress)
	server := httpx.NewServer(srvCfg, httpx.Chain(mux,
		httpx.RequestLogger(logger),
		httpx.CORS(cfg.CORSOrigins),
		limiter.Handler,
		guard.Wrap,
	))
	if err := httpx.Serve(ctx, srvCfg, server, logger); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("waiting for in-flight notifications")
	dispatcher.Wait()
}
