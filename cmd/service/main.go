package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-forecast-service/internal/config"
	"github.com/kjstillabower/weather-forecast-service/internal/forecast"
	httphandler "github.com/kjstillabower/weather-forecast-service/internal/http"
	"github.com/kjstillabower/weather-forecast-service/internal/lifecycle"
	"github.com/kjstillabower/weather-forecast-service/internal/observability"
	"github.com/kjstillabower/weather-forecast-service/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; it only seeds ENV_NAME, LOG_LEVEL and SERVER_PORT.
	envErr := godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("load .env", zap.Error(envErr))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	srv, err := newServer(cfg, logger, os.Stdout)
	if err != nil {
		logger.Fatal("server setup", zap.Error(err))
	}

	lifecycle.MarkStarted(time.Now())
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// newServer builds the forecast pipeline and HTTP stack from cfg. Access lines go
// to accessLog when server.access_log is enabled.
func newServer(cfg *config.Config, logger *zap.Logger, accessLog io.Writer) (*http.Server, error) {
	generator, err := forecast.NewGenerator(forecast.Config{Summaries: cfg.Summaries})
	if err != nil {
		return nil, fmt.Errorf("forecast generator: %w", err)
	}
	logger.Info("forecast generator ready", zap.Strings("summaries", generator.Summaries()))
	forecastService := service.NewForecastService(generator)

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedErrorPct:     cfg.DegradedErrorPct,
		Version:              version,
	}
	handler := httphandler.NewHandler(forecastService, healthConfig, logger)
	observability.RegisterTrafficGauges(cfg.OverloadWindow)

	if !cfg.AccessLog {
		accessLog = nil
	}
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		RateLimiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		RequestTimeout: cfg.RequestTimeout,
		AccessLog:      accessLog,
	})

	return &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, nil
}
