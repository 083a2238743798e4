package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/vendor-voice/internal/bootstrap"
	"github.com/bryanwahyu/vendor-voice/internal/config"
	"github.com/bryanwahyu/vendor-voice/internal/infra/httpserver"
	"github.com/bryanwahyu/vendor-voice/internal/middleware"
	"github.com/bryanwahyu/vendor-voice/internal/observability"
)

// version diisi lewat -ldflags "-X main.version=..."
var version = "1.2.0"

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		boot := observability.NewLogger(observability.LogConfig{ServiceName: "vendor-voice"})
		boot.Fatal().Err(err).Str("path", path).Msg("config load error")
	}

	log := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "vendor-voice",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Remote.Provider).Msg("remote backend init error")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn().Err(err).Msg("close remote clients")
		}
	}()

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Burst, cfg.Server.RateLimit.RequestsPerMinute)
	go limiter.Run(ctx, 5*time.Minute, 10*time.Minute)

	converters := app.Converter.Documents()
	handler := httpserver.NewRouter(app.Service, httpserver.Options{
		Version:      version,
		APIKey:       cfg.Auth.APIKey,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxFiles:     cfg.Limits.MaxFiles,
		MaxFileBytes: cfg.Limits.MaxFileBytes,
		RateLimiter:  limiter,
		Readiness: map[string]middleware.HealthChecker{
			"document_converter": middleware.CheckerFunc(func(context.Context) error {
				if len(converters) == 0 {
					return errors.New("no document converter available")
				}
				return nil
			}),
		},
		Log: log,
	})

	if cfg.Auth.APIKey == "" {
		log.Warn().Msg("API_SECRET_KEY is not set; every /v1 request will be rejected")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		// uploads and conversions of a full batch take a while
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
