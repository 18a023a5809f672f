package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/travelhub/travel-hub/app"
	"github.com/travelhub/travel-hub/config"
	"github.com/travelhub/travel-hub/middleware"
	"github.com/travelhub/travel-hub/routes"
	"github.com/travelhub/travel-hub/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// The desk gateway fronts one role-specific desk application. It redeems
// exchange codes on landing, guards every request behind the session
// check, and proxies nothing by itself: the desk's own handlers mount
// behind the guard.
func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	deskName := os.Getenv("DESK_NAME")
	if deskName == "" {
		deskName = "desk-gateway"
	}

	logger, err := buildLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.NewDependencies(ctx, cfg, logger, deskName)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupDeskRoutes(deps, deskHome(deskName)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("desk gateway listening",
			zap.String("addr", srv.Addr),
			zap.String("desk", deskName))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := deps.Close(shutdownCtx); err != nil {
		logger.Error("dependency shutdown failed", zap.Error(err))
	}

	logger.Info("desk gateway stopped")
}

// deskHome is the placeholder root behind the guard. A real deployment
// mounts the desk application here instead.
func deskHome(deskName string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := middleware.GetProfileFromContext(r.Context())
		_ = utils.WriteOK(w, map[string]interface{}{
			"desk": deskName,
			"user": profile,
			"role": middleware.GetRoleFromContext(r.Context()),
		})
	})
}

// buildLogger constructs the zap logger from LOG_LEVEL and LOG_FORMAT.
func buildLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "text" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
