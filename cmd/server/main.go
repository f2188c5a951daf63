package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedbackdesk/internal/app"
	"feedbackdesk/internal/config"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()
	ctx := context.Background()

	logger.Info("analytics config",
		"high_threshold", cfg.Analytics.HighThreshold,
		"low_threshold", cfg.Analytics.LowThreshold,
		"cache_ttl", cfg.Analytics.CacheTTL,
	)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	// Warm the dashboard cache
	a.DashboardService.Trigger("startup")

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.HTTPPort, "admin", cfg.AdminUsername)
		logger.Info("endpoints",
			"public", []string{
				"POST /v1/auth/login",
				"POST /v1/sessions",
				"GET  /v1/sessions/{id}[/form]",
				"DELETE /v1/sessions/{id}",
				"POST /v1/sessions/{id}/access|submit|reset",
			},
			"admin", []string{
				"GET  /v1/admin/dashboard",
				"POST /v1/admin/dashboard/refresh",
				"GET  /v1/admin/export.csv",
				"GET/POST /v1/admin/questions",
				"PATCH/DELETE /v1/admin/questions/{id}",
				"PUT  /v1/admin/access-pin",
				"WS   /v1/ws/admin",
			},
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ListenAndServe failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("failed to release resources", "error", err)
	}

	logger.Info("server exited")
}
