// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"selective-prep/config"
	"selective-prep/internal/api"
	"selective-prep/internal/db"
	"selective-prep/internal/metrics"
	"selective-prep/internal/payment"
	"selective-prep/internal/server"
	"selective-prep/internal/sweep"
	"selective-prep/pkg/logger"
)

func main() {
	l := logger.New()
	l.Info("Starting Selective Prep billing service...")

	cfg, err := config.Load()
	if err != nil {
		l.Fatal("Failed to load config", err)
	}

	// Validate critical configuration
	if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
		l.Fatal("Stripe configuration is incomplete")
	}
	if cfg.Auth.BaseURL == "" {
		l.Fatal("Auth provider URL is not configured")
	}

	// Initialize database connection with retry
	var store *db.Postgres
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		store, err = db.NewPostgres(cfg)
		if err == nil {
			break
		}
		l.Error("Failed to connect to database, retrying...", err)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	if store == nil {
		l.Fatal("Failed to connect to database after multiple attempts", err)
	}
	defer store.Close()

	stripeClient := payment.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	collector := metrics.NewCollector()

	sweepJob := sweep.NewJob(store, l, collector)
	sweepJob.PendingAge = time.Duration(cfg.App.PendingAgeHours) * time.Hour
	sweepJob.GrantHours = cfg.App.TempAccessHours

	handler := api.NewHandler(store, stripeClient, sweepJob, collector, l, cfg)
	httpServer := server.NewServer(cfg.Server.Port, api.NewRouter(handler), l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.App.SweepEnabled {
		scheduler := sweep.NewScheduler(sweepJob, l, cfg.App.SweepInterval)
		go scheduler.Start(ctx)
	}

	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}

	l.Info("Service stopped")
}
