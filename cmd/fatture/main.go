package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fatture/internal/amqp"
	"fatture/internal/backend"
	"fatture/internal/config"
	apphttp "fatture/internal/http"
	applog "fatture/internal/log"
	"fatture/internal/services"
)

func main() {
	// Load .env for local development; missing file is fine.
	_ = godotenv.Load()

	base := applog.New(applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(base)
	logger := applog.ForComponent(base, applog.ComponentApp)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	result, err := backend.Open(backend.Config{
		Type:          backend.Type(cfg.DataBackend),
		SQLiteDBPath:  cfg.SQLiteDBPath,
		MemoryLatency: cfg.MemoryLatency,
	}, applog.ForComponent(base, applog.ComponentStorage))
	if err != nil {
		logger.Error("Failed to open storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	// Event publishing is optional; without a broker the service still works,
	// the worker just never hears about changes.
	amqpLog := applog.ForComponent(base, applog.ComponentAMQP)
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			amqpLog.Error("Failed to connect to AMQP broker", "error", err)
			_ = result.Cleanup()
			os.Exit(1)
		}
		amqpLog.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		amqpLog.Info("AMQP publishing disabled, no AMQP_URL configured")
	}

	svc := services.NewInvoiceService(result.Repository, events)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Refresh(loadCtx); err != nil {
		loadCancel()
		logger.Error("Initial invoice load failed", "error", err)
		_ = svc.Close()
		os.Exit(1)
	}
	loadCancel()

	srv := apphttp.NewServer(":"+cfg.Port, svc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := svc.Close(); err != nil {
			logger.Error("Service close error", "error", err)
		}
		cancel()
	}()

	httpLog := applog.ForComponent(base, applog.ComponentHTTP)
	httpLog.Info("Starting fatture server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		httpLog.Error("Server error", "error", err, "port", cfg.Port)
		_ = svc.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
