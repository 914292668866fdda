package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fatture/internal/amqp"
	"fatture/internal/backend"
	"fatture/internal/config"
	applog "fatture/internal/log"
	gsheet "fatture/internal/sheets/google"
	"fatture/internal/worker"
)

func main() {
	_ = godotenv.Load()

	base := applog.New(applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(base)
	logger := applog.ForComponent(base, applog.ComponentWorker)

	logger.Info("Starting fatture-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	// The worker reads the same store the server writes. An upsert event only
	// carries the invoice id; the row content comes from here.
	result, err := backend.Open(backend.Config{
		Type:          backend.Type(cfg.DataBackend),
		SQLiteDBPath:  cfg.SQLiteDBPath,
		MemoryLatency: cfg.MemoryLatency,
	}, applog.ForComponent(base, applog.ComponentStorage))
	if err != nil {
		logger.Error("Failed to open storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Storage cleanup failed", "error", err)
		}
	}()

	sheetsLog := applog.ForComponent(base, applog.ComponentSheets)
	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		sheetsLog.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	sheetsLog.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		applog.ForComponent(base, applog.ComponentAMQP).Error("Failed to connect to AMQP broker", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(result.Repository, sheetsClient, sheetsClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeInvoiceEvents(gctx, syncWorker.HandleEvent)
	})

	logger.Info("Worker consuming invoice events", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
