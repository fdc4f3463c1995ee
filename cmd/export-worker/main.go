package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/bindassguntupalli/hold-your-pocket/internal/amqp"
	"github.com/bindassguntupalli/hold-your-pocket/internal/backend"
	"github.com/bindassguntupalli/hold-your-pocket/internal/config"
	"github.com/bindassguntupalli/hold-your-pocket/internal/export"
	exportgoogle "github.com/bindassguntupalli/hold-your-pocket/internal/export/google"
	applog "github.com/bindassguntupalli/hold-your-pocket/internal/log"
	"github.com/bindassguntupalli/hold-your-pocket/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(applog.ComponentWorker, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	st, cleanup, err := backend.Open(cfg)
	if err != nil {
		logger.Error("Failed to open store backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional Google Sheets mirror.
	var mirror export.RowAppender
	if cfg.GoogleSpreadsheetID != "" {
		sink, err := exportgoogle.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets sink", applog.FieldError, err)
			os.Exit(1)
		}
		mirror = sink
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	exportWorker := worker.NewExportWorker(st, cfg.ExportDir, mirror, cfg.ExportBatchSize)

	// Startup catch-up covers events missed while the worker was down.
	if err := exportWorker.ExportCurrentMonth(ctx); err != nil {
		logger.Error("Startup export pass failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return amqp.ConsumeWithReconnect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, exportWorker.HandleExpenseEvent)
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic export only")
	}

	g.Go(func() error {
		return exportWorker.RunPeriodic(gctx, cfg.ExportInterval)
	})

	logger.Info("Export worker started",
		"export_dir", cfg.ExportDir,
		"interval", cfg.ExportInterval.String(),
		"backend", cfg.DataBackend)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully")
}
