package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bindassguntupalli/hold-your-pocket/internal/amqp"
	"github.com/bindassguntupalli/hold-your-pocket/internal/backend"
	"github.com/bindassguntupalli/hold-your-pocket/internal/budget"
	"github.com/bindassguntupalli/hold-your-pocket/internal/config"
	apphttp "github.com/bindassguntupalli/hold-your-pocket/internal/http"
	applog "github.com/bindassguntupalli/hold-your-pocket/internal/log"
	"github.com/bindassguntupalli/hold-your-pocket/internal/services"
)

func main() {
	// .env is for local development; absence is normal in containers.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(applog.ComponentApp, cfg.LogLevel)

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

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The store is still fully usable; exports just wait for the
			// worker's periodic pass.
			logger.Warn("AMQP unavailable, expense events disabled", applog.FieldError, err)
		} else {
			publisher = client
		}
	}

	expenseService := services.NewExpenseService(st, publisher)
	defer expenseService.Close()

	var budgetOpts []budget.Option
	if cfg.BudgetMinimumCents > 0 {
		budgetOpts = append(budgetOpts, budget.WithMinimum(cfg.BudgetMinimumCents))
	}
	reconciler := budget.NewReconciler(st, budgetOpts...)

	srv := apphttp.NewServer(":"+cfg.Port, expenseService, st, reconciler)

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
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting hold-your-pocket server",
		"port", cfg.Port,
		"backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
