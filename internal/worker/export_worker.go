// Package worker keeps CSV snapshots of each user's monthly expenses on
// disk, driven by expense change events and a periodic catch-up pass.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/amqp"
	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/export"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
)

// ExportWorker re-renders the whole month a change touches rather than
// patching single rows, so a lost event only delays an export until the
// next periodic pass instead of corrupting it.
type ExportWorker struct {
	expenses  store.ExpenseStore
	exportDir string
	mirror    export.RowAppender
	batchSize int
	now       func() time.Time
}

func NewExportWorker(expenses store.ExpenseStore, exportDir string, mirror export.RowAppender, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExportWorker{
		expenses:  expenses,
		exportDir: exportDir,
		mirror:    mirror,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (w *ExportWorker) SetClock(now func() time.Time) {
	w.now = now
}

// HandleExpenseEvent re-exports the month the event touches. Errors
// propagate so the AMQP consumer can Nack and redeliver.
func (w *ExportWorker) HandleExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"kind", event.Kind,
		"expense_id", event.ExpenseID,
		"user_id", event.UserID,
		"year", event.Year,
		"month", event.Month)

	if err := w.ExportMonth(ctx, event.UserID, event.Year, event.Month); err != nil {
		return fmt.Errorf("export month for event: %w", err)
	}
	return nil
}

// ExportMonth writes <exportDir>/<userID>/<year>-<month>.csv from the
// store's current contents. The file is written to a temp path and
// renamed so readers never observe a half-written snapshot.
func (w *ExportWorker) ExportMonth(ctx context.Context, userID string, year, month int) error {
	first, last := core.NewDate(year, month, 1).MonthBounds()
	expenses, err := w.expenses.ListByUserAndDateRange(ctx, userID, first, last)
	if err != nil {
		return fmt.Errorf("list expenses for export: %w", err)
	}

	userDir := filepath.Join(w.exportDir, userID)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	target := filepath.Join(userDir, fmt.Sprintf("%04d-%02d.csv", year, month))
	tmp, err := os.CreateTemp(userDir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := export.WriteCSV(tmp, expenses); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("publish export file: %w", err)
	}

	slog.InfoContext(ctx, "Month exported",
		"user_id", userID,
		"year", year,
		"month", month,
		"rows", len(expenses),
		"file", target)

	if w.mirror != nil {
		if err := w.mirrorExpenses(ctx, userID, expenses); err != nil {
			// The on-disk snapshot is authoritative; the mirror catches up
			// on the next export of this month.
			slog.ErrorContext(ctx, "Failed to mirror export",
				"user_id", userID,
				"year", year,
				"month", month,
				"error", err)
		}
	}
	return nil
}

func (w *ExportWorker) mirrorExpenses(ctx context.Context, userID string, expenses []core.Expense) error {
	for start := 0; start < len(expenses); start += w.batchSize {
		end := min(start+w.batchSize, len(expenses))
		if err := w.mirror.AppendExpenses(ctx, userID, expenses[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ExportCurrentMonth exports the month in progress for every known
// user. Runs at startup to recover from missed events and on every
// periodic tick. Per-user failures are logged and do not stop the pass.
func (w *ExportWorker) ExportCurrentMonth(ctx context.Context) error {
	users, err := w.expenses.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users for export: %w", err)
	}

	now := w.now()
	errorCount := 0
	for _, userID := range users {
		if err := w.ExportMonth(ctx, userID, now.Year(), int(now.Month())); err != nil {
			slog.ErrorContext(ctx, "Failed to export user's month",
				"user_id", userID,
				"error", err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("export pass: %d of %d users failed", errorCount, len(users))
	}
	return nil
}

// RunPeriodic re-exports the current month on every interval tick until
// the context is cancelled.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportCurrentMonth(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export pass failed", "error", err)
			}
		}
	}
}
