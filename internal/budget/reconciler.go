// Package budget maintains the one-budget-per-(user, year, month)
// invariant over a store that only offers single-row writes. Concurrent
// sessions for the same user are uncoordinated, so the write path must be
// race-free on the key: prefer the store's atomic keyed upsert, and fall
// back to optimistic insert with a single retry-as-update on conflict.
// Delete-then-insert is never used; it loses updates in its own window.
package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
)

// ErrValidation marks failures detected before any store I/O. Callers
// branch on it with errors.Is to distinguish bad input from store trouble.
var ErrValidation = errors.New("budget validation failed")

// ErrBelowMinimum is wrapped in ErrValidation when a configured business
// minimum rejects the amount.
var ErrBelowMinimum = errors.New("amount below configured minimum")

type Reconciler struct {
	budgets store.BudgetStore

	// minimumCents is an optional business rule: reject budgets under the
	// threshold. Zero disables it. Kept configurable because the product
	// never settled on whether the rule is real.
	minimumCents int64
}

type Option func(*Reconciler)

// WithMinimum enables the business-minimum validation rule.
func WithMinimum(cents int64) Option {
	return func(r *Reconciler) {
		r.minimumCents = cents
	}
}

func NewReconciler(budgets store.BudgetStore, opts ...Option) *Reconciler {
	r := &Reconciler{budgets: budgets}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetMonthlyBudget validates the amount, then writes the budget for
// (userID, year, month) such that exactly one record exists for the key
// afterwards. The returned record is the post-write stored state, so the
// caller reflects the authoritative value rather than its optimistic one.
func (r *Reconciler) SetMonthlyBudget(ctx context.Context, userID string, year, month int, amount core.Money) (core.Budget, error) {
	b := core.Budget{UserID: userID, Year: year, Month: month, Amount: amount}
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if r.minimumCents > 0 && amount.Cents < r.minimumCents {
		return core.Budget{}, fmt.Errorf("%w: %w", ErrValidation, ErrBelowMinimum)
	}

	// Preferred path: the store performs the keyed insert-or-update as one
	// atomic operation, leaving no window for a concurrent duplicate.
	if upserter, ok := r.budgets.(store.BudgetUpserter); ok {
		stored, err := upserter.UpsertBudget(ctx, userID, year, month, amount)
		if err != nil {
			return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
		}
		return stored, nil
	}

	// Fallback: optimistic insert; when a concurrent session won the
	// insert race, retry exactly once as an update. Any further failure
	// surfaces to the caller as a store error.
	stored, err := r.budgets.InsertBudget(ctx, b)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, store.ErrDuplicateBudget) {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget insert lost race, retrying as update",
		"user_id", userID, "year", year, "month", month)

	stored, err = r.budgets.UpdateBudget(ctx, userID, year, month, amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("retry budget update: %w", err)
	}
	return stored, nil
}

// GetCurrentBudget looks up the budget for now's calendar month. Absence
// is an expected outcome, reported with ok=false rather than an error.
func (r *Reconciler) GetCurrentBudget(ctx context.Context, userID string, now core.Date) (core.Budget, bool, error) {
	b, ok, err := r.budgets.FindBudget(ctx, userID, now.Year(), now.Month())
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("find budget: %w", err)
	}
	return b, ok, nil
}

// IsValidation reports whether err originated in pre-I/O validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
