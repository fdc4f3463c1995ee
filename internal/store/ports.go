// Package store defines the persistence ports the rest of the application
// talks to, plus the sentinel errors adapters must return so callers can
// branch on outcome instead of on driver-specific error strings.
package store

import (
	"context"
	"errors"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
)

var (
	// ErrNotFound is returned when a record keyed by ID does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateBudget is returned by InsertBudget when a record for the
	// same (user, year, month) already exists. The budget reconciler
	// retries such an insert as an update exactly once.
	ErrDuplicateBudget = errors.New("budget already exists for period")
)

type (
	// ExpenseStore is the single-row read/write surface for expenses.
	ExpenseStore interface {
		ListUsers(ctx context.Context) ([]string, error)
		ListByUser(ctx context.Context, userID string) ([]core.Expense, error)
		Get(ctx context.Context, id string) (core.Expense, error)
		ListByUserAndDateRange(ctx context.Context, userID string, start, end core.Date) ([]core.Expense, error)
		Insert(ctx context.Context, e core.Expense) (core.Expense, error)
		Update(ctx context.Context, id string, e core.Expense) (core.Expense, error)
		Delete(ctx context.Context, id string) error
	}

	// BudgetStore provides the primitives the reconciler needs. FindBudget
	// reports absence with ok=false, never with an error.
	BudgetStore interface {
		FindBudget(ctx context.Context, userID string, year, month int) (core.Budget, bool, error)
		InsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, userID string, year, month int, amount core.Money) (core.Budget, error)
	}

	// BudgetUpserter is implemented by stores whose engine can perform the
	// keyed insert-or-update as one atomic statement. When available the
	// reconciler prefers it over the insert/retry protocol.
	BudgetUpserter interface {
		UpsertBudget(ctx context.Context, userID string, year, month int, amount core.Money) (core.Budget, error)
	}

	// Store is the combined surface a backend must provide.
	Store interface {
		ExpenseStore
		BudgetStore
	}
)
