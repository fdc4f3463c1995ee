// Package sqlite is the production store adapter, backed by a local SQLite
// database via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Interface conformance, including the native upsert the reconciler
// prefers.
var (
	_ store.Store          = (*Store)(nil)
	_ store.BudgetUpserter = (*Store)(nil)
)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const expenseColumns = "id, user_id, category, amount_cents, date, description, created_at, updated_at"

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT user_id FROM expenses ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) ListByUserAndDateRange(ctx context.Context, userID string, start, end core.Date) ([]core.Expense, error) {
	// Dates are stored as YYYY-MM-DD text, so the BETWEEN is an inclusive
	// calendar comparison.
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND date BETWEEN ? AND ? ORDER BY date DESC, id DESC",
		userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses by range: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category, amount_cents, date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, string(e.Category), e.Amount.Cents, e.Date.String(), e.Description,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense id: %w", err)
	}

	e.ID = strconv.FormatInt(id, 10)
	e.CreatedAt = now
	e.UpdatedAt = now

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category.String())
	return e, nil
}

func (s *Store) Update(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET category = ?, amount_cents = ?, date = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		string(e.Category), e.Amount.Cents, e.Date.String(), e.Description,
		now.Format(time.RFC3339), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense result: %w", err)
	}
	if affected == 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense result: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

const budgetColumns = "id, user_id, year, month, amount_cents, created_at, updated_at"

func (s *Store) FindBudget(ctx context.Context, userID string, year, month int) (core.Budget, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND year = ? AND month = ?",
		userID, year, month)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("find budget: %w", err)
	}
	return b, true, nil
}

func (s *Store) InsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, year, month, amount_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Year, b.Month, b.Amount.Cents,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, store.ErrDuplicateBudget
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget id: %w", err)
	}
	b.ID = strconv.FormatInt(id, 10)
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, userID string, year, month int, amount core.Money) (core.Budget, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET amount_cents = ?, updated_at = ?
		 WHERE user_id = ? AND year = ? AND month = ?`,
		amount.Cents, now.Format(time.RFC3339), userID, year, month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget result: %w", err)
	}
	if affected == 0 {
		return core.Budget{}, store.ErrNotFound
	}
	b, _, err := s.FindBudget(ctx, userID, year, month)
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// UpsertBudget is a single atomic statement keyed on the UNIQUE
// (user_id, year, month) index, so concurrent sessions can never produce
// two rows for the same period.
func (s *Store) UpsertBudget(ctx context.Context, userID string, year, month int, amount core.Money) (core.Budget, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, year, month, amount_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, year, month)
		 DO UPDATE SET amount_cents = excluded.amount_cents, updated_at = excluded.updated_at
		 RETURNING `+budgetColumns,
		userID, year, month, amount.Cents, now, now)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget upserted",
		"user_id", userID,
		"year", year,
		"month", month,
		"amount_cents", amount.Cents)
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		id          int64
		userID      string
		category    string
		amountCents int64
		date        string
		description string
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&id, &userID, &category, &amountCents, &date, &description, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	return core.Expense{
		ID:          strconv.FormatInt(id, 10),
		UserID:      userID,
		Category:    core.NormalizeCategory(category),
		Amount:      core.Money{Cents: amountCents},
		Date:        core.DateOf(d),
		Description: description,
		CreatedAt:   parseTimestamp(createdAt),
		UpdatedAt:   parseTimestamp(updatedAt),
	}, nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		id          int64
		userID      string
		year        int
		month       int
		amountCents int64
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&id, &userID, &year, &month, &amountCents, &createdAt, &updatedAt); err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		ID:        strconv.FormatInt(id, 10),
		UserID:    userID,
		Year:      year,
		Month:     month,
		Amount:    core.Money{Cents: amountCents},
		CreatedAt: parseTimestamp(createdAt),
		UpdatedAt: parseTimestamp(updatedAt),
	}, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
