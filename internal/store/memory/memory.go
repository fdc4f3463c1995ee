// Package memory is a mutex-guarded in-memory store. It backs the default
// dev backend and the test suites, and enforces the same budget key
// invariant as the SQLite store so reconciliation races can be exercised
// without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
)

type budgetKey struct {
	userID string
	year   int
	month  int
}

type Store struct {
	mu       sync.Mutex
	nextID   int64
	expenses map[string]core.Expense
	budgets  map[budgetKey]core.Budget
	now      func() time.Time
}

func New() *Store {
	return &Store{
		expenses: make(map[string]core.Expense),
		budgets:  make(map[budgetKey]core.Budget),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) newID() string {
	s.nextID++
	return fmt.Sprintf("mem-%d", s.nextID)
}

// ListUsers returns the distinct user IDs with at least one expense,
// sorted for deterministic iteration.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, e := range s.expenses {
		seen[e.UserID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for userID := range seen {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out, nil
}

// ListByUser returns the user's expenses ordered by date descending,
// matching the order the remote store of the original product used.
func (s *Store) ListByUser(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

// ListByUserAndDateRange returns expenses within the inclusive window.
func (s *Store) ListByUserAndDateRange(_ context.Context, userID string, start, end core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID && e.Date.In(start, end) {
			out = append(out, e)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) Insert(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.newID()
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) Update(_ context.Context, id string, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	existing.Category = e.Category
	existing.Amount = e.Amount
	existing.Date = e.Date
	existing.Description = e.Description
	existing.UpdatedAt = s.now()
	if err := existing.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.expenses[id] = existing
	return existing, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) FindBudget(_ context.Context, userID string, year, month int) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[budgetKey{userID, year, month}]
	return b, ok, nil
}

func (s *Store) InsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := budgetKey{b.UserID, b.Year, b.Month}
	if _, exists := s.budgets[key]; exists {
		return core.Budget{}, store.ErrDuplicateBudget
	}
	b.ID = s.newID()
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.budgets[key] = b
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, userID string, year, month int, amount core.Money) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := budgetKey{userID, year, month}
	b, ok := s.budgets[key]
	if !ok {
		return core.Budget{}, store.ErrNotFound
	}
	b.Amount = amount
	b.UpdatedAt = s.now()
	s.budgets[key] = b
	return b, nil
}

// UpsertBudget performs the keyed insert-or-update under one lock, which
// makes it atomic with respect to concurrent callers of this store.
func (s *Store) UpsertBudget(_ context.Context, userID string, year, month int, amount core.Money) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := budgetKey{userID, year, month}
	now := s.now()
	b, ok := s.budgets[key]
	if ok {
		b.Amount = amount
		b.UpdatedAt = now
	} else {
		b = core.Budget{
			ID:        s.newID(),
			UserID:    userID,
			Year:      year,
			Month:     month,
			Amount:    amount,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	s.budgets[key] = b
	return b, nil
}

// BudgetCount reports the stored budget records for one user. Test hook
// for asserting the uniqueness invariant.
func (s *Store) BudgetCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.budgets {
		if key.userID == userID {
			n++
		}
	}
	return n
}

func sortByDateDesc(expenses []core.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[j].Date.Before(expenses[i].Date)
	})
}
