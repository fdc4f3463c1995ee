// Package services orchestrates store writes with export eventing.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bindassguntupalli/hold-your-pocket/internal/amqp"
	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
)

// EventPublisher is the slice of the AMQP client the service needs.
// Satisfied by *amqp.Client; nil disables eventing entirely.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
	Close() error
}

// ExpenseService writes expenses to the store and notifies the export
// worker. The store write is authoritative; a failed publish is logged
// and swallowed so a broker outage never loses user data.
type ExpenseService struct {
	expenses  store.ExpenseStore
	publisher EventPublisher
}

func NewExpenseService(expenses store.ExpenseStore, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		expenses:  expenses,
		publisher: publisher,
	}
}

func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	stored, err := s.expenses.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseCreated, stored.ID, stored.UserID, stored.Date.Year(), stored.Date.Month()))
	return stored, nil
}

// UpdateExpense rewrites an expense the caller owns. A record belonging
// to another user reads as absent, never as forbidden.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, id string, e core.Expense) (core.Expense, error) {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}

	e.UserID = userID
	stored, err := s.expenses.Update(ctx, id, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseUpdated, stored.ID, stored.UserID, stored.Date.Year(), stored.Date.Month()))
	// A date change also dirties the month the expense left.
	if existing.Date.Year() != stored.Date.Year() || existing.Date.Month() != stored.Date.Month() {
		s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseUpdated, stored.ID, stored.UserID, existing.Date.Year(), existing.Date.Month()))
	}
	return stored, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.expenses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseDeleted, id, userID, existing.Date.Year(), existing.Date.Month()))
	return nil
}

func (s *ExpenseService) owned(ctx context.Context, userID, id string) (core.Expense, error) {
	existing, err := s.expenses.Get(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if existing.UserID != userID {
		return core.Expense{}, store.ErrNotFound
	}
	return existing, nil
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		// The expense is already stored; the worker's periodic re-export
		// catches up on anything a dropped event would have triggered.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"kind", event.Kind,
			"expense_id", event.ExpenseID,
			"error", err)
	}
}

// Close releases the publisher connection, if any.
func (s *ExpenseService) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
