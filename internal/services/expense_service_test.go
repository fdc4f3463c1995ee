package services

import (
	"context"
	"errors"
	"testing"

	"github.com/bindassguntupalli/hold-your-pocket/internal/amqp"
	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store/memory"
)

type recordingPublisher struct {
	events []*amqp.ExpenseEvent
	err    error
	closed bool
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, event *amqp.ExpenseEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func testExpense(userID string) core.Expense {
	return core.Expense{
		UserID:      userID,
		Category:    core.CategoryFood,
		Amount:      core.Money{Cents: 1250},
		Date:        core.NewDate(2024, 3, 15),
		Description: "groceries",
	}
}

func TestCreateExpensePublishesEvent(t *testing.T) {
	mem := memory.New()
	pub := &recordingPublisher{}
	svc := NewExpenseService(mem, pub)

	stored, err := svc.CreateExpense(context.Background(), testExpense("user-1"))
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected stored expense to have an ID")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	event := pub.events[0]
	if event.Kind != amqp.ExpenseCreated {
		t.Errorf("kind = %q, want %q", event.Kind, amqp.ExpenseCreated)
	}
	if event.ExpenseID != stored.ID || event.UserID != "user-1" {
		t.Errorf("event identifies %s/%s, want %s/user-1", event.ExpenseID, event.UserID, stored.ID)
	}
	if event.Year != 2024 || event.Month != 3 {
		t.Errorf("event period = %d-%d, want 2024-3", event.Year, event.Month)
	}
}

func TestCreateExpenseInvalid(t *testing.T) {
	mem := memory.New()
	pub := &recordingPublisher{}
	svc := NewExpenseService(mem, pub)

	bad := testExpense("user-1")
	bad.Amount = core.Money{Cents: 0}

	if _, err := svc.CreateExpense(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("no event expected on validation failure, got %d", len(pub.events))
	}
}

func TestCreateExpenseSurvivesPublishFailure(t *testing.T) {
	mem := memory.New()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(mem, pub)

	stored, err := svc.CreateExpense(context.Background(), testExpense("user-1"))
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	all, err := mem.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 1 || all[0].ID != stored.ID {
		t.Fatalf("expense not stored despite publish failure")
	}
}

func TestCreateExpenseNilPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil)

	if _, err := svc.CreateExpense(context.Background(), testExpense("user-1")); err != nil {
		t.Fatalf("CreateExpense with nil publisher: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close with nil publisher: %v", err)
	}
}

func TestUpdateExpensePublishesEvent(t *testing.T) {
	mem := memory.New()
	pub := &recordingPublisher{}
	svc := NewExpenseService(mem, pub)

	stored, err := svc.CreateExpense(context.Background(), testExpense("user-1"))
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	changed := stored
	changed.Description = "restaurant"
	if _, err := svc.UpdateExpense(context.Background(), "user-1", stored.ID, changed); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[1].Kind != amqp.ExpenseUpdated {
		t.Errorf("kind = %q, want %q", pub.events[1].Kind, amqp.ExpenseUpdated)
	}
}

func TestUpdateExpenseNotFound(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil)

	_, err := svc.UpdateExpense(context.Background(), "user-1", "missing", testExpense("user-1"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateExpenseWrongUserReadsAsAbsent(t *testing.T) {
	mem := memory.New()
	svc := NewExpenseService(mem, nil)

	stored, err := svc.CreateExpense(context.Background(), testExpense("user-1"))
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	_, err = svc.UpdateExpense(context.Background(), "user-2", stored.ID, testExpense("user-2"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign expense, got %v", err)
	}
	if err := svc.DeleteExpense(context.Background(), "user-2", stored.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
}

func TestUpdateExpenseMonthMovePublishesBothMonths(t *testing.T) {
	mem := memory.New()
	pub := &recordingPublisher{}
	svc := NewExpenseService(mem, pub)

	stored, err := svc.CreateExpense(context.Background(), testExpense("user-1"))
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	moved := stored
	moved.Date = core.NewDate(2024, 4, 2)
	if _, err := svc.UpdateExpense(context.Background(), "user-1", stored.ID, moved); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	// create + update-new-month + update-old-month
	if len(pub.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(pub.events))
	}
	months := map[int]bool{pub.events[1].Month: true, pub.events[2].Month: true}
	if !months[3] || !months[4] {
		t.Errorf("expected events for months 3 and 4, got %v", months)
	}
}

func TestDeleteExpensePublishesEvent(t *testing.T) {
	mem := memory.New()
	pub := &recordingPublisher{}
	svc := NewExpenseService(mem, pub)

	stored, err := svc.CreateExpense(context.Background(), testExpense("user-1"))
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if err := svc.DeleteExpense(context.Background(), "user-1", stored.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[1].Kind != amqp.ExpenseDeleted {
		t.Errorf("kind = %q, want %q", pub.events[1].Kind, amqp.ExpenseDeleted)
	}

	all, err := mem.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(all))
	}
}

func TestCloseClosesPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
}
