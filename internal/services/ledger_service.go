package services

import (
	"context"
	"fmt"
	"log/slog"

	"spendtrack/internal/core"
)

// LedgerStore is the write side of the repository.
type LedgerStore interface {
	Append(ctx context.Context, userID int64, e core.ExpenseRecord) (int64, error)
	Fetch(ctx context.Context, userID int64) (core.Ledger, error)
}

// EventPublisher announces appended expenses to the scoring worker.
type EventPublisher interface {
	PublishExpenseAdded(ctx context.Context, userID, expenseID int64) error
}

// LedgerService orchestrates expense writes across SQLite and AMQP. The
// broker is optional: with no publisher configured, appends still succeed
// and anomaly labels simply go stale until the next periodic rescore.
type LedgerService struct {
	store  LedgerStore
	events EventPublisher
}

func NewLedgerService(store LedgerStore, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:  store,
		events: events,
	}
}

// AppendExpense saves an expense and notifies the scoring worker. The
// record is immutable once stored; there is no update or delete path.
func (s *LedgerService) AppendExpense(ctx context.Context, userID int64, e core.ExpenseRecord) (int64, error) {
	// Save to SQLite first (fast, reliable)
	id, err := s.store.Append(ctx, userID, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	// Publish async score message (non-blocking)
	if err := s.publishAddedMessage(ctx, userID, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense added message",
			"user_id", userID, "expense_id", id, "error", err)
		// Don't fail the request - expense is saved locally
	}

	return id, nil
}

// Ledger returns the user's full ledger, newest first.
func (s *LedgerService) Ledger(ctx context.Context, userID int64) (core.Ledger, error) {
	return s.store.Fetch(ctx, userID)
}

func (s *LedgerService) publishAddedMessage(ctx context.Context, userID, expenseID int64) error {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping expense added message")
		return nil
	}
	return s.events.PublishExpenseAdded(ctx, userID, expenseID)
}
