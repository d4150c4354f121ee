package services

import (
	"context"
	"fmt"
	"time"

	"budgetly/internal/amqp"
	"budgetly/internal/core"
	"budgetly/internal/storage"
)

// TransactionService orchestrates transaction operations across the store and AMQP.
type TransactionService struct {
	store  storage.Store
	events EventPublisher
	now    func() time.Time
}

// NewTransactionService wires the store and an optional event publisher (nil disables events).
func NewTransactionService(store storage.Store, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, events: events, now: time.Now}
}

// Create stores t, stamping it with the current time when no date was given.
// Dates are stored in UTC.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Date.IsZero() {
		t.Date = s.now()
	}
	t.Date = t.Date.UTC()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.Connect(ctx); err != nil {
		return core.Transaction{}, fmt.Errorf("connect store: %w", err)
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	publish(ctx, s.events, amqp.KindTransaction, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	if err := s.store.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	if err := s.store.Connect(ctx); err != nil {
		return core.Transaction{}, fmt.Errorf("connect store: %w", err)
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if p.Date != nil {
		date := p.Date.UTC()
		p.Date = &date
	}
	if err := s.store.Connect(ctx); err != nil {
		return core.Transaction{}, fmt.Errorf("connect store: %w", err)
	}
	updated, err := s.store.UpdateTransaction(ctx, id, p)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	publish(ctx, s.events, amqp.KindTransaction, amqp.ActionUpdated, updated.ID)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	publish(ctx, s.events, amqp.KindTransaction, amqp.ActionDeleted, id)
	return nil
}
