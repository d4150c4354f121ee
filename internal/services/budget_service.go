package services

import (
	"context"
	"fmt"

	"budgetly/internal/amqp"
	"budgetly/internal/core"
	"budgetly/internal/storage"
)

// BudgetService orchestrates budget operations across the store and AMQP.
type BudgetService struct {
	store  storage.Store
	events EventPublisher
}

func NewBudgetService(store storage.Store, events EventPublisher) *BudgetService {
	return &BudgetService{store: store, events: events}
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.Connect(ctx); err != nil {
		return core.Budget{}, fmt.Errorf("connect store: %w", err)
	}
	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	publish(ctx, s.events, amqp.KindBudget, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	if err := s.store.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

func (s *BudgetService) Get(ctx context.Context, id string) (core.Budget, error) {
	if err := s.store.Connect(ctx); err != nil {
		return core.Budget{}, fmt.Errorf("connect store: %w", err)
	}
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	if err := p.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.Connect(ctx); err != nil {
		return core.Budget{}, fmt.Errorf("connect store: %w", err)
	}
	updated, err := s.store.UpdateBudget(ctx, id, p)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %s: %w", id, err)
	}
	publish(ctx, s.events, amqp.KindBudget, amqp.ActionUpdated, updated.ID)
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, id string) error {
	if err := s.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	publish(ctx, s.events, amqp.KindBudget, amqp.ActionDeleted, id)
	return nil
}
