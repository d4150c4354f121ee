// Package storage declares the persistence ports implemented by the memory,
// SQL and MongoDB backends.
package storage

import (
	"context"

	"budgetly/internal/core"
)

type (
	// Connector owns the shared connection of a backend. Connect is idempotent:
	// once connected, further calls reuse the existing connection.
	Connector interface {
		Connect(ctx context.Context) error
		Ping(ctx context.Context) error
		Close() error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// ListTransactions returns every transaction, most recent date first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		// ListBudgets returns every budget, latest month first.
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		UpdateBudget(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) error
	}

	// Store is the full persistence accessor used by the services.
	Store interface {
		Connector
		TransactionStore
		BudgetStore
	}
)
