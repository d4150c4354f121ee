package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budgetly/internal/core"
	"budgetly/internal/storage"
	"budgetly/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, storagetest.Harness{
		New: func(t *testing.T) storage.Store {
			s := New()
			if err := s.Connect(context.Background()); err != nil {
				t.Fatalf("connect: %v", err)
			}
			return s
		},
		MissingID: "00000000-0000-4000-8000-000000000000",
	})
}

func TestPingRequiresConnect(t *testing.T) {
	s := New()
	if err := s.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail before connect")
	}
	_ = s.Connect(context.Background())
	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail after close")
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	txs := `[
		{"amount": 12.5, "date": "2025-02-01T10:00:00Z", "description": "lunch", "category": "Business"},
		{"amount": 0, "date": "2025-02-02T10:00:00Z", "description": "bad", "category": "Business"},
		{"amount": 3, "date": "2025-03-02T10:00:00Z", "description": "pens", "category": "Others"}
	]`
	budgets := `[{"month": "2025-02", "budgets": {"Business": 100, "Others": "20"}}]`
	if err := os.WriteFile(filepath.Join(dir, "seed_transactions.json"), []byte(txs), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "seed_budgets.json"), []byte(budgets), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFromFiles(dir)
	ctx := context.Background()
	list, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 valid seeded transactions, got %d", len(list))
	}
	if list[0].Description != "pens" {
		t.Fatalf("expected most recent first, got %+v", list[0])
	}

	bs, err := s.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(bs) != 1 {
		t.Fatalf("expected 1 seeded budget, got %d", len(bs))
	}
	if v, ok := bs[0].Budgets.Get(core.CategoryOthers); !ok || v != 20 {
		t.Fatalf("seeded limit = %v, %v", v, ok)
	}
}

func TestNewFromFilesMissingDir(t *testing.T) {
	s := NewFromFiles(filepath.Join(t.TempDir(), "nope"))
	list, err := s.ListTransactions(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty store, got %v %v", list, err)
	}
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	b, err := s.CreateBudget(ctx, core.Budget{Month: "2025-01", Budgets: core.Limits{{Category: core.CategoryBusiness, Amount: 10}}})
	if err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListBudgets(ctx)
	list[0].Budgets[0].Amount = 999
	got, _ := s.GetBudget(ctx, b.ID)
	if got.Budgets[0].Amount != 10 {
		t.Fatalf("store mutated through listed value: %+v", got)
	}
}
