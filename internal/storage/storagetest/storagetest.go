// Package storagetest holds the behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

// Harness describes a backend under test.
type Harness struct {
	// New returns a connected, empty store.
	New func(t *testing.T) storage.Store
	// MissingID is well formed for the backend but never assigned.
	MissingID string
}

// Run executes the shared store contract.
func Run(t *testing.T, h Harness) {
	t.Run("ConnectIsIdempotent", func(t *testing.T) { testConnect(t, h) })
	t.Run("TransactionCRUD", func(t *testing.T) { testTransactionCRUD(t, h) })
	t.Run("TransactionListOrder", func(t *testing.T) { testTransactionOrder(t, h) })
	t.Run("TransactionSameDateKeepsCreationOrder", func(t *testing.T) { testTransactionTies(t, h) })
	t.Run("TransactionDatesStoredInUTC", func(t *testing.T) { testTransactionUTC(t, h) })
	t.Run("TransactionValidation", func(t *testing.T) { testTransactionValidation(t, h) })
	t.Run("TransactionIDs", func(t *testing.T) { testTransactionIDs(t, h) })
	t.Run("BudgetCRUD", func(t *testing.T) { testBudgetCRUD(t, h) })
	t.Run("BudgetListOrder", func(t *testing.T) { testBudgetOrder(t, h) })
	t.Run("BudgetSameMonthKeepsCreationOrder", func(t *testing.T) { testBudgetTies(t, h) })
	t.Run("BudgetIDs", func(t *testing.T) { testBudgetIDs(t, h) })
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func testConnect(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	for i := 0; i < 3; i++ {
		if err := s.Connect(ctx); err != nil {
			t.Fatalf("connect #%d: %v", i, err)
		}
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func testTransactionCRUD(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	created, err := s.CreateTransaction(ctx, core.Transaction{
		Amount:      42.5,
		Date:        at(2025, time.March, 14),
		Description: "office chair",
		Category:    core.CategoryBusiness,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("create returned empty id")
	}

	list, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list = %+v, want the created record", list)
	}

	got, err := s.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != 42.5 || got.Description != "office chair" || got.Category != core.CategoryBusiness || !got.Date.Equal(created.Date) {
		t.Fatalf("get = %+v, want %+v", got, created)
	}

	amount := 50.0
	updated, err := s.UpdateTransaction(ctx, created.ID, core.TransactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount != 50 {
		t.Fatalf("amount not updated: %+v", updated)
	}
	if updated.Description != created.Description || updated.Category != created.Category || !updated.Date.Equal(created.Date) {
		t.Fatalf("unpatched fields changed: %+v vs %+v", updated, created)
	}

	same, err := s.UpdateTransaction(ctx, created.ID, core.TransactionPatch{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if same.Amount != 50 {
		t.Fatalf("empty update changed record: %+v", same)
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateTransaction(ctx, created.ID, core.TransactionPatch{Amount: &amount}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update after delete = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
}

func testTransactionOrder(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	for _, d := range []time.Time{at(2025, time.January, 5), at(2025, time.June, 1), at(2024, time.December, 31)} {
		if _, err := s.CreateTransaction(ctx, core.Transaction{
			Amount: 1, Date: d, Description: "x", Category: core.CategoryOthers,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Date.After(list[i-1].Date) {
			t.Fatalf("list not sorted by date desc: %v then %v", list[i-1].Date, list[i].Date)
		}
	}
}

func testTransactionTies(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	var ids []string
	for i := 0; i < 8; i++ {
		created, err := s.CreateTransaction(ctx, core.Transaction{
			Amount: float64(i + 1), Date: at(2025, time.April, 2), Description: "tie", Category: core.CategoryOthers,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, created.ID)
	}
	list, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(ids) {
		t.Fatalf("expected %d records, got %d", len(ids), len(list))
	}
	for i, id := range ids {
		if list[i].ID != id {
			t.Fatalf("record %d = %s, want %s (creation order)", i, list[i].ID, id)
		}
	}
}

func testTransactionUTC(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	local := time.Date(2025, time.March, 1, 0, 30, 0, 0, time.FixedZone("UTC+2", 2*60*60))

	created, err := s.CreateTransaction(ctx, core.Transaction{
		Amount: 10, Date: local, Description: "late train", Category: core.CategoryPersonalHome,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date.Location() != time.UTC || !got.Date.Equal(local) {
		t.Fatalf("stored date = %v, want %v in UTC", got.Date, local.UTC())
	}
	if core.MonthOf(got.Date) != "2025-02" {
		t.Fatalf("month = %s, want 2025-02", core.MonthOf(got.Date))
	}

	moved := time.Date(2025, time.June, 30, 23, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60))
	updated, err := s.UpdateTransaction(ctx, created.ID, core.TransactionPatch{Date: &moved})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Date.Location() != time.UTC || core.MonthOf(updated.Date) != "2025-07" {
		t.Fatalf("updated date = %v, want July in UTC", updated.Date)
	}
}

func testTransactionValidation(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	_, err := s.CreateTransaction(ctx, core.Transaction{
		Amount: 1, Date: at(2025, time.May, 1), Description: "x", Category: "Travel",
	})
	if !core.IsValidation(err) {
		t.Fatalf("create with unknown category = %v, want validation error", err)
	}

	created, err := s.CreateTransaction(ctx, core.Transaction{
		Amount: 1, Date: at(2025, time.May, 1), Description: "x", Category: core.CategoryOthers,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bad := core.Category("Travel")
	if _, err := s.UpdateTransaction(ctx, created.ID, core.TransactionPatch{Category: &bad}); !core.IsValidation(err) {
		t.Fatalf("update with unknown category = %v, want validation error", err)
	}
}

func testTransactionIDs(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	amount := 1.0
	if _, err := s.UpdateTransaction(ctx, h.MissingID, core.TransactionPatch{Amount: &amount}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update missing = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, h.MissingID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete missing = %v, want ErrNotFound", err)
	}
	for _, id := range []string{"", "not-an-id"} {
		if _, err := s.GetTransaction(ctx, id); !errors.Is(err, core.ErrInvalidID) {
			t.Fatalf("get %q = %v, want ErrInvalidID", id, err)
		}
		if err := s.DeleteTransaction(ctx, id); !errors.Is(err, core.ErrInvalidID) {
			t.Fatalf("delete %q = %v, want ErrInvalidID", id, err)
		}
	}
}

func testBudgetCRUD(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	limits := core.Limits{
		{Category: core.CategoryOthers, Amount: 50},
		{Category: core.CategoryPersonalHome, Amount: 1000},
		{Category: core.CategoryBusiness, Amount: 250.75},
	}
	created, err := s.CreateBudget(ctx, core.Budget{Month: "2025-04", Budgets: limits})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("create returned empty id")
	}

	got, err := s.GetBudget(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Month != "2025-04" || len(got.Budgets) != len(limits) {
		t.Fatalf("get = %+v", got)
	}
	for i := range limits {
		if got.Budgets[i] != limits[i] {
			t.Fatalf("limit %d = %+v, want %+v (order must be kept)", i, got.Budgets[i], limits[i])
		}
	}

	dup, err := s.CreateBudget(ctx, core.Budget{Month: "2025-04", Budgets: core.Limits{}})
	if err != nil {
		t.Fatalf("duplicate month must be accepted: %v", err)
	}

	newLimits := core.Limits{{Category: core.CategoryBusiness, Amount: 10}}
	updated, err := s.UpdateBudget(ctx, created.ID, core.BudgetPatch{Budgets: &newLimits})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Month != "2025-04" || len(updated.Budgets) != 1 || updated.Budgets[0].Amount != 10 {
		t.Fatalf("update = %+v", updated)
	}

	badMonth := "April"
	if _, err := s.UpdateBudget(ctx, created.ID, core.BudgetPatch{Month: &badMonth}); !core.IsValidation(err) {
		t.Fatalf("update with bad month = %v, want validation error", err)
	}

	if err := s.DeleteBudget(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteBudget(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}

	list, err := s.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != dup.ID {
		t.Fatalf("list = %+v, want only the duplicate-month budget", list)
	}
}

func testBudgetOrder(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	for _, m := range []string{"2025-01", "2025-11", "2024-12", "2025-03"} {
		if _, err := s.CreateBudget(ctx, core.Budget{Month: m, Budgets: core.Limits{}}); err != nil {
			t.Fatalf("create %s: %v", m, err)
		}
	}
	list, err := s.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2025-11", "2025-03", "2025-01", "2024-12"}
	if len(list) != len(want) {
		t.Fatalf("expected %d budgets, got %d", len(want), len(list))
	}
	for i, m := range want {
		if list[i].Month != m {
			t.Fatalf("budget %d month = %s, want %s", i, list[i].Month, m)
		}
	}
}

func testBudgetTies(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	var ids []string
	for i := 0; i < 8; i++ {
		created, err := s.CreateBudget(ctx, core.Budget{
			Month: "2025-05", Budgets: core.Limits{{Category: core.CategoryOthers, Amount: float64(i)}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, created.ID)
	}
	list, err := s.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(ids) {
		t.Fatalf("expected %d budgets, got %d", len(ids), len(list))
	}
	for i, id := range ids {
		if list[i].ID != id {
			t.Fatalf("budget %d = %s, want %s (creation order)", i, list[i].ID, id)
		}
	}
	if b, ok := core.SelectBudget(list, "2025-05"); !ok || b.ID != ids[0] {
		t.Fatalf("SelectBudget = %s, want the first created %s", b.ID, ids[0])
	}
}

func testBudgetIDs(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)
	m := "2025-01"
	if _, err := s.UpdateBudget(ctx, h.MissingID, core.BudgetPatch{Month: &m}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update missing = %v, want ErrNotFound", err)
	}
	if err := s.DeleteBudget(ctx, h.MissingID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete missing = %v, want ErrNotFound", err)
	}
	if _, err := s.GetBudget(ctx, "not-an-id"); !errors.Is(err, core.ErrInvalidID) {
		t.Fatalf("get invalid = %v, want ErrInvalidID", err)
	}
}
