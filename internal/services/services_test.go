package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budgetly/internal/amqp"
	"budgetly/internal/core"
	"budgetly/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []amqp.RecordEvent
	err    error
}

func (f *fakePublisher) PublishRecordEvent(_ context.Context, ev *amqp.RecordEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *ev)
	return f.err
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i := range f.events {
		out[i] = f.events[i].RoutingKey()
	}
	return out
}

var errBoom = errors.New("boom")

// failingStore breaks the list operations of an otherwise working store.
type failingStore struct {
	*memory.Store
	connectErr error
}

func (f *failingStore) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	return f.Store.Connect(ctx)
}

func (f *failingStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	return nil, errBoom
}

func (f *failingStore) ListBudgets(context.Context) ([]core.Budget, error) {
	return nil, errBoom
}

func TestTransactionServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.New(), pub)
	fixed := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	created, err := svc.Create(ctx, core.Transaction{Amount: 12, Description: "taxi", Category: core.CategoryBusiness})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Date.Equal(fixed) {
		t.Fatalf("date should default to now, got %v", created.Date)
	}

	desc := "airport taxi"
	updated, err := svc.Update(ctx, created.ID, core.TransactionPatch{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != desc || updated.Amount != 12 {
		t.Fatalf("update = %+v", updated)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}

	want := []string{"transaction.created", "transaction.updated", "transaction.deleted"}
	got := pub.keys()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTransactionServiceValidation(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.New(), pub)
	_, err := svc.Create(context.Background(), core.Transaction{Description: "x", Category: core.CategoryOthers})
	if !errors.Is(err, core.ErrMissingAmount) {
		t.Fatalf("expected ErrMissingAmount, got %v", err)
	}
	if len(pub.keys()) != 0 {
		t.Fatalf("no event should be published for rejected input")
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &fakePublisher{err: errBoom}
	svc := NewBudgetService(memory.New(), pub)
	if _, err := svc.Create(context.Background(), core.Budget{Month: "2025-01", Budgets: core.Limits{}}); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
	if len(pub.keys()) != 1 {
		t.Fatalf("expected one publish attempt")
	}
}

func TestNilPublisher(t *testing.T) {
	svc := NewBudgetService(memory.New(), nil)
	b, err := svc.Create(context.Background(), core.Budget{Month: "2025-01", Budgets: core.Limits{}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestBudgetServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewBudgetService(memory.New(), nil)

	if _, err := svc.Create(ctx, core.Budget{Month: "2025-02"}); !errors.Is(err, core.ErrMissingBudgets) {
		t.Fatalf("expected ErrMissingBudgets, got %v", err)
	}

	b, err := svc.Create(ctx, core.Budget{Month: "2025-02", Budgets: core.Limits{{Category: core.CategoryOthers, Amount: 30}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	month := "2025-03"
	updated, err := svc.Update(ctx, b.ID, core.BudgetPatch{Month: &month})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Month != month || len(updated.Budgets) != 1 {
		t.Fatalf("update = %+v", updated)
	}
	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestConnectFailure(t *testing.T) {
	store := &failingStore{Store: memory.New(), connectErr: errBoom}
	svc := NewTransactionService(store, nil)
	if _, err := svc.List(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	txs := []core.Transaction{
		{Amount: 40, Date: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), Description: "a", Category: core.CategoryBusiness},
		{Amount: 70, Date: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), Description: "b", Category: core.CategoryBusiness},
		{Amount: 5, Date: time.Date(2025, 2, 11, 0, 0, 0, 0, time.UTC), Description: "c", Category: core.CategoryOthers},
		{Amount: 25, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Description: "d", Category: core.CategoryBusiness},
	}
	for _, tx := range txs {
		if _, err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}
	for _, b := range []core.Budget{
		{Month: "2025-02", Budgets: core.Limits{{Category: core.CategoryBusiness, Amount: 100}}},
		{Month: "2025-03", Budgets: core.Limits{{Category: core.CategoryBusiness, Amount: 50}, {Category: core.CategoryOthers, Amount: 10}}},
	} {
		if _, err := s.CreateBudget(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestSummaryBudget(t *testing.T) {
	ctx := context.Background()
	svc := NewSummaryService(seeded(t))

	feb, err := svc.Budget(ctx, "2025-02")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if feb.Month != "2025-02" || len(feb.Items) != 1 {
		t.Fatalf("report = %+v", feb)
	}
	if feb.Items[0].ActualSpent != 110 || !feb.Overspent || feb.PercentageUsed != 110 {
		t.Fatalf("February insights = %+v", feb.Insights)
	}

	latest, err := svc.Budget(ctx, "")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if latest.Month != "2025-03" {
		t.Fatalf("expected latest budget, got %s", latest.Month)
	}
	if latest.TotalActual != 140 {
		t.Fatalf("without a month every transaction counts, total = %v", latest.TotalActual)
	}

	none, err := svc.Budget(ctx, "2020-01")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if none.Month != "2020-01" || len(none.Items) != 0 || none.Items == nil {
		t.Fatalf("expected empty report, got %+v", none)
	}

	if _, err := svc.Budget(ctx, "Feb"); !core.IsValidation(err) {
		t.Fatalf("expected validation error for bad month, got %v", err)
	}
}

func TestSummaryCategoriesMonthlyDashboard(t *testing.T) {
	ctx := context.Background()
	svc := NewSummaryService(seeded(t))

	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if cats.Total != 140 || len(cats.Categories) != 2 {
		t.Fatalf("categories = %+v", cats)
	}

	monthly, err := svc.Monthly(ctx, 2025)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if monthly.Months[1].Expenses != 115 || monthly.Months[2].Expenses != 25 {
		t.Fatalf("monthly = %+v", monthly.Months)
	}

	dash, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dash.RecentTransactions) != RecentTransactions || dash.RecentTransactions[0].Description != "d" {
		t.Fatalf("dashboard = %+v", dash)
	}
}

func TestSummaryLoadFailureReturnsEmptyShape(t *testing.T) {
	ctx := context.Background()
	svc := NewSummaryService(&failingStore{Store: memory.New()})

	cats, err := svc.Categories(ctx)
	if !errors.Is(err, errBoom) || cats.Categories == nil {
		t.Fatalf("categories = %+v, %v", cats, err)
	}
	monthly, err := svc.Monthly(ctx, 0)
	if !errors.Is(err, errBoom) || len(monthly.Months) != 12 {
		t.Fatalf("monthly = %+v, %v", monthly, err)
	}
	budget, err := svc.Budget(ctx, "")
	if !errors.Is(err, errBoom) || budget.Items == nil {
		t.Fatalf("budget = %+v, %v", budget, err)
	}
	dash, err := svc.Dashboard(ctx)
	if !errors.Is(err, errBoom) || dash.RecentTransactions == nil || dash.Categories == nil {
		t.Fatalf("dashboard = %+v, %v", dash, err)
	}
}

// recordingStore remembers the dates handed to the store.
type recordingStore struct {
	*memory.Store
	dates []time.Time
}

func (r *recordingStore) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	r.dates = append(r.dates, t.Date)
	return r.Store.CreateTransaction(ctx, t)
}

func (r *recordingStore) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if p.Date != nil {
		r.dates = append(r.dates, *p.Date)
	}
	return r.Store.UpdateTransaction(ctx, id, p)
}

func TestTransactionDatesNormalizedToUTC(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{Store: memory.New()}
	svc := NewTransactionService(store, nil)
	plusTwo := time.FixedZone("UTC+2", 2*60*60)

	created, err := svc.Create(ctx, core.Transaction{
		Amount: 10, Date: time.Date(2025, 3, 1, 0, 30, 0, 0, plusTwo), Description: "late train", Category: core.CategoryOthers,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	moved := time.Date(2025, 4, 1, 1, 0, 0, 0, plusTwo)
	if _, err := svc.Update(ctx, created.ID, core.TransactionPatch{Date: &moved}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(store.dates) != 2 {
		t.Fatalf("dates seen by store = %v", store.dates)
	}
	for _, d := range store.dates {
		if d.Location() != time.UTC {
			t.Fatalf("store received %v, want UTC", d)
		}
	}

	if _, err := NewBudgetService(store, nil).Create(ctx, core.Budget{
		Month: "2025-03", Budgets: core.Limits{{Category: core.CategoryOthers, Amount: 50}},
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := svc.Create(ctx, core.Transaction{
		Amount: 7, Date: time.Date(2025, 3, 1, 0, 30, 0, 0, plusTwo), Description: "night bus", Category: core.CategoryOthers,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	summary := NewSummaryService(store)
	monthly, err := summary.Monthly(ctx, 2025)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if monthly.Months[1].Expenses != 7 || monthly.Months[2].Expenses != 10 {
		t.Fatalf("Feb = %v, Mar = %v, want 7 and 10", monthly.Months[1].Expenses, monthly.Months[2].Expenses)
	}
	march, err := summary.Budget(ctx, "2025-03")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if march.TotalActual != 10 {
		t.Fatalf("March actual = %v, want 10", march.TotalActual)
	}
}
