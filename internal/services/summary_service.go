package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

// RecentTransactions is how many transactions the dashboard lists.
const RecentTransactions = 3

type CategoryReport struct {
	Categories []core.CategoryTotal `json:"categories"`
	Total      float64              `json:"total"`
}

type MonthlyReport struct {
	Year   int               `json:"year"`
	Months []core.MonthTotal `json:"months"`
}

// BudgetReport is the insight summary of one budget month.
type BudgetReport struct {
	Month string `json:"month"`
	core.Insights
}

// SummaryService computes read-time aggregates over both collections. Every
// method returns a well-formed empty report alongside a load error.
type SummaryService struct {
	store storage.Store
}

func NewSummaryService(store storage.Store) *SummaryService {
	return &SummaryService{store: store}
}

func (s *SummaryService) transactions(ctx context.Context) ([]core.Transaction, error) {
	if err := s.store.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// load fetches transactions and budgets concurrently.
func (s *SummaryService) load(ctx context.Context) ([]core.Transaction, []core.Budget, error) {
	if err := s.store.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect store: %w", err)
	}

	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgets(gctx)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, budgets, nil
}

func (s *SummaryService) Categories(ctx context.Context) (CategoryReport, error) {
	txs, err := s.transactions(ctx)
	if err != nil {
		return CategoryReport{Categories: []core.CategoryTotal{}}, err
	}
	return CategoryReport{
		Categories: core.CategoryTotals(txs),
		Total:      core.TotalExpenses(txs),
	}, nil
}

// Monthly buckets expenses into Jan..Dec. A year of 0 merges all years.
func (s *SummaryService) Monthly(ctx context.Context, year int) (MonthlyReport, error) {
	txs, err := s.transactions(ctx)
	if err != nil {
		return MonthlyReport{Year: year, Months: core.MonthlyTotals(nil, year)}, err
	}
	return MonthlyReport{Year: year, Months: core.MonthlyTotals(txs, year)}, nil
}

// Budget compares the budget of month with what was spent. With an empty month
// the first (latest) budget is used against every transaction.
func (s *SummaryService) Budget(ctx context.Context, month string) (BudgetReport, error) {
	empty := BudgetReport{Month: month, Insights: core.ComputeInsights(nil)}
	if month != "" {
		if err := core.ValidateMonth(month); err != nil {
			return empty, err
		}
	}

	txs, budgets, err := s.load(ctx)
	if err != nil {
		return empty, err
	}

	b, ok := core.SelectBudget(budgets, month)
	if !ok {
		return empty, nil
	}
	if month != "" {
		txs = core.FilterByMonth(txs, month)
	}
	return BudgetReport{
		Month:    b.Month,
		Insights: core.ComputeInsights(core.BudgetVsActual(b.Budgets, txs)),
	}, nil
}

func (s *SummaryService) Dashboard(ctx context.Context) (core.DashboardSummary, error) {
	txs, err := s.transactions(ctx)
	if err != nil {
		return core.Dashboard(nil, RecentTransactions), err
	}
	return core.Dashboard(txs, RecentTransactions), nil
}
