package core

import (
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// MonthNames are the twelve slots of MonthlyTotals, in calendar order.
var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var hundred = decimal.NewFromInt(100)

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
	// Share is Amount as a percentage of all categories, one decimal.
	Share float64 `json:"share"`
}

// MonthTotal is one slot of the Jan..Dec expense chart.
type MonthTotal struct {
	Month    string  `json:"month"`
	Expenses float64 `json:"expenses"`
}

// BudgetComparison pairs a category's limit with what was spent in it.
type BudgetComparison struct {
	Category    Category `json:"category"`
	BudgetLimit float64  `json:"budgetLimit"`
	ActualSpent float64  `json:"actualSpent"`
}

type CategoryInsight struct {
	BudgetComparison
	PercentageUsed int  `json:"percentageUsed"`
	Overspent      bool `json:"overspent"`
}

// Insights is the overspend summary of a budget-vs-actual comparison.
type Insights struct {
	Items          []CategoryInsight `json:"items"`
	TotalBudget    float64           `json:"totalBudget"`
	TotalActual    float64           `json:"totalActual"`
	PercentageUsed int               `json:"percentageUsed"`
	Overspent      bool              `json:"overspent"`
}

type DashboardSummary struct {
	TotalExpenses      float64         `json:"totalExpenses"`
	Categories         []CategoryTotal `json:"categories"`
	RecentTransactions []Transaction   `json:"recentTransactions"`
}

// amountOf coerces amounts that cannot be summed to zero.
func amountOf(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// CategoryTotals sums amounts per category, in first-seen category order.
func CategoryTotals(txs []Transaction) []CategoryTotal {
	var order []Category
	sums := make(map[Category]decimal.Decimal)
	total := decimal.Zero
	for _, t := range txs {
		a := amountOf(t.Amount)
		if _, ok := sums[t.Category]; !ok {
			order = append(order, t.Category)
		}
		sums[t.Category] = sums[t.Category].Add(a)
		total = total.Add(a)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		sum := sums[c]
		share := 0.0
		if !total.IsZero() {
			share = sum.Div(total).Mul(hundred).Round(1).InexactFloat64()
		}
		out = append(out, CategoryTotal{Category: c, Amount: sum.InexactFloat64(), Share: share})
	}
	return out
}

// TotalExpenses sums every transaction amount.
func TotalExpenses(txs []Transaction) float64 {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(amountOf(t.Amount))
	}
	return total.InexactFloat64()
}

// MonthlyTotals buckets amounts by calendar month into exactly 12 slots.
// A year of 0 merges every year into the same month slot; any other value
// restricts the buckets to that calendar year.
func MonthlyTotals(txs []Transaction, year int) []MonthTotal {
	var sums [12]decimal.Decimal
	for _, t := range txs {
		if t.Date.IsZero() {
			continue
		}
		if year != 0 && t.Date.Year() != year {
			continue
		}
		m := t.Date.Month() - time.January
		sums[m] = sums[m].Add(amountOf(t.Amount))
	}

	out := make([]MonthTotal, len(MonthNames))
	for i, name := range MonthNames {
		out[i] = MonthTotal{Month: name, Expenses: sums[i].InexactFloat64()}
	}
	return out
}

// BudgetVsActual compares each budgeted category with the spend of matching
// transactions. Categories without a budget entry are left out.
func BudgetVsActual(limits Limits, txs []Transaction) []BudgetComparison {
	out := make([]BudgetComparison, 0, len(limits))
	for _, l := range limits {
		spent := decimal.Zero
		for _, t := range txs {
			if t.Category == l.Category {
				spent = spent.Add(amountOf(t.Amount))
			}
		}
		out = append(out, BudgetComparison{
			Category:    l.Category,
			BudgetLimit: amountOf(l.Amount).InexactFloat64(),
			ActualSpent: spent.InexactFloat64(),
		})
	}
	return out
}

// MaxPercentage bounds PercentageUsed in both directions.
const MaxPercentage = math.MaxInt32

// PercentageUsed is round(actual/budget*100), or 0 when there is no budget.
// Halves round up and the result is clamped to ±MaxPercentage.
func PercentageUsed(actual, budget float64) int {
	if budget <= 0 || math.IsNaN(actual) || math.IsInf(actual, 0) {
		return 0
	}
	p := math.Floor(actual/budget*100 + 0.5)
	switch {
	case math.IsNaN(p):
		return 0
	case p >= MaxPercentage:
		return MaxPercentage
	case p <= -MaxPercentage:
		return -MaxPercentage
	}
	return int(p)
}

// ComputeInsights totals the comparison rows and flags overspending both overall
// and per category.
func ComputeInsights(rows []BudgetComparison) Insights {
	budget, actual := decimal.Zero, decimal.Zero
	items := make([]CategoryInsight, 0, len(rows))
	for _, r := range rows {
		budget = budget.Add(amountOf(r.BudgetLimit))
		actual = actual.Add(amountOf(r.ActualSpent))
		items = append(items, CategoryInsight{
			BudgetComparison: r,
			PercentageUsed:   PercentageUsed(r.ActualSpent, r.BudgetLimit),
			Overspent:        r.ActualSpent > r.BudgetLimit,
		})
	}
	tb, ta := budget.InexactFloat64(), actual.InexactFloat64()
	return Insights{
		Items:          items,
		TotalBudget:    tb,
		TotalActual:    ta,
		PercentageUsed: PercentageUsed(ta, tb),
		Overspent:      ta > tb,
	}
}

// SelectBudget picks the budget a comparison is made against: the first one
// supplied, or the first with the given month when month is not empty.
func SelectBudget(budgets []Budget, month string) (Budget, bool) {
	for _, b := range budgets {
		if month == "" || b.Month == month {
			return b, true
		}
	}
	return Budget{}, false
}

// FilterByMonth keeps the transactions dated in month ("YYYY-MM").
func FilterByMonth(txs []Transaction, month string) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if !t.Date.IsZero() && MonthOf(t.Date) == month {
			out = append(out, t)
		}
	}
	return out
}

// Dashboard returns the overall total, the category breakdown and up to recent
// transactions, newest first.
func Dashboard(txs []Transaction, recent int) DashboardSummary {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if recent < 0 {
		recent = 0
	}
	if len(sorted) > recent {
		sorted = sorted[:recent]
	}
	if sorted == nil {
		sorted = []Transaction{}
	}
	return DashboardSummary{
		TotalExpenses:      TotalExpenses(txs),
		Categories:         CategoryTotals(txs),
		RecentTransactions: sorted,
	}
}
