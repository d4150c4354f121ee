package core

import (
	"math"
	"strings"
	"time"
)

const (
	CategoryPersonalHome Category = "Personal/Home"
	CategoryBusiness     Category = "Business"
	CategoryOthers       Category = "Others"
)

// MonthLayout is the time layout of Budget.Month ("YYYY-MM").
const MonthLayout = "2006-01"

const maxDescriptionLen = 200

type (
	// Category classifies transactions and budget limits.
	Category string

	Transaction struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Date        time.Time `json:"date"`
		Description string    `json:"description"`
		Category    Category  `json:"category"`
	}

	// TransactionPatch is a partial update; nil fields are left untouched.
	TransactionPatch struct {
		Amount      *float64   `json:"amount,omitempty"`
		Date        *time.Time `json:"date,omitempty"`
		Description *string    `json:"description,omitempty"`
		Category    *Category  `json:"category,omitempty"`
	}

	Budget struct {
		ID      string `json:"id"`
		Month   string `json:"month"`
		Budgets Limits `json:"budgets"`
	}

	BudgetPatch struct {
		Month   *string `json:"month,omitempty"`
		Budgets *Limits `json:"budgets,omitempty"`
	}
)

// Categories returns the fixed category enumeration in display order.
func Categories() []Category {
	return []Category{CategoryPersonalHome, CategoryBusiness, CategoryOthers}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryPersonalHome, CategoryBusiness, CategoryOthers:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

func validateAmount(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return NewValidationError("amount", "amount must be a finite number")
	}
	return nil
}

func validateDescription(d string) error {
	if strings.TrimSpace(d) == "" {
		return ErrEmptyDescription
	}
	if len(d) > maxDescriptionLen {
		return NewValidationError("description", "description too long (max 200 characters)")
	}
	return nil
}

func validateCategory(c Category) error {
	if strings.TrimSpace(string(c)) == "" {
		return ErrEmptyCategory
	}
	if !c.Valid() {
		return NewValidationError("category", "category must be one of Personal/Home, Business, Others")
	}
	return nil
}

// Validate checks a transaction before it is created.
func (t Transaction) Validate() error {
	if t.Amount == 0 {
		return ErrMissingAmount
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := validateCategory(t.Category); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return NewValidationError("date", "date cannot be zero")
	}
	return nil
}

func (p TransactionPatch) Validate() error {
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return NewValidationError("date", "date cannot be zero")
	}
	return nil
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Date == nil && p.Description == nil && p.Category == nil
}

// Apply returns t with the patched fields replaced.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	return t
}

// ValidateMonth checks the "YYYY-MM" form.
func ValidateMonth(m string) error {
	if strings.TrimSpace(m) == "" {
		return ErrEmptyMonth
	}
	if len(m) != len(MonthLayout) {
		return NewValidationError("month", "month must be in YYYY-MM format")
	}
	if _, err := time.Parse(MonthLayout, m); err != nil {
		return NewValidationError("month", "month must be in YYYY-MM format")
	}
	return nil
}

func (b Budget) Validate() error {
	if err := ValidateMonth(b.Month); err != nil {
		return err
	}
	if b.Budgets == nil {
		return ErrMissingBudgets
	}
	return b.Budgets.Validate()
}

func (p BudgetPatch) Validate() error {
	if p.Month != nil {
		if err := ValidateMonth(*p.Month); err != nil {
			return err
		}
	}
	if p.Budgets != nil {
		if err := p.Budgets.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p BudgetPatch) IsEmpty() bool {
	return p.Month == nil && p.Budgets == nil
}

func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Month != nil {
		b.Month = *p.Month
	}
	if p.Budgets != nil {
		b.Budgets = p.Budgets.Clone()
	}
	return b
}

// MonthOf formats a timestamp as a budget month key.
func MonthOf(t time.Time) string {
	return t.Format(MonthLayout)
}
