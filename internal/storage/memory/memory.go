package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps records in process memory, in insertion order.
type Store struct {
	mu           sync.Mutex
	connected    bool
	transactions []core.Transaction
	budgets      []core.Budget
}

func New() *Store {
	return &Store{}
}

// NewFromFiles seeds the store from seed_transactions.json and seed_budgets.json
// under base. Missing or unreadable files are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	var txs []core.Transaction
	if readJSON(filepath.Join(base, "seed_transactions.json"), &txs) {
		for _, t := range txs {
			if t.Validate() != nil {
				continue
			}
			t.ID = uuid.NewString()
			t.Date = t.Date.UTC()
			s.transactions = append(s.transactions, t)
		}
	}
	var budgets []core.Budget
	if readJSON(filepath.Join(base, "seed_budgets.json"), &budgets) {
		for _, b := range budgets {
			if b.Validate() != nil {
				continue
			}
			b.ID = uuid.NewString()
			s.budgets = append(s.budgets, b)
		}
	}
	return s
}

func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (s *Store) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return errors.New("memory store not connected")
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidID, id)
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.Date = t.Date.UTC()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := slices.Clone(s.transactions)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if out == nil {
		out = []core.Transaction{}
	}
	return out, nil
}

func (s *Store) transactionIndex(id string) int {
	return slices.IndexFunc(s.transactions, func(t core.Transaction) bool { return t.ID == id })
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	if err := checkID(id); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.transactions[i], nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := checkID(id); err != nil {
		return core.Transaction{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	updated := p.Apply(s.transactions[i])
	updated.Date = updated.Date.UTC()
	s.transactions[i] = updated
	return updated, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.transactions = slices.Delete(s.transactions, i, i+1)
	return nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = uuid.NewString()
	b.Budgets = b.Budgets.Clone()
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	out := make([]core.Budget, len(s.budgets))
	for i, b := range s.budgets {
		b.Budgets = b.Budgets.Clone()
		out[i] = b
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b core.Budget) int {
		return cmp.Compare(b.Month, a.Month)
	})
	return out, nil
}

func (s *Store) budgetIndex(id string) int {
	return slices.IndexFunc(s.budgets, func(b core.Budget) bool { return b.ID == id })
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	if err := checkID(id); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(id)
	if i < 0 {
		return core.Budget{}, core.ErrNotFound
	}
	b := s.budgets[i]
	b.Budgets = b.Budgets.Clone()
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	if err := checkID(id); err != nil {
		return core.Budget{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(id)
	if i < 0 {
		return core.Budget{}, core.ErrNotFound
	}
	s.budgets[i] = p.Apply(s.budgets[i])
	b := s.budgets[i]
	b.Budgets = b.Budgets.Clone()
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.budgets = slices.Delete(s.budgets, i, i+1)
	return nil
}
