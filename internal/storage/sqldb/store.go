// Package sqldb stores transactions and budgets in SQLite or PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// insertionOrder names the column that grows with every insert: the implicit
// rowid on SQLite, the seq column on PostgreSQL.
func (d Dialect) insertionOrder() string {
	if d == DialectPostgres {
		return "seq"
	}
	return "rowid"
}

var errNotConnected = errors.New("sql store not connected")

// Store is a database/sql backed storage.Store. The connection is opened
// lazily by Connect and shared by every caller afterwards.
type Store struct {
	dialect Dialect
	dsn     string

	mu sync.Mutex
	db *sql.DB
}

func New(dialect Dialect, dsn string) *Store {
	return &Store{dialect: dialect, dsn: dsn}
}

func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	if s.dialect == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(s.dialect.driverName(), s.dsn)
	if err != nil {
		return fmt.Errorf("open %s database: %w", s.dialect, err)
	}
	if s.dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(s.dialect, s.dsn); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	s.db = db
	slog.InfoContext(ctx, "Database connected", "dialect", s.dialect)
	return nil
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errNotConnected
	}
	return s.db, nil
}

func (s *Store) Ping(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidID, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

const transactionColumns = `id, amount, date, description, category`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		ms       int64
		category string
	)
	if err := row.Scan(&t.ID, &t.Amount, &ms, &t.Description, &category); err != nil {
		return core.Transaction{}, err
	}
	t.Date = fromMillis(ms)
	t.Category = core.Category(category)
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	db, err := s.conn()
	if err != nil {
		return core.Transaction{}, err
	}

	t.ID = uuid.NewString()
	t.Date = fromMillis(toMillis(t.Date))
	_, err = db.ExecContext(ctx, s.rebind(`
		INSERT INTO transactions (id, amount, date, description, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		t.ID, t.Amount, toMillis(t.Date), t.Description, string(t.Category), time.Now().UnixMilli())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved", "id", t.ID, "category", t.Category, "amount", t.Amount)
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, `+s.dialect.insertionOrder()+` ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) getTransaction(ctx context.Context, q querier, id string) (core.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, s.rebind(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	if err := checkID(id); err != nil {
		return core.Transaction{}, err
	}
	db, err := s.conn()
	if err != nil {
		return core.Transaction{}, err
	}
	return s.getTransaction(ctx, db, id)
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := checkID(id); err != nil {
		return core.Transaction{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	db, err := s.conn()
	if err != nil {
		return core.Transaction{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := s.getTransaction(ctx, tx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	updated := p.Apply(current)
	updated.Date = fromMillis(toMillis(updated.Date))

	_, err = tx.ExecContext(ctx, s.rebind(`
		UPDATE transactions SET amount = ?, date = ?, description = ?, category = ?
		WHERE id = ?`),
		updated.Amount, toMillis(updated.Date), updated.Description, string(updated.Category), id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	db, err := s.conn()
	if err != nil {
		return err
	}
	return deleteByID(ctx, db, s.rebind(`DELETE FROM transactions WHERE id = ?`), id)
}

func deleteByID(ctx context.Context, q querier, query, id string) error {
	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

const budgetColumns = `id, month, budgets`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b   core.Budget
		raw string
	)
	if err := row.Scan(&b.ID, &b.Month, &raw); err != nil {
		return core.Budget{}, err
	}
	if err := json.Unmarshal([]byte(raw), &b.Budgets); err != nil {
		return core.Budget{}, fmt.Errorf("decode budgets of %s: %w", b.ID, err)
	}
	if b.Budgets == nil {
		b.Budgets = core.Limits{}
	}
	return b, nil
}

func encodeLimits(l core.Limits) (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode budgets: %w", err)
	}
	return string(data), nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	db, err := s.conn()
	if err != nil {
		return core.Budget{}, err
	}
	raw, err := encodeLimits(b.Budgets)
	if err != nil {
		return core.Budget{}, err
	}

	b.ID = uuid.NewString()
	b.Budgets = b.Budgets.Clone()
	_, err = db.ExecContext(ctx, s.rebind(`
		INSERT INTO budgets (id, month, budgets, created_at) VALUES (?, ?, ?, ?)`),
		b.ID, b.Month, raw, time.Now().UnixMilli())
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.DebugContext(ctx, "Budget saved", "id", b.ID, "month", b.Month)
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY month DESC, `+s.dialect.insertionOrder()+` ASC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (s *Store) getBudget(ctx context.Context, q querier, id string) (core.Budget, error) {
	b, err := scanBudget(q.QueryRowContext(ctx, s.rebind(`SELECT `+budgetColumns+` FROM budgets WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	if err := checkID(id); err != nil {
		return core.Budget{}, err
	}
	db, err := s.conn()
	if err != nil {
		return core.Budget{}, err
	}
	return s.getBudget(ctx, db, id)
}

func (s *Store) UpdateBudget(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	if err := checkID(id); err != nil {
		return core.Budget{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Budget{}, err
	}
	db, err := s.conn()
	if err != nil {
		return core.Budget{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := s.getBudget(ctx, tx, id)
	if err != nil {
		return core.Budget{}, err
	}
	updated := p.Apply(current)
	raw, err := encodeLimits(updated.Budgets)
	if err != nil {
		return core.Budget{}, err
	}

	_, err = tx.ExecContext(ctx, s.rebind(`UPDATE budgets SET month = ?, budgets = ? WHERE id = ?`),
		updated.Month, raw, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	db, err := s.conn()
	if err != nil {
		return err
	}
	return deleteByID(ctx, db, s.rebind(`DELETE FROM budgets WHERE id = ?`), id)
}
