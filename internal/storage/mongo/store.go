// Package mongo stores transactions and budgets in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const (
	transactionsCollection = "transactions"
	budgetsCollection      = "budgets"
)

var errNotConnected = errors.New("mongo store not connected")

// Store is a MongoDB backed storage.Store sharing a single client.
type Store struct {
	uri      string
	database string

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

func New(uri, database string) *Store {
	return &Store{uri: uri, database: database}
}

func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping mongo: %w", err)
	}

	s.client = client
	s.db = client.Database(s.database)
	slog.InfoContext(ctx, "MongoDB connected", "database", s.database)
	return nil
}

func (s *Store) handle() (*mongo.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errNotConnected
	}
	return s.db, nil
}

func (s *Store) collection(name string) (*mongo.Collection, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return errNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client, s.db = nil, nil
	return err
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", core.ErrInvalidID, id)
	}
	return oid, nil
}

type transactionDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Amount      float64            `bson:"amount"`
	Date        time.Time          `bson:"date"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
}

func (d transactionDoc) toCore() core.Transaction {
	return core.Transaction{
		ID:          d.ID.Hex(),
		Amount:      d.Amount,
		Date:        d.Date.UTC(),
		Description: d.Description,
		Category:    core.Category(d.Category),
	}
}

// budgetDoc keeps the limits as an ordered document.
type budgetDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Month   string             `bson:"month"`
	Budgets bson.D             `bson:"budgets"`
}

func limitsToDoc(l core.Limits) bson.D {
	d := bson.D{}
	for _, e := range l {
		d = append(d, bson.E{Key: string(e.Category), Value: e.Amount})
	}
	return d
}

func limitsFromDoc(d bson.D) core.Limits {
	out := core.Limits{}
	for _, e := range d {
		var amount float64
		switch v := e.Value.(type) {
		case float64:
			amount = v
		case int32:
			amount = float64(v)
		case int64:
			amount = float64(v)
		case primitive.Decimal128:
			amount, _ = strconv.ParseFloat(v.String(), 64)
		}
		out = append(out, core.Limit{Category: core.Category(e.Key), Amount: amount})
	}
	return out
}

func (d budgetDoc) toCore() core.Budget {
	return core.Budget{ID: d.ID.Hex(), Month: d.Month, Budgets: limitsFromDoc(d.Budgets)}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.ErrNotFound
	}
	return err
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	coll, err := s.collection(transactionsCollection)
	if err != nil {
		return core.Transaction{}, err
	}
	doc := transactionDoc{
		ID:          primitive.NewObjectID(),
		Amount:      t.Amount,
		Date:        t.Date.Truncate(time.Millisecond).UTC(),
		Description: t.Description,
		Category:    string(t.Category),
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved", "id", doc.ID.Hex(), "category", doc.Category, "amount", doc.Amount)
	return doc.toCore(), nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	coll, err := s.collection(transactionsCollection)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.Transaction{}, err
	}
	coll, err := s.collection(transactionsCollection)
	if err != nil {
		return core.Transaction{}, err
	}
	var doc transactionDoc
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return core.Transaction{}, notFound(err)
	}
	return doc.toCore(), nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if p.IsEmpty() {
		return s.GetTransaction(ctx, id)
	}
	coll, err := s.collection(transactionsCollection)
	if err != nil {
		return core.Transaction{}, err
	}

	set := bson.D{}
	if p.Amount != nil {
		set = append(set, bson.E{Key: "amount", Value: *p.Amount})
	}
	if p.Date != nil {
		set = append(set, bson.E{Key: "date", Value: p.Date.Truncate(time.Millisecond).UTC()})
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.Category != nil {
		set = append(set, bson.E{Key: "category", Value: string(*p.Category)})
	}

	var doc transactionDoc
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return doc.toCore(), nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.deleteOne(ctx, transactionsCollection, id)
}

func (s *Store) deleteOne(ctx context.Context, name, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	coll, err := s.collection(name)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	coll, err := s.collection(budgetsCollection)
	if err != nil {
		return core.Budget{}, err
	}
	doc := budgetDoc{ID: primitive.NewObjectID(), Month: b.Month, Budgets: limitsToDoc(b.Budgets)}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	slog.DebugContext(ctx, "Budget saved", "id", doc.ID.Hex(), "month", doc.Month)
	return doc.toCore(), nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	coll, err := s.collection(budgetsCollection)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "month", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	var docs []budgetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.Budget{}, err
	}
	coll, err := s.collection(budgetsCollection)
	if err != nil {
		return core.Budget{}, err
	}
	var doc budgetDoc
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return core.Budget{}, notFound(err)
	}
	return doc.toCore(), nil
}

func (s *Store) UpdateBudget(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.Budget{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Budget{}, err
	}
	if p.IsEmpty() {
		return s.GetBudget(ctx, id)
	}
	coll, err := s.collection(budgetsCollection)
	if err != nil {
		return core.Budget{}, err
	}

	set := bson.D{}
	if p.Month != nil {
		set = append(set, bson.E{Key: "month", Value: *p.Month})
	}
	if p.Budgets != nil {
		set = append(set, bson.E{Key: "budgets", Value: limitsToDoc(*p.Budgets)})
	}

	var doc budgetDoc
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	return doc.toCore(), nil
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	return s.deleteOne(ctx, budgetsCollection, id)
}
