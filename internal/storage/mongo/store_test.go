package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"budgetly/internal/core"
	"budgetly/internal/storage"
	"budgetly/internal/storage/storagetest"
)

func TestMongoContract(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	storagetest.Run(t, storagetest.Harness{
		New: func(t *testing.T) storage.Store {
			ctx := context.Background()
			s := New(uri, fmt.Sprintf("budgetly_test_%d", time.Now().UnixNano()))
			if err := s.Connect(ctx); err != nil {
				t.Fatalf("connect: %v", err)
			}
			t.Cleanup(func() {
				if db, err := s.handle(); err == nil {
					_ = db.Drop(ctx)
				}
				s.Close()
			})
			return s
		},
		MissingID: primitive.NewObjectID().Hex(),
	})
}

func TestLimitsDocKeepsOrder(t *testing.T) {
	l := core.Limits{{Category: core.CategoryOthers, Amount: 5}, {Category: core.CategoryBusiness, Amount: 7.25}}
	d := limitsToDoc(l)
	if d[0].Key != "Others" || d[1].Key != "Business" {
		t.Fatalf("unexpected key order %v", d)
	}
	back := limitsFromDoc(d)
	if len(back) != 2 || back[0] != l[0] || back[1] != l[1] {
		t.Fatalf("round trip = %+v", back)
	}
}

func TestLimitsFromDocNumericTypes(t *testing.T) {
	dec, err := primitive.ParseDecimal128("12.5")
	if err != nil {
		t.Fatal(err)
	}
	got := limitsFromDoc(bson.D{
		{Key: "Business", Value: int32(10)},
		{Key: "Others", Value: int64(20)},
		{Key: "Personal/Home", Value: dec},
	})
	want := []float64{10, 20, 12.5}
	for i, w := range want {
		if got[i].Amount != w {
			t.Fatalf("entry %d = %v, want %v", i, got[i].Amount, w)
		}
	}
	if empty := limitsFromDoc(nil); empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil limits, got %#v", empty)
	}
}

func TestParseID(t *testing.T) {
	if _, err := parseID("zzz"); !errors.Is(err, core.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	id := primitive.NewObjectID()
	got, err := parseID(id.Hex())
	if err != nil || got != id {
		t.Fatalf("parseID(%s) = %v, %v", id.Hex(), got, err)
	}
}

func TestNotConnected(t *testing.T) {
	s := New("mongodb://localhost:1", "x")
	if err := s.Ping(context.Background()); err == nil {
		t.Fatalf("expected error before connect")
	}
	if _, err := s.ListBudgets(context.Background()); err == nil {
		t.Fatalf("expected error before connect")
	}
}
