package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Limit is the spending limit of one category.
type Limit struct {
	Category Category
	Amount   float64
}

// Limits is an ordered category -> limit mapping. It encodes to and decodes from a
// JSON object, keeping the key order of the document. Keys must belong to the
// category enumeration (see Categories); each key may appear once.
type Limits []Limit

// Get returns the limit for c.
func (l Limits) Get(c Category) (float64, bool) {
	for _, e := range l {
		if e.Category == c {
			return e.Amount, true
		}
	}
	return 0, false
}

func (l Limits) Clone() Limits {
	if l == nil {
		return nil
	}
	return append(Limits{}, l...)
}

func (l Limits) Validate() error {
	seen := make(map[Category]struct{}, len(l))
	for _, e := range l {
		if !e.Category.Valid() {
			return NewValidationError("budgets", fmt.Sprintf("unknown budget category %q", e.Category))
		}
		if _, dup := seen[e.Category]; dup {
			return NewValidationError("budgets", fmt.Sprintf("duplicate budget category %q", e.Category))
		}
		seen[e.Category] = struct{}{}
		if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount < 0 {
			return NewValidationError("budgets", fmt.Sprintf("budget for %q must be a non-negative number", e.Category))
		}
	}
	return nil
}

func (l Limits) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(e.Category))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("budget %q: %w", e.Category, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *Limits) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return NewValidationError("budgets", "budgets must be an object of category to limit")
	}

	out := Limits{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		vt, err := dec.Token()
		if err != nil {
			return err
		}
		amount, err := limitValue(vt)
		if err != nil {
			return NewValidationError("budgets", fmt.Sprintf("budget for %q must be a number", key))
		}
		out = append(out, Limit{Category: Category(key), Amount: amount})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

// limitValue accepts numbers and numeric strings, the way form inputs post them.
func limitValue(tok json.Token) (float64, error) {
	switch v := tok.(type) {
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("unexpected token %v", tok)
	}
}
