// Package http provides the JSON API server and its handlers.
//
// This file implements request body decoding and query parsing shared by the
// transaction, budget and summary handlers.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetly/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// requestError is a client error detected before the services are involved.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var (
			maxErr *http.MaxBytesError
			ve     *core.ValidationError
		)
		switch {
		case errors.As(err, &maxErr):
			return &requestError{status: http.StatusRequestEntityTooLarge, msg: "Request body too large"}
		case errors.As(err, &ve):
			return ve
		case errors.Is(err, io.EOF):
			return badRequest("Request body is required")
		default:
			return badRequest("Invalid JSON body")
		}
	}
	if dec.More() {
		return badRequest("Invalid JSON body")
	}
	return nil
}

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// flexDate accepts an RFC 3339 timestamp, a bare date or a Unix time in
// milliseconds. Dates without a zone are taken as UTC.
type flexDate struct {
	time.Time
}

func (d *flexDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return core.NewValidationError("date", "date must be a date string or milliseconds since epoch")
		}
		d.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return core.NewValidationError("date", fmt.Sprintf("invalid date %q", s))
}

// flexAmount accepts a JSON number or a numeric string.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return core.NewValidationError("amount", "amount must be a number")
	}
	*a = flexAmount(v)
	return nil
}

// transactionRequest is the body of create and update calls. Absent and null
// fields stay nil.
type transactionRequest struct {
	Amount      *flexAmount    `json:"amount"`
	Date        *flexDate      `json:"date"`
	Description *string        `json:"description"`
	Category    *core.Category `json:"category"`
}

// transaction builds a new record, reporting the required fields that are missing.
func (req transactionRequest) transaction() (core.Transaction, error) {
	if req.Amount == nil || *req.Amount == 0 || req.Description == nil || *req.Description == "" ||
		req.Category == nil || *req.Category == "" {
		return core.Transaction{}, badRequest("Amount, description, and category are required")
	}
	t := core.Transaction{
		Amount:      float64(*req.Amount),
		Description: *req.Description,
		Category:    *req.Category,
	}
	if req.Date != nil {
		t.Date = req.Date.Time
	}
	return t, nil
}

func (req transactionRequest) patch() core.TransactionPatch {
	var p core.TransactionPatch
	if req.Amount != nil {
		amount := float64(*req.Amount)
		p.Amount = &amount
	}
	if req.Date != nil {
		date := req.Date.Time
		p.Date = &date
	}
	p.Description = req.Description
	p.Category = req.Category
	return p
}

type budgetRequest struct {
	Month   *string      `json:"month"`
	Budgets *core.Limits `json:"budgets"`
}

func (req budgetRequest) budget() (core.Budget, error) {
	if req.Month == nil || *req.Month == "" || req.Budgets == nil {
		return core.Budget{}, badRequest("Month and budgets are required")
	}
	return core.Budget{Month: *req.Month, Budgets: *req.Budgets}, nil
}

func (req budgetRequest) patch() core.BudgetPatch {
	return core.BudgetPatch{Month: req.Month, Budgets: req.Budgets}
}

// parseYear reads the optional year query parameter; absent means every year.
func parseYear(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("year"))
	if v == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1 || year > 9999 {
		return 0, core.NewValidationError("year", "year must be a four digit number")
	}
	return year, nil
}
