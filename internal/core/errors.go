package core

import "errors"

var (
	// ErrNotFound is returned by stores when an identifier does not resolve to a record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID is returned when an identifier is empty or malformed for the backend.
	ErrInvalidID = errors.New("invalid record id")

	ErrMissingAmount    = NewValidationError("amount", "amount is required")
	ErrEmptyDescription = NewValidationError("description", "description is required")
	ErrEmptyCategory    = NewValidationError("category", "category is required")
	ErrEmptyMonth       = NewValidationError("month", "month is required")
	ErrMissingBudgets   = NewValidationError("budgets", "budgets are required")
)

// ValidationError reports missing or invalid client input.
type ValidationError struct {
	Field string
	Msg   string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
