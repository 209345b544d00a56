package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Client-side failures. Store failures keep the repository sentinels
// (ErrStoreUnavailable, ErrInvalidQuery) so callers match a single taxonomy.
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// FieldError describes a single rejected parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// tokenError aggregates every rejected parameter of one request. It matches
// ErrInvalidToken through Unwrap.
type tokenError struct {
	fields []FieldError
}

func (e *tokenError) Error() string {
	parts := make([]string, len(e.fields))
	for i, f := range e.fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return ErrInvalidToken.Error() + ": " + strings.Join(parts, "; ")
}

func (e *tokenError) Unwrap() error { return ErrInvalidToken }

func (e *tokenError) Fields() []FieldError { return e.fields }

func invalidToken(field, format string, args ...any) error {
	return &tokenError{fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

// fieldErrors collects parameter problems while parsing a request.
type fieldErrors []FieldError

func (fe *fieldErrors) add(field, format string, args ...any) {
	*fe = append(*fe, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return &tokenError{fields: fe}
}

// FieldErrors extracts per-parameter details from an invalid token error.
func FieldErrors(err error) []FieldError {
	var te *tokenError
	if errors.As(err, &te) {
		return te.fields
	}
	return nil
}

// Error tags a pagination failure with the strategy that produced it.
type Error struct {
	Strategy string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s pagination: %v", e.Strategy, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StrategyOf returns the strategy tag carried by err, or "".
func StrategyOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Strategy
	}
	return ""
}
