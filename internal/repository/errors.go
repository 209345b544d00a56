package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Errors every adapter reports in place of driver-specific failures.
var (
	// ErrStoreUnavailable is transient: the caller may retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidQuery means the query itself is contradictory or malformed.
	ErrInvalidQuery = errors.New("invalid query")
)

// Unavailable wraps err so that it matches ErrStoreUnavailable while keeping
// the original cause in the chain.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// MapContextError classifies deadline and cancellation errors as
// ErrStoreUnavailable. Other errors are returned unchanged.
func MapContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Unavailable(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Unavailable(err)
	}
	return err
}

// MapPgError translates Postgres failures to the store error taxonomy.
// I only map what higher layers act on; everything else passes through.
func MapPgError(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrInvalidQuery) {
		return err
	}
	if mapped := MapContextError(err); mapped != err {
		return mapped
	}
	if pgconn.Timeout(err) {
		return Unavailable(err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return Unavailable(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code):
			return Unavailable(err)
		case pgerrcode.IsDataException(pgErr.Code),
			pgErr.Code == pgerrcode.SyntaxError,
			pgErr.Code == pgerrcode.UndefinedColumn:
			return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
	}
	return err
}
