package mysql

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// Server error numbers the adapter acts on.
const (
	errDupKeyName        = 1061
	errParse             = 1064
	errBadField          = 1054
	errTruncatedValue    = 1292
	errTooManyConns      = 1040
	errLockWaitTimeout   = 1205
	errServerShutdown    = 1053
	errQueryInterrupted  = 1317
	errConnCountExceeded = 1203
)

// MapError translates driver failures to the store error taxonomy.
func MapError(err error) error {
	if err == nil || errors.Is(err, repository.ErrStoreUnavailable) || errors.Is(err, repository.ErrInvalidQuery) {
		return err
	}
	if mapped := repository.MapContextError(err); mapped != err {
		return mapped
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return repository.Unavailable(err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errTooManyConns, errLockWaitTimeout, errServerShutdown, errQueryInterrupted, errConnCountExceeded:
			return repository.Unavailable(err)
		case errParse, errBadField, errTruncatedValue:
			return fmt.Errorf("%w: %w", repository.ErrInvalidQuery, err)
		}
		return err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return repository.Unavailable(err)
	}
	return err
}

func isDuplicateKeyName(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDupKeyName
}
