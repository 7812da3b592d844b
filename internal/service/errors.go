package service

import (
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// Errors returned by the ledger service.
var (
	ErrTableRequired    = errors.New("table_no is required")
	ErrEmptyItems       = errors.New("items are required")
	ErrItemNameRequired = errors.New("item name is required")
	ErrNegativePrice    = errors.New("price must not be negative")
	ErrInvalidQuantity  = errors.New("qty must not be negative")

	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order is already cooked and can no longer be cancelled")

	ErrEmptyDay        = errors.New("no history records for this date")
	ErrSummaryNotFound = errors.New("summary not found")
)

// IsValidation reports whether the error was rejected before any
// store mutation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTableRequired) ||
		errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, ErrItemNameRequired) ||
		errors.Is(err, ErrNegativePrice) ||
		errors.Is(err, ErrInvalidQuantity)
}

// IsTransient reports whether a store error is worth retrying:
// connection establishment failures, network timeouts, and
// serialization/deadlock aborts. Permanent failures (constraint
// violations, bad SQL) are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
