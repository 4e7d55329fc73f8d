package docstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error membungkus error driver dengan jenis error docstore (Kind) supaya
// pemanggil cukup memakai errors.Is(err, ErrPermissionDenied) dst.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == nil {
		return fmt.Sprintf("docstore %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// classify memetakan error gorm/pgx ke taksonomi docstore.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Op: op, Kind: ErrNotFound, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501": // insufficient_privilege
			return &Error{Op: op, Kind: ErrPermissionDenied, Err: err}
		case strings.HasPrefix(pgErr.Code, "08"), // connection_exception
			pgErr.Code == "53300", // too_many_connections
			pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return &Error{Op: op, Kind: ErrUnavailable, Err: err}
		}
		return &Error{Op: op, Err: err}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &Error{Op: op, Kind: ErrUnavailable, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Op: op, Kind: ErrUnavailable, Err: err}
	}
	return &Error{Op: op, Err: err}
}

func isDriverError(err error) bool {
	var pgErr *pgconn.PgError
	var connErr *pgconn.ConnectError
	return errors.As(err, &pgErr) || errors.As(err, &connErr)
}
