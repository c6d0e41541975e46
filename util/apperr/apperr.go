// Package apperr carries a machine-readable kind next to the reason
// string so controllers can map failures onto HTTP statuses without
// string matching.
package apperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type Kind string

const (
	KindNotFound      Kind = "NOT_FOUND"
	KindInvalidState  Kind = "INVALID_STATE"
	KindLimitExceeded Kind = "LIMIT_EXCEEDED"
	KindConflict      Kind = "CONFLICT"
	KindInvalidInput  Kind = "INVALID_INPUT"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindUnavailable   Kind = "UNAVAILABLE"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, msg string) error { return &Error{Kind: kind, Message: msg} }

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) error      { return New(KindNotFound, msg) }
func InvalidState(msg string) error  { return New(KindInvalidState, msg) }
func LimitExceeded(msg string) error { return New(KindLimitExceeded, msg) }
func Conflict(msg string) error      { return New(KindConflict, msg) }
func InvalidInput(msg string) error  { return New(KindInvalidInput, msg) }
func Unauthorized(msg string) error  { return New(KindUnauthorized, msg) }

// KindOf extracts the kind, or "" when err is not an app error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// FromPg maps a Postgres unique violation onto Conflict so callers see
// the stable taxonomy instead of driver errors. Anything else passes
// through untouched.
func FromPg(err error, conflictMsg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return Conflict(conflictMsg)
	}
	return err
}
