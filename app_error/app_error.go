package app_error

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Kind is the machine-readable error classification carried by every
// core-operation failure.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindForbidden      Kind = "forbidden"
	KindLocked         Kind = "locked"
	KindConflict       Kind = "conflict"
	KindValidation     Kind = "validation"
	KindMigrationGuard Kind = "migration_guard"
	KindInternal       Kind = "internal"
)

type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf returns the kind of err, or KindInternal for errors that did not
// originate in the core.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return 404
	case KindForbidden:
		return 403
	case KindLocked:
		return 423
	case KindConflict:
		return 409
	case KindValidation:
		return 400
	case KindMigrationGuard:
		return 412
	default:
		return 500
	}
}

// JSON writes err to the response with its mapped status, exposing the kind
// alongside the reason.
func JSON(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		c.JSON(HTTPStatus(err), gin.H{"error": appErr.Reason, "kind": appErr.Kind})
		return
	}
	c.JSON(500, gin.H{"error": err.Error(), "kind": KindInternal})
}
