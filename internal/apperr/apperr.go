// Package apperr defines the domain error kinds returned by repositories and handlers,
// and classifies PostgreSQL failures into them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a domain error class independent of transport.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindEmptyUpdatePayload
	KindInvalidPayload
	KindUniqueConflict
	KindCheckViolation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindEmptyUpdatePayload:
		return "empty_update_payload"
	case KindInvalidPayload:
		return "invalid_payload"
	case KindUniqueConflict:
		return "unique_conflict"
	case KindCheckViolation:
		return "check_constraint_violation"
	default:
		return "unknown"
	}
}

// Error is a classified domain error. Message is safe to show to clients.
type Error struct {
	Kind       Kind
	Constraint string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, ErrEmptyUpdatePayload) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Constraint == "" && t.Err == nil
}

var (
	// ErrEmptyUpdatePayload is returned when a partial update carries no fields.
	ErrEmptyUpdatePayload = &Error{Kind: KindEmptyUpdatePayload, Message: "update payload must contain at least one field"}
	// ErrNotFound matches every NotFound error via errors.Is.
	ErrNotFound = &Error{Kind: KindNotFound, Message: "not found"}
	// ErrUniqueConflict matches every UniqueConflict error via errors.Is.
	ErrUniqueConflict = &Error{Kind: KindUniqueConflict, Message: "unique constraint violated"}
	// ErrCheckViolation matches every CheckConstraintViolation error via errors.Is.
	ErrCheckViolation = &Error{Kind: KindCheckViolation, Message: "constraint violated"}

	// ErrDegradedDefault marks provisioning that ran without the default proficiency level.
	// It is logged and never fails the parent write.
	ErrDegradedDefault = errors.New("default proficiency level not configured")
)

// NotFound returns a NotFound error naming the missing entity.
func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Invalid returns an InvalidPayload error with a client-facing reason.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalidPayload, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindEmptyUpdatePayload, KindInvalidPayload:
		return http.StatusBadRequest
	case KindUniqueConflict:
		return http.StatusConflict
	case KindCheckViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message a client may see. Unclassified errors get a generic text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
