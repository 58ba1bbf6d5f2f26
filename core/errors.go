package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Storage signals. Repositories wrap these so callers can tell constraint violations apart from other failures.
var (
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
)

// Kind classifies the errors returned by the domain layer.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidArgument
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Expected reports whether errors of this kind are a normal outcome the caller can correct.
func (k Kind) Expected() bool {
	switch k {
	case KindNotFound, KindConflict, KindForbidden, KindInvalidArgument:
		return true
	default:
		return false
	}
}

type Error struct {
	Kind   Kind
	Entity string // empty if not tied to an entity
	Msg    string
	Err    error // underlying error, if any
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func NewNotFoundError(entity string, id interface{}) error {
	return &Error{Kind: KindNotFound, Entity: entity, Msg: fmt.Sprintf("%s %v not found", entity, id)}
}

func NewConflictError(entity, msg string, err ...error) error {
	e := &Error{Kind: KindConflict, Entity: entity, Msg: msg}
	if len(err) > 0 {
		e.Err = err[0]
	}
	return e
}

func NewForbiddenError(entity, msg string) error {
	return &Error{Kind: KindForbidden, Entity: entity, Msg: msg}
}

// NewInvalidArgumentError reports a value outside its declared domain, as a ValidationError on `field`.
func NewInvalidArgumentError(field, msg string) error {
	return NewValidationError(errors.New(msg), FieldError{Field: field, Error: msg})
}

func NewUnavailableError(err error) error {
	return &Error{Kind: KindUnavailable, Msg: "storage unavailable", Err: err}
}

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindInvalidArgument
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return KindInvalidArgument
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
