package apperr

import (
	"errors"
	"fmt"
)

// Kind discriminates engine failures for the API layer. Computation
// that is merely undefined (expected value outside the target series,
// division by zero in a percentage) is a nil result, not an error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrConflict is a generic sentinel for current-state violations.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return e.Err
	}
	switch e.Kind {
	case KindValidation:
		return ErrInvalidArgument
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	}
	return nil
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound, true
	case errors.Is(err, ErrConflict):
		return KindConflict, true
	case errors.Is(err, ErrInvalidArgument):
		return KindValidation, true
	}
	return "", false
}

func IsValidation(err error) bool { k, ok := KindOf(err); return ok && k == KindValidation }
func IsConflict(err error) bool   { k, ok := KindOf(err); return ok && k == KindConflict }
func IsNotFound(err error) bool   { k, ok := KindOf(err); return ok && k == KindNotFound }
