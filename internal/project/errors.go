package project

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide how to surface it.
type Kind int

const (
	KindIO Kind = iota
	KindNotFound
	KindParse
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindParse:
		return "parse error"
	case KindValidation:
		return "validation error"
	default:
		return "io error"
	}
}

// Error is the failure type of every fallible project operation.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrIO         = &Error{Kind: KindIO}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrParse      = &Error{Kind: KindParse}
	ErrValidation = &Error{Kind: KindValidation}
)

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func validationError(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// Warning is a non-fatal condition reported next to a successful result.
type Warning struct {
	Op     string
	Detail string
}

func (w Warning) String() string {
	return w.Op + ": " + w.Detail
}
