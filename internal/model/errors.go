package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the user.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindParse        ErrorKind = "parse"
	KindNotFound     ErrorKind = "not_found"
	KindFormat       ErrorKind = "format"
	KindExternalTool ErrorKind = "external_tool"
	KindRegistry     ErrorKind = "registry"
	KindFilesystem   ErrorKind = "filesystem"
)

// Error carries a kind and the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for the same kind, so callers can
// write errors.Is(err, model.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrParse        = &Error{Kind: KindParse}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrFormat       = &Error{Kind: KindFormat}
	ErrExternalTool = &Error{Kind: KindExternalTool}
	ErrRegistry     = &Error{Kind: KindRegistry}
	ErrFilesystem   = &Error{Kind: KindFilesystem}
)

var (
	// ErrDeclined is returned when the user refuses a destructive step.
	ErrDeclined = errors.New("operation declined by user")
	// ErrBusy is returned when another operation already holds the same path.
	ErrBusy = errors.New("another operation is in progress for this path")
)

// E builds a classified error.
func E(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
