package marshal

import (
	"fmt"

	"flyc/internal/diag"
)

// ErrorKind enumerates marshaling failures.
type ErrorKind uint8

const (
	ErrValue ErrorKind = iota + 1
	ErrRange
	ErrRecursiveValue
	ErrHasPointers
	ErrBuffer
	ErrHook
)

// Error reports a value that cannot cross the boundary.
type Error struct {
	Kind   ErrorKind
	Type   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var msg string
	switch e.Kind {
	case ErrValue:
		msg = "cannot marshal value"
	case ErrRange:
		msg = "value out of range"
	case ErrRecursiveValue:
		msg = "recursive value"
	case ErrHasPointers:
		msg = "representation contains pointers"
	case ErrBuffer:
		msg = "bad buffer"
	case ErrHook:
		msg = "conversion hook failed"
	default:
		msg = fmt.Sprintf("marshal error kind=%d", e.Kind)
	}
	if e.Type != "" {
		msg += " for " + e.Type
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Code() diag.Code {
	if e != nil && e.Kind == ErrRecursiveValue {
		return diag.RepRecursiveValue
	}
	return diag.RepMarshal
}
