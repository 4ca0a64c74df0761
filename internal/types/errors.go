package types

import (
	"fmt"

	"flyc/internal/diag"
)

// UnboundTypeVariableError is returned by Resolve when a variable has no
// binding.
type UnboundTypeVariableError struct {
	Var string
	In  string // the type being resolved
}

func (e *UnboundTypeVariableError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.In == "" {
		return fmt.Sprintf("unbound type variable %s", e.Var)
	}
	return fmt.Sprintf("unbound type variable %s in %s", e.Var, e.In)
}

func (e *UnboundTypeVariableError) Code() diag.Code { return diag.TypUnboundVariable }

// ErrorKind enumerates the remaining type-system failures.
type ErrorKind uint8

const (
	ErrArity ErrorKind = iota + 1
	ErrUnknownName
	ErrSyntax
	ErrDuplicate
	ErrMismatch
	ErrOccurs
)

// Error is a type-system failure other than an unbound variable.
type Error struct {
	Kind   ErrorKind
	Name   string
	Want   int
	Got    int
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrArity:
		return fmt.Sprintf("%s expects %d type parameter(s), got %d", e.Name, e.Want, e.Got)
	case ErrUnknownName:
		return fmt.Sprintf("unknown type name %q", e.Name)
	case ErrSyntax:
		return "malformed type: " + e.Detail
	case ErrDuplicate:
		return fmt.Sprintf("type name %q already declared", e.Name)
	case ErrMismatch:
		return "type mismatch: " + e.Detail
	case ErrOccurs:
		return fmt.Sprintf("type variable %s occurs in its own binding", e.Name)
	default:
		return fmt.Sprintf("type error kind=%d", e.Kind)
	}
}

func (e *Error) Code() diag.Code {
	if e == nil {
		return diag.UnknownCode
	}
	switch e.Kind {
	case ErrArity:
		return diag.TypArityMismatch
	case ErrUnknownName, ErrDuplicate:
		return diag.TypUnknownName
	case ErrSyntax:
		return diag.TypSyntax
	default:
		return diag.TypMismatch
	}
}
