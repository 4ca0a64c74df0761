package infer

import (
	"fmt"

	"flyc/internal/diag"
)

// AttributeError reports an attribute that is neither in the receiver's
// layout, nor a method, nor reachable through a dynamic attribute
// fallback. Operators report their protocol method name as Attr.
type AttributeError struct {
	Type  string
	Attr  string
	Write bool
}

func (e *AttributeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Write {
		return fmt.Sprintf("%s has no attribute %q and no attribute setter", e.Type, e.Attr)
	}
	return fmt.Sprintf("%s has no attribute %q", e.Type, e.Attr)
}

func (e *AttributeError) Code() diag.Code { return diag.InfNoSuchAttribute }

// ErrorKind enumerates the other inference failures.
type ErrorKind uint8

const (
	ErrUnknownCallee ErrorKind = iota + 1
	ErrReturnMismatch
	ErrRecursiveReturn
	ErrBadCondition
	ErrFieldMismatch
	ErrBadOperand
	ErrUnresolvedMethod
	ErrAbstract
	ErrArity
)

// Error is an inference failure.
type Error struct {
	Kind   ErrorKind
	Name   string
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrUnknownCallee:
		return fmt.Sprintf("unknown name %q", e.Name)
	case ErrReturnMismatch:
		return "inconsistent return types: " + e.Detail
	case ErrRecursiveReturn:
		return fmt.Sprintf("return type of %s is needed before any return was inferred", e.Name)
	case ErrBadCondition:
		return "branch condition must be bool, got " + e.Detail
	case ErrFieldMismatch:
		return fmt.Sprintf("field %s: %s", e.Name, e.Detail)
	case ErrBadOperand:
		return "cannot type operand: " + e.Detail
	case ErrUnresolvedMethod:
		return fmt.Sprintf("method %s is used as a value", e.Name)
	case ErrAbstract:
		return fmt.Sprintf("%s resolves to an abstract implementation", e.Name)
	case ErrArity:
		return fmt.Sprintf("%s: %s", e.Name, e.Detail)
	default:
		return fmt.Sprintf("inference error kind=%d", e.Kind)
	}
}

func (e *Error) Code() diag.Code {
	if e == nil {
		return diag.UnknownCode
	}
	switch e.Kind {
	case ErrUnknownCallee:
		return diag.InfUnknownCallee
	case ErrReturnMismatch:
		return diag.InfReturnMismatch
	case ErrRecursiveReturn:
		return diag.InfRecursiveReturn
	case ErrBadCondition:
		return diag.InfBadCondition
	case ErrFieldMismatch:
		return diag.InfFieldMismatch
	case ErrUnresolvedMethod:
		return diag.TypUnresolvedMethod
	case ErrAbstract:
		return diag.OvlNoMatch
	case ErrArity:
		return diag.TypArityMismatch
	default:
		return diag.InfBadOperand
	}
}

// IsRecursiveReturn reports whether err stems from a recursive call whose
// result was needed too early.
func IsRecursiveReturn(err error) bool { return diag.CodeOf(err) == diag.InfRecursiveReturn }
