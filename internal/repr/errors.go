package repr

import (
	"fmt"
	"strings"

	"flyc/internal/diag"
)

// RecursiveTypeError rejects a type that contains itself without an
// intervening pointer.
type RecursiveTypeError struct {
	Type  string
	Cycle []string
}

func (e *RecursiveTypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Cycle) == 0 {
		return fmt.Sprintf("unsupported recursive type %s", e.Type)
	}
	return fmt.Sprintf("unsupported recursive type %s (cycle: %s)", e.Type, strings.Join(e.Cycle, " -> "))
}

func (e *RecursiveTypeError) Code() diag.Code { return diag.RepRecursiveType }

// UnsupportedTypeError reports a type without a low-level shape.
type UnsupportedTypeError struct {
	Type   string
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("type %s has no representation: %s", e.Type, e.Reason)
}

func (e *UnsupportedTypeError) Code() diag.Code { return diag.RepUnsupportedType }
