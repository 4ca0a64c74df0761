package layout

import (
	"fmt"

	"flyc/internal/diag"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	LayoutErrUnknownPrim LayoutErrorKind = iota + 1
	LayoutErrTooLarge
	LayoutErrFieldIndex
	LayoutErrUnknownTarget
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Repr  string
	Value int64
	Err   error
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnknownPrim:
		return fmt.Sprintf("no machine layout for primitive %s", e.Repr)
	case LayoutErrTooLarge:
		if e.Err != nil {
			return fmt.Sprintf("layout of %s is too large: %v", e.Repr, e.Err)
		}
		return fmt.Sprintf("layout of %s is too large", e.Repr)
	case LayoutErrFieldIndex:
		return fmt.Sprintf("field index %d out of range for %s", e.Value, e.Repr)
	case LayoutErrUnknownTarget:
		return fmt.Sprintf("unknown target %q", e.Repr)
	default:
		return fmt.Sprintf("layout error kind=%d (%s)", e.Kind, e.Repr)
	}
}

func (e *LayoutError) Unwrap() error { return e.Err }

func (e *LayoutError) Code() diag.Code { return diag.RepUnsupportedType }
