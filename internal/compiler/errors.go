package compiler

import (
	"fmt"
	"strings"

	"flyc/internal/diag"
)

// DepthError reports a chain of nested specializations longer than the
// configured limit.
type DepthError struct {
	Limit int
	Chain []string
}

func (e *DepthError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("specialization depth exceeded (%d): %s", e.Limit, strings.Join(e.Chain, " -> "))
}

func (e *DepthError) Code() diag.Code { return diag.InfDepthExceeded }

// EntryError reports an entry point that cannot be compiled.
type EntryError struct {
	Name   string
	Reason string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %s: %s", e.Name, e.Reason)
}

func (e *EntryError) Code() diag.Code { return diag.PrjMissingName }
