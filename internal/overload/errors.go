package overload

import (
	"fmt"
	"strings"

	"flyc/internal/diag"
)

// ErrorKind distinguishes resolution failures.
type ErrorKind uint8

const (
	ErrNoMatch ErrorKind = iota + 1
	ErrAmbiguous
	ErrBadDefaults
)

// Error reports a failed resolution or a malformed declaration.
type Error struct {
	Kind       ErrorKind
	Name       string
	Args       []string
	Candidates []string
	Detail     string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	args := "(" + strings.Join(e.Args, ", ") + ")"
	switch e.Kind {
	case ErrNoMatch:
		msg := fmt.Sprintf("no matching overload for %s%s", e.Name, args)
		if len(e.Candidates) > 0 {
			msg += "; candidates: " + strings.Join(e.Candidates, ", ")
		}
		return msg
	case ErrAmbiguous:
		return fmt.Sprintf("ambiguous overload for %s%s: %s", e.Name, args, strings.Join(e.Candidates, ", "))
	case ErrBadDefaults:
		return fmt.Sprintf("invalid declaration of %s: %s", e.Name, e.Detail)
	default:
		return fmt.Sprintf("overload error kind=%d", e.Kind)
	}
}

func (e *Error) Code() diag.Code {
	if e == nil {
		return diag.UnknownCode
	}
	switch e.Kind {
	case ErrNoMatch:
		return diag.OvlNoMatch
	case ErrAmbiguous:
		return diag.OvlAmbiguous
	case ErrBadDefaults:
		return diag.OvlBadDefaults
	default:
		return diag.UnknownCode
	}
}

// IsNoMatch reports whether err is a NoMatchingOverload failure.
func IsNoMatch(err error) bool { return diag.CodeOf(err) == diag.OvlNoMatch }
