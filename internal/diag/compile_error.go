package diag

import (
	"errors"
	"strings"
)

// CompileError wraps a pipeline failure with the site that triggered it.
type CompileError struct {
	Func     string
	Op       string
	Callee   string
	ArgTypes []string
	Err      error
}

func (e *CompileError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString("compile ")
	if e.Func != "" {
		sb.WriteString(e.Func)
	} else {
		sb.WriteString("<anonymous>")
	}
	if len(e.ArgTypes) > 0 {
		sb.WriteString(e.argList())
	}
	if e.Op != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Op)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *CompileError) Unwrap() error { return e.Err }

func (e *CompileError) Code() Code { return CodeOf(e.Err) }

func (e *CompileError) argList() string {
	return "(" + strings.Join(e.ArgTypes, ", ") + ")"
}

// AsCompileError returns the outermost CompileError in err's chain.
func AsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
