package ir

import (
	"fmt"
	"io"
	"strings"

	"flyc/internal/types"
)

// Dump writes a human-readable listing of f. Types are printed when ctx is
// non-nil.
func Dump(w io.Writer, f *Func, ctx *Context, typesIn *types.Interner) error {
	if w == nil || f == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
		if p.Role == RoleOut {
			sb.WriteString(" out")
		}
		if p.ByRef {
			sb.WriteString(" byref")
		}
		writeType(&sb, ctx, typesIn, p)
	}
	sb.WriteString(")\n")
	for _, b := range f.Blocks {
		sb.WriteString(b.Name)
		sb.WriteString(":\n")
		for _, op := range b.Ops {
			sb.WriteString("  ")
			sb.WriteString(FormatOp(op))
			if op.Opcode.HasResult() {
				writeType(&sb, ctx, typesIn, op)
			}
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders f without types.
func (f *Func) String() string {
	var sb strings.Builder
	if err := Dump(&sb, f, nil, nil); err != nil {
		return fmt.Sprintf("<func %s: %v>", f.Name, err)
	}
	return sb.String()
}

// FormatOp renders one op as `%r = opcode operands`.
func FormatOp(op *Op) string {
	var sb strings.Builder
	if op.Opcode.HasResult() {
		sb.WriteString(op.String())
		sb.WriteString(" = ")
	}
	sb.WriteString(op.Opcode.String())
	if op.Opcode == OpNew {
		sb.WriteByte(' ')
		sb.WriteString(op.Attr)
	}
	for i, a := range op.Args {
		sb.WriteByte(' ')
		if op.Opcode == OpPhi && i < len(op.Targets) {
			sb.WriteString(op.Targets[i].Name)
			sb.WriteByte(':')
		}
		sb.WriteString(valueString(a))
		if i == 0 && (op.Opcode == OpGetField || op.Opcode == OpSetField) {
			sb.WriteString(" .")
			sb.WriteString(op.Attr)
		}
	}
	if op.Opcode == OpJump || op.Opcode == OpCBranch {
		for _, t := range op.Targets {
			sb.WriteByte(' ')
			sb.WriteString(t.Name)
		}
	}
	return sb.String()
}

func valueString(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

func writeType(sb *strings.Builder, ctx *Context, typesIn *types.Interner, v Value) {
	if ctx == nil {
		return
	}
	t, ok := ctx.Get(v)
	if !ok {
		sb.WriteString(" : ?")
		return
	}
	sb.WriteString(" : ")
	sb.WriteString(typesIn.String(t))
}
