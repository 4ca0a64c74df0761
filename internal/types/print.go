package types

import (
	"fmt"
	"strings"
)

// String renders id for diagnostics: int64, Complex[float64],
// (a, b) -> c, Method[Complex[float64], ?].
func (in *Interner) String(id TypeID) string {
	if in == nil {
		return fmt.Sprintf("type#%d", id)
	}
	var sb strings.Builder
	in.write(&sb, id, 0)
	return sb.String()
}

// Strings renders a list of types.
func (in *Interner) Strings(ids []TypeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = in.String(id)
	}
	return out
}

func (in *Interner) write(sb *strings.Builder, id TypeID, depth int) {
	if depth > maxSubstDepth {
		sb.WriteString("...")
		return
	}
	tt, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("<none>")
		return
	}
	switch tt.Kind {
	case KindPrim, KindVar:
		sb.WriteString(tt.Name)
	case KindApp:
		c, _ := in.Ctor(tt.Ctor)
		if c == nil {
			fmt.Fprintf(sb, "ctor#%d", tt.Ctor)
		} else {
			sb.WriteString(c.Name)
		}
		if len(tt.Params) == 0 {
			return
		}
		sb.WriteByte('[')
		for i, p := range tt.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.write(sb, p, depth+1)
		}
		sb.WriteByte(']')
	case KindFunc:
		sb.WriteByte('(')
		for i, p := range tt.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			in.write(sb, p, depth+1)
		}
		sb.WriteString(") -> ")
		in.write(sb, tt.Result, depth+1)
	case KindMethod:
		sb.WriteString("Method[")
		in.write(sb, tt.Recv, depth+1)
		sb.WriteString(", ")
		if tt.Fn == NoTypeID {
			sb.WriteByte('?')
		} else {
			in.write(sb, tt.Fn, depth+1)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString(tt.Kind.String())
	}
}
