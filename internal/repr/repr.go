// Package repr maps types to their low-level representation: a primitive,
// a pointer, or a struct of ordered fields.
package repr

import (
	"fmt"
	"strings"

	"flyc/internal/types"
)

// Kind enumerates representation shapes.
type Kind uint8

const (
	KindPrim Kind = iota + 1
	KindPointer
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindPrim:
		return "prim"
	case KindPointer:
		return "pointer"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Repr is a low-level shape. Reprs handed out by a Cache are shared and
// must not be mutated. Pointers may form cycles through Elem.
type Repr struct {
	Kind   Kind
	Prim   string // primitive name for KindPrim
	Elem   *Repr  // pointee for KindPointer
	Name   string // struct name for KindStruct
	Fields []Field
	// Type is the type the representation was derived from, NoTypeID for
	// synthesized parts.
	Type types.TypeID
}

// Field is one struct member.
type Field struct {
	Name string
	Repr *Repr
}

// PlaceholderField keeps empty layouts from being zero-sized.
const PlaceholderField = "dummy"

var (
	placeholderRepr = &Repr{Kind: KindPrim, Prim: types.PrimInt32}
	bytePrim        = &Repr{Kind: KindPrim, Prim: types.PrimInt8}
)

// IsVoid reports whether r is the void primitive.
func (r *Repr) IsVoid() bool {
	return r != nil && r.Kind == KindPrim && r.Prim == types.PrimVoid
}

// HasPointers reports whether r contains a pointer anywhere.
func (r *Repr) HasPointers() bool {
	switch r.Kind {
	case KindPointer:
		return true
	case KindStruct:
		for _, f := range r.Fields {
			if f.Repr.HasPointers() {
				return true
			}
		}
	}
	return false
}

func (r *Repr) String() string {
	var sb strings.Builder
	r.write(&sb, make(map[*Repr]bool))
	return sb.String()
}

func (r *Repr) write(sb *strings.Builder, open map[*Repr]bool) {
	if r == nil {
		sb.WriteString("<nil>")
		return
	}
	switch r.Kind {
	case KindPrim:
		sb.WriteString(r.Prim)
	case KindPointer:
		sb.WriteByte('*')
		r.Elem.write(sb, open)
	case KindStruct:
		if open[r] {
			sb.WriteString(r.Name)
			return
		}
		open[r] = true
		sb.WriteString(r.Name)
		sb.WriteByte('{')
		for i, f := range r.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			f.Repr.write(sb, open)
		}
		sb.WriteByte('}')
		delete(open, r)
	}
}

// Equal compares two representations structurally. Cycles are compared
// coinductively.
func Equal(a, b *Repr) bool {
	return equal(a, b, make(map[[2]*Repr]bool))
}

func equal(a, b *Repr, assumed map[[2]*Repr]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	key := [2]*Repr{a, b}
	if assumed[key] {
		return true
	}
	assumed[key] = true
	switch a.Kind {
	case KindPrim:
		return a.Prim == b.Prim
	case KindPointer:
		return equal(a.Elem, b.Elem, assumed)
	case KindStruct:
		if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !equal(a.Fields[i].Repr, b.Fields[i].Repr, assumed) {
				return false
			}
		}
	}
	return true
}
