package types

import (
	"strings"

	"github.com/benbjohnson/immutable"
)

// Bindings maps type-variable names to types. It is persistent: Bind
// returns a new value and leaves the receiver untouched, so overload
// matching can branch per candidate without copying.
type Bindings struct {
	m *immutable.SortedMap[string, TypeID]
}

// NewBindings returns an empty binding set.
func NewBindings() Bindings {
	return Bindings{m: immutable.NewSortedMap[string, TypeID](nil)}
}

// Lookup returns the binding for name.
func (b Bindings) Lookup(name string) (TypeID, bool) {
	if b.m == nil {
		return NoTypeID, false
	}
	return b.m.Get(name)
}

// Bind returns b extended with name -> t.
func (b Bindings) Bind(name string, t TypeID) Bindings {
	m := b.m
	if m == nil {
		m = immutable.NewSortedMap[string, TypeID](nil)
	}
	return Bindings{m: m.Set(name, t)}
}

// Len returns the number of bound variables.
func (b Bindings) Len() int {
	if b.m == nil {
		return 0
	}
	return b.m.Len()
}

// Names returns the bound variable names in sorted order.
func (b Bindings) Names() []string {
	if b.m == nil {
		return nil
	}
	out := make([]string, 0, b.m.Len())
	itr := b.m.Iterator()
	for !itr.Done() {
		k, _, ok := itr.Next()
		if !ok {
			break
		}
		out = append(out, k)
	}
	return out
}

// Format renders the bindings as {a: int64, b: float64}.
func (b Bindings) Format(in *Interner) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range b.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		t, _ := b.Lookup(name)
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(in.String(t))
	}
	sb.WriteByte('}')
	return sb.String()
}
