package objmodel

import (
	"fmt"

	"flyc/internal/overload"
	"flyc/internal/types"
)

// Field is one entry of a class layout. Type may mention the class's type
// parameters.
type Field struct {
	Name string
	Type types.TypeID
}

// Converter is a custom marshaling hook. FromHost turns a host value into
// the canonical host form of the class (a value the default marshaler
// accepts for the class layout) and ToHost reverses it. A round trip
// through a converter reproduces a value equal under the converter's own
// notion of equality, not necessarily a structurally equal one.
type Converter interface {
	FromHost(v any) (any, error)
	ToHost(v any) (any, error)
}

// Class describes a user-defined or primitive type known to the runtime
// object library.
type Class struct {
	Name string
	// Type is the generic self type: the primitive itself or the
	// constructor applied to its parameter names.
	Type types.TypeID
	Ctor types.CtorID

	Layout  []Field
	Methods map[string]*overload.Set
	// Interfaces are the interface applications the class implements,
	// written over its own parameters.
	Interfaces []types.TypeID

	// StackAllocate classes are represented by value as a bare struct;
	// the rest are represented as a pointer to their struct.
	StackAllocate bool
	// ReprAs, when set, replaces the class's representation with that of
	// another type.
	ReprAs    types.TypeID
	Converter Converter

	// Dynamic attribute fallbacks. Empty means none; the method must also
	// exist in Methods for the fallback to be usable.
	GetAttr string
	SetAttr string
}

// IsPrimitive reports whether c wraps a primitive type.
func (c *Class) IsPrimitive() bool { return c.Ctor == types.NoCtorID }

// Field looks up a layout entry.
func (c *Class) Field(name string) (Field, int, bool) {
	for i, f := range c.Layout {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// AddField appends a layout entry.
func (c *Class) AddField(name string, t types.TypeID) error {
	if _, _, dup := c.Field(name); dup {
		return fmt.Errorf("class %s: duplicate field %q", c.Name, name)
	}
	c.Layout = append(c.Layout, Field{Name: name, Type: t})
	return nil
}

// Method returns the overload set for name, or nil.
func (c *Class) Method(name string) *overload.Set {
	if c == nil || c.Methods == nil {
		return nil
	}
	return c.Methods[name]
}

// AddMethod appends an implementation to the method set name.
func (c *Class) AddMethod(in *types.Interner, name string, o *overload.Overload) error {
	if c.Methods == nil {
		c.Methods = make(map[string]*overload.Set)
	}
	s := c.Methods[name]
	if s == nil {
		s = overload.NewSet(c.Name + "." + name)
		c.Methods[name] = s
	}
	return s.Add(in, o)
}

// HasGetAttr reports whether reads of unknown attributes can fall back to
// a protocol method.
func (c *Class) HasGetAttr() bool {
	return c != nil && c.GetAttr != "" && c.Method(c.GetAttr) != nil
}

// HasSetAttr is HasGetAttr for writes.
func (c *Class) HasSetAttr() bool {
	return c != nil && c.SetAttr != "" && c.Method(c.SetAttr) != nil
}

// FieldsOf returns the layout of c instantiated for the concrete type t.
func (c *Class) FieldsOf(in *types.Interner, t types.TypeID) ([]Field, error) {
	b := in.CtorBindings(t)
	out := make([]Field, len(c.Layout))
	for i, f := range c.Layout {
		ft, err := in.Resolve(f.Type, b)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", c.Name, f.Name, err)
		}
		out[i] = Field{Name: f.Name, Type: ft}
	}
	return out, nil
}

// FieldType returns the concrete type of one field of t.
func (c *Class) FieldType(in *types.Interner, t types.TypeID, name string) (types.TypeID, bool, error) {
	f, _, ok := c.Field(name)
	if !ok {
		return types.NoTypeID, false, nil
	}
	ft, err := in.Resolve(f.Type, in.CtorBindings(t))
	if err != nil {
		return types.NoTypeID, true, err
	}
	return ft, true, nil
}

// Instantiate binds the class parameters by matching the layout against
// positional field values, as a constructor call does.
func (c *Class) Instantiate(in *types.Interner, args []types.TypeID) (types.TypeID, error) {
	if len(args) != len(c.Layout) {
		return types.NoTypeID, &types.Error{Kind: types.ErrArity, Name: c.Name, Want: len(c.Layout), Got: len(args)}
	}
	b := types.NewBindings()
	for i, f := range c.Layout {
		var ok bool
		if b, ok = in.Match(f.Type, args[i], b); !ok {
			return types.NoTypeID, &types.Error{
				Kind:   types.ErrMismatch,
				Detail: fmt.Sprintf("field %s.%s wants %s, got %s", c.Name, f.Name, in.String(in.ResolvePartial(f.Type, b)), in.String(args[i])),
			}
		}
	}
	return in.Resolve(c.Type, b)
}
