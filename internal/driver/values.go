package driver

import (
	"fmt"

	"flyc/internal/compiler"
	"flyc/internal/layout"
	"flyc/internal/marshal"
	"flyc/internal/types"
)

// Frame is the marshaled form of an entry's argument values. Packed holds
// the flat buffer of each pointer-free argument and nil for the others.
type Frame struct {
	Natives []*marshal.Native
	Packed  [][]byte
}

// hostValue turns a decoded TOML value into the host form the marshaler
// expects for t. Class values are written either positionally as an array
// or as a table keyed by field name.
func hostValue(s *compiler.Session, t types.TypeID, v any) (any, error) {
	tt, ok := s.Types.Lookup(t)
	if !ok || tt.Kind != types.KindApp {
		return v, nil
	}
	b := s.Types.Builtins()
	switch tt.Ctor {
	case b.Pointer:
		if v == nil {
			return nil, nil
		}
		return hostValue(s, tt.Params[0], v)
	case b.EmptyTuple:
		return []any{}, nil
	case b.StaticTuple:
		items, ok := v.([]any)
		if !ok || len(items) == 0 {
			return nil, fmt.Errorf("%s: want a non-empty array, got %T", s.Types.String(t), v)
		}
		hd, err := hostValue(s, tt.Params[0], items[0])
		if err != nil {
			return nil, err
		}
		tl, err := hostValue(s, tt.Params[1], items[1:])
		if err != nil {
			return nil, err
		}
		return append([]any{hd}, tl.([]any)...), nil
	}

	cls, ok := s.Registry.ClassOf(t)
	if !ok || cls.Converter != nil || cls.ReprAs != types.NoTypeID {
		return v, nil
	}
	fields, err := cls.FieldsOf(s.Types, t)
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(fields))
	switch x := v.(type) {
	case []any:
		if len(x) != len(fields) {
			return nil, fmt.Errorf("%s: %d value(s) for %d field(s)", cls.Name, len(x), len(fields))
		}
		copy(vals, x)
	case map[string]any:
		for i, f := range fields {
			fv, ok := x[f.Name]
			if !ok {
				return nil, fmt.Errorf("%s: missing field %q", cls.Name, f.Name)
			}
			vals[i] = fv
		}
		if len(x) != len(fields) {
			return nil, fmt.Errorf("%s: unknown fields in %v", cls.Name, x)
		}
	default:
		return nil, fmt.Errorf("%s: want an array or a table, got %T", cls.Name, v)
	}
	for i, f := range fields {
		if vals[i], err = hostValue(s, f.Type, vals[i]); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", cls.Name, f.Name, err)
		}
	}
	return &marshal.Object{Class: cls.Name, Fields: vals}, nil
}

// marshalFrame converts the values of one entry for the argument types.
func marshalFrame(s *compiler.Session, e *layout.LayoutEngine, args []types.TypeID, values []any) (*Frame, error) {
	m := marshal.New(s.Registry, s.Reprs)
	fr := &Frame{
		Natives: make([]*marshal.Native, len(args)),
		Packed:  make([][]byte, len(args)),
	}
	for i, t := range args {
		host, err := hostValue(s, t, values[i])
		if err != nil {
			return nil, &marshal.Error{Kind: marshal.ErrValue, Type: s.Types.String(t), Err: err}
		}
		n, err := m.ToNative(t, host)
		if err != nil {
			return nil, err
		}
		fr.Natives[i] = n
		if n.Repr.HasPointers() {
			continue
		}
		if fr.Packed[i], err = marshal.Pack(e, n); err != nil {
			return nil, err
		}
	}
	return fr, nil
}
