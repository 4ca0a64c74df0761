package marshal

import (
	"fmt"
	"math"

	"fortio.org/safecast"

	"flyc/internal/objmodel"
	"flyc/internal/repr"
	"flyc/internal/types"
)

// Marshaler converts values of a session's types.
type Marshaler struct {
	in    *types.Interner
	reg   *objmodel.Registry
	reprs *repr.Cache
}

// New creates a marshaler over a registry and its representation cache.
func New(reg *objmodel.Registry, reprs *repr.Cache) *Marshaler {
	return &Marshaler{in: reg.Types(), reg: reg, reprs: reprs}
}

// ToNative converts a host value of type t.
func (m *Marshaler) ToNative(t types.TypeID, v any) (*Native, error) {
	return m.toNative(t, v, make(map[*Object]bool))
}

// FromNative converts a native value of type t back to its host form:
// int64 for signed integers, uint64 for unsigned ones, float64 for floats.
func (m *Marshaler) FromNative(t types.TypeID, n *Native) (any, error) {
	return m.fromNative(t, n)
}

func (m *Marshaler) toNative(t types.TypeID, v any, open map[*Object]bool) (*Native, error) {
	r, err := m.reprs.Of(t)
	if err != nil {
		return nil, err
	}
	tt := m.in.MustLookup(t)
	switch tt.Kind {
	case types.KindPrim:
		return primToNative(r, tt.Name, v)
	case types.KindApp:
	default:
		return nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: tt.Kind.String() + " values cannot cross the boundary"}
	}

	if ctor, _ := m.in.Ctor(tt.Ctor); ctor != nil && ctor.PointerLike {
		if v == nil {
			return &Native{Repr: r}, nil
		}
		elem, err := m.toNative(tt.Params[0], v, open)
		if err != nil {
			return nil, err
		}
		return &Native{Repr: r, Elem: elem}, nil
	}

	cls, ok := m.reg.ClassOf(t)
	if !ok {
		return nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "no class"}
	}
	if cls.Converter != nil {
		if v, err = cls.Converter.FromHost(v); err != nil {
			return nil, &Error{Kind: ErrHook, Type: m.in.String(t), Err: err}
		}
	}
	if cls.ReprAs != types.NoTypeID {
		return m.toNative(cls.ReprAs, v, open)
	}

	vals, obj, err := m.fieldValues(t, cls, v)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		if open[obj] {
			return nil, &Error{Kind: ErrRecursiveValue, Type: m.in.String(t)}
		}
		open[obj] = true
		defer delete(open, obj)
	}

	fields, err := cls.FieldsOf(m.in, t)
	if err != nil {
		return nil, err
	}
	st := r
	if r.Kind == repr.KindPointer {
		st = r.Elem
	}
	s := &Native{Repr: st}
	for i, f := range fields {
		fn, err := m.toNative(f.Type, vals[i], open)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", cls.Name, f.Name, err)
		}
		s.Fields = append(s.Fields, fn)
	}
	if len(fields) == 0 {
		s.Fields = []*Native{{Repr: st.Fields[0].Repr, Prim: int32(0)}}
	}
	if r.Kind == repr.KindPointer {
		return &Native{Repr: r, Elem: s}, nil
	}
	return s, nil
}

// fieldValues splits a host value into positional field values.
func (m *Marshaler) fieldValues(t types.TypeID, cls *objmodel.Class, v any) ([]any, *Object, error) {
	b := m.in.Builtins()
	tt := m.in.MustLookup(t)
	if tt.Ctor == b.EmptyTuple || tt.Ctor == b.StaticTuple {
		items, ok := v.([]any)
		if !ok && v != nil {
			return nil, nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: fmt.Sprintf("want []any, got %T", v)}
		}
		if tt.Ctor == b.EmptyTuple {
			if len(items) != 0 {
				return nil, nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "too many tuple items"}
			}
			return nil, nil, nil
		}
		if len(items) == 0 {
			return nil, nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "too few tuple items"}
		}
		return []any{items[0], items[1:]}, nil, nil
	}

	var obj *Object
	switch x := v.(type) {
	case *Object:
		obj = x
	case Object:
		obj = &x
	default:
		return nil, nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: fmt.Sprintf("want *Object, got %T", v)}
	}
	if obj == nil || obj.Class != cls.Name {
		return nil, nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "object of another class"}
	}
	if len(obj.Fields) != len(cls.Layout) {
		return nil, nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: fmt.Sprintf("%d fields, want %d", len(obj.Fields), len(cls.Layout))}
	}
	return obj.Fields, obj, nil
}

func (m *Marshaler) fromNative(t types.TypeID, n *Native) (any, error) {
	if n == nil {
		return nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "nil native"}
	}
	tt := m.in.MustLookup(t)
	switch tt.Kind {
	case types.KindPrim:
		return primFromNative(tt.Name, n)
	case types.KindApp:
	default:
		return nil, &Error{Kind: ErrValue, Type: m.in.String(t)}
	}
	if ctor, _ := m.in.Ctor(tt.Ctor); ctor != nil && ctor.PointerLike {
		if n.Elem == nil {
			return nil, nil
		}
		return m.fromNative(tt.Params[0], n.Elem)
	}
	cls, ok := m.reg.ClassOf(t)
	if !ok {
		return nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "no class"}
	}

	var out any
	if cls.ReprAs != types.NoTypeID {
		v, err := m.fromNative(cls.ReprAs, n)
		if err != nil {
			return nil, err
		}
		out = v
	} else {
		st := n
		if n.Repr != nil && n.Repr.Kind == repr.KindPointer {
			if n.Elem == nil {
				return nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "null object pointer"}
			}
			st = n.Elem
		}
		fields, err := cls.FieldsOf(m.in, t)
		if err != nil {
			return nil, err
		}
		if len(st.Fields) < len(fields) {
			return nil, &Error{Kind: ErrValue, Type: m.in.String(t), Detail: "missing fields"}
		}
		vals := make([]any, len(fields))
		for i, f := range fields {
			if vals[i], err = m.fromNative(f.Type, st.Fields[i]); err != nil {
				return nil, err
			}
		}
		out = m.hostAggregate(t, cls, vals)
	}
	if cls.Converter != nil {
		v, err := cls.Converter.ToHost(out)
		if err != nil {
			return nil, &Error{Kind: ErrHook, Type: m.in.String(t), Err: err}
		}
		out = v
	}
	return out, nil
}

func (m *Marshaler) hostAggregate(t types.TypeID, cls *objmodel.Class, vals []any) any {
	b := m.in.Builtins()
	switch m.in.MustLookup(t).Ctor {
	case b.EmptyTuple:
		return []any{}
	case b.StaticTuple:
		tail, _ := vals[1].([]any)
		return append([]any{vals[0]}, tail...)
	}
	return &Object{Class: cls.Name, Fields: vals}
}

func primToNative(r *repr.Repr, name string, v any) (*Native, error) {
	bad := func(detail string) error {
		return &Error{Kind: ErrValue, Type: name, Detail: detail}
	}
	n := &Native{Repr: r}
	info, _ := types.LookupPrimInfo(name)
	switch {
	case name == types.PrimVoid:
		return nil, bad("void has no values")
	case name == types.PrimNone:
		if v != nil {
			return nil, bad(fmt.Sprintf("want nil, got %T", v))
		}
		n.Prim = uint8(0)
	case name == types.PrimOpaque:
		n.Prim = v
	case name == types.PrimString:
		s, ok := v.(string)
		if !ok {
			return nil, bad(fmt.Sprintf("want string, got %T", v))
		}
		n.Prim = s
	case info.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, bad(fmt.Sprintf("want bool, got %T", v))
		}
		n.Prim = b
	case info.Float:
		f, ok := toFloat(v)
		if !ok {
			return nil, bad(fmt.Sprintf("want a number, got %T", v))
		}
		if info.Bits == 32 {
			if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
				return nil, &Error{Kind: ErrRange, Type: name, Detail: fmt.Sprint(f)}
			}
			n.Prim = float32(f)
		} else {
			n.Prim = f
		}
	case info.Signed:
		i, err := toInt64(v)
		if err != nil {
			return nil, &Error{Kind: ErrRange, Type: name, Err: err}
		}
		if n.Prim, err = narrowSigned(i, info.Bits); err != nil {
			return nil, &Error{Kind: ErrRange, Type: name, Err: err}
		}
	default:
		u, err := toUint64(v)
		if err != nil {
			return nil, &Error{Kind: ErrRange, Type: name, Err: err}
		}
		if n.Prim, err = narrowUnsigned(u, info.Bits); err != nil {
			return nil, &Error{Kind: ErrRange, Type: name, Err: err}
		}
	}
	return n, nil
}

func primFromNative(name string, n *Native) (any, error) {
	switch x := n.Prim.(type) {
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		if name == types.PrimNone {
			return nil, nil
		}
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case float32:
		return float64(x), nil
	case float64, bool, string:
		return x, nil
	}
	if name == types.PrimOpaque {
		return n.Prim, nil
	}
	return nil, &Error{Kind: ErrValue, Type: name, Detail: fmt.Sprintf("unexpected native %T", n.Prim)}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return safecast.Conv[int64](x)
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return safecast.Conv[int64](x)
	}
	return 0, fmt.Errorf("want an integer, got %T", v)
}

func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[uint64](i)
}

func narrowSigned(i int64, bits int) (any, error) {
	switch bits {
	case 8:
		return safecast.Conv[int8](i)
	case 16:
		return safecast.Conv[int16](i)
	case 32:
		return safecast.Conv[int32](i)
	default:
		return i, nil
	}
}

func narrowUnsigned(u uint64, bits int) (any, error) {
	switch bits {
	case 8:
		return safecast.Conv[uint8](u)
	case 16:
		return safecast.Conv[uint16](u)
	case 32:
		return safecast.Conv[uint32](u)
	default:
		return u, nil
	}
}
