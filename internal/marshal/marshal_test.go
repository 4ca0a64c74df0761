package marshal

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"flyc/internal/diag"
	"flyc/internal/layout"
	"flyc/internal/objmodel"
	"flyc/internal/repr"
	"flyc/internal/types"
)

type fixture struct {
	reg *objmodel.Registry
	in  *types.Interner
	m   *Marshaler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := objmodel.NewRegistry(types.NewInterner())
	return &fixture{reg: reg, in: reg.Types(), m: New(reg, repr.NewCache(reg))}
}

func (f *fixture) class(t *testing.T, name string, stack bool, fields ...objmodel.Field) *objmodel.Class {
	t.Helper()
	c, err := f.reg.NewClass(name, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.StackAllocate = stack
	for _, fl := range fields {
		if err := c.AddField(fl.Name, fl.Type); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func TestRoundTripStruct(t *testing.T) {
	f := newFixture(t)
	i64 := f.in.Builtins().Int64
	pair := f.class(t, "Pair", true, objmodel.Field{Name: "a", Type: i64}, objmodel.Field{Name: "b", Type: i64})
	host := &Object{Class: "Pair", Fields: []any{int64(3), int64(4)}}

	n, err := f.m.ToNative(pair.Type, host)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Fields) != 2 || n.Fields[0].Prim != int64(3) || n.Fields[1].Prim != int64(4) {
		t.Fatalf("native = %+v", n)
	}
	back, err := f.m.FromNative(pair.Type, n)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, host) {
		t.Fatalf("round trip: %#v", back)
	}

	e := layout.New(layout.X86_64LinuxGNU())
	buf, err := Pack(e, n)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 16 || buf[0] != 3 || buf[8] != 4 {
		t.Fatalf("buf = %v", buf)
	}
	un, err := Unpack(e, n.Repr, buf)
	if err != nil {
		t.Fatal(err)
	}
	back, err = f.m.FromNative(pair.Type, un)
	if err != nil || !reflect.DeepEqual(back, host) {
		t.Fatalf("unpacked round trip: %#v %v", back, err)
	}
}

func TestRoundTripNested(t *testing.T) {
	f := newFixture(t)
	b := f.in.Builtins()
	inner := f.class(t, "Inner", false, objmodel.Field{Name: "s", Type: b.String}, objmodel.Field{Name: "ok", Type: b.Bool})
	outer := f.class(t, "Outer", true,
		objmodel.Field{Name: "n", Type: b.Int16},
		objmodel.Field{Name: "in", Type: inner.Type},
		objmodel.Field{Name: "p", Type: f.in.Pointer(b.Float64)},
		objmodel.Field{Name: "rest", Type: f.in.Tuple([]types.TypeID{b.Uint8, b.Float32})},
	)
	host := &Object{Class: "Outer", Fields: []any{
		int64(-7),
		&Object{Class: "Inner", Fields: []any{"hi", true}},
		nil,
		[]any{uint64(200), float64(0.5)},
	}}
	n, err := f.m.ToNative(outer.Type, host)
	if err != nil {
		t.Fatal(err)
	}
	if n.Fields[0].Prim != int16(-7) {
		t.Fatalf("int16 narrowing: %T", n.Fields[0].Prim)
	}
	back, err := f.m.FromNative(outer.Type, n)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, host) {
		t.Fatalf("round trip:\n%#v\n%#v", back, host)
	}
	if _, err := Pack(layout.New(layout.X86_64LinuxGNU()), n); diag.CodeOf(err) != diag.RepMarshal {
		t.Fatalf("pointerful value packed: %v", err)
	}
}

func TestMarshalRejects(t *testing.T) {
	f := newFixture(t)
	b := f.in.Builtins()
	small := f.class(t, "Small", true, objmodel.Field{Name: "x", Type: b.Int8})
	node := f.class(t, "Node", false)
	_ = node.AddField("next", node.Type)

	tests := []struct {
		name string
		t    types.TypeID
		v    any
		want string
	}{
		{"range", small.Type, &Object{Class: "Small", Fields: []any{int64(300)}}, "out of range"},
		{"wrong class", small.Type, &Object{Class: "Node", Fields: []any{int64(1)}}, "another class"},
		{"arity", small.Type, &Object{Class: "Small"}, "0 fields"},
		{"kind", b.Bool, int64(1), "want bool"},
		{"negative unsigned", b.Uint32, int64(-1), "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.m.ToNative(tt.t, tt.v)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v", err)
			}
		})
	}

	cyc := &Object{Class: "Node"}
	cyc.Fields = []any{cyc}
	_, err := f.m.ToNative(node.Type, cyc)
	var me *Error
	if !errors.As(err, &me) || me.Kind != ErrRecursiveValue || diag.CodeOf(err) != diag.RepRecursiveValue {
		t.Fatalf("cycle: %v", err)
	}
}

// celsius stores temperatures as tenths of a degree in an int32 field.
type celsius struct{}

func (celsius) FromHost(v any) (any, error) {
	x, ok := v.(float64)
	if !ok {
		return nil, errors.New("want float64")
	}
	return &Object{Class: "Temp", Fields: []any{int64(x * 10)}}, nil
}

func (celsius) ToHost(v any) (any, error) {
	obj := v.(*Object)
	return float64(obj.Fields[0].(int64)) / 10, nil
}

func TestConverterHook(t *testing.T) {
	f := newFixture(t)
	temp := f.class(t, "Temp", true, objmodel.Field{Name: "tenths", Type: f.in.Builtins().Int32})
	temp.Converter = celsius{}
	n, err := f.m.ToNative(temp.Type, 21.5)
	if err != nil {
		t.Fatal(err)
	}
	if n.Fields[0].Prim != int32(215) {
		t.Fatalf("native = %v", n.Fields[0].Prim)
	}
	back, err := f.m.FromNative(temp.Type, n)
	if err != nil || back != 21.5 {
		t.Fatalf("back = %v %v", back, err)
	}
	if _, err := f.m.ToNative(temp.Type, "hot"); diag.CodeOf(err) != diag.RepMarshal {
		t.Fatalf("hook error: %v", err)
	}
}
