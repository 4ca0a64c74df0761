package types

import (
	"errors"
	"testing"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Void == NoTypeID || b.Int64 == NoTypeID || b.Pointer == NoCtorID {
		t.Fatalf("builtins not initialized: %+v", b)
	}
	i64, _ := in.Lookup(b.Int64)
	if i64.Kind != KindPrim || i64.Name != PrimInt64 {
		t.Fatalf("expected int64 primitive, got %+v", i64)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Float64
	p1 := in.Pointer(elem)
	p2 := in.Pointer(elem)
	if p1 != p2 {
		t.Fatalf("pointer types should be deduplicated")
	}
	f1 := in.Func([]TypeID{elem, elem}, elem)
	f2 := in.Func([]TypeID{elem, elem}, elem)
	if f1 != f2 {
		t.Fatalf("function types should be deduplicated")
	}
	if in.Var("a") != in.Var("a") || in.Var("a") == in.Var("b") {
		t.Fatalf("variables must intern by name")
	}
}

func TestAppChecksArity(t *testing.T) {
	in := NewInterner()
	ctor, err := in.DeclareCtor("Pair", []string{"a", "b"}, CtorOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = in.App(ctor, in.Builtins().Int64)
	var terr *Error
	if !errors.As(err, &terr) || terr.Kind != ErrArity {
		t.Fatalf("expected arity error, got %v", err)
	}
	if _, err := in.DeclareCtor("Pair", nil, CtorOptions{}); err == nil {
		t.Fatalf("duplicate constructor must be rejected")
	}
}

func TestCurriedConstructor(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	ctor, _ := in.DeclareCtor("Pair", []string{"a", "b"}, CtorOptions{})

	half, err := in.Curry(ctor, b.Int64)
	if err != nil {
		t.Fatal(err)
	}
	if got := in.Missing(half); got != 1 {
		t.Fatalf("missing = %d, want 1", got)
	}
	full, err := in.Complete(half, b.Float64)
	if err != nil {
		t.Fatal(err)
	}
	direct := in.MustApp(ctor, b.Int64, b.Float64)
	if full != direct {
		t.Fatalf("curried application %s differs from direct %s", in.String(full), in.String(direct))
	}

	// The same partial application can be completed several times.
	other, err := in.Complete(half, b.Bool)
	if err != nil {
		t.Fatal(err)
	}
	if other == full {
		t.Fatalf("distinct completions must give distinct types")
	}
	if _, err := in.Complete(half, b.Bool, b.Bool); err == nil {
		t.Fatalf("over-application must fail")
	}
	ext, err := in.Extend(Curried{Ctor: ctor})
	if err != nil || in.Missing(ext) != 2 {
		t.Fatalf("empty extension should keep both params missing: %v", err)
	}
}

func TestAliasesArePartialApplications(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	ctor, _ := in.DeclareCtor("Pair", []string{"a", "b"}, CtorOptions{})

	half, err := in.ParseCurried("Pair[int64]")
	if err != nil {
		t.Fatal(err)
	}
	if half.Ctor != ctor || in.Missing(half) != 1 {
		t.Fatalf("Pair[int64] = %+v", half)
	}
	if err := in.DefineAlias("IntPair", half); err != nil {
		t.Fatal(err)
	}
	full, err := in.ParseCurried("IntPair[bool]")
	if err != nil {
		t.Fatal(err)
	}
	if err := in.DefineAlias("IntBool", full); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		src  string
		want TypeID
	}{
		{"IntPair[bool]", in.MustApp(ctor, b.Int64, b.Bool)},
		{"IntPair", in.MustApp(ctor, b.Int64, in.Var("b"))},
		{"IntBool", in.MustApp(ctor, b.Int64, b.Bool)},
		{"IntPair[float64] -> int64", in.Func([]TypeID{in.MustApp(ctor, b.Int64, b.Float64)}, b.Int64)},
	}
	for _, tt := range tests {
		got, err := in.ParseType(tt.src)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if got != tt.want {
			t.Fatalf("%s = %s, want %s", tt.src, in.String(got), in.String(tt.want))
		}
	}

	for _, src := range []string{"IntPair[bool, bool]", "Pair[int64, bool, bool]", "Nope[int64]", "int64"} {
		if _, err := in.ParseCurried(src); err == nil {
			t.Fatalf("ParseCurried(%q) succeeded", src)
		}
	}
	if err := in.DefineAlias("IntPair", half); err == nil {
		t.Fatal("duplicate alias accepted")
	}
	if _, err := in.DeclareCtor("IntPair", nil, CtorOptions{}); err == nil {
		t.Fatal("constructor shadowing an alias accepted")
	}
}

func TestStringRendering(t *testing.T) {
	in := NewInterner()
	ctor, _ := in.DeclareCtor("Complex", []string{"base"}, CtorOptions{})
	c := in.MustApp(ctor, in.Builtins().Float64)
	fn := in.Func([]TypeID{c, in.Var("a")}, in.Builtins().Bool)
	tests := []struct {
		id   TypeID
		want string
	}{
		{c, "Complex[float64]"},
		{fn, "(Complex[float64], a) -> bool"},
		{in.Method(c, NoTypeID), "Method[Complex[float64], ?]"},
		{in.Pointer(in.Builtins().Int8), "Pointer[int8]"},
	}
	for _, tt := range tests {
		if got := in.String(tt.id); got != tt.want {
			t.Errorf("String = %q, want %q", got, tt.want)
		}
	}
}

func TestTupleFold(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tup := in.Tuple([]TypeID{b.Int64, b.Float64})
	if s := in.String(tup); s != "StaticTuple[int64, StaticTuple[float64, EmptyTuple]]" {
		t.Fatalf("got %s", s)
	}
	elems, ok := in.TupleElems(tup)
	if !ok || len(elems) != 2 || elems[0] != b.Int64 || elems[1] != b.Float64 {
		t.Fatalf("unfold: %v %v", elems, ok)
	}
	if _, ok := in.TupleElems(b.Int64); ok {
		t.Fatalf("int64 is not a tuple")
	}
}

func TestConstType(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tests := []struct {
		v    any
		want TypeID
	}{
		{int64(3), b.Int64},
		{3, b.Int64},
		{1.5, b.Float64},
		{true, b.Bool},
		{"s", b.String},
		{nil, b.None},
	}
	for _, tt := range tests {
		got, ok := in.ConstType(tt.v)
		if !ok || got != tt.want {
			t.Errorf("ConstType(%v) = %s", tt.v, in.String(got))
		}
	}
	if _, ok := in.ConstType(struct{}{}); ok {
		t.Fatalf("struct constants have no intrinsic type")
	}
}
