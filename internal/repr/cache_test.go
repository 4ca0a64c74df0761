package repr

import (
	"errors"
	"testing"

	"flyc/internal/diag"
	"flyc/internal/objmodel"
	"flyc/internal/types"
)

func newClass(t *testing.T, reg *objmodel.Registry, name string, stack bool, fields ...objmodel.Field) *objmodel.Class {
	t.Helper()
	c, err := reg.NewClass(name, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.StackAllocate = stack
	for _, f := range fields {
		if err := c.AddField(f.Name, f.Type); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func TestReprIsMemoized(t *testing.T) {
	reg := objmodel.NewRegistry(types.NewInterner())
	i64 := reg.Types().Builtins().Int64
	pt := newClass(t, reg, "Point", true, objmodel.Field{Name: "a", Type: i64}, objmodel.Field{Name: "b", Type: i64})
	c := NewCache(reg)

	first, err := c.Of(pt.Type)
	if err != nil {
		t.Fatal(err)
	}
	_, misses := c.Stats()
	second, err := c.Of(pt.Type)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("repeated calls returned different reprs")
	}
	hits, misses2 := c.Stats()
	if misses2 != misses || hits == 0 {
		t.Fatalf("cache not consulted: hits=%d misses=%d->%d", hits, misses, misses2)
	}
	if got := first.String(); got != "Point{a: int64, b: int64}" {
		t.Fatalf("repr = %s", got)
	}
	if !Equal(first, &Repr{Kind: KindStruct, Name: "Point", Fields: []Field{
		{Name: "a", Repr: &Repr{Kind: KindPrim, Prim: "int64"}},
		{Name: "b", Repr: &Repr{Kind: KindPrim, Prim: "int64"}},
	}}) {
		t.Fatalf("structural equality failed")
	}
}

func TestReprShapes(t *testing.T) {
	reg := objmodel.NewRegistry(types.NewInterner())
	in := reg.Types()
	b := in.Builtins()
	empty := newClass(t, reg, "Empty", true)
	heap := newClass(t, reg, "Heap", false, objmodel.Field{Name: "x", Type: b.Float64})
	c := NewCache(reg)

	tests := []struct {
		name string
		t    types.TypeID
		kind Kind
		want string
	}{
		{"primitive", b.Int32, KindPrim, "int32"},
		{"string is indirect", b.String, KindPointer, "*int8"},
		{"pointer", in.Pointer(b.Float64), KindPointer, "*float64"},
		{"empty layout keeps a placeholder", empty.Type, KindStruct, "Empty{dummy: int32}"},
		{"heap class", heap.Type, KindPointer, "*Heap{x: float64}"},
		{"empty tuple", in.Tuple(nil), KindStruct, "EmptyTuple{dummy: int32}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := c.Of(tt.t)
			if err != nil {
				t.Fatal(err)
			}
			if r.Kind != tt.kind || r.String() != tt.want {
				t.Fatalf("got %s %s", r.Kind, r)
			}
		})
	}
	byRef, err := c.ByRef(empty.Type)
	if err != nil || !byRef {
		t.Fatalf("stack struct must be by-reference")
	}
	byRef, err = c.ByRef(heap.Type)
	if err != nil || byRef {
		t.Fatalf("heap class is pointer-sized")
	}
}

func TestReprRejectsDirectRecursion(t *testing.T) {
	reg := objmodel.NewRegistry(types.NewInterner())
	in := reg.Types()
	node := newClass(t, reg, "Node", true)
	if err := node.AddField("val", in.Builtins().Int64); err != nil {
		t.Fatal(err)
	}
	if err := node.AddField("next", node.Type); err != nil {
		t.Fatal(err)
	}
	c := NewCache(reg)
	_, err := c.Of(node.Type)
	var re *RecursiveTypeError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v", err)
	}
	if diag.CodeOf(err) != diag.RepRecursiveType {
		t.Fatalf("code = %v", diag.CodeOf(err))
	}
	if c.Len() != 0 {
		t.Fatalf("failed computation left %d cache entries", c.Len())
	}
}

func TestReprAllowsIndirectRecursion(t *testing.T) {
	reg := objmodel.NewRegistry(types.NewInterner())
	in := reg.Types()
	b := in.Builtins()

	list := newClass(t, reg, "List", true)
	_ = list.AddField("val", b.Int64)
	_ = list.AddField("next", in.Pointer(list.Type))

	tree := newClass(t, reg, "Tree", false)
	_ = tree.AddField("left", tree.Type)
	_ = tree.AddField("right", tree.Type)

	c := NewCache(reg)
	r, err := c.Of(list.Type)
	if err != nil {
		t.Fatal(err)
	}
	if r.Fields[1].Repr.Elem != r {
		t.Fatalf("pointer does not close the cycle")
	}
	if got := r.String(); got != "List{val: int64, next: *List}" {
		t.Fatalf("repr = %s", got)
	}
	tr, err := c.Of(tree.Type)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Kind != KindPointer || tr.Elem.Fields[0].Repr != tr {
		t.Fatalf("heap class recursion not closed: %s", tr)
	}
}

func TestReprUnsupported(t *testing.T) {
	reg := objmodel.NewRegistry(types.NewInterner())
	in := reg.Types()
	c := NewCache(reg)
	for _, ty := range []types.TypeID{in.Var("a"), in.Method(in.Builtins().Int64, types.NoTypeID)} {
		_, err := c.Of(ty)
		if diag.CodeOf(err) != diag.RepUnsupportedType {
			t.Fatalf("%s: err = %v", in.String(ty), err)
		}
	}
}

func TestReprOverride(t *testing.T) {
	reg := objmodel.NewRegistry(types.NewInterner())
	in := reg.Types()
	handle := newClass(t, reg, "Handle", true, objmodel.Field{Name: "fd", Type: in.Builtins().Int32})
	handle.ReprAs = in.Builtins().Int64
	r, err := NewCache(reg).Of(handle.Type)
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != KindPrim || r.Prim != "int64" {
		t.Fatalf("override ignored: %s", r)
	}
}
