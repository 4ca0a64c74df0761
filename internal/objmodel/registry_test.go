package objmodel

import (
	"testing"

	"flyc/internal/ir"
	"flyc/internal/overload"
	"flyc/internal/types"
)

func TestClassLayoutInstantiation(t *testing.T) {
	r := NewRegistry(types.NewInterner())
	in := r.Types()
	c, err := r.NewClass("Complex", []string{"base"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddField("real", in.Var("base")); err != nil {
		t.Fatal(err)
	}
	if err := c.AddField("imag", in.Var("base")); err != nil {
		t.Fatal(err)
	}
	if err := c.AddField("real", in.Var("base")); err == nil {
		t.Fatalf("duplicate field accepted")
	}
	f64 := in.Builtins().Float64
	inst, err := c.Instantiate(in, []types.TypeID{f64, f64})
	if err != nil {
		t.Fatal(err)
	}
	if s := in.String(inst); s != "Complex[float64]" {
		t.Fatalf("instance = %s", s)
	}
	if got, _ := r.ClassOf(inst); got != c {
		t.Fatalf("ClassOf lost the class")
	}
	ft, ok, err := c.FieldType(in, inst, "imag")
	if err != nil || !ok || ft != f64 {
		t.Fatalf("imag: %s %v %v", in.String(ft), ok, err)
	}
	if _, err := c.Instantiate(in, []types.TypeID{f64, in.Builtins().Int64}); err == nil {
		t.Fatalf("mismatched fields accepted")
	}
	if _, err := c.Instantiate(in, []types.TypeID{f64}); err == nil {
		t.Fatalf("wrong field count accepted")
	}
}

func TestImplementCopiesDefaults(t *testing.T) {
	r := NewRegistry(types.NewInterner())
	in := r.Types()
	iface, err := r.NewInterface("Sized", nil)
	if err != nil {
		t.Fatal(err)
	}
	body := ir.NewFunc("Sized.size", "self")
	def := &overload.Overload{Sig: overload.Signature{Params: []types.TypeID{in.Var("self")}}, Body: body}
	if err := iface.AddMethod(in, "size", def); err != nil {
		t.Fatal(err)
	}
	if err := iface.AddMethod(in, "name", &overload.Overload{
		Sig:     overload.Signature{Params: []types.TypeID{in.Var("self")}, Result: in.Builtins().String},
		Options: overload.Options{Abstract: true},
	}); err != nil {
		t.Fatal(err)
	}

	c, _ := r.NewClass("Box", nil)
	own := &overload.Overload{Sig: overload.Signature{Params: []types.TypeID{c.Type}, Result: in.Builtins().String}, Options: overload.Options{Opaque: true}}
	if err := c.AddMethod(in, "name", own); err != nil {
		t.Fatal(err)
	}
	if err := r.Implement(c, iface.Type); err != nil {
		t.Fatal(err)
	}
	if s := c.Method("size"); s == nil || s.Overloads()[0] != def {
		t.Fatalf("default method not copied")
	}
	if s := c.Method("name"); s.Len() != 1 || s.Overloads()[0] != own {
		t.Fatalf("class method was overridden by the interface")
	}
	if _, ok := in.Implements(c.Type, iface.Ctor); !ok {
		t.Fatalf("implementation not declared")
	}
	if err := r.Implement(c, c.Type); err == nil {
		t.Fatalf("a class is not an interface")
	}
}

func TestBuiltinOperators(t *testing.T) {
	r := NewRegistry(types.NewInterner())
	if err := r.RegisterBuiltins(); err != nil {
		t.Fatal(err)
	}
	in := r.Types()
	b := in.Builtins()
	_, set, ok := r.LookupMethod(b.Int64, "__truediv__")
	if !ok {
		t.Fatal("int64 has no __truediv__")
	}
	m, err := overload.Resolve(in, set, []types.TypeID{b.Int64, b.Int64})
	if err != nil || m.Result != b.Float64 {
		t.Fatalf("truediv: %v %v", in.String(m.Result), err)
	}
	if _, _, ok := r.LookupMethod(b.Float64, "__lshift__"); ok {
		t.Fatalf("floats do not shift")
	}
	if _, _, ok := r.LookupMethod(b.Float64, "__floordiv__"); !ok {
		t.Fatalf("floats floor-divide")
	}
	if name, ok := OperatorMethod(ir.OpFloorDiv); !ok || name != "__floordiv__" {
		t.Fatalf("floordiv maps to %q", name)
	}
}

func TestScopeShadowing(t *testing.T) {
	r := NewRegistry(types.NewInterner())
	in := r.Types()
	outer := NewScope(nil)
	inner := NewScope(outer)
	o := &overload.Overload{Sig: overload.Signature{Result: in.Builtins().Int64}, Options: overload.Options{Opaque: true}}
	if err := outer.Funcs("f").Add(in, o); err != nil {
		t.Fatal(err)
	}
	c, _ := r.NewClass("f", nil)
	inner.DefineClass(c)
	if bnd, ok := inner.Lookup("f"); !ok || bnd.Class != c {
		t.Fatalf("inner class must shadow outer function")
	}
	if bnd, ok := outer.Lookup("f"); !ok || bnd.Funcs == nil {
		t.Fatalf("outer lookup")
	}
	if _, ok := inner.Lookup("g"); ok {
		t.Fatalf("unexpected binding")
	}
}
