package infer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"flyc/internal/diag"
	"flyc/internal/ir"
	"flyc/internal/objmodel"
	"flyc/internal/overload"
	"flyc/internal/types"
)

// bodySpecializer infers callee bodies in place of a compiler session.
type bodySpecializer struct {
	env   *Env
	cache map[string]*Result
}

func (s *bodySpecializer) Specialize(ctx context.Context, o *overload.Overload, params []types.TypeID) (Target, error) {
	key := fmt.Sprintf("%s/%d/%v", o.Name, o.Index(), params)
	if res, ok := s.cache[key]; ok {
		ret, known := res.KnownReturn()
		if !known {
			return Target{}, &Error{Kind: ErrRecursiveReturn, Name: o.Name}
		}
		return Target{Ref: res, Name: o.Name, Result: ret}, nil
	}
	f, _ := ir.Clone(o.Body)
	res, err := NewResult(f, params, o.Sig.Result)
	if err != nil {
		return Target{}, err
	}
	s.cache[key] = res
	if err := Run(ctx, s.env, res); err != nil {
		delete(s.cache, key)
		return Target{}, err
	}
	return Target{Ref: res, Name: o.Name, Result: res.Return}, nil
}

type fixture struct {
	t   *testing.T
	in  *types.Interner
	reg *objmodel.Registry
	env *Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	in := types.NewInterner()
	reg := objmodel.NewRegistry(in)
	if err := reg.RegisterBuiltins(); err != nil {
		t.Fatal(err)
	}
	env := &Env{Types: in, Registry: reg, Scope: objmodel.NewScope(nil)}
	env.Specializer = &bodySpecializer{env: env, cache: make(map[string]*Result)}
	return &fixture{t: t, in: in, reg: reg, env: env}
}

func (fx *fixture) define(name, sig string, params []string, body string) *overload.Overload {
	fx.t.Helper()
	inferred := strings.HasSuffix(sig, "-> ?")
	if inferred {
		sig = strings.TrimSuffix(sig, "?") + "void"
	}
	ps, res, err := fx.in.ParseSignature(sig)
	if err != nil {
		fx.t.Fatal(err)
	}
	f, err := ir.Parse(name, params, body)
	if err != nil {
		fx.t.Fatal(err)
	}
	o := &overload.Overload{Name: name, Sig: overload.Signature{Params: ps, Result: res}, Body: f}
	if inferred {
		o.Sig.Result = types.NoTypeID
	}
	if err := fx.env.Scope.Funcs(name).Add(fx.in, o); err != nil {
		fx.t.Fatal(err)
	}
	return o
}

func (fx *fixture) infer(name string, params []string, body string, args ...types.TypeID) (*Result, error) {
	fx.t.Helper()
	f, err := ir.Parse(name, params, body)
	if err != nil {
		fx.t.Fatal(err)
	}
	res, err := NewResult(f, args, types.NoTypeID)
	if err != nil {
		fx.t.Fatal(err)
	}
	return res, Run(context.Background(), fx.env, res)
}

func (fx *fixture) point(stack bool) *objmodel.Class {
	fx.t.Helper()
	c, err := fx.reg.NewClass("Point", []string{"t"})
	if err != nil {
		fx.t.Fatal(err)
	}
	c.StackAllocate = stack
	for _, f := range []string{"x", "y"} {
		if err := c.AddField(f, fx.in.Var("t")); err != nil {
			fx.t.Fatal(err)
		}
	}
	fx.env.Scope.DefineClass(c)
	return c
}

func wantCode(t *testing.T, err error, code diag.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got success", code.ID())
	}
	if got := diag.CodeOf(err); got != code {
		t.Fatalf("code = %s, want %s (%v)", got.ID(), code.ID(), err)
	}
	if _, ok := diag.AsCompileError(err); !ok {
		t.Fatalf("error is not wrapped with its site: %v", err)
	}
}

func TestOperatorsOnPrimitives(t *testing.T) {
	fx := newFixture(t)
	b := fx.in.Builtins()
	res, err := fx.infer("f", []string{"x", "y"}, `
entry:
  s = add x y
  c = lt s 10
  ret c
`, b.Int64, b.Int64)
	if err != nil {
		t.Fatal(err)
	}
	if res.Return != b.Bool {
		t.Fatalf("return = %s", fx.in.String(res.Return))
	}
	add := res.Func.Entry().Ops[0]
	if c := res.Calls[add]; c == nil || c.Kind != CallOperator || c.Name != "int64.__add__" {
		t.Fatalf("add resolved as %+v", res.Calls[add])
	}
	if got := res.Ctx.MustGet(add); got != b.Int64 {
		t.Fatalf("add typed %s", fx.in.String(got))
	}
}

func TestGenericCallSpecializesPerArgumentTypes(t *testing.T) {
	fx := newFixture(t)
	b := fx.in.Builtins()
	fx.define("twice", "a -> ?", []string{"v"}, `
entry:
  r = add v v
  ret r
`)
	res, err := fx.infer("main", nil, `
entry:
  i = call twice 2
  f = call twice 1.5
  ret f
`)
	if err != nil {
		t.Fatal(err)
	}
	ops := res.Func.Entry().Ops
	if got := res.Ctx.MustGet(ops[0]); got != b.Int64 {
		t.Fatalf("twice(int64) = %s", fx.in.String(got))
	}
	if got := res.Ctx.MustGet(ops[1]); got != b.Float64 {
		t.Fatalf("twice(float64) = %s", fx.in.String(got))
	}
	if res.Calls[ops[0]].Target.Ref == res.Calls[ops[1]].Target.Ref {
		t.Fatalf("both calls share one specialization")
	}
}

func TestRecursionUsesFirstReturn(t *testing.T) {
	fx := newFixture(t)
	b := fx.in.Builtins()
	fx.define("fib", "a -> ?", []string{"n"}, `
entry:
  c = lt n 2
  cbranch c small big
small:
  ret n
big:
  a = sub n 1
  x = call fib a
  y = sub n 2
  z = call fib y
  r = add x z
  ret r
`)
	res, err := fx.infer("main", nil, `
entry:
  v = call fib 10
  ret v
`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Return != b.Int64 {
		t.Fatalf("fib = %s", fx.in.String(res.Return))
	}
}

func TestRecursionBeforeAnyReturnFails(t *testing.T) {
	fx := newFixture(t)
	fx.define("loop", "a -> ?", []string{"n"}, `
entry:
  r = call loop n
  ret r
`)
	_, err := fx.infer("main", nil, `
entry:
  v = call loop 1
  ret v
`)
	wantCode(t, err, diag.InfRecursiveReturn)
	if !IsRecursiveReturn(err) {
		t.Fatalf("IsRecursiveReturn = false")
	}
}

func TestAttributes(t *testing.T) {
	fx := newFixture(t)
	b := fx.in.Builtins()
	c := fx.point(false)
	norm := &overload.Overload{Name: "norm", Sig: overload.Signature{
		Params: []types.TypeID{c.Type}, Result: fx.in.Var("t"),
	}, Options: overload.Options{Opaque: true}}
	if err := c.AddMethod(fx.in, "norm", norm); err != nil {
		t.Fatal(err)
	}

	res, err := fx.infer("f", nil, `
entry:
  p = call Point 1.0 2.0
  x = getfield p .x
  setfield p y x
  m = getfield p .norm
  n = call m
  ret n
`)
	if err != nil {
		t.Fatal(err)
	}
	ops := res.Func.Entry().Ops
	pt := fx.in.MustParse("Point[float64]")
	if got := res.Ctx.MustGet(ops[0]); got != pt {
		t.Fatalf("Point(...) = %s", fx.in.String(got))
	}
	if res.Calls[ops[0]].Kind != CallNew {
		t.Fatalf("constructor call kind = %s", res.Calls[ops[0]].Kind)
	}
	if got := res.Ctx.MustGet(ops[1]); got != b.Float64 {
		t.Fatalf("p.x = %s", fx.in.String(got))
	}
	want := fx.in.Method(pt, fx.in.Func([]types.TypeID{pt}, b.Float64))
	if got := res.Ctx.MustGet(ops[3]); got != want {
		t.Fatalf("p.norm = %s", fx.in.String(got))
	}
	call := res.Calls[ops[4]]
	if call.Kind != CallMethod || call.Method != ops[3] || call.Args[0] != pt {
		t.Fatalf("method call = %+v", call)
	}
}

func TestAttributeErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		code diag.Code
	}{
		{"missing read", "entry:\n  p = call Point 1 2\n  z = getfield p .z\n  ret z\n", diag.InfNoSuchAttribute},
		{"missing write", "entry:\n  p = call Point 1 2\n  setfield p z 1\n  ret\n", diag.InfNoSuchAttribute},
		{"field mismatch", "entry:\n  p = call Point 1 2\n  setfield p x 1.5\n  ret\n", diag.InfFieldMismatch},
		{"unresolved method", "entry:\n  p = call Point 1 2\n  m = getfield p .norm\n  ret\n", diag.TypUnresolvedMethod},
		{"unknown callee", "entry:\n  v = call nowhere 1\n  ret v\n", diag.InfUnknownCallee},
		{"missing operator", "entry:\n  p = call Point 1 2\n  q = add p p\n  ret q\n", diag.InfNoSuchAttribute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t)
			c := fx.point(false)
			norm := &overload.Overload{Name: "norm", Sig: overload.Signature{
				Params: []types.TypeID{c.Type}, Result: fx.in.Var("t"),
			}, Options: overload.Options{Opaque: true}}
			if err := c.AddMethod(fx.in, "norm", norm); err != nil {
				t.Fatal(err)
			}
			_, err := fx.infer("f", nil, tc.body)
			wantCode(t, err, tc.code)
			var ae *AttributeError
			if tc.code == diag.InfNoSuchAttribute && !errors.As(err, &ae) {
				t.Fatalf("want AttributeError, got %T", err)
			}
		})
	}
}

func TestFieldStoreWidens(t *testing.T) {
	fx := newFixture(t)
	b := fx.in.Builtins()
	c, err := fx.reg.NewClass("Acc", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddField("sum", b.Float64); err != nil {
		t.Fatal(err)
	}
	fx.env.Scope.DefineClass(c)
	res, err := fx.infer("f", nil, "entry:\n  a = call Acc 0.0\n  setfield a .sum 3\n  ret\n")
	if err != nil {
		t.Fatal(err)
	}
	set := res.Func.Entry().Ops[1]
	if got, ok := res.Widen[set]; !ok || got != b.Float64 {
		t.Fatalf("widen = %v", res.Widen)
	}
}

func TestGetAttrFallback(t *testing.T) {
	fx := newFixture(t)
	b := fx.in.Builtins()
	c := fx.point(false)
	c.GetAttr = objmodel.GetAttrMethod
	c.SetAttr = objmodel.SetAttrMethod
	get := &overload.Overload{Name: "get", Sig: overload.Signature{
		Params: []types.TypeID{c.Type, b.String}, Result: b.Int32,
	}, Options: overload.Options{Opaque: true}}
	set := &overload.Overload{Name: "set", Sig: overload.Signature{
		Params: []types.TypeID{c.Type, b.String, fx.in.Var("v")}, Result: b.Void,
	}, Options: overload.Options{Opaque: true}}
	if err := c.AddMethod(fx.in, objmodel.GetAttrMethod, get); err != nil {
		t.Fatal(err)
	}
	if err := c.AddMethod(fx.in, objmodel.SetAttrMethod, set); err != nil {
		t.Fatal(err)
	}
	res, err := fx.infer("f", nil, `
entry:
  p = call Point 1 2
  z = getfield p .anything
  setfield p other 1.5
  ret z
`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Return != b.Int32 {
		t.Fatalf("fallback read = %s", fx.in.String(res.Return))
	}
	ops := res.Func.Entry().Ops
	if res.Calls[ops[1]].Kind != CallGetAttr || res.Calls[ops[2]].Kind != CallSetAttr {
		t.Fatalf("fallbacks not recorded")
	}
}

func TestControlFlow(t *testing.T) {
	fx := newFixture(t)
	b := fx.in.Builtins()
	res, err := fx.infer("sum", []string{"n"}, `
entry:
  jump head
head:
  i = phi entry:0 body:j
  acc = phi entry:0 body:acc2
  c = lt i n
  cbranch c body done
body:
  acc2 = add acc i
  j = add i 1
  jump head
done:
  ret acc
`, b.Int64)
	if err != nil {
		t.Fatal(err)
	}
	if res.Return != b.Int64 {
		t.Fatalf("return = %s", fx.in.String(res.Return))
	}

	_, err = fx.infer("bad", []string{"n"}, `
entry:
  cbranch n a b
a:
  ret 1
b:
  ret 2
`, b.Int64)
	wantCode(t, err, diag.InfBadCondition)

	_, err = fx.infer("mixed", []string{"c"}, `
entry:
  cbranch c a b
a:
  ret 1
b:
  ret 2.5
`, b.Bool)
	wantCode(t, err, diag.InfReturnMismatch)
}

func TestNoReturnIsVoid(t *testing.T) {
	fx := newFixture(t)
	res, err := fx.infer("f", nil, "entry:\n  ret\n")
	if err != nil {
		t.Fatal(err)
	}
	if res.Return != fx.in.Builtins().Void {
		t.Fatalf("return = %s", fx.in.String(res.Return))
	}
}

func TestNewResultChecksArity(t *testing.T) {
	f := ir.NewFunc("f", "a", "b")
	_, err := NewResult(f, []types.TypeID{1}, types.NoTypeID)
	if diag.CodeOf(err) != diag.TypArityMismatch {
		t.Fatalf("err = %v", err)
	}
}
