package rewrite

import (
	"context"
	"testing"

	"flyc/internal/infer"
	"flyc/internal/ir"
	"flyc/internal/objmodel"
	"flyc/internal/overload"
	"flyc/internal/types"
)

type env struct {
	t   *testing.T
	in  *types.Interner
	reg *objmodel.Registry
	env *infer.Env
}

func newEnv(t *testing.T) *env {
	t.Helper()
	in := types.NewInterner()
	reg := objmodel.NewRegistry(in)
	if err := reg.RegisterBuiltins(); err != nil {
		t.Fatal(err)
	}
	return &env{t: t, in: in, reg: reg, env: &infer.Env{Types: in, Registry: reg, Scope: objmodel.NewScope(nil)}}
}

func (e *env) opaque(name, sig string, defaults []any, variadic bool) {
	e.t.Helper()
	ps, res, err := e.in.ParseSignature(sig)
	if err != nil {
		e.t.Fatal(err)
	}
	o := &overload.Overload{Name: name, Sig: overload.Signature{Params: ps, Result: res, Defaults: defaults, Variadic: variadic},
		Options: overload.Options{Opaque: true}}
	if err := e.env.Scope.Funcs(name).Add(e.in, o); err != nil {
		e.t.Fatal(err)
	}
}

func (e *env) run(params []string, body string, args ...types.TypeID) *infer.Result {
	e.t.Helper()
	f, err := ir.Parse("f", params, body)
	if err != nil {
		e.t.Fatal(err)
	}
	res, err := infer.NewResult(f, args, types.NoTypeID)
	if err != nil {
		e.t.Fatal(err)
	}
	if err := infer.Run(context.Background(), e.env, res); err != nil {
		e.t.Fatal(err)
	}
	if err := Run(context.Background(), e.in, res); err != nil {
		e.t.Fatal(err)
	}
	if err := ir.Validate(res.Func, res.Ctx, e.in); err != nil {
		e.t.Fatalf("invalid after rewrite: %v\n%s", err, res.Func)
	}
	return res
}

func callee(t *testing.T, op *ir.Op) *ir.FuncRef {
	t.Helper()
	if op.Opcode != ir.OpCall {
		t.Fatalf("%s is %s, want call", op, op.Opcode)
	}
	ref, ok := op.Args[0].(*ir.FuncRef)
	if !ok {
		t.Fatalf("%s calls %v", op, op.Args[0])
	}
	return ref
}

func TestOperatorsBecomeCalls(t *testing.T) {
	e := newEnv(t)
	b := e.in.Builtins()
	res := e.run([]string{"x"}, "entry:\n  y = mul x x\n  z = neg y\n  ret z\n", b.Int32)
	ops := res.Func.Entry().Ops
	for _, op := range ops[:2] {
		ref := callee(t, op)
		if !ref.Opaque {
			t.Fatalf("%s: builtin operator not opaque", op)
		}
		if got := res.Ctx.MustGet(op); got != b.Int32 {
			t.Fatalf("%s retyped to %s", op, e.in.String(got))
		}
	}
	if ops[0].Args[1] != res.Func.Params[0] || len(ops[0].Args) != 3 {
		t.Fatalf("operands = %v", ops[0].Args)
	}
}

func TestDefaultsAreAppended(t *testing.T) {
	e := newEnv(t)
	b := e.in.Builtins()
	e.opaque("scale", "float64 -> float64 -> float64", []any{2.0}, false)
	res := e.run(nil, "entry:\n  v = call scale 1.5\n  ret v\n")
	call := res.Func.Entry().Ops[0]
	callee(t, call)
	if len(call.Args) != 3 {
		t.Fatalf("args = %v", call.Args)
	}
	c, ok := call.Args[2].(*ir.Const)
	if !ok || c.Value != 2.0 || res.Ctx.MustGet(c) != b.Float64 {
		t.Fatalf("default = %v", call.Args[2])
	}
}

func TestPromotionsBecomeConversions(t *testing.T) {
	e := newEnv(t)
	b := e.in.Builtins()
	e.opaque("scale", "float64 -> float64 -> float64", nil, false)
	c, err := e.reg.NewClass("Acc", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddField("sum", b.Float64); err != nil {
		t.Fatal(err)
	}
	e.env.Scope.DefineClass(c)

	res := e.run([]string{"k"}, `
entry:
  v = call scale k 2.0
  a = call Acc v
  setfield a .sum 7
  ret v
`, b.Int32)
	ops := res.Func.Entry().Ops
	// convert k, call scale, new Acc, convert 7, setfield, ret
	if len(ops) != 6 {
		t.Fatalf("ops:\n%s", res.Func)
	}
	conv, call := ops[0], ops[1]
	if conv.Opcode != ir.OpConvert || conv.Args[0] != res.Func.Params[0] || res.Ctx.MustGet(conv) != b.Float64 {
		t.Fatalf("first op = %s", ir.FormatOp(conv))
	}
	callee(t, call)
	if call.Args[1] != conv {
		t.Fatalf("call args = %v", call.Args)
	}
	set := ops[4]
	if ops[3].Opcode != ir.OpConvert || set.Opcode != ir.OpSetField || set.Args[1] != ops[3] {
		t.Fatalf("field store:\n%s", res.Func)
	}
	if k, ok := ops[3].Args[0].(*ir.Const); !ok || k.Value != int64(7) || res.Ctx.MustGet(ops[3]) != b.Float64 {
		t.Fatalf("stored value = %s", ir.FormatOp(ops[3]))
	}
}

func TestVariadicArgumentsArePacked(t *testing.T) {
	e := newEnv(t)
	e.opaque("printf", "string -> a -> int32", nil, true)
	res := e.run(nil, "entry:\n  n = call printf \"%d %s\" 7 \"x\"\n  ret n\n")
	ops := res.Func.Entry().Ops
	// new EmptyTuple, new StaticTuple (x), new StaticTuple (7), call, ret
	if len(ops) != 5 {
		t.Fatalf("ops:\n%s", res.Func)
	}
	if ops[0].Opcode != ir.OpNew || ops[0].Attr != "EmptyTuple" {
		t.Fatalf("first op = %s", ir.FormatOp(ops[0]))
	}
	call := ops[3]
	callee(t, call)
	if len(call.Args) != 3 || call.Args[2] != ops[2] {
		t.Fatalf("call args = %v", call.Args)
	}
	want := e.in.MustParse("StaticTuple[int64, StaticTuple[string, EmptyTuple]]")
	if got := res.Ctx.MustGet(ops[2]); got != want {
		t.Fatalf("tuple = %s", e.in.String(got))
	}
	if ops[2].Args[0].(*ir.Const).Value != int64(7) || ops[2].Args[1] != ops[1] {
		t.Fatalf("chain order broken:\n%s", res.Func)
	}
}

func TestMethodsAndFallbacks(t *testing.T) {
	e := newEnv(t)
	b := e.in.Builtins()
	c, err := e.reg.NewClass("Bag", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddField("n", b.Int64); err != nil {
		t.Fatal(err)
	}
	c.GetAttr = objmodel.GetAttrMethod
	e.env.Scope.DefineClass(c)
	add := func(name string, params []types.TypeID, result types.TypeID) {
		o := &overload.Overload{Name: name, Sig: overload.Signature{Params: params, Result: result}, Options: overload.Options{Opaque: true}}
		if err := c.AddMethod(e.in, name, o); err != nil {
			t.Fatal(err)
		}
	}
	add("size", []types.TypeID{c.Type}, b.Int64)
	add(objmodel.GetAttrMethod, []types.TypeID{c.Type, b.String}, b.Float64)

	res := e.run(nil, `
entry:
  bag = call Bag 3
  m = getfield bag .size
  s = call m
  w = getfield bag .weight
  ret w
`)
	ops := res.Func.Entry().Ops
	if ops[0].Opcode != ir.OpNew || ops[0].Attr != "Bag" || len(ops[0].Args) != 1 {
		t.Fatalf("constructor = %s", ir.FormatOp(ops[0]))
	}
	// The bound method read is gone.
	size := ops[1]
	if ref := callee(t, size); ref.Name != "Bag.size" || size.Args[1] != ops[0] {
		t.Fatalf("method call = %s", ir.FormatOp(size))
	}
	get := ops[2]
	callee(t, get)
	if name, ok := get.Args[2].(*ir.Const); !ok || name.Value != "weight" {
		t.Fatalf("getattr = %s", ir.FormatOp(get))
	}
	if res.Ctx.MustGet(get) != b.Float64 {
		t.Fatalf("getattr typed %s", e.in.String(res.Ctx.MustGet(get)))
	}
}
