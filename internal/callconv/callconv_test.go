package callconv

import (
	"context"
	"testing"

	"flyc/internal/ir"
	"flyc/internal/objmodel"
	"flyc/internal/repr"
	"flyc/internal/types"
)

type fixture struct {
	in  *types.Interner
	l   *Lowerer
	vec types.TypeID
	box types.TypeID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	in := types.NewInterner()
	reg := objmodel.NewRegistry(in)
	f64 := in.Builtins().Float64
	mk := func(name string, stack bool) types.TypeID {
		c, err := reg.NewClass(name, nil)
		if err != nil {
			t.Fatal(err)
		}
		c.StackAllocate = stack
		for _, f := range []string{"x", "y"} {
			if err := c.AddField(f, f64); err != nil {
				t.Fatal(err)
			}
		}
		return c.Type
	}
	return &fixture{
		in:  in,
		l:   &Lowerer{Types: in, Reprs: repr.NewCache(reg)},
		vec: mk("Vec", true),
		box: mk("Box", false),
	}
}

// passthrough builds `f(v) = callee(v)` typed with t throughout.
func (fx *fixture) passthrough(t types.TypeID, callee *ir.FuncRef) (*ir.Func, *ir.Context) {
	f := ir.NewFunc("f", "v")
	b := ir.NewBuilder(f)
	w := b.Call(callee, f.Params[0])
	b.Ret(w)
	tc := ir.NewContext()
	tc.Set(f.Params[0], t)
	tc.Set(w, t)
	return f, tc
}

func opcodes(f *ir.Func) []ir.Opcode {
	var out []ir.Opcode
	for _, op := range f.Ops() {
		out = append(out, op.Opcode)
	}
	return out
}

func sameOpcodes(a, b []ir.Opcode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStructValuesGoThroughPointers(t *testing.T) {
	fx := newFixture(t)
	f, tc := fx.passthrough(fx.vec, &ir.FuncRef{Name: "g"})
	ft, err := fx.l.Lower(context.Background(), f, tc, fx.vec)
	if err != nil {
		t.Fatal(err)
	}
	want := []ir.Opcode{ir.OpLoad, ir.OpAlloca, ir.OpCall, ir.OpLoad, ir.OpStore, ir.OpRet}
	if got := opcodes(f); !sameOpcodes(got, want) {
		t.Fatalf("ops = %v\n%s", got, f)
	}
	p := f.Params[0]
	if !p.ByRef || tc.MustGet(p) != fx.in.Pointer(fx.vec) {
		t.Fatalf("param not lowered: byref=%v type=%s", p.ByRef, fx.in.String(tc.MustGet(p)))
	}
	if f.Out == nil || f.Out.Role != ir.RoleOut || f.Params[len(f.Params)-1] != f.Out {
		t.Fatalf("missing output parameter")
	}
	ops := f.Ops()
	call := ops[2]
	if call.Args[1] != p || call.Args[2] != ops[1] {
		t.Fatalf("call = %s", ir.FormatOp(call))
	}
	if tc.MustGet(call) != fx.in.Builtins().Void {
		t.Fatalf("call still returns a value")
	}
	if ops[4].Args[0] != ops[3] || ops[4].Args[1] != f.Out {
		t.Fatalf("store = %s", ir.FormatOp(ops[4]))
	}
	if len(ops[5].Args) != 0 {
		t.Fatalf("ret keeps its operand")
	}
	if err := ir.Validate(f, tc, fx.in); err != nil {
		t.Fatal(err)
	}
	if !ft.SRet || len(ft.Params) != 2 || !ft.Result.IsVoid() {
		t.Fatalf("signature = %s", ft)
	}

	again, err := fx.l.Lower(context.Background(), f, tc, fx.vec)
	if err != nil {
		t.Fatal(err)
	}
	if got := opcodes(f); !sameOpcodes(got, want) || again.String() != ft.String() {
		t.Fatalf("second lowering changed the function:\n%s", f)
	}
}

func TestOpaqueCalleesKeepValues(t *testing.T) {
	fx := newFixture(t)
	f, tc := fx.passthrough(fx.vec, &ir.FuncRef{Name: "h", Opaque: true})
	if _, err := fx.l.Lower(context.Background(), f, tc, fx.vec); err != nil {
		t.Fatal(err)
	}
	ops := f.Ops()
	want := []ir.Opcode{ir.OpLoad, ir.OpCall, ir.OpStore, ir.OpRet}
	if got := opcodes(f); !sameOpcodes(got, want) {
		t.Fatalf("ops = %v\n%s", got, f)
	}
	if ops[1].Args[1] != ops[0] || tc.MustGet(ops[1]) != fx.vec {
		t.Fatalf("opaque call changed: %s", ir.FormatOp(ops[1]))
	}
}

func TestHeapClassesStayByValue(t *testing.T) {
	fx := newFixture(t)
	f, tc := fx.passthrough(fx.box, &ir.FuncRef{Name: "g"})
	ft, err := fx.l.Lower(context.Background(), f, tc, fx.box)
	if err != nil {
		t.Fatal(err)
	}
	if got := opcodes(f); !sameOpcodes(got, []ir.Opcode{ir.OpCall, ir.OpRet}) {
		t.Fatalf("ops = %v", got)
	}
	if f.Out != nil || f.Params[0].ByRef || ft.SRet {
		t.Fatalf("pointer-represented class lowered by reference")
	}
	if ft.Result.Kind != repr.KindPointer {
		t.Fatalf("result = %s", ft.Result)
	}
}

func TestCompositeTemporariesAreAddressed(t *testing.T) {
	fx := newFixture(t)
	f := ir.NewFunc("f")
	b := ir.NewBuilder(f)
	one := &ir.Const{Value: 1.0, Type: fx.in.Builtins().Float64}
	v := b.New("Vec", one, one)
	r := b.Call(&ir.FuncRef{Name: "len"}, v)
	b.Ret(r)
	tc := ir.NewContext()
	tc.Set(one, one.Type)
	tc.Set(v, fx.vec)
	tc.Set(r, fx.in.Builtins().Float64)
	if _, err := fx.l.Lower(context.Background(), f, tc, fx.in.Builtins().Float64); err != nil {
		t.Fatal(err)
	}
	ops := f.Ops()
	if ops[1].Opcode != ir.OpAddrOf || ops[1].Args[0] != v || ops[2].Args[1] != ops[1] {
		t.Fatalf("temporary not addressed:\n%s", f)
	}
	if tc.MustGet(ops[1]) != fx.in.Pointer(fx.vec) {
		t.Fatalf("addrof typed %s", fx.in.String(tc.MustGet(ops[1])))
	}
}
