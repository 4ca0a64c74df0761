// Package rewrite turns a typed function into explicit calls: every call,
// operator, constructor and attribute fallback resolved by inference is
// rewritten in place to reference the chosen implementation directly,
// with default arguments and packed variadic tuples spelled out. Values
// widened implicitly by resolution or field stores get explicit convert
// ops.
package rewrite

import (
	"context"
	"fmt"
	"slices"

	"flyc/internal/infer"
	"flyc/internal/ir"
	"flyc/internal/overload"
	"flyc/internal/trace"
	"flyc/internal/types"
)

// Run rewrites res.Func in place. Types of rewritten ops are kept; values
// introduced by the rewrite are typed in res.Ctx.
func Run(ctx context.Context, in *types.Interner, res *infer.Result) error {
	_, span := trace.StartSpan(ctx, trace.ScopePass, "rewrite "+res.Func.Name)
	r := &rewriter{in: in, res: res, b: ir.NewBuilder(res.Func)}
	n, err := r.run()
	span.Set("rewritten", fmt.Sprint(n)).Finish(err)
	return err
}

type rewriter struct {
	in  *types.Interner
	res *infer.Result
	b   *ir.Builder
}

func (r *rewriter) run() (int, error) {
	var methods []*ir.Op
	n := 0
	// Collect first: rewriting inserts tuple constructions.
	for _, op := range r.res.Func.Ops() {
		call, ok := r.res.Calls[op]
		if !ok {
			continue
		}
		if err := r.rewrite(op, call); err != nil {
			return n, err
		}
		if call.Method != nil {
			methods = append(methods, call.Method)
		}
		n++
	}
	for _, op := range r.res.Func.Ops() {
		if to, ok := r.res.Widen[op]; ok {
			op.SetArgs(op.Args[0], r.convert(op, op.Args[1], to))
			n++
		}
	}
	for _, m := range methods {
		if m.Live() && len(r.res.Func.Uses(m)) == 0 {
			r.res.Func.Remove(m)
			r.res.Ctx.Delete(m)
		}
	}
	return n, nil
}

func (r *rewriter) rewrite(op *ir.Op, call *infer.Call) error {
	var supplied []ir.Value
	switch call.Kind {
	case infer.CallNew:
		op.Opcode = ir.OpNew
		op.Attr = call.Class.Name
		op.SetArgs(op.Args[1:]...)
		return nil
	case infer.CallFunc:
		supplied = op.Args[1:]
	case infer.CallMethod:
		supplied = append([]ir.Value{call.Method.Args[0]}, op.Args[1:]...)
	case infer.CallOperator:
		supplied = op.Args
	case infer.CallGetAttr:
		supplied = []ir.Value{op.Args[0], r.name(op.Attr)}
	case infer.CallSetAttr:
		supplied = []ir.Value{op.Args[0], r.name(op.Attr), op.Args[1]}
		r.res.Ctx.Set(op, call.Target.Result)
	default:
		return fmt.Errorf("rewrite: unexpected call kind %s at %s", call.Kind, op)
	}
	if len(supplied) != len(call.Args) {
		return fmt.Errorf("rewrite: %s supplies %d value(s) for %d typed argument(s)", op, len(supplied), len(call.Args))
	}
	supplied = r.widen(op, call, supplied)
	args, err := r.complete(op, call.Match, supplied, call.Args)
	if err != nil {
		return err
	}
	op.Opcode = ir.OpCall
	op.Attr = ""
	op.SetArgs(append([]ir.Value{r.ref(call)}, args...)...)
	return nil
}

func (r *rewriter) ref(call *infer.Call) *ir.FuncRef {
	ref := &ir.FuncRef{Name: call.Target.Name, Target: call.Target.Ref}
	if call.Match != nil {
		o := call.Match.Overload
		ref.Opaque = o.Options.Opaque
		ref.Inline = o.Options.Inline
	}
	return ref
}

func (r *rewriter) name(attr string) *ir.Const {
	c := &ir.Const{Value: attr, Type: r.in.Builtins().String}
	r.res.Ctx.Set(c, c.Type)
	return c
}

// widen converts the supplied values resolution promoted to their
// parameter type.
func (r *rewriter) widen(op *ir.Op, call *infer.Call, vals []ir.Value) []ir.Value {
	m := call.Match
	n := min(len(vals), len(m.Params))
	if m.Pack >= 0 {
		n = min(n, m.Pack)
	}
	out, cloned := vals, false
	for i := range n {
		if !r.in.Promotes(call.Args[i], m.Params[i]) {
			continue
		}
		if !cloned {
			out, cloned = slices.Clone(vals), true
		}
		out[i] = r.convert(op, vals[i], m.Params[i])
	}
	return out
}

func (r *rewriter) convert(before *ir.Op, v ir.Value, to types.TypeID) *ir.Op {
	r.b.Before(before)
	c := r.b.Emit(ir.OpConvert, v)
	r.res.Ctx.Set(c, to)
	return c
}

// complete appends defaults or packs surplus arguments the way resolution
// completed the call.
func (r *rewriter) complete(op *ir.Op, m *overload.Match, vals []ir.Value, ts []types.TypeID) ([]ir.Value, error) {
	if m.Pack >= 0 {
		packed, err := r.pack(op, vals[m.Pack:], ts[m.Pack:])
		if err != nil {
			return nil, err
		}
		return append(append([]ir.Value{}, vals[:m.Pack]...), packed), nil
	}
	out := append([]ir.Value{}, vals...)
	for i, d := range m.Defaults {
		c := &ir.Const{Value: d, Type: m.Params[len(vals)+i]}
		r.res.Ctx.Set(c, c.Type)
		out = append(out, c)
	}
	return out, nil
}

// pack builds the StaticTuple chain for items in front of op.
func (r *rewriter) pack(op *ir.Op, items []ir.Value, ts []types.TypeID) (ir.Value, error) {
	b := r.in.Builtins()
	r.b.Before(op)
	cur := r.b.Emit(ir.OpNew)
	cur.Attr = "EmptyTuple"
	curT, err := r.in.App(b.EmptyTuple)
	if err != nil {
		return nil, err
	}
	r.res.Ctx.Set(cur, curT)
	for i := len(items) - 1; i >= 0; i-- {
		next := r.b.Emit(ir.OpNew, items[i], cur)
		next.Attr = "StaticTuple"
		if curT, err = r.in.App(b.StaticTuple, ts[i], curT); err != nil {
			return nil, err
		}
		r.res.Ctx.Set(next, curT)
		cur = next
	}
	return cur, nil
}
