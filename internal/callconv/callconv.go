// Package callconv lowers a rewritten function to the native calling
// convention. Composite values whose representation is a bare struct travel
// through pointers: by-reference parameters are received as pointers and
// loaded on entry, by-reference results are written through a trailing
// output pointer, and call sites of compiled callees are adjusted to match.
// Calls to opaque implementations keep the host convention.
package callconv

import (
	"context"
	"fmt"
	"strings"

	"flyc/internal/ir"
	"flyc/internal/repr"
	"flyc/internal/trace"
	"flyc/internal/types"
)

// FuncType is the native signature of a lowered function.
type FuncType struct {
	Params []*repr.Repr
	// Result is void when the value is returned through the output
	// pointer, which is then the last of Params.
	Result *repr.Repr
	SRet   bool
}

func (ft *FuncType) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range ft.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if ft.SRet && i == len(ft.Params)-1 {
			sb.WriteString("sret ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(ft.Result.String())
	return sb.String()
}

// Lowerer carries what lowering needs about types.
type Lowerer struct {
	Types *types.Interner
	Reprs *repr.Cache
}

// Lower rewrites f in place and returns its native signature. result is
// the inferred return type. Lowering an already lowered function only
// recomputes the signature.
func (l *Lowerer) Lower(ctx context.Context, f *ir.Func, tc *ir.Context, result types.TypeID) (*FuncType, error) {
	_, span := trace.StartSpan(ctx, trace.ScopePass, "callconv "+f.Name)
	defer span.End("")
	if !f.Lowered {
		if err := l.params(f, tc); err != nil {
			return nil, err
		}
		if err := l.result(f, tc, result); err != nil {
			return nil, err
		}
		if err := l.callSites(f, tc); err != nil {
			return nil, err
		}
		f.Lowered = true
	}
	return l.Signature(f, tc, result)
}

// Signature computes the native signature of a lowered function.
func (l *Lowerer) Signature(f *ir.Func, tc *ir.Context, result types.TypeID) (*FuncType, error) {
	if !f.Lowered {
		return nil, fmt.Errorf("callconv: %s is not lowered", f.Name)
	}
	ft := &FuncType{}
	for _, p := range f.Params {
		t, ok := tc.Get(p)
		if !ok {
			return nil, fmt.Errorf("callconv: %s: parameter %s has no type", f.Name, p)
		}
		r, err := l.Reprs.Of(t)
		if err != nil {
			return nil, err
		}
		ft.Params = append(ft.Params, r)
	}
	if f.Out != nil {
		ft.SRet = true
		result = l.Types.Builtins().Void
	}
	r, err := l.Reprs.Of(result)
	if err != nil {
		return nil, err
	}
	ft.Result = r
	return ft, nil
}

func (l *Lowerer) byRef(t types.TypeID) (bool, error) {
	return l.Reprs.ByRef(t)
}

func (l *Lowerer) params(f *ir.Func, tc *ir.Context) error {
	b := ir.NewBuilder(f)
	b.Start(f.Entry())
	for _, p := range f.Params {
		if p.Role != ir.RoleParam {
			continue
		}
		t := tc.MustGet(p)
		ref, err := l.byRef(t)
		if err != nil {
			return err
		}
		if !ref {
			continue
		}
		p.ByRef = true
		tc.Set(p, l.Types.Pointer(t))
		load := b.Load(p)
		tc.Set(load, t)
		f.ReplaceUses(p, load)
	}
	return nil
}

func (l *Lowerer) result(f *ir.Func, tc *ir.Context, result types.TypeID) error {
	ref, err := l.byRef(result)
	if err != nil || !ref {
		return err
	}
	out := f.AddParam(f.Temp("out"), ir.RoleOut)
	f.Out = out
	tc.Set(out, l.Types.Pointer(result))
	b := ir.NewBuilder(f)
	for _, op := range f.Ops() {
		if op.Opcode != ir.OpRet || len(op.Args) == 0 {
			continue
		}
		b.Before(op)
		b.Store(op.Args[0], out)
		op.SetArgs()
	}
	return nil
}

func (l *Lowerer) callSites(f *ir.Func, tc *ir.Context) error {
	b := ir.NewBuilder(f)
	for _, call := range f.Ops() {
		if call.Opcode != ir.OpCall {
			continue
		}
		ref, ok := call.Args[0].(*ir.FuncRef)
		if !ok || ref.Opaque {
			continue
		}
		for i, a := range call.Args[1:] {
			t := tc.MustGet(a)
			byRef, err := l.byRef(t)
			if err != nil {
				return err
			}
			if !byRef {
				continue
			}
			if ld, ok := a.(*ir.Op); ok && ld.Opcode == ir.OpLoad {
				call.Args[i+1] = ld.Args[0]
				continue
			}
			b.Before(call)
			addr := b.Emit(ir.OpAddrOf, a)
			tc.Set(addr, l.Types.Pointer(t))
			call.Args[i+1] = addr
		}

		rt := tc.MustGet(call)
		byRef, err := l.byRef(rt)
		if err != nil {
			return err
		}
		if !byRef {
			continue
		}
		b.Before(call)
		scratch := b.Alloca()
		tc.Set(scratch, l.Types.Pointer(rt))
		call.Args = append(call.Args, scratch)
		tc.Set(call, l.Types.Builtins().Void)
		b.After(call)
		val := b.Load(scratch)
		tc.Set(val, rt)
		f.ReplaceUses(call, val)
	}
	return nil
}
