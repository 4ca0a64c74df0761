package infer

import (
	"context"
	"fmt"

	"flyc/internal/diag"
	"flyc/internal/ir"
	"flyc/internal/objmodel"
	"flyc/internal/overload"
	"flyc/internal/trace"
	"flyc/internal/types"
)

// Target is a specialization chosen for a call.
type Target struct {
	// Ref identifies the implementation for later stages: the session's
	// specialization handle, or the *overload.Overload of an opaque one.
	Ref    any
	Name   string
	Result types.TypeID
}

// Specializer compiles implementations with a body for concrete
// parameter types. A request for a specialization that is still being
// inferred returns its result type as known so far.
type Specializer interface {
	Specialize(ctx context.Context, o *overload.Overload, params []types.TypeID) (Target, error)
}

// Env is what a function body is typed against.
type Env struct {
	Types       *types.Interner
	Registry    *objmodel.Registry
	Scope       *objmodel.Scope
	Specializer Specializer
}

// CallKind tells rewriting how a resolved op must be turned into a call.
type CallKind uint8

const (
	CallFunc CallKind = iota + 1
	CallMethod
	CallOperator
	CallNew
	CallGetAttr
	CallSetAttr
)

func (k CallKind) String() string {
	switch k {
	case CallFunc:
		return "func"
	case CallMethod:
		return "method"
	case CallOperator:
		return "operator"
	case CallNew:
		return "new"
	case CallGetAttr:
		return "getattr"
	case CallSetAttr:
		return "setattr"
	default:
		return fmt.Sprintf("CallKind(%d)", k)
	}
}

// Call records the resolution of one op.
type Call struct {
	Kind   CallKind
	Name   string
	Match  *overload.Match // nil for CallNew
	Target Target
	// Args are the supplied argument types; the receiver comes first for
	// methods, operators and attribute fallbacks.
	Args  []types.TypeID
	Class *objmodel.Class // CallNew
	// Method is the getfield producing the bound method of a CallMethod.
	Method *ir.Op
}

// Result is the typing of one function for one argument tuple. It is
// filled in while the pass runs, so a recursive request can read Return
// before Run finishes.
type Result struct {
	Func     *ir.Func
	Ctx      *ir.Context
	Args     []types.TypeID
	Declared types.TypeID
	// Return is the type of the first return in program order, NoTypeID
	// until one was seen, and void for functions returning nothing.
	Return types.TypeID
	Calls  map[*ir.Op]*Call
	// Widen maps setfield ops whose value promotes to the field type.
	Widen map[*ir.Op]types.TypeID
}

// NewResult seeds a context with the argument types.
func NewResult(f *ir.Func, args []types.TypeID, declared types.TypeID) (*Result, error) {
	if len(args) != len(f.Params) {
		return nil, &Error{Kind: ErrArity, Name: f.Name, Detail: fmt.Sprintf("%d argument type(s) for %d parameter(s)", len(args), len(f.Params))}
	}
	res := &Result{
		Func:     f,
		Ctx:      ir.NewContext(),
		Args:     args,
		Declared: declared,
		Calls:    make(map[*ir.Op]*Call),
		Widen:    make(map[*ir.Op]types.TypeID),
	}
	for i, p := range f.Params {
		res.Ctx.Set(p, args[i])
	}
	return res, nil
}

// KnownReturn returns the result type as far as inference has seen it.
func (r *Result) KnownReturn() (types.TypeID, bool) {
	if r.Declared != types.NoTypeID {
		return r.Declared, true
	}
	return r.Return, r.Return != types.NoTypeID
}

type pass struct {
	env  *Env
	in   *types.Interner
	res  *Result
	phis []*ir.Op
}

// Run types every op of res.Func.
func Run(ctx context.Context, env *Env, res *Result) error {
	p := &pass{env: env, in: env.Types, res: res}
	ctx, span := trace.StartSpan(ctx, trace.ScopePass, "infer "+res.Func.Name)
	err := p.run(ctx)
	span.Set("typed", fmt.Sprint(res.Ctx.Len())).Finish(err)
	return err
}

func (p *pass) run(ctx context.Context) error {
	for _, b := range p.res.Func.Blocks {
		for _, op := range b.Ops {
			if err := p.op(ctx, op); err != nil {
				return err
			}
		}
	}
	return p.finish()
}

func (p *pass) fail(op *ir.Op, callee string, args []types.TypeID, err error) error {
	ce := &diag.CompileError{Func: p.res.Func.Name, Callee: callee, Err: err}
	if op != nil {
		ce.Op = ir.FormatOp(op)
	}
	if len(args) > 0 {
		ce.ArgTypes = p.in.Strings(args)
	}
	return ce
}

func (p *pass) op(ctx context.Context, op *ir.Op) error {
	switch {
	case op.Opcode == ir.OpCall:
		return p.call(ctx, op)
	case op.Opcode.IsOperator():
		return p.operator(ctx, op)
	}
	switch op.Opcode {
	case ir.OpGetField:
		return p.getField(ctx, op)
	case ir.OpSetField:
		return p.setField(ctx, op)
	case ir.OpNew:
		return p.construct(op)
	case ir.OpPhi:
		return p.phi(op)
	case ir.OpJump:
		return nil
	case ir.OpCBranch:
		t, err := p.typeOf(op.Args[0])
		if err != nil {
			return p.fail(op, "", nil, err)
		}
		if t != p.in.Builtins().Bool {
			return p.fail(op, "", nil, &Error{Kind: ErrBadCondition, Detail: p.in.String(t)})
		}
		return nil
	case ir.OpRet:
		return p.ret(op)
	}
	return p.fail(op, "", nil, &Error{Kind: ErrBadOperand, Detail: op.Opcode.String() + " is not valid before lowering"})
}

// typeOf returns the type of an operand, typing constants on first use.
func (p *pass) typeOf(v ir.Value) (types.TypeID, error) {
	if t, ok := p.res.Ctx.Get(v); ok {
		return t, nil
	}
	switch x := v.(type) {
	case *ir.Const:
		t := x.Type
		if t == types.NoTypeID {
			var ok bool
			if t, ok = p.in.ConstType(x.Value); !ok {
				return types.NoTypeID, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("constant %v of host type %T", x.Value, x.Value)}
			}
		}
		p.res.Ctx.Set(x, t)
		return t, nil
	case *ir.Global:
		return types.NoTypeID, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("global %s used as a value", x.Name)}
	case *ir.Op:
		return types.NoTypeID, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("%s used before it is defined", x)}
	}
	return types.NoTypeID, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("untyped operand %v", v)}
}

func (p *pass) typesOf(vs []ir.Value) ([]types.TypeID, error) {
	out := make([]types.TypeID, len(vs))
	for i, v := range vs {
		t, err := p.typeOf(v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// resolve picks an implementation from s and obtains its result type.
func (p *pass) resolve(ctx context.Context, s *overload.Set, args []types.TypeID) (*overload.Match, Target, error) {
	m, err := overload.Resolve(p.in, s, args)
	if err != nil {
		return nil, Target{}, err
	}
	trace.Note(ctx, trace.ScopeOp, "resolve "+s.Name, m.Overload.Sig.Format(p.in))
	tgt, err := p.target(ctx, s.Name, m)
	if err != nil {
		return nil, Target{}, err
	}
	return m, tgt, nil
}

func (p *pass) target(ctx context.Context, name string, m *overload.Match) (Target, error) {
	o := m.Overload
	switch {
	case o.Options.Abstract:
		return Target{}, &Error{Kind: ErrAbstract, Name: name}
	case o.Options.Opaque:
		res := m.Result
		if o.InferReturn != nil {
			r, err := o.InferReturn(p.in, m.Params)
			if err != nil {
				return Target{}, err
			}
			res = r
		}
		if res == types.NoTypeID {
			return Target{}, &Error{Kind: ErrBadOperand, Detail: "opaque " + name + " has no result type"}
		}
		return Target{Ref: o, Name: name, Result: res}, nil
	}
	if p.env.Specializer == nil {
		return Target{}, &Error{Kind: ErrBadOperand, Detail: "no specializer to compile " + name}
	}
	return p.env.Specializer.Specialize(ctx, o, m.Params)
}

func (p *pass) record(op *ir.Op, c *Call) {
	p.res.Calls[op] = c
	p.res.Ctx.Set(op, c.Target.Result)
}

func (p *pass) call(ctx context.Context, op *ir.Op) error {
	if len(op.Args) == 0 {
		return p.fail(op, "", nil, &Error{Kind: ErrBadOperand, Detail: "call without callee"})
	}
	args, err := p.typesOf(op.Args[1:])
	if err != nil {
		return p.fail(op, "", nil, err)
	}
	switch callee := op.Args[0].(type) {
	case *ir.Global:
		b, ok := p.env.Scope.Lookup(callee.Name)
		if !ok {
			return p.fail(op, callee.Name, args, &Error{Kind: ErrUnknownCallee, Name: callee.Name})
		}
		if b.Class != nil {
			return p.instantiate(op, b.Class, args)
		}
		m, tgt, err := p.resolve(ctx, b.Funcs, args)
		if err != nil {
			return p.fail(op, callee.Name, args, err)
		}
		p.record(op, &Call{Kind: CallFunc, Name: callee.Name, Match: m, Target: tgt, Args: args})
		return nil
	case *ir.Op:
		if callee.Opcode == ir.OpGetField {
			if mt, ok := p.res.Ctx.Get(callee); ok && p.in.MustLookup(mt).Kind == types.KindMethod {
				return p.methodCall(ctx, op, callee, args)
			}
		}
	}
	return p.fail(op, op.Args[0].String(), args, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("%s is not callable", op.Args[0])})
}

func (p *pass) methodCall(ctx context.Context, op, getfield *ir.Op, args []types.TypeID) error {
	bound := p.in.MustLookup(p.res.Ctx.MustGet(getfield))
	recv := bound.Recv
	name := getfield.Attr
	full := append([]types.TypeID{recv}, args...)
	_, set, ok := p.env.Registry.LookupMethod(recv, name)
	if !ok {
		return p.fail(op, name, full, &AttributeError{Type: p.in.String(recv), Attr: name})
	}
	m, tgt, err := p.resolve(ctx, set, full)
	if err != nil {
		return p.fail(op, set.Name, full, err)
	}
	fn := p.in.Method(recv, p.in.Func(m.Params, tgt.Result))
	if bound.Fn != types.NoTypeID && p.in.Method(recv, bound.Fn) != fn {
		return p.fail(op, set.Name, full, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("method %s called with different signatures", name)})
	}
	p.res.Ctx.Set(getfield, fn)
	p.record(op, &Call{Kind: CallMethod, Name: set.Name, Match: m, Target: tgt, Args: full, Method: getfield})
	return nil
}

func (p *pass) instantiate(op *ir.Op, c *objmodel.Class, args []types.TypeID) error {
	if c.IsPrimitive() {
		return p.fail(op, c.Name, args, &Error{Kind: ErrBadOperand, Detail: "primitive " + c.Name + " cannot be constructed"})
	}
	t, err := c.Instantiate(p.in, args)
	if err != nil {
		return p.fail(op, c.Name, args, err)
	}
	p.record(op, &Call{Kind: CallNew, Name: c.Name, Target: Target{Name: c.Name, Result: t}, Args: args, Class: c})
	return nil
}

// construct types a front-end `new` op.
func (p *pass) construct(op *ir.Op) error {
	args, err := p.typesOf(op.Args)
	if err != nil {
		return p.fail(op, op.Attr, nil, err)
	}
	c, ok := p.env.Registry.Class(op.Attr)
	if !ok || c.IsPrimitive() {
		return p.fail(op, op.Attr, args, &Error{Kind: ErrUnknownCallee, Name: op.Attr})
	}
	t, err := c.Instantiate(p.in, args)
	if err != nil {
		return p.fail(op, c.Name, args, err)
	}
	p.res.Ctx.Set(op, t)
	return nil
}

func (p *pass) operator(ctx context.Context, op *ir.Op) error {
	args, err := p.typesOf(op.Args)
	if err != nil {
		return p.fail(op, "", nil, err)
	}
	name, ok := objmodel.OperatorMethod(op.Opcode)
	if !ok || len(args) == 0 {
		return p.fail(op, "", args, &Error{Kind: ErrBadOperand, Detail: "no protocol method for " + op.Opcode.String()})
	}
	_, set, ok := p.env.Registry.LookupMethod(args[0], name)
	if !ok {
		return p.fail(op, name, args, &AttributeError{Type: p.in.String(args[0]), Attr: name})
	}
	m, tgt, err := p.resolve(ctx, set, args)
	if err != nil {
		return p.fail(op, set.Name, args, err)
	}
	p.record(op, &Call{Kind: CallOperator, Name: set.Name, Match: m, Target: tgt, Args: args})
	return nil
}

func (p *pass) getField(ctx context.Context, op *ir.Op) error {
	recv, err := p.typeOf(op.Args[0])
	if err != nil {
		return p.fail(op, "", nil, err)
	}
	c, ok := p.env.Registry.ClassOf(recv)
	if !ok {
		return p.fail(op, op.Attr, []types.TypeID{recv}, &AttributeError{Type: p.in.String(recv), Attr: op.Attr})
	}
	if ft, ok, err := c.FieldType(p.in, recv, op.Attr); ok || err != nil {
		if err != nil {
			return p.fail(op, op.Attr, []types.TypeID{recv}, err)
		}
		p.res.Ctx.Set(op, ft)
		return nil
	}
	if c.Method(op.Attr) != nil {
		p.res.Ctx.Set(op, p.in.Method(recv, types.NoTypeID))
		return nil
	}
	if !c.HasGetAttr() {
		return p.fail(op, op.Attr, []types.TypeID{recv}, &AttributeError{Type: p.in.String(recv), Attr: op.Attr})
	}
	args := []types.TypeID{recv, p.in.Builtins().String}
	m, tgt, err := p.resolve(ctx, c.Method(c.GetAttr), args)
	if err != nil {
		return p.fail(op, c.Name+"."+c.GetAttr, args, err)
	}
	p.record(op, &Call{Kind: CallGetAttr, Name: c.Name + "." + c.GetAttr, Match: m, Target: tgt, Args: args})
	return nil
}

func (p *pass) setField(ctx context.Context, op *ir.Op) error {
	args, err := p.typesOf(op.Args)
	if err != nil {
		return p.fail(op, "", nil, err)
	}
	recv, val := args[0], args[1]
	c, ok := p.env.Registry.ClassOf(recv)
	if !ok {
		return p.fail(op, op.Attr, args, &AttributeError{Type: p.in.String(recv), Attr: op.Attr, Write: true})
	}
	if ft, ok, err := c.FieldType(p.in, recv, op.Attr); ok || err != nil {
		if err != nil {
			return p.fail(op, op.Attr, args, err)
		}
		if ft != val && p.in.Promotes(val, ft) {
			p.res.Widen[op] = ft
			return nil
		}
		if ft != val {
			return p.fail(op, op.Attr, args, &Error{Kind: ErrFieldMismatch, Name: c.Name + "." + op.Attr,
				Detail: fmt.Sprintf("want %s, got %s", p.in.String(ft), p.in.String(val))})
		}
		return nil
	}
	if !c.HasSetAttr() {
		return p.fail(op, op.Attr, args, &AttributeError{Type: p.in.String(recv), Attr: op.Attr, Write: true})
	}
	full := []types.TypeID{recv, p.in.Builtins().String, val}
	m, tgt, err := p.resolve(ctx, c.Method(c.SetAttr), full)
	if err != nil {
		return p.fail(op, c.Name+"."+c.SetAttr, full, err)
	}
	p.res.Calls[op] = &Call{Kind: CallSetAttr, Name: c.Name + "." + c.SetAttr, Match: m, Target: tgt, Args: full}
	return nil
}

// phi takes the type of its already typed incoming values; values flowing
// in over back edges are checked once the whole body is typed.
func (p *pass) phi(op *ir.Op) error {
	var t types.TypeID
	for _, a := range op.Args {
		at, ok := p.res.Ctx.Get(a)
		if !ok {
			if _, isOp := a.(*ir.Op); isOp {
				continue
			}
			var err error
			if at, err = p.typeOf(a); err != nil {
				return p.fail(op, "", nil, err)
			}
		}
		if t == types.NoTypeID {
			t = at
		} else if at != t {
			return p.fail(op, "", nil, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("phi merges %s and %s", p.in.String(t), p.in.String(at))})
		}
	}
	if t == types.NoTypeID {
		return p.fail(op, "", nil, &Error{Kind: ErrBadOperand, Detail: "phi has no typed incoming value"})
	}
	p.res.Ctx.Set(op, t)
	p.phis = append(p.phis, op)
	return nil
}

func (p *pass) ret(op *ir.Op) error {
	t := p.in.Builtins().Void
	if len(op.Args) > 0 {
		var err error
		if t, err = p.typeOf(op.Args[0]); err != nil {
			return p.fail(op, "", nil, err)
		}
	}
	switch {
	case p.res.Return == types.NoTypeID:
		p.res.Return = t
	case p.res.Return != t:
		return p.fail(op, "", nil, &Error{Kind: ErrReturnMismatch,
			Detail: fmt.Sprintf("%s and %s", p.in.String(p.res.Return), p.in.String(t))})
	}
	return nil
}

func (p *pass) finish() error {
	for _, op := range p.phis {
		want := p.res.Ctx.MustGet(op)
		for _, a := range op.Args {
			at, ok := p.res.Ctx.Get(a)
			if !ok {
				return p.fail(op, "", nil, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("%s never defined", a)})
			}
			if at != want {
				return p.fail(op, "", nil, &Error{Kind: ErrBadOperand, Detail: fmt.Sprintf("phi merges %s and %s", p.in.String(want), p.in.String(at))})
			}
		}
	}
	for _, b := range p.res.Func.Blocks {
		for _, op := range b.Ops {
			t, ok := p.res.Ctx.Get(op)
			if !ok {
				continue
			}
			if tt := p.in.MustLookup(t); tt.Kind == types.KindMethod && tt.Fn == types.NoTypeID {
				return p.fail(op, op.Attr, nil, &Error{Kind: ErrUnresolvedMethod, Name: p.in.String(tt.Recv) + "." + op.Attr})
			}
		}
	}
	if p.res.Return == types.NoTypeID {
		p.res.Return = p.in.Builtins().Void
	}
	if d := p.res.Declared; d != types.NoTypeID && d != p.res.Return {
		return p.fail(nil, "", p.res.Args, &Error{Kind: ErrReturnMismatch,
			Detail: fmt.Sprintf("declared %s, inferred %s", p.in.String(d), p.in.String(p.res.Return))})
	}
	return nil
}
