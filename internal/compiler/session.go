package compiler

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"flyc/internal/callconv"
	"flyc/internal/diag"
	"flyc/internal/infer"
	"flyc/internal/ir"
	"flyc/internal/objmodel"
	"flyc/internal/overload"
	"flyc/internal/repr"
	"flyc/internal/rewrite"
	"flyc/internal/trace"
	"flyc/internal/types"
)

// DefaultMaxDepth bounds nested specialization requests.
const DefaultMaxDepth = 64

// Options configure a session.
type Options struct {
	MaxDepth int
}

// Specialization is one implementation compiled for one tuple of
// concrete argument types.
type Specialization struct {
	Name     string
	Overload *overload.Overload
	Args     []types.TypeID
	Func     *ir.Func
	Ctx      *ir.Context
	Return   types.TypeID
	// Sig is the native signature, set once lowering finished.
	Sig *callconv.FuncType

	key string
	res *infer.Result
}

// Done reports whether the specialization went through the whole pipeline.
func (s *Specialization) Done() bool { return s.Sig != nil }

// Stats counts specialization cache traffic.
type Stats struct {
	Hits     int
	InFlight int
	Compiled int
	Failed   int
}

// Session compiles specializations over one type universe.
type Session struct {
	Types    *types.Interner
	Registry *objmodel.Registry
	Scope    *objmodel.Scope
	Reprs    *repr.Cache

	opts  Options
	env   *infer.Env
	lower *callconv.Lowerer

	cache   map[string]*Specialization
	created []*Specialization // start order, for purging
	order   []*Specialization // completion order
	stack   []*Specialization
	stats   Stats
}

// NewSession creates a session with the builtin classes registered.
func NewSession(opts Options) (*Session, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	in := types.NewInterner()
	reg := objmodel.NewRegistry(in)
	if err := reg.RegisterBuiltins(); err != nil {
		return nil, err
	}
	s := &Session{
		Types:    in,
		Registry: reg,
		Scope:    objmodel.NewScope(nil),
		Reprs:    repr.NewCache(reg),
		opts:     opts,
		cache:    make(map[string]*Specialization),
	}
	s.env = &infer.Env{Types: in, Registry: reg, Scope: s.Scope, Specializer: s}
	s.lower = &callconv.Lowerer{Types: in, Reprs: s.Reprs}
	return s, nil
}

// Stats returns the cache counters.
func (s *Session) Stats() Stats { return s.stats }

// Specializations returns the completed specializations in the order they
// finished, so callees come before their callers except along recursion.
func (s *Session) Specializations() []*Specialization {
	return slices.Clone(s.order)
}

// Lookup returns the cached specialization of o for args.
func (s *Session) Lookup(o *overload.Overload, args []types.TypeID) (*Specialization, bool) {
	k, err := s.keyOf(o, args)
	if err != nil {
		return nil, false
	}
	sp, ok := s.cache[k]
	return sp, ok && sp.Done()
}

// CompileEntry resolves name for args and specializes the chosen
// implementation.
func (s *Session) CompileEntry(ctx context.Context, name string, args []types.TypeID) (*Specialization, error) {
	ctx, span := trace.StartSpan(ctx, trace.ScopeSession, "entry "+name)
	sp, err := s.compileEntry(ctx, name, args)
	span.Finish(err)
	return sp, err
}

func (s *Session) compileEntry(ctx context.Context, name string, args []types.TypeID) (*Specialization, error) {
	wrap := func(err error) error {
		if _, ok := diag.AsCompileError(err); ok {
			return err
		}
		return &diag.CompileError{Func: name, Callee: name, ArgTypes: s.Types.Strings(args), Err: err}
	}
	b, ok := s.Scope.Lookup(name)
	if !ok || b.Funcs == nil {
		return nil, wrap(&EntryError{Name: name, Reason: "no function of that name"})
	}
	m, err := overload.Resolve(s.Types, b.Funcs, args)
	if err != nil {
		return nil, wrap(err)
	}
	if m.Overload.Body == nil {
		return nil, wrap(&EntryError{Name: name, Reason: "resolves to " + m.Overload.Options.String() + " implementation without a body"})
	}
	if _, err := s.Specialize(ctx, m.Overload, m.Params); err != nil {
		return nil, wrap(err)
	}
	sp, _ := s.Lookup(m.Overload, m.Params)
	return sp, nil
}

// Specialize implements infer.Specializer.
func (s *Session) Specialize(ctx context.Context, o *overload.Overload, args []types.TypeID) (infer.Target, error) {
	key, err := s.keyOf(o, args)
	if err != nil {
		return infer.Target{}, err
	}
	if sp, ok := s.cache[key]; ok {
		if sp.Done() {
			s.stats.Hits++
			return infer.Target{Ref: sp, Name: sp.Name, Result: sp.Return}, nil
		}
		s.stats.InFlight++
		ret, known := sp.res.KnownReturn()
		if !known {
			return infer.Target{}, &infer.Error{Kind: infer.ErrRecursiveReturn, Name: sp.Name}
		}
		return infer.Target{Ref: sp, Name: sp.Name, Result: ret}, nil
	}
	if o.Body == nil {
		return infer.Target{}, &EntryError{Name: o.Name, Reason: "no body to specialize"}
	}
	if len(s.stack) >= s.opts.MaxDepth {
		chain := make([]string, 0, len(s.stack)+1)
		for _, f := range s.stack {
			chain = append(chain, f.Name)
		}
		chain = append(chain, mangle(s.Types, o, args))
		return infer.Target{}, &DepthError{Limit: s.opts.MaxDepth, Chain: chain}
	}

	sp := &Specialization{Name: mangle(s.Types, o, args), Overload: o, Args: args, key: key}
	mark := len(s.created)
	s.cache[key] = sp
	s.created = append(s.created, sp)
	s.stack = append(s.stack, sp)

	bctx, span := trace.StartSpan(ctx, trace.ScopeSpecialization, sp.Name)
	err = s.build(bctx, sp)
	s.stack = s.stack[:len(s.stack)-1]
	if err != nil {
		span.Finish(err)
		s.purge(mark)
		s.stats.Failed++
		return infer.Target{}, err
	}
	span.Set("return", s.Types.String(sp.Return)).Finish(nil)
	s.order = append(s.order, sp)
	s.stats.Compiled++
	return infer.Target{Ref: sp, Name: sp.Name, Result: sp.Return}, nil
}

// purge drops every entry created since mark: the failed one and the
// callees that may have observed its in-flight result.
func (s *Session) purge(mark int) {
	dropped := make(map[*Specialization]bool, len(s.created)-mark)
	for _, sp := range s.created[mark:] {
		delete(s.cache, sp.key)
		dropped[sp] = true
	}
	clear(s.created[mark:])
	s.created = s.created[:mark]
	s.order = slices.DeleteFunc(s.order, func(sp *Specialization) bool { return dropped[sp] })
}

// declaredResult instantiates the declared result pattern with the
// bindings the concrete parameters imply, or returns NoTypeID when the
// result is left to inference.
func (s *Session) declaredResult(sp *Specialization) (types.TypeID, error) {
	sig := sp.Overload.Sig
	if sig.Result == types.NoTypeID {
		return types.NoTypeID, nil
	}
	b, ok := s.Types.MatchAll(sig.Params, sp.Args, types.NewBindings())
	if !ok {
		return types.NoTypeID, &diag.CompileError{Func: sp.Name, ArgTypes: s.Types.Strings(sp.Args),
			Err: &EntryError{Name: sp.Overload.Name, Reason: "arguments do not match " + sig.Format(s.Types)}}
	}
	r, err := s.Types.Resolve(sig.Result, b)
	if err != nil {
		return types.NoTypeID, &diag.CompileError{Func: sp.Name, ArgTypes: s.Types.Strings(sp.Args), Err: err}
	}
	return r, nil
}

// build runs the pipeline: clone, infer, rewrite, validate, lower, validate.
func (s *Session) build(ctx context.Context, sp *Specialization) error {
	f, _ := ir.Clone(sp.Overload.Body)
	f.Name = sp.Name
	declared, err := s.declaredResult(sp)
	if err != nil {
		return err
	}
	res, err := infer.NewResult(f, sp.Args, declared)
	if err != nil {
		return err
	}
	sp.res = res
	sp.Func = f
	sp.Ctx = res.Ctx
	if err := infer.Run(ctx, s.env, res); err != nil {
		return err
	}
	sp.Return = res.Return
	if err := rewrite.Run(ctx, s.Types, res); err != nil {
		return err
	}
	if err := ir.Validate(f, res.Ctx, s.Types); err != nil {
		return &diag.CompileError{Func: sp.Name, ArgTypes: s.Types.Strings(sp.Args), Err: lostType(err)}
	}
	sig, err := s.lower.Lower(ctx, f, res.Ctx, sp.Return)
	if err != nil {
		return &diag.CompileError{Func: sp.Name, ArgTypes: s.Types.Strings(sp.Args), Err: err}
	}
	if err := ir.Validate(f, res.Ctx, s.Types); err != nil {
		return &diag.CompileError{Func: sp.Name, ArgTypes: s.Types.Strings(sp.Args), Err: lostType(err)}
	}
	sp.Sig = sig
	return nil
}

// Dump writes every completed specialization with its native signature.
func (s *Session) Dump(w io.Writer) error {
	for _, sp := range s.Specializations() {
		k, err := decodeKey(sp.key)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "; %s overload #%d (%s) -> %s\n; native %s\n",
			k.Name, k.Index, strings.Join(k.Args, ", "), s.Types.String(sp.Return), sp.Sig); err != nil {
			return err
		}
		if err := ir.Dump(w, sp.Func, sp.Ctx, s.Types); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// mangle names a specialization name[args], with the overload index when
// it is not the first implementation of its set.
func mangle(in *types.Interner, o *overload.Overload, args []types.TypeID) string {
	var sb strings.Builder
	sb.WriteString(o.Name)
	if o.Index() > 0 {
		fmt.Fprintf(&sb, "#%d", o.Index())
	}
	sb.WriteByte('[')
	sb.WriteString(strings.Join(in.Strings(args), ", "))
	sb.WriteByte(']')
	return sb.String()
}

type invariantError struct{ err error }

func (e *invariantError) Error() string   { return "typed IR invariant broken: " + e.err.Error() }
func (e *invariantError) Unwrap() error   { return e.err }
func (e *invariantError) Code() diag.Code { return diag.InfLostType }

func lostType(err error) error { return &invariantError{err: err} }
