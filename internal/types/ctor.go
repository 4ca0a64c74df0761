package types

import (
	"fmt"

	"fortio.org/safecast"
)

// CtorOptions tune how a constructor's applications behave.
type CtorOptions struct {
	// Interface marks an abstract capability set. An application of an
	// interface constructor matches every type that implements it.
	Interface bool
	// PointerLike applications are represented as a single machine pointer.
	PointerLike bool
}

// Constructor is a named parametric type constructor.
type Constructor struct {
	ID     CtorID
	Name   string
	Params []string
	CtorOptions
}

// Arity returns the number of type parameters.
func (c *Constructor) Arity() int {
	if c == nil {
		return 0
	}
	return len(c.Params)
}

// DeclareCtor registers a new constructor. Names are unique per interner.
func (in *Interner) DeclareCtor(name string, params []string, opts CtorOptions) (CtorID, error) {
	if name == "" {
		return NoCtorID, &Error{Kind: ErrSyntax, Detail: "empty constructor name"}
	}
	if _, ok := in.ctorIdx[name]; ok {
		return NoCtorID, &Error{Kind: ErrDuplicate, Name: name}
	}
	if _, ok := in.prims[name]; ok {
		return NoCtorID, &Error{Kind: ErrDuplicate, Name: name}
	}
	if _, ok := in.aliases[name]; ok {
		return NoCtorID, &Error{Kind: ErrDuplicate, Name: name}
	}
	n, err := safecast.Conv[uint32](len(in.ctors))
	if err != nil {
		panic(fmt.Errorf("len(ctors) overflow: %w", err))
	}
	id := CtorID(n)
	ps := make([]string, len(params))
	copy(ps, params)
	in.ctors = append(in.ctors, Constructor{ID: id, Name: name, Params: ps, CtorOptions: opts})
	in.ctorIdx[name] = id
	return id, nil
}

// Ctor returns the constructor for id.
func (in *Interner) Ctor(id CtorID) (*Constructor, bool) {
	if id == NoCtorID || int(id) >= len(in.ctors) {
		return nil, false
	}
	return &in.ctors[id], true
}

// CtorByName finds a constructor by name.
func (in *Interner) CtorByName(name string) (CtorID, bool) {
	id, ok := in.ctorIdx[name]
	return id, ok
}

// App applies ctor to exactly its number of parameters.
func (in *Interner) App(ctor CtorID, params ...TypeID) (TypeID, error) {
	c, ok := in.Ctor(ctor)
	if !ok {
		return NoTypeID, &Error{Kind: ErrUnknownName, Name: fmt.Sprintf("ctor#%d", ctor)}
	}
	if len(params) != c.Arity() {
		return NoTypeID, &Error{Kind: ErrArity, Name: c.Name, Want: c.Arity(), Got: len(params)}
	}
	for _, p := range params {
		if _, ok := in.Lookup(p); !ok {
			return NoTypeID, &Error{Kind: ErrSyntax, Detail: fmt.Sprintf("invalid parameter for %s", c.Name)}
		}
	}
	return in.intern(Type{Kind: KindApp, Ctor: ctor, Params: cloneIDs(params)}), nil
}

// MustApp is App for statically known arities.
func (in *Interner) MustApp(ctor CtorID, params ...TypeID) TypeID {
	id, err := in.App(ctor, params...)
	if err != nil {
		panic(err)
	}
	return id
}

// Curried is a constructor applied to a prefix of its parameters.
type Curried struct {
	Ctor CtorID
	Args []TypeID
}

// Curry partially applies ctor. Supplying every parameter is allowed and
// yields a Curried with nothing missing.
func (in *Interner) Curry(ctor CtorID, params ...TypeID) (Curried, error) {
	c, ok := in.Ctor(ctor)
	if !ok {
		return Curried{}, &Error{Kind: ErrUnknownName, Name: fmt.Sprintf("ctor#%d", ctor)}
	}
	if len(params) > c.Arity() {
		return Curried{}, &Error{Kind: ErrArity, Name: c.Name, Want: c.Arity(), Got: len(params)}
	}
	return Curried{Ctor: ctor, Args: cloneIDs(params)}, nil
}

// Missing reports how many parameters remain to be supplied.
func (in *Interner) Missing(c Curried) int {
	ctor, ok := in.Ctor(c.Ctor)
	if !ok {
		return 0
	}
	return ctor.Arity() - len(c.Args)
}

// Extend supplies more parameters to c without completing it.
func (in *Interner) Extend(c Curried, more ...TypeID) (Curried, error) {
	args := make([]TypeID, 0, len(c.Args)+len(more))
	args = append(args, c.Args...)
	args = append(args, more...)
	return in.Curry(c.Ctor, args...)
}

// Complete supplies the remaining parameters and interns the application.
func (in *Interner) Complete(c Curried, rest ...TypeID) (TypeID, error) {
	args := make([]TypeID, 0, len(c.Args)+len(rest))
	args = append(args, c.Args...)
	args = append(args, rest...)
	return in.App(c.Ctor, args...)
}

// DefineAlias names a partial application. In type expressions the alias
// takes the missing parameters in brackets, so with IntPair = Pair[int64]
// the expression IntPair[bool] is Pair[int64, bool]; a bare IntPair leaves
// the missing parameters as the constructor's own variables.
func (in *Interner) DefineAlias(name string, c Curried) error {
	if !isIdent(name) {
		return &Error{Kind: ErrSyntax, Detail: fmt.Sprintf("bad alias name %q", name)}
	}
	_, isCtor := in.ctorIdx[name]
	_, isPrim := in.prims[name]
	_, isAlias := in.aliases[name]
	if isCtor || isPrim || isAlias {
		return &Error{Kind: ErrDuplicate, Name: name}
	}
	if _, err := in.Curry(c.Ctor, c.Args...); err != nil {
		return err
	}
	in.aliases[name] = Curried{Ctor: c.Ctor, Args: cloneIDs(c.Args)}
	return nil
}

// Alias returns the partial application defined under name.
func (in *Interner) Alias(name string) (Curried, bool) {
	c, ok := in.aliases[name]
	return c, ok
}

// Generic returns ctor applied to its own parameter names as variables,
// e.g. Complex[base].
func (in *Interner) Generic(ctor CtorID) (TypeID, error) {
	c, ok := in.Ctor(ctor)
	if !ok {
		return NoTypeID, &Error{Kind: ErrUnknownName, Name: fmt.Sprintf("ctor#%d", ctor)}
	}
	params := make([]TypeID, len(c.Params))
	for i, name := range c.Params {
		params[i] = in.Var(name)
	}
	return in.App(ctor, params...)
}

// CtorBindings binds the parameter names of an application's constructor
// to its actual parameters, e.g. Complex[float64] gives {base: float64}.
func (in *Interner) CtorBindings(id TypeID) Bindings {
	b := NewBindings()
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindApp {
		return b
	}
	c, ok := in.Ctor(tt.Ctor)
	if !ok {
		return b
	}
	for i, name := range c.Params {
		if i < len(tt.Params) {
			b = b.Bind(name, tt.Params[i])
		}
	}
	return b
}

// head identifies the outermost shape of a type for interface lookup.
type head struct {
	prim TypeID
	ctor CtorID
}

func (in *Interner) headOf(id TypeID) (head, bool) {
	tt, ok := in.Lookup(id)
	if !ok {
		return head{}, false
	}
	switch tt.Kind {
	case KindPrim:
		return head{prim: id}, true
	case KindApp:
		return head{ctor: tt.Ctor}, true
	}
	return head{}, false
}

// DeclareImplements records that values of impl satisfy iface. impl is a
// primitive or a generic application (Complex[base]); iface is an
// application of an interface constructor written over impl's parameters.
func (in *Interner) DeclareImplements(impl, iface TypeID) error {
	h, ok := in.headOf(impl)
	if !ok {
		return &Error{Kind: ErrSyntax, Detail: "implementing type must be a primitive or constructor application"}
	}
	it, ok := in.Lookup(iface)
	if !ok || it.Kind != KindApp {
		return &Error{Kind: ErrSyntax, Detail: "interface must be a constructor application"}
	}
	c, _ := in.Ctor(it.Ctor)
	if c == nil || !c.Interface {
		return &Error{Kind: ErrMismatch, Detail: fmt.Sprintf("%s is not an interface", in.String(iface))}
	}
	for _, existing := range in.impls[h] {
		if existing == iface {
			return nil
		}
	}
	in.impls[h] = append(in.impls[h], iface)
	return nil
}

// Implements returns the interface application iface-ctor as seen through
// the concrete type actual, e.g. Iterable[int64] for a List[int64] that
// declared Iterable[a].
func (in *Interner) Implements(actual TypeID, iface CtorID) (TypeID, bool) {
	h, ok := in.headOf(actual)
	if !ok {
		return NoTypeID, false
	}
	for _, decl := range in.impls[h] {
		dt := in.MustLookup(decl)
		if dt.Ctor != iface {
			continue
		}
		view := in.ResolvePartial(decl, in.CtorBindings(actual))
		return view, true
	}
	return NoTypeID, false
}

// Interfaces lists the interface constructors implemented by actual.
func (in *Interner) Interfaces(actual TypeID) []CtorID {
	h, ok := in.headOf(actual)
	if !ok {
		return nil
	}
	out := make([]CtorID, 0, len(in.impls[h]))
	for _, decl := range in.impls[h] {
		out = append(out, in.MustLookup(decl).Ctor)
	}
	return out
}
