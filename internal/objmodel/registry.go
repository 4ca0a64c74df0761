package objmodel

import (
	"fmt"
	"maps"
	"slices"

	"flyc/internal/overload"
	"flyc/internal/types"
)

// Interface is a named capability set with optional default methods.
type Interface struct {
	Name    string
	Ctor    types.CtorID
	Type    types.TypeID
	Methods map[string]*overload.Set
}

// AddMethod appends a default (or abstract) implementation.
func (i *Interface) AddMethod(in *types.Interner, name string, o *overload.Overload) error {
	if i.Methods == nil {
		i.Methods = make(map[string]*overload.Set)
	}
	s := i.Methods[name]
	if s == nil {
		s = overload.NewSet(i.Name + "." + name)
		i.Methods[name] = s
	}
	return s.Add(in, o)
}

// Registry owns every class and interface of a session.
type Registry struct {
	in         *types.Interner
	prims      map[types.TypeID]*Class
	byCtor     map[types.CtorID]*Class
	byName     map[string]*Class
	interfaces map[types.CtorID]*Interface
	ifaceNames map[string]*Interface
}

// NewRegistry creates a registry holding the builtin tuple classes.
func NewRegistry(in *types.Interner) *Registry {
	r := &Registry{
		in:         in,
		prims:      make(map[types.TypeID]*Class),
		byCtor:     make(map[types.CtorID]*Class),
		byName:     make(map[string]*Class),
		interfaces: make(map[types.CtorID]*Interface),
		ifaceNames: make(map[string]*Interface),
	}
	r.registerTuples()
	return r
}

// Types returns the interner the registry declares into.
func (r *Registry) Types() *types.Interner { return r.in }

// NewClass declares a constructor and its class.
func (r *Registry) NewClass(name string, params []string) (*Class, error) {
	if _, dup := r.byName[name]; dup {
		return nil, &types.Error{Kind: types.ErrDuplicate, Name: name}
	}
	ctor, err := r.in.DeclareCtor(name, params, types.CtorOptions{})
	if err != nil {
		return nil, err
	}
	return r.adopt(name, ctor)
}

func (r *Registry) adopt(name string, ctor types.CtorID) (*Class, error) {
	self, err := r.in.Generic(ctor)
	if err != nil {
		return nil, err
	}
	c := &Class{Name: name, Type: self, Ctor: ctor, Methods: make(map[string]*overload.Set)}
	r.byCtor[ctor] = c
	r.byName[name] = c
	return c, nil
}

// PrimClass returns the class of a primitive, creating it on first use.
func (r *Registry) PrimClass(prim types.TypeID) (*Class, error) {
	if c, ok := r.prims[prim]; ok {
		return c, nil
	}
	tt, ok := r.in.Lookup(prim)
	if !ok || tt.Kind != types.KindPrim {
		return nil, fmt.Errorf("objmodel: %s is not a primitive", r.in.String(prim))
	}
	c := &Class{Name: tt.Name, Type: prim, Methods: make(map[string]*overload.Set), StackAllocate: true}
	r.prims[prim] = c
	r.byName[tt.Name] = c
	return c, nil
}

// ClassOf returns the class describing values of t.
func (r *Registry) ClassOf(t types.TypeID) (*Class, bool) {
	tt, ok := r.in.Lookup(t)
	if !ok {
		return nil, false
	}
	switch tt.Kind {
	case types.KindPrim:
		c, ok := r.prims[t]
		return c, ok
	case types.KindApp:
		c, ok := r.byCtor[tt.Ctor]
		return c, ok
	}
	return nil, false
}

// Class finds a class by name.
func (r *Registry) Class(name string) (*Class, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Classes lists classes sorted by name.
func (r *Registry) Classes() []*Class {
	names := slices.Sorted(maps.Keys(r.byName))
	out := make([]*Class, len(names))
	for i, n := range names {
		out[i] = r.byName[n]
	}
	return out
}

// NewInterface declares an interface constructor.
func (r *Registry) NewInterface(name string, params []string) (*Interface, error) {
	ctor, err := r.in.DeclareCtor(name, params, types.CtorOptions{Interface: true})
	if err != nil {
		return nil, err
	}
	self, err := r.in.Generic(ctor)
	if err != nil {
		return nil, err
	}
	i := &Interface{Name: name, Ctor: ctor, Type: self, Methods: make(map[string]*overload.Set)}
	r.interfaces[ctor] = i
	r.ifaceNames[name] = i
	return i, nil
}

// Interface finds an interface by name.
func (r *Registry) Interface(name string) (*Interface, bool) {
	i, ok := r.ifaceNames[name]
	return i, ok
}

// Implement records that c implements iface (an application of an
// interface constructor over c's parameters) and copies the interface's
// default methods into c's method table. Methods c already defines win.
func (r *Registry) Implement(c *Class, iface types.TypeID) error {
	it, ok := r.in.Lookup(iface)
	if !ok || it.Kind != types.KindApp {
		return fmt.Errorf("objmodel: %s is not an interface application", r.in.String(iface))
	}
	decl, ok := r.interfaces[it.Ctor]
	if !ok {
		return fmt.Errorf("objmodel: %s is not an interface", r.in.String(iface))
	}
	if err := r.in.DeclareImplements(c.Type, iface); err != nil {
		return err
	}
	c.Interfaces = append(c.Interfaces, iface)
	for _, name := range slices.Sorted(maps.Keys(decl.Methods)) {
		if c.Method(name) != nil {
			continue
		}
		s := overload.NewSet(c.Name + "." + name)
		s.Extend(decl.Methods[name])
		c.Methods[name] = s
	}
	return nil
}

// LookupMethod returns the method set of t's class.
func (r *Registry) LookupMethod(t types.TypeID, name string) (*Class, *overload.Set, bool) {
	c, ok := r.ClassOf(t)
	if !ok {
		return nil, nil, false
	}
	s := c.Method(name)
	return c, s, s != nil
}

func (r *Registry) registerTuples() {
	b := r.in.Builtins()
	empty, err := r.adopt("EmptyTuple", b.EmptyTuple)
	if err != nil {
		panic(err)
	}
	empty.StackAllocate = true
	pair, err := r.adopt("StaticTuple", b.StaticTuple)
	if err != nil {
		panic(err)
	}
	pair.StackAllocate = true
	pair.Layout = []Field{
		{Name: "hd", Type: r.in.Var("hd")},
		{Name: "tl", Type: r.in.Var("tl")},
	}
}
