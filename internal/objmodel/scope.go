package objmodel

import "flyc/internal/overload"

// Binding is what a name resolves to: a function overload set or a class.
type Binding struct {
	Funcs *overload.Set
	Class *Class
}

// Scope resolves global names for a function. Scopes chain to a parent;
// inner definitions shadow outer ones.
type Scope struct {
	parent  *Scope
	funcs   map[string]*overload.Set
	classes map[string]*Class
}

// NewScope creates a scope nested in parent (which may be nil).
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:  parent,
		funcs:   make(map[string]*overload.Set),
		classes: make(map[string]*Class),
	}
}

// Funcs returns the overload set for name in this scope, creating it.
func (s *Scope) Funcs(name string) *overload.Set {
	set := s.funcs[name]
	if set == nil {
		set = overload.NewSet(name)
		s.funcs[name] = set
	}
	return set
}

// DefineClass makes c callable by name.
func (s *Scope) DefineClass(c *Class) {
	s.classes[c.Name] = c
}

// Lookup resolves name through the scope chain.
func (s *Scope) Lookup(name string) (Binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if set, ok := sc.funcs[name]; ok && set.Len() > 0 {
			return Binding{Funcs: set}, true
		}
		if c, ok := sc.classes[name]; ok {
			return Binding{Class: c}, true
		}
	}
	return Binding{}, false
}
