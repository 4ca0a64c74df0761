package compiler

import (
	"fmt"

	"flyc/internal/ir"
	"flyc/internal/objmodel"
	"flyc/internal/overload"
)

// FuncDecl is a front-end function: a signature plus a textual body.
type FuncDecl struct {
	Name    string
	Params  []string
	Sig     overload.Signature
	Options overload.Options
	// Body is the textual IR; empty for opaque and abstract declarations.
	Body string
	// InferReturn types the result of an opaque declaration.
	InferReturn overload.ReturnHook
}

func (s *Session) overloadOf(d FuncDecl) (*overload.Overload, error) {
	o := &overload.Overload{Name: d.Name, Sig: d.Sig, Options: d.Options, InferReturn: d.InferReturn}
	switch {
	case d.Options.Opaque || d.Options.Abstract:
		if d.Body != "" {
			return nil, fmt.Errorf("%s: %s implementation cannot have a body", d.Name, d.Options)
		}
		return o, nil
	case d.Body == "":
		return nil, fmt.Errorf("%s: missing body", d.Name)
	}
	if len(d.Params) != len(d.Sig.Params) {
		return nil, fmt.Errorf("%s: %d parameter name(s) for %d parameter type(s)", d.Name, len(d.Params), len(d.Sig.Params))
	}
	f, err := ir.Parse(d.Name, d.Params, d.Body)
	if err != nil {
		return nil, err
	}
	if err := ir.Validate(f, nil, nil); err != nil {
		return nil, err
	}
	o.Body = f
	return o, nil
}

// DefineFunc adds an implementation to the global overload set of its
// name.
func (s *Session) DefineFunc(d FuncDecl) (*overload.Overload, error) {
	o, err := s.overloadOf(d)
	if err != nil {
		return nil, err
	}
	if err := s.Scope.Funcs(d.Name).Add(s.Types, o); err != nil {
		return nil, err
	}
	return o, nil
}

// DefineMethod adds an implementation to a class's method table. The
// implementation is named Class.method.
func (s *Session) DefineMethod(c *objmodel.Class, method string, d FuncDecl) (*overload.Overload, error) {
	d.Name = c.Name + "." + method
	o, err := s.overloadOf(d)
	if err != nil {
		return nil, err
	}
	if err := c.AddMethod(s.Types, method, o); err != nil {
		return nil, err
	}
	return o, nil
}

// DefineInterfaceMethod adds a default or abstract method to an interface.
func (s *Session) DefineInterfaceMethod(i *objmodel.Interface, method string, d FuncDecl) (*overload.Overload, error) {
	d.Name = i.Name + "." + method
	o, err := s.overloadOf(d)
	if err != nil {
		return nil, err
	}
	if err := i.AddMethod(s.Types, method, o); err != nil {
		return nil, err
	}
	return o, nil
}
