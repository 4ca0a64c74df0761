package driver

import (
	"fmt"
	"strings"

	"flyc/internal/compiler"
	"flyc/internal/objmodel"
	"flyc/internal/overload"
	"flyc/internal/types"
)

// NewSession creates a session for u and declares everything u contains.
// Interfaces and classes are declared before any type is parsed so that
// declarations may refer to each other in any order.
func (u *Unit) NewSession() (*compiler.Session, error) {
	s, err := compiler.NewSession(compiler.Options{MaxDepth: u.Compiler.MaxDepth})
	if err != nil {
		return nil, err
	}
	if err := u.declare(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *Unit) declare(s *compiler.Session) error {
	ifaces := make([]*objmodel.Interface, len(u.Interfaces))
	for i, d := range u.Interfaces {
		iface, err := s.Registry.NewInterface(d.Name, d.Params)
		if err != nil {
			return u.errorf("interface "+d.Name, err)
		}
		ifaces[i] = iface
	}
	classes := make([]*objmodel.Class, len(u.Classes))
	for i, d := range u.Classes {
		c, err := s.Registry.NewClass(d.Name, d.Params)
		if err != nil {
			return u.errorf("class "+d.Name, err)
		}
		c.StackAllocate = d.Stack
		c.GetAttr = d.GetAttr
		c.SetAttr = d.SetAttr
		s.Scope.DefineClass(c)
		classes[i] = c
	}

	// Aliases see every constructor and the aliases declared before them.
	for _, d := range u.Aliases {
		c, err := s.Types.ParseCurried(d.Type)
		if err != nil {
			return u.errorf("alias "+d.Name, err)
		}
		if err := s.Types.DefineAlias(d.Name, c); err != nil {
			return u.errorf("alias "+d.Name, err)
		}
	}

	for i, d := range u.Classes {
		c := classes[i]
		for _, f := range d.Fields {
			t, err := s.Types.ParseType(f.Type)
			if err != nil {
				return u.errorf("field "+d.Name+"."+f.Name, err)
			}
			if err := c.AddField(f.Name, t); err != nil {
				return u.errorf("class "+d.Name, err)
			}
		}
		if d.ReprAs != "" {
			t, err := s.Types.ParseType(d.ReprAs)
			if err != nil {
				return u.errorf("class "+d.Name, err)
			}
			c.ReprAs = t
		}
	}

	for i, d := range u.Interfaces {
		for _, m := range d.Methods {
			fd, err := u.funcDecl(s.Types, m)
			if err != nil {
				return err
			}
			if _, err := s.DefineInterfaceMethod(ifaces[i], m.Name, fd); err != nil {
				return u.errorf("method "+d.Name+"."+m.Name, err)
			}
		}
	}
	for i, d := range u.Classes {
		for _, m := range d.Methods {
			fd, err := u.funcDecl(s.Types, m)
			if err != nil {
				return err
			}
			if _, err := s.DefineMethod(classes[i], m.Name, fd); err != nil {
				return u.errorf("method "+d.Name+"."+m.Name, err)
			}
		}
		// Defaults are copied after the class's own methods so that those win.
		for _, src := range d.Implements {
			iface, err := s.Types.ParseType(src)
			if err != nil {
				return u.errorf("class "+d.Name, err)
			}
			if err := s.Registry.Implement(classes[i], iface); err != nil {
				return u.errorf("class "+d.Name, err)
			}
		}
		if d.GetAttr != "" && !classes[i].HasGetAttr() {
			return u.errorf("class "+d.Name, fmt.Errorf("getattr fallback %q is not a method", d.GetAttr))
		}
		if d.SetAttr != "" && !classes[i].HasSetAttr() {
			return u.errorf("class "+d.Name, fmt.Errorf("setattr fallback %q is not a method", d.SetAttr))
		}
	}

	for _, d := range u.Funcs {
		fd, err := u.funcDecl(s.Types, d)
		if err != nil {
			return err
		}
		if _, err := s.DefineFunc(fd); err != nil {
			return u.errorf("func "+d.Name, err)
		}
	}
	return nil
}

func (u *Unit) funcDecl(in *types.Interner, d FuncDecl) (compiler.FuncDecl, error) {
	sig, err := parseSig(in, d)
	if err != nil {
		return compiler.FuncDecl{}, u.errorf("func "+d.Name, err)
	}
	fd := compiler.FuncDecl{
		Name:    d.Name,
		Params:  d.Params,
		Sig:     sig,
		Options: overload.Options{Inline: d.Inline, Opaque: d.Opaque, Abstract: d.Abstract},
		Body:    d.Body,
	}
	if d.ReturnsArg != nil {
		if !d.Opaque {
			return compiler.FuncDecl{}, u.errorf("func "+d.Name, fmt.Errorf("returns_arg needs an opaque implementation"))
		}
		fd.InferReturn = returnsArg(*d.ReturnsArg)
	}
	return fd, nil
}

// parseSig reads the arrow signature of d. A "?" result is inferred.
func parseSig(in *types.Interner, d FuncDecl) (overload.Signature, error) {
	sig := overload.Signature{Defaults: d.Defaults, Variadic: d.Variadic}
	src := strings.TrimSpace(d.Sig)
	if src == "" {
		sig.Params = make([]types.TypeID, len(d.Params))
		for i, p := range d.Params {
			sig.Params[i] = in.Var("t" + p)
		}
		return sig, nil
	}
	inferred := false
	if head, ok := strings.CutSuffix(src, "?"); ok {
		inferred = true
		src = head + "void"
	}
	params, result, err := in.ParseSignature(src)
	if err != nil {
		return sig, err
	}
	sig.Params = params
	if !inferred {
		sig.Result = result
	}
	return sig, nil
}

func returnsArg(i int) overload.ReturnHook {
	return func(in *types.Interner, args []types.TypeID) (types.TypeID, error) {
		if i < 0 || i >= len(args) {
			return types.NoTypeID, fmt.Errorf("returns_arg %d out of range for %d argument(s)", i, len(args))
		}
		return args[i], nil
	}
}

func (u *Unit) errorf(item string, err error) error {
	return &UnitError{Path: u.Path, Item: item, Err: err}
}
