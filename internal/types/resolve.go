package types

// Resolve substitutes bound variables in id recursively. Every variable
// reachable from id must be bound.
func (in *Interner) Resolve(id TypeID, b Bindings) (TypeID, error) {
	var missing string
	out := in.subst(id, b, func(name string) {
		if missing == "" {
			missing = name
		}
	}, 0)
	if missing != "" {
		return NoTypeID, &UnboundTypeVariableError{Var: missing, In: in.String(id)}
	}
	return out, nil
}

// ResolvePartial substitutes bound variables and leaves the rest in place.
func (in *Interner) ResolvePartial(id TypeID, b Bindings) TypeID {
	return in.subst(id, b, nil, 0)
}

// ResolveAll resolves a list of types against the same bindings.
func (in *Interner) ResolveAll(ids []TypeID, b Bindings) ([]TypeID, error) {
	out := make([]TypeID, len(ids))
	for i, id := range ids {
		r, err := in.Resolve(id, b)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// maxSubstDepth bounds chains like a -> b -> a that a well-formed binding
// set never produces.
const maxSubstDepth = 64

func (in *Interner) subst(id TypeID, b Bindings, unbound func(string), depth int) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindVar:
		bound, ok := b.Lookup(tt.Name)
		if !ok || bound == id || depth > maxSubstDepth {
			if unbound != nil {
				unbound(tt.Name)
			}
			return id
		}
		return in.subst(bound, b, unbound, depth+1)
	case KindApp:
		params, changed := in.substList(tt.Params, b, unbound, depth)
		if !changed {
			return id
		}
		return in.intern(Type{Kind: KindApp, Ctor: tt.Ctor, Params: params})
	case KindFunc:
		params, changed := in.substList(tt.Params, b, unbound, depth)
		result := in.subst(tt.Result, b, unbound, depth)
		if !changed && result == tt.Result {
			return id
		}
		return in.Func(params, result)
	case KindMethod:
		recv := in.subst(tt.Recv, b, unbound, depth)
		fn := tt.Fn
		if fn != NoTypeID {
			fn = in.subst(fn, b, unbound, depth)
		}
		if recv == tt.Recv && fn == tt.Fn {
			return id
		}
		return in.Method(recv, fn)
	default:
		return id
	}
}

func (in *Interner) substList(ids []TypeID, b Bindings, unbound func(string), depth int) ([]TypeID, bool) {
	out := make([]TypeID, len(ids))
	changed := false
	for i, p := range ids {
		out[i] = in.subst(p, b, unbound, depth)
		if out[i] != p {
			changed = true
		}
	}
	return out, changed
}

// IsConcrete reports whether id contains no type variables. A method type
// whose function part is still unresolved is not concrete.
func (in *Interner) IsConcrete(id TypeID) bool {
	return len(in.FreeVars(id)) == 0 && !in.hasOpenMethod(id)
}

func (in *Interner) hasOpenMethod(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindMethod:
		return tt.Fn == NoTypeID || in.hasOpenMethod(tt.Recv) || in.hasOpenMethod(tt.Fn)
	case KindApp:
		for _, p := range tt.Params {
			if in.hasOpenMethod(p) {
				return true
			}
		}
	case KindFunc:
		for _, p := range tt.Params {
			if in.hasOpenMethod(p) {
				return true
			}
		}
		return in.hasOpenMethod(tt.Result)
	}
	return false
}

// FreeVars lists the variable names in id in first-occurrence order.
func (in *Interner) FreeVars(id TypeID) []string {
	var out []string
	seen := make(map[string]struct{})
	in.walkVars(id, func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	})
	return out
}

func (in *Interner) walkVars(id TypeID, visit func(string)) {
	tt, ok := in.Lookup(id)
	if !ok {
		return
	}
	switch tt.Kind {
	case KindVar:
		visit(tt.Name)
	case KindApp:
		for _, p := range tt.Params {
			in.walkVars(p, visit)
		}
	case KindFunc:
		for _, p := range tt.Params {
			in.walkVars(p, visit)
		}
		in.walkVars(tt.Result, visit)
	case KindMethod:
		in.walkVars(tt.Recv, visit)
		in.walkVars(tt.Fn, visit)
	}
}

func (in *Interner) occurs(name string, id TypeID, b Bindings) bool {
	found := false
	in.walkVars(in.ResolvePartial(id, b), func(v string) {
		if v == name {
			found = true
		}
	})
	return found
}
