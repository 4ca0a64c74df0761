package types

// Match unifies pattern with actual under b and returns the extended
// bindings. Variables on either side may be bound. An interface
// application in pattern also matches any actual type that implements the
// interface; the converse does not hold.
func (in *Interner) Match(pattern, actual TypeID, b Bindings) (Bindings, bool) {
	if b.m == nil {
		b = NewBindings()
	}
	return in.match(pattern, actual, b)
}

// MatchAll matches patterns pairwise against actuals.
func (in *Interner) MatchAll(patterns, actuals []TypeID, b Bindings) (Bindings, bool) {
	if len(patterns) != len(actuals) {
		return b, false
	}
	ok := true
	for i := range patterns {
		if b, ok = in.Match(patterns[i], actuals[i], b); !ok {
			return b, false
		}
	}
	return b, true
}

func (in *Interner) shallow(id TypeID, b Bindings) TypeID {
	for range maxSubstDepth {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != KindVar {
			return id
		}
		bound, ok := b.Lookup(tt.Name)
		if !ok || bound == id {
			return id
		}
		id = bound
	}
	return id
}

func (in *Interner) match(pattern, actual TypeID, b Bindings) (Bindings, bool) {
	p := in.shallow(pattern, b)
	a := in.shallow(actual, b)
	if p == a {
		return b, true
	}
	pt, ok := in.Lookup(p)
	if !ok {
		return b, false
	}
	at, ok := in.Lookup(a)
	if !ok {
		return b, false
	}

	if pt.Kind == KindVar {
		if in.occurs(pt.Name, a, b) {
			return b, false
		}
		return b.Bind(pt.Name, a), true
	}
	if at.Kind == KindVar {
		if in.occurs(at.Name, p, b) {
			return b, false
		}
		return b.Bind(at.Name, p), true
	}

	switch pt.Kind {
	case KindPrim:
		return b, false
	case KindApp:
		if at.Kind == KindApp && at.Ctor == pt.Ctor {
			return in.matchList(pt.Params, at.Params, b)
		}
		if c, ok := in.Ctor(pt.Ctor); ok && c.Interface {
			if view, ok := in.Implements(a, pt.Ctor); ok {
				return in.match(p, view, b)
			}
		}
		return b, false
	case KindFunc:
		if at.Kind != KindFunc || len(at.Params) != len(pt.Params) {
			return b, false
		}
		b, ok = in.matchList(pt.Params, at.Params, b)
		if !ok {
			return b, false
		}
		return in.match(pt.Result, at.Result, b)
	case KindMethod:
		if at.Kind != KindMethod {
			return b, false
		}
		b, ok = in.match(pt.Recv, at.Recv, b)
		if !ok || pt.Fn == NoTypeID || at.Fn == NoTypeID {
			return b, ok
		}
		return in.match(pt.Fn, at.Fn, b)
	}
	return b, false
}

func (in *Interner) matchList(ps, as []TypeID, b Bindings) (Bindings, bool) {
	if len(ps) != len(as) {
		return b, false
	}
	ok := true
	for i := range ps {
		if b, ok = in.match(ps[i], as[i], b); !ok {
			return b, false
		}
	}
	return b, true
}

// Equal compares two fully resolved types. Comparing a type that still
// contains variables is a caller error and is reported as such.
func (in *Interner) Equal(a, b TypeID) (bool, error) {
	for _, id := range [2]TypeID{a, b} {
		if vars := in.FreeVars(id); len(vars) > 0 {
			return false, &UnboundTypeVariableError{Var: vars[0], In: in.String(id)}
		}
	}
	return a == b, nil
}
