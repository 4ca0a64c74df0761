package types

// Order is the result of comparing two types by specificity.
type Order int8

const (
	// Incomparable: neither type is at least as specific as the other.
	Incomparable Order = iota
	// Same: both types are equally specific.
	Same
	// MoreSpecific: the left type is strictly more specific.
	MoreSpecific
	// LessSpecific: the left type is strictly less specific.
	LessSpecific
)

func (o Order) String() string {
	switch o {
	case Same:
		return "same"
	case MoreSpecific:
		return "more-specific"
	case LessSpecific:
		return "less-specific"
	default:
		return "incomparable"
	}
}

// CompareSpecificity orders two signature patterns; see CompareList.
func (in *Interner) CompareSpecificity(a, b TypeID) Order {
	return in.CompareList([]TypeID{a}, []TypeID{b})
}

// CompareList orders two pattern lists as a whole. as is at least as
// specific as bs when bs can be instantiated to as with the variables of
// as held rigid, so variables shared across positions count: (a, a) is
// narrower than (a, b). A class is narrower than an interface it
// implements.
func (in *Interner) CompareList(as, bs []TypeID) Order {
	if len(as) != len(bs) {
		return Incomparable
	}
	ge := in.instanceOf(bs, as)
	le := in.instanceOf(as, bs)
	switch {
	case ge && le:
		return Same
	case ge:
		return MoreSpecific
	case le:
		return LessSpecific
	}
	return Incomparable
}

// instanceOf reports whether patterns can be instantiated to targets.
// Only variables of patterns bind; variables of targets are opaque.
func (in *Interner) instanceOf(patterns, targets []TypeID) bool {
	sub := make(map[string]TypeID)
	for i := range patterns {
		if !in.instance(patterns[i], targets[i], sub) {
			return false
		}
	}
	return true
}

func (in *Interner) instance(p, t TypeID, sub map[string]TypeID) bool {
	pt, ok := in.Lookup(p)
	if !ok {
		return false
	}
	if pt.Kind == KindVar {
		if bound, seen := sub[pt.Name]; seen {
			return bound == t
		}
		sub[pt.Name] = t
		return true
	}
	tt, ok := in.Lookup(t)
	if !ok || tt.Kind == KindVar {
		return false
	}
	switch pt.Kind {
	case KindPrim:
		return p == t
	case KindApp:
		if tt.Kind == KindApp && tt.Ctor == pt.Ctor {
			return in.instanceList(pt.Params, tt.Params, sub)
		}
		if c, ok := in.Ctor(pt.Ctor); ok && c.Interface {
			if view, ok := in.Implements(t, pt.Ctor); ok {
				return in.instance(p, view, sub)
			}
		}
	case KindFunc:
		return tt.Kind == KindFunc && in.instanceList(pt.Params, tt.Params, sub) && in.instance(pt.Result, tt.Result, sub)
	case KindMethod:
		if tt.Kind != KindMethod || !in.instance(pt.Recv, tt.Recv, sub) {
			return false
		}
		return pt.Fn == tt.Fn || (pt.Fn != NoTypeID && tt.Fn != NoTypeID && in.instance(pt.Fn, tt.Fn, sub))
	}
	return false
}

func (in *Interner) instanceList(ps, ts []TypeID, sub map[string]TypeID) bool {
	if len(ps) != len(ts) {
		return false
	}
	for i := range ps {
		if !in.instance(ps[i], ts[i], sub) {
			return false
		}
	}
	return true
}
