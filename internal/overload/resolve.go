package overload

import (
	"fmt"

	"flyc/internal/types"
)

// Match is a resolved call.
type Match struct {
	Overload *Overload
	Bindings types.Bindings
	// Params are the concrete parameter types of the completed call, one
	// per declared parameter.
	Params []types.TypeID
	// Result is the concrete declared result, or NoTypeID when it must be
	// inferred.
	Result types.TypeID
	// Defaults are appended as constant arguments.
	Defaults []any
	// Pack is the index of the first argument folded into the variadic
	// aggregate, or -1.
	Pack int
}

// completion ranks how much a candidate had to adapt the call. It breaks
// ties between otherwise equally specific candidates.
type completion uint8

const (
	exact completion = iota
	defaulted
	packed
	promoted
)

type candidate struct {
	match    *Match
	patterns []types.TypeID
	how      completion
}

// Resolve picks the unique most specific implementation of s for args.
func Resolve(in *types.Interner, s *Set, args []types.TypeID) (*Match, error) {
	var cands []candidate
	for _, o := range s.Overloads() {
		if c, ok := complete(in, o, args, false); ok {
			cands = append(cands, c)
		}
	}
	// Numeric widening is only considered when nothing matches as is.
	if len(cands) == 0 {
		for _, o := range s.Overloads() {
			if c, ok := complete(in, o, args, true); ok {
				cands = append(cands, c)
			}
		}
	}
	if len(cands) == 0 {
		return nil, errorFor(in, ErrNoMatch, s, args, s.Overloads())
	}

	var best []candidate
	for i, c := range cands {
		dominated := false
		for j, d := range cands {
			if i != j && compare(in, d, c) == types.MoreSpecific {
				dominated = true
				break
			}
		}
		if !dominated {
			best = append(best, c)
		}
	}
	if len(best) != 1 {
		os := make([]*Overload, len(best))
		for i, c := range best {
			os[i] = c.match.Overload
		}
		return nil, errorFor(in, ErrAmbiguous, s, args, os)
	}

	m := best[0].match
	if res := m.Overload.Sig.Result; res != types.NoTypeID {
		r, err := in.Resolve(res, m.Bindings)
		if err != nil {
			return nil, err
		}
		m.Result = r
	}
	return m, nil
}

// complete adapts o to the call arity and matches its patterns. With
// promote set, supplied arguments widen to concrete numeric parameters.
func complete(in *types.Interner, o *Overload, args []types.TypeID, promote bool) (candidate, bool) {
	sig := o.Sig
	n := len(args)
	fixed := sig.Fixed()
	m := &Match{Overload: o, Pack: -1}
	c := candidate{match: m}
	effective := make([]types.TypeID, 0, len(sig.Params))

	switch {
	case sig.Variadic:
		if n < fixed {
			return c, false
		}
		effective = append(effective, args[:fixed]...)
		effective = append(effective, in.Tuple(args[fixed:]))
		m.Pack = fixed
		c.how = packed
	default:
		required := fixed - len(sig.Defaults)
		if n < required || n > fixed {
			return c, false
		}
		effective = append(effective, args...)
		if missing := fixed - n; missing > 0 {
			m.Defaults = sig.Defaults[len(sig.Defaults)-missing:]
			for _, d := range m.Defaults {
				t, ok := in.ConstType(d)
				if !ok {
					return c, false
				}
				effective = append(effective, t)
			}
			c.how = defaulted
		}
	}

	if promote {
		supplied := min(n, fixed)
		for i := range supplied {
			if in.Promotes(effective[i], sig.Params[i]) {
				effective[i] = sig.Params[i]
				c.how = promoted
			}
		}
		if c.how != promoted {
			return c, false
		}
	}

	b, ok := in.MatchAll(sig.Params, effective, types.NewBindings())
	if !ok {
		return c, false
	}
	params, err := in.ResolveAll(sig.Params, b)
	if err != nil {
		return c, false
	}
	m.Bindings = b
	m.Params = params

	// Specificity is judged over the positions the caller supplied;
	// each position absorbed by a variadic tail is its own free variable.
	c.patterns = make([]types.TypeID, n)
	for i := range n {
		if i < fixed {
			c.patterns[i] = sig.Params[i]
		} else {
			c.patterns[i] = in.Var(fmt.Sprintf("*%d", i))
		}
	}
	return c, true
}

// compare orders two matching candidates.
func compare(in *types.Interner, a, b candidate) types.Order {
	ord := in.CompareList(a.patterns, b.patterns)
	if ord != types.Same {
		return ord
	}
	switch {
	case a.how < b.how:
		return types.MoreSpecific
	case a.how > b.how:
		return types.LessSpecific
	}
	return types.Same
}

func errorFor(in *types.Interner, kind ErrorKind, s *Set, args []types.TypeID, os []*Overload) *Error {
	e := &Error{Kind: kind, Name: s.Name, Args: in.Strings(args)}
	for _, o := range os {
		e.Candidates = append(e.Candidates, s.Name+o.Sig.Format(in))
	}
	return e
}
