package overload

import (
	"fmt"
	"slices"
	"strings"

	"flyc/internal/ir"
	"flyc/internal/types"
)

// Options are declared per implementation. They never influence
// resolution order; later stages read them.
type Options struct {
	Inline   bool
	Opaque   bool // implemented outside the compiled unit
	Abstract bool // interface stub without a body
}

func (o Options) String() string {
	var parts []string
	if o.Inline {
		parts = append(parts, "inline")
	}
	if o.Opaque {
		parts = append(parts, "opaque")
	}
	if o.Abstract {
		parts = append(parts, "abstract")
	}
	return strings.Join(parts, ",")
}

// ReturnHook computes the result type of an opaque implementation from
// the concrete argument types.
type ReturnHook func(in *types.Interner, args []types.TypeID) (types.TypeID, error)

// Signature is the declared shape of one implementation.
type Signature struct {
	// Params are type patterns. When Variadic is set the last pattern
	// types the packed aggregate of the surplus arguments.
	Params []types.TypeID
	// Result is NoTypeID when the return type is inferred from the body.
	Result types.TypeID
	// Defaults are constants for the trailing parameters.
	Defaults []any
	Variadic bool
}

// Fixed returns the number of parameters that take exactly one argument.
func (s Signature) Fixed() int {
	if s.Variadic {
		return len(s.Params) - 1
	}
	return len(s.Params)
}

// Format renders the signature as (a, b, *rest) -> r.
func (s Signature) Format(in *types.Interner) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if s.Variadic && i == len(s.Params)-1 {
			sb.WriteByte('*')
		}
		sb.WriteString(in.String(p))
		if d := i - (len(s.Params) - len(s.Defaults)); d >= 0 && !s.Variadic {
			fmt.Fprintf(&sb, "=%v", s.Defaults[d])
		}
	}
	sb.WriteString(") -> ")
	if s.Result == types.NoTypeID {
		sb.WriteString("?")
	} else {
		sb.WriteString(in.String(s.Result))
	}
	return sb.String()
}

// Overload is one implementation in a set.
type Overload struct {
	Name    string
	Sig     Signature
	Options Options
	// Body is the untyped IR; nil for opaque and abstract implementations.
	Body *ir.Func
	// InferReturn overrides the declared result of opaque implementations.
	InferReturn ReturnHook

	index int
}

// Index returns the position of o in its set.
func (o *Overload) Index() int { return o.index }

// Set is an append-only ordered collection of implementations sharing a
// name.
type Set struct {
	Name      string
	overloads []*Overload
}

// NewSet creates an empty overload set.
func NewSet(name string) *Set {
	return &Set{Name: name}
}

// Add appends o after checking its defaults.
func (s *Set) Add(in *types.Interner, o *Overload) error {
	if o == nil {
		return nil
	}
	if o.Name == "" {
		o.Name = s.Name
	}
	if err := checkDefaults(in, s.Name, o.Sig); err != nil {
		return err
	}
	if o.Body == nil && !o.Options.Opaque && !o.Options.Abstract {
		return &Error{Kind: ErrBadDefaults, Name: s.Name, Detail: "implementation without a body must be opaque or abstract"}
	}
	if o.Options.Opaque && o.Sig.Result == types.NoTypeID && o.InferReturn == nil {
		return &Error{Kind: ErrBadDefaults, Name: s.Name, Detail: "opaque implementation needs a result type or a return hook"}
	}
	o.index = len(s.overloads)
	s.overloads = append(s.overloads, o)
	return nil
}

// Len returns the number of implementations.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.overloads)
}

// Overloads returns the implementations in declaration order.
func (s *Set) Overloads() []*Overload {
	if s == nil {
		return nil
	}
	return slices.Clone(s.overloads)
}

// Extend appends implementations from other that are not yet present.
// Interface default methods are copied this way at class registration.
func (s *Set) Extend(other *Set) {
	if other == nil {
		return
	}
	for _, o := range other.overloads {
		if slices.Contains(s.overloads, o) {
			continue
		}
		s.overloads = append(s.overloads, o)
	}
}

func checkDefaults(in *types.Interner, name string, sig Signature) error {
	if len(sig.Defaults) == 0 {
		return nil
	}
	if sig.Variadic {
		return &Error{Kind: ErrBadDefaults, Name: name, Detail: "variadic implementations cannot declare defaults"}
	}
	if len(sig.Defaults) > len(sig.Params) {
		return &Error{Kind: ErrBadDefaults, Name: name, Detail: fmt.Sprintf("%d defaults for %d parameters", len(sig.Defaults), len(sig.Params))}
	}
	for _, d := range sig.Defaults {
		if _, ok := in.ConstType(d); !ok {
			return &Error{Kind: ErrBadDefaults, Name: name, Detail: fmt.Sprintf("default %v is not a constant", d)}
		}
	}
	return nil
}
