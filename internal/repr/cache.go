package repr

import (
	"flyc/internal/objmodel"
	"flyc/internal/types"
)

// Cache memoizes representations per type. Entries are never invalidated:
// types are immutable and a class layout is fixed once registered.
type Cache struct {
	in  *types.Interner
	reg *objmodel.Registry

	memo   map[types.TypeID]*Repr
	hits   int
	misses int
}

// NewCache creates an empty cache over the registry's types.
func NewCache(reg *objmodel.Registry) *Cache {
	return &Cache{
		in:   reg.Types(),
		reg:  reg,
		memo: make(map[types.TypeID]*Repr, 64),
	}
}

// Stats reports memo hits and computed entries.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Len returns the number of cached representations.
func (c *Cache) Len() int { return len(c.memo) }

type frame struct {
	index    int
	ptrDepth int
	repr     *Repr
}

type state struct {
	stack    []types.TypeID
	frames   map[types.TypeID]*frame
	ptrDepth int
	added    []types.TypeID
}

// Of returns the representation of t.
func (c *Cache) Of(t types.TypeID) (*Repr, error) {
	st := &state{frames: make(map[types.TypeID]*frame, 8)}
	r, err := c.of(t, st)
	if err != nil {
		// partially built entries may point at abandoned placeholders
		for _, id := range st.added {
			delete(c.memo, id)
		}
		return nil, err
	}
	return r, nil
}

// ByRef reports whether values of t are passed and returned through a
// hidden pointer: exactly the types whose representation is a bare struct.
func (c *Cache) ByRef(t types.TypeID) (bool, error) {
	r, err := c.Of(t)
	if err != nil {
		return false, err
	}
	return r.Kind == KindStruct, nil
}

func (c *Cache) of(t types.TypeID, st *state) (*Repr, error) {
	if r, ok := c.memo[t]; ok {
		c.hits++
		return r, nil
	}
	if f, ok := st.frames[t]; ok {
		if st.ptrDepth > f.ptrDepth && f.repr != nil {
			return f.repr, nil
		}
		cycle := make([]string, 0, len(st.stack)-f.index+1)
		for _, id := range st.stack[f.index:] {
			cycle = append(cycle, c.in.String(id))
		}
		cycle = append(cycle, c.in.String(t))
		return nil, &RecursiveTypeError{Type: c.in.String(t), Cycle: cycle}
	}

	f := &frame{index: len(st.stack), ptrDepth: st.ptrDepth}
	st.frames[t] = f
	st.stack = append(st.stack, t)
	r, err := c.compute(t, f, st)
	st.stack = st.stack[:len(st.stack)-1]
	delete(st.frames, t)
	if err != nil {
		return nil, err
	}
	c.misses++
	c.memo[t] = r
	st.added = append(st.added, t)
	return r, nil
}

func (c *Cache) compute(t types.TypeID, f *frame, st *state) (*Repr, error) {
	tt, ok := c.in.Lookup(t)
	if !ok {
		return nil, &UnsupportedTypeError{Type: c.in.String(t), Reason: "invalid type"}
	}
	switch tt.Kind {
	case types.KindPrim:
		info, _ := types.LookupPrimInfo(tt.Name)
		if info.Indirect {
			return &Repr{Kind: KindPointer, Elem: bytePrim, Type: t}, nil
		}
		return &Repr{Kind: KindPrim, Prim: tt.Name, Type: t}, nil
	case types.KindVar:
		return nil, &UnsupportedTypeError{Type: tt.Name, Reason: "unresolved type variable"}
	case types.KindMethod:
		return nil, &UnsupportedTypeError{Type: c.in.String(t), Reason: "bound methods exist only before call rewriting"}
	case types.KindFunc:
		return &Repr{Kind: KindPointer, Elem: bytePrim, Type: t}, nil
	}

	if ctor, _ := c.in.Ctor(tt.Ctor); ctor != nil && ctor.PointerLike {
		r := &Repr{Kind: KindPointer, Type: t}
		f.repr = r
		elem, err := c.indirect(tt.Params[0], st)
		if err != nil {
			return nil, err
		}
		r.Elem = elem
		return r, nil
	}

	cls, ok := c.reg.ClassOf(t)
	if !ok {
		return nil, &UnsupportedTypeError{Type: c.in.String(t), Reason: "no class registered"}
	}
	if cls.ReprAs != types.NoTypeID {
		return c.of(cls.ReprAs, st)
	}

	s := &Repr{Kind: KindStruct, Name: c.in.String(t), Type: t}
	out := s
	if !cls.StackAllocate {
		out = &Repr{Kind: KindPointer, Elem: s, Type: t}
	}
	f.repr = out

	fields, err := cls.FieldsOf(c.in, t)
	if err != nil {
		return nil, err
	}
	for _, fld := range fields {
		var fr *Repr
		if cls.StackAllocate {
			fr, err = c.of(fld.Type, st)
		} else {
			fr, err = c.indirect(fld.Type, st)
		}
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, Field{Name: fld.Name, Repr: fr})
	}
	if len(s.Fields) == 0 {
		s.Fields = []Field{{Name: PlaceholderField, Repr: placeholderRepr}}
	}
	return out, nil
}

// indirect computes t behind a pointer, where self-reference is allowed.
func (c *Cache) indirect(t types.TypeID, st *state) (*Repr, error) {
	st.ptrDepth++
	defer func() { st.ptrDepth-- }()
	return c.of(t, st)
}
