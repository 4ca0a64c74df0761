package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Void    TypeID
	Bool    TypeID
	Int8    TypeID
	Int16   TypeID
	Int32   TypeID
	Int64   TypeID
	Uint8   TypeID
	Uint16  TypeID
	Uint32  TypeID
	Uint64  TypeID
	Float32 TypeID
	Float64 TypeID
	String  TypeID
	None    TypeID
	Opaque  TypeID

	// Pointer is the builtin one-parameter pointer constructor.
	Pointer CtorID
	// EmptyTuple and StaticTuple build immutable variadic aggregates:
	// StaticTuple[hd, tl] chains end in EmptyTuple.
	EmptyTuple  CtorID
	StaticTuple CtorID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Types are interned lazily and never removed.
type Interner struct {
	types    []Type
	index    map[string]TypeID
	ctors    []Constructor
	ctorIdx  map[string]CtorID
	prims    map[string]TypeID
	impls    map[head][]TypeID
	aliases  map[string]Curried
	builtins Builtins
}

// NewInterner constructs an interner seeded with the primitives and the
// Pointer constructor.
func NewInterner() *Interner {
	in := &Interner{
		index:   make(map[string]TypeID, 64),
		ctorIdx: make(map[string]CtorID, 16),
		prims:   make(map[string]TypeID, len(primNames)),
		impls:   make(map[head][]TypeID),
		aliases: make(map[string]Curried),
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0 as NoTypeID
	in.ctors = append(in.ctors, Constructor{})          // reserve 0 as NoCtorID
	for _, name := range primNames {
		in.prims[name] = in.intern(Type{Kind: KindPrim, Name: name})
	}
	b := &in.builtins
	b.Void = in.prims[PrimVoid]
	b.Bool = in.prims[PrimBool]
	b.Int8 = in.prims[PrimInt8]
	b.Int16 = in.prims[PrimInt16]
	b.Int32 = in.prims[PrimInt32]
	b.Int64 = in.prims[PrimInt64]
	b.Uint8 = in.prims[PrimUint8]
	b.Uint16 = in.prims[PrimUint16]
	b.Uint32 = in.prims[PrimUint32]
	b.Uint64 = in.prims[PrimUint64]
	b.Float32 = in.prims[PrimFloat32]
	b.Float64 = in.prims[PrimFloat64]
	b.String = in.prims[PrimString]
	b.None = in.prims[PrimNone]
	b.Opaque = in.prims[PrimOpaque]
	ptr, err := in.DeclareCtor("Pointer", []string{"T"}, CtorOptions{PointerLike: true})
	if err != nil {
		panic(err)
	}
	b.Pointer = ptr
	b.EmptyTuple = in.mustDeclare("EmptyTuple", nil)
	b.StaticTuple = in.mustDeclare("StaticTuple", []string{"hd", "tl"})
	return in
}

func (in *Interner) mustDeclare(name string, params []string) CtorID {
	id, err := in.DeclareCtor(name, params, CtorOptions{})
	if err != nil {
		panic(err)
	}
	return id
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Prim returns the primitive type with the given name.
func (in *Interner) Prim(name string) (TypeID, bool) {
	id, ok := in.prims[name]
	return id, ok
}

// Var returns the type variable with the given name.
func (in *Interner) Var(name string) TypeID {
	return in.intern(Type{Kind: KindVar, Name: name})
}

// Func returns the function type (params) -> result.
func (in *Interner) Func(params []TypeID, result TypeID) TypeID {
	return in.intern(Type{Kind: KindFunc, Params: cloneIDs(params), Result: result})
}

// Method returns the bound-method type of recv. fn may be NoTypeID while
// the consuming call is still unresolved.
func (in *Interner) Method(recv, fn TypeID) TypeID {
	return in.intern(Type{Kind: KindMethod, Recv: recv, Fn: fn})
}

// Pointer returns Pointer[elem].
func (in *Interner) Pointer(elem TypeID) TypeID {
	return in.intern(Type{Kind: KindApp, Ctor: in.builtins.Pointer, Params: []TypeID{elem}})
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len reports how many types have been interned.
func (in *Interner) Len() int {
	return len(in.types) - 1
}

func (in *Interner) intern(t Type) TypeID {
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t, key)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type, key string) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

func typeKey(t Type) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(t.Kind)))
	sb.WriteByte(':')
	switch t.Kind {
	case KindPrim, KindVar:
		sb.WriteString(t.Name)
	case KindApp:
		sb.WriteString(strconv.FormatUint(uint64(t.Ctor), 10))
		writeIDs(&sb, t.Params)
	case KindFunc:
		writeIDs(&sb, t.Params)
		sb.WriteString("->")
		sb.WriteString(strconv.FormatUint(uint64(t.Result), 10))
	case KindMethod:
		sb.WriteString(strconv.FormatUint(uint64(t.Recv), 10))
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(uint64(t.Fn), 10))
	}
	return sb.String()
}

func writeIDs(sb *strings.Builder, ids []TypeID) {
	sb.WriteByte('(')
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	sb.WriteByte(')')
}

func cloneIDs(ids []TypeID) []TypeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]TypeID, len(ids))
	copy(out, ids)
	return out
}
