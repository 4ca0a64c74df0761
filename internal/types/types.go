package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// CtorID identifies a type constructor.
type CtorID uint32

// NoCtorID marks the absence of a constructor.
const NoCtorID CtorID = 0

// Kind enumerates the type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrim
	KindVar
	KindApp
	KindFunc
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindPrim:
		return "prim"
	case KindVar:
		return "var"
	case KindApp:
		return "app"
	case KindFunc:
		return "func"
	case KindMethod:
		return "method"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is an immutable structural descriptor. Descriptors are only ever
// handed out by the Interner, which guarantees one TypeID per structure.
type Type struct {
	Kind Kind

	// Name is the primitive name, or the variable name.
	Name string

	// Ctor and Params describe a constructor application.
	Ctor   CtorID
	Params []TypeID

	// Params and Result describe a function type.
	Result TypeID

	// Recv and Fn describe a bound method. Fn stays NoTypeID until the
	// call consuming the method has been resolved.
	Recv TypeID
	Fn   TypeID
}

// Primitive names known to every interner.
const (
	PrimVoid    = "void"
	PrimBool    = "bool"
	PrimInt8    = "int8"
	PrimInt16   = "int16"
	PrimInt32   = "int32"
	PrimInt64   = "int64"
	PrimUint8   = "uint8"
	PrimUint16  = "uint16"
	PrimUint32  = "uint32"
	PrimUint64  = "uint64"
	PrimFloat32 = "float32"
	PrimFloat64 = "float64"
	PrimString  = "string"
	PrimNone    = "none"
	PrimOpaque  = "opaque"
)

var primNames = []string{
	PrimVoid, PrimBool,
	PrimInt8, PrimInt16, PrimInt32, PrimInt64,
	PrimUint8, PrimUint16, PrimUint32, PrimUint64,
	PrimFloat32, PrimFloat64,
	PrimString, PrimNone, PrimOpaque,
}

// PrimInfo describes the machine shape of a primitive.
type PrimInfo struct {
	Bits     int
	Signed   bool
	Float    bool
	Bool     bool
	Void     bool
	Indirect bool // represented through a pointer (string, opaque)
}

var primInfo = map[string]PrimInfo{
	PrimVoid:    {Void: true},
	PrimBool:    {Bits: 1, Bool: true},
	PrimInt8:    {Bits: 8, Signed: true},
	PrimInt16:   {Bits: 16, Signed: true},
	PrimInt32:   {Bits: 32, Signed: true},
	PrimInt64:   {Bits: 64, Signed: true},
	PrimUint8:   {Bits: 8},
	PrimUint16:  {Bits: 16},
	PrimUint32:  {Bits: 32},
	PrimUint64:  {Bits: 64},
	PrimFloat32: {Bits: 32, Float: true},
	PrimFloat64: {Bits: 64, Float: true},
	PrimString:  {Indirect: true},
	PrimNone:    {Bits: 8},
	PrimOpaque:  {Indirect: true},
}

// LookupPrimInfo returns the machine shape of a primitive name.
func LookupPrimInfo(name string) (PrimInfo, bool) {
	info, ok := primInfo[name]
	return info, ok
}
