package ir

import (
	"fmt"
	"strconv"

	"flyc/internal/types"
)

// Value is anything an operation can take as an operand.
type Value interface {
	valueNode()
	String() string
}

// Const is a constant operand. Type is optional; when NoTypeID, inference
// derives the type from Value.
type Const struct {
	Value any
	Type  types.TypeID
}

func (*Const) valueNode() {}

func (c *Const) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "const(none)"
	case string:
		return "const(" + strconv.Quote(v) + ")"
	default:
		return fmt.Sprintf("const(%v)", v)
	}
}

// ArgRole distinguishes declared parameters from lowering-introduced ones.
type ArgRole uint8

const (
	RoleParam ArgRole = iota
	RoleOut           // trailing output pointer for by-reference returns
)

// Arg is a function parameter.
type Arg struct {
	Name  string
	Index int
	Role  ArgRole
	// ByRef marks a composite parameter received through a pointer at the
	// native boundary.
	ByRef bool
}

func (*Arg) valueNode() {}

func (a *Arg) String() string { return "%" + a.Name }

// Global is a name to be resolved in the function's scope (a function
// overload set or a class).
type Global struct {
	Name string
}

func (*Global) valueNode() {}

func (g *Global) String() string { return "@" + g.Name }

// FuncRef references one concrete implementation chosen by overload
// resolution. Target is owned by the compiler session.
type FuncRef struct {
	Name   string
	Target any

	// Opaque targets keep the host calling convention.
	Opaque bool
	Inline bool
}

func (*FuncRef) valueNode() {}

func (r *FuncRef) String() string { return "&" + r.Name }
