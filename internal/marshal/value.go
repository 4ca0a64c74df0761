package marshal

import (
	"flyc/internal/repr"
)

// Object is the host form of a class instance. Fields follow the class
// layout order.
type Object struct {
	Class  string
	Fields []any
}

// Native is one node of a native value. Prim holds the Go value of a
// primitive leaf (sized to the primitive) or the text behind a string
// pointer; Elem is nil for a null pointer.
type Native struct {
	Repr   *repr.Repr
	Prim   any
	Elem   *Native
	Fields []*Native
}
