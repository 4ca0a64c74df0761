package ir

import (
	"flyc/internal/types"
)

// Context maps IR values to their inferred types for one specialization.
// Entries are keyed by value identity; ops rewritten in place keep their
// entry, replaced ops hand it over with Move.
type Context struct {
	types map[Value]types.TypeID
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{types: make(map[Value]types.TypeID, 32)}
}

// Get returns the type of v.
func (c *Context) Get(v Value) (types.TypeID, bool) {
	if c == nil {
		return types.NoTypeID, false
	}
	t, ok := c.types[v]
	return t, ok
}

// MustGet returns NoTypeID for untyped values.
func (c *Context) MustGet(v Value) types.TypeID {
	t, _ := c.Get(v)
	return t
}

// Set assigns t to v, overwriting any previous entry.
func (c *Context) Set(v Value, t types.TypeID) {
	c.types[v] = t
}

// Delete drops v's entry.
func (c *Context) Delete(v Value) {
	delete(c.types, v)
}

// Move transfers old's entry to repl.
func (c *Context) Move(old, repl Value) {
	t, ok := c.types[old]
	if !ok {
		return
	}
	delete(c.types, old)
	c.types[repl] = t
}

// Len returns the number of typed values.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.types)
}

// Types returns the types of vs in order. ok is false if any is missing.
func (c *Context) Types(vs []Value) ([]types.TypeID, bool) {
	out := make([]types.TypeID, len(vs))
	for i, v := range vs {
		t, ok := c.Get(v)
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}
