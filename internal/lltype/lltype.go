// Package lltype hands lowered specializations to an LLVM backend: it
// converts representations and native signatures to llir types and
// declares the compiled functions in an llir module.
package lltype

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"flyc/internal/callconv"
	"flyc/internal/repr"
	flytypes "flyc/internal/types"
)

// Converter maps representations into one module. Struct representations
// become named type definitions, which also closes cycles through
// pointers.
type Converter struct {
	mod     *ir.Module
	structs map[*repr.Repr]*types.StructType
	names   map[string]int
}

// New creates a converter declaring into m.
func New(m *ir.Module) *Converter {
	return &Converter{
		mod:     m,
		structs: make(map[*repr.Repr]*types.StructType),
		names:   make(map[string]int),
	}
}

// Module returns the module being populated.
func (c *Converter) Module() *ir.Module { return c.mod }

// Type converts one representation.
func (c *Converter) Type(r *repr.Repr) (types.Type, error) {
	switch r.Kind {
	case repr.KindPrim:
		return primType(r.Prim)
	case repr.KindPointer:
		elem, err := c.Type(r.Elem)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(elem), nil
	case repr.KindStruct:
		return c.structType(r)
	}
	return nil, fmt.Errorf("lltype: unknown representation kind %s", r.Kind)
}

func (c *Converter) structType(r *repr.Repr) (types.Type, error) {
	if st, ok := c.structs[r]; ok {
		return st, nil
	}
	st := types.NewStruct()
	c.structs[r] = st
	c.mod.NewTypeDef(c.uniqueName(r.Name), st)
	for _, f := range r.Fields {
		ft, err := c.Type(f.Repr)
		if err != nil {
			return nil, fmt.Errorf("lltype: field %s.%s: %w", r.Name, f.Name, err)
		}
		st.Fields = append(st.Fields, ft)
	}
	return st, nil
}

// uniqueName keeps type definitions apart when equal names come from
// different caches.
func (c *Converter) uniqueName(name string) string {
	n := c.names[name]
	c.names[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}

func primType(name string) (types.Type, error) {
	info, ok := flytypes.LookupPrimInfo(name)
	if !ok {
		return nil, fmt.Errorf("lltype: unknown primitive %q", name)
	}
	switch {
	case info.Void:
		return types.Void, nil
	case info.Bool:
		return types.I1, nil
	case info.Float && info.Bits == 32:
		return types.Float, nil
	case info.Float:
		return types.Double, nil
	case info.Indirect:
		return types.I8Ptr, nil
	}
	return types.NewInt(uint64(info.Bits)), nil
}

// FuncType converts a native signature.
func (c *Converter) FuncType(ft *callconv.FuncType) (*types.FuncType, error) {
	ret, err := c.Type(ft.Result)
	if err != nil {
		return nil, err
	}
	params := make([]types.Type, len(ft.Params))
	for i, p := range ft.Params {
		if params[i], err = c.Type(p); err != nil {
			return nil, err
		}
	}
	return types.NewFunc(ret, params...), nil
}

// Declare adds a function declaration for a lowered specialization. The
// output pointer of a by-reference result is marked sret.
func (c *Converter) Declare(name string, paramNames []string, ft *callconv.FuncType) (*ir.Func, error) {
	sig, err := c.FuncType(ft)
	if err != nil {
		return nil, err
	}
	params := make([]*ir.Param, len(sig.Params))
	for i, t := range sig.Params {
		pname := fmt.Sprintf("arg%d", i)
		if i < len(paramNames) && paramNames[i] != "" {
			pname = paramNames[i]
		}
		params[i] = ir.NewParam(pname, t)
	}
	if ft.SRet && len(params) > 0 {
		out := params[len(params)-1]
		out.Attrs = append(out.Attrs, enum.ParamAttrSRet, enum.ParamAttrNoAlias)
	}
	return c.mod.NewFunc(name, sig.RetType, params...), nil
}
