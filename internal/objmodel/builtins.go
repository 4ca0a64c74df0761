package objmodel

import (
	"flyc/internal/ir"
	"flyc/internal/overload"
	"flyc/internal/types"
)

var (
	arithOps   = []ir.Opcode{ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpFloorDiv, ir.OpMod}
	bitOps     = []ir.Opcode{ir.OpLShift, ir.OpRShift, ir.OpBitOr, ir.OpBitAnd, ir.OpBitXor}
	compareOps = []ir.Opcode{ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe, ir.OpEq, ir.OpNe}
	equalOps   = []ir.Opcode{ir.OpEq, ir.OpNe}
)

// RegisterBuiltins declares the primitive classes with their opaque
// operator methods.
func (r *Registry) RegisterBuiltins() error {
	b := r.in.Builtins()
	ints := []types.TypeID{b.Int8, b.Int16, b.Int32, b.Int64, b.Uint8, b.Uint16, b.Uint32, b.Uint64}
	floats := []types.TypeID{b.Float32, b.Float64}

	for _, t := range ints {
		c, err := r.PrimClass(t)
		if err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, arithOps, t, 2); err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, bitOps, t, 2); err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, []ir.Opcode{ir.OpTrueDiv}, b.Float64, 2); err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, compareOps, b.Bool, 2); err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, []ir.Opcode{ir.OpNeg, ir.OpPos, ir.OpInvert}, t, 1); err != nil {
			return err
		}
	}
	for _, t := range floats {
		c, err := r.PrimClass(t)
		if err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, append(arithOps, ir.OpTrueDiv), t, 2); err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, compareOps, b.Bool, 2); err != nil {
			return err
		}
		if err := r.opaqueOps(c, t, []ir.Opcode{ir.OpNeg, ir.OpPos}, t, 1); err != nil {
			return err
		}
	}

	boolC, err := r.PrimClass(b.Bool)
	if err != nil {
		return err
	}
	if err := r.opaqueOps(boolC, b.Bool, []ir.Opcode{ir.OpBitAnd, ir.OpBitOr, ir.OpBitXor, ir.OpEq, ir.OpNe}, b.Bool, 2); err != nil {
		return err
	}
	if err := r.opaqueOps(boolC, b.Bool, []ir.Opcode{ir.OpInvert}, b.Bool, 1); err != nil {
		return err
	}

	strC, err := r.PrimClass(b.String)
	if err != nil {
		return err
	}
	if err := r.opaqueOps(strC, b.String, []ir.Opcode{ir.OpAdd}, b.String, 2); err != nil {
		return err
	}
	if err := r.opaqueOps(strC, b.String, compareOps, b.Bool, 2); err != nil {
		return err
	}

	noneC, err := r.PrimClass(b.None)
	if err != nil {
		return err
	}
	return r.opaqueOps(noneC, b.None, equalOps, b.Bool, 2)
}

func (r *Registry) opaqueOps(c *Class, self types.TypeID, ops []ir.Opcode, result types.TypeID, arity int) error {
	params := make([]types.TypeID, arity)
	for i := range params {
		params[i] = self
	}
	for _, op := range ops {
		name, _ := OperatorMethod(op)
		o := &overload.Overload{
			Sig:     overload.Signature{Params: params, Result: result},
			Options: overload.Options{Opaque: true, Inline: true},
		}
		if err := c.AddMethod(r.in, name, o); err != nil {
			return err
		}
	}
	return nil
}
