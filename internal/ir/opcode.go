package ir

import "fmt"

// Opcode enumerates IR operations.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Object access and calls.
	OpGetField // getfield obj .attr
	OpSetField // setfield obj .attr value
	OpCall     // call callee args...
	OpNew      // new <class> fields...

	// Unary operators.
	OpInvert
	OpPos
	OpNeg

	// Binary operators.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpTrueDiv
	OpFloorDiv
	OpMod
	OpLShift
	OpRShift
	OpBitOr
	OpBitAnd
	OpBitXor

	// Comparisons.
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe

	// Control flow.
	OpPhi
	OpJump
	OpCBranch
	OpRet

	// Numeric widening, introduced by rewriting implicit promotions.
	OpConvert // convert value

	// Memory, introduced by calling-convention lowering.
	OpAlloca
	OpLoad
	OpStore
	OpAddrOf
)

var opcodeNames = [...]string{
	OpInvalid:  "invalid",
	OpGetField: "getfield",
	OpSetField: "setfield",
	OpCall:     "call",
	OpNew:      "new",
	OpInvert:   "invert",
	OpPos:      "pos",
	OpNeg:      "neg",
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpDiv:      "div",
	OpTrueDiv:  "truediv",
	OpFloorDiv: "floordiv",
	OpMod:      "mod",
	OpLShift:   "lshift",
	OpRShift:   "rshift",
	OpBitOr:    "bitor",
	OpBitAnd:   "bitand",
	OpBitXor:   "bitxor",
	OpLt:       "lt",
	OpLe:       "le",
	OpGt:       "gt",
	OpGe:       "ge",
	OpEq:       "eq",
	OpNe:       "ne",
	OpPhi:      "phi",
	OpJump:     "jump",
	OpCBranch:  "cbranch",
	OpRet:      "ret",
	OpConvert:  "convert",
	OpAlloca:   "alloca",
	OpLoad:     "load",
	OpStore:    "store",
	OpAddrOf:   "addrof",
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		if op != int(OpInvalid) {
			m[name] = Opcode(op)
		}
	}
	return m
}()

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return fmt.Sprintf("Opcode(%d)", o)
}

// ParseOpcode maps a textual opcode back to its value.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// IsUnary reports whether o is a unary operator.
func (o Opcode) IsUnary() bool { return o >= OpInvert && o <= OpNeg }

// IsBinary reports whether o is an arithmetic or bitwise operator.
func (o Opcode) IsBinary() bool { return o >= OpAdd && o <= OpBitXor }

// IsCompare reports whether o is a comparison.
func (o Opcode) IsCompare() bool { return o >= OpLt && o <= OpNe }

// IsOperator reports whether o lowers to an operator-protocol call.
func (o Opcode) IsOperator() bool { return o.IsUnary() || o.IsBinary() || o.IsCompare() }

// IsTerminator reports whether o ends a block.
func (o Opcode) IsTerminator() bool { return o == OpJump || o == OpCBranch || o == OpRet }

// HasResult reports whether ops with this opcode produce a value.
func (o Opcode) HasResult() bool {
	switch o {
	case OpSetField, OpJump, OpCBranch, OpRet, OpStore, OpInvalid:
		return false
	}
	return true
}
