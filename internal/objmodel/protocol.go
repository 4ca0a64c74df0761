package objmodel

import "flyc/internal/ir"

// Dynamic attribute protocol.
const (
	GetAttrMethod = "__getattr__"
	SetAttrMethod = "__setattribute__"
)

var operatorMethods = map[ir.Opcode]string{
	ir.OpInvert:   "__invert__",
	ir.OpPos:      "__pos__",
	ir.OpNeg:      "__neg__",
	ir.OpAdd:      "__add__",
	ir.OpSub:      "__sub__",
	ir.OpMul:      "__mul__",
	ir.OpDiv:      "__div__",
	ir.OpTrueDiv:  "__truediv__",
	ir.OpFloorDiv: "__floordiv__",
	ir.OpMod:      "__mod__",
	ir.OpLShift:   "__lshift__",
	ir.OpRShift:   "__rshift__",
	ir.OpBitOr:    "__or__",
	ir.OpBitAnd:   "__and__",
	ir.OpBitXor:   "__xor__",
	ir.OpLt:       "__lt__",
	ir.OpLe:       "__le__",
	ir.OpGt:       "__gt__",
	ir.OpGe:       "__ge__",
	ir.OpEq:       "__eq__",
	ir.OpNe:       "__ne__",
}

// OperatorMethod returns the protocol method an operator lowers to. Floor
// division maps to __floordiv__ only; a class without it does not support
// the operator.
func OperatorMethod(op ir.Opcode) (string, bool) {
	name, ok := operatorMethods[op]
	return name, ok
}
