package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Type system
	TypInfo             Code = 1000
	TypUnboundVariable  Code = 1001
	TypArityMismatch    Code = 1002
	TypUnknownName      Code = 1003
	TypSyntax           Code = 1004
	TypMismatch         Code = 1005
	TypUnresolvedMethod Code = 1006

	// Overload resolution
	OvlInfo        Code = 2000
	OvlNoMatch     Code = 2001
	OvlAmbiguous   Code = 2002
	OvlBadDefaults Code = 2003

	// Inference / rewriting
	InfInfo            Code = 3000
	InfNoSuchAttribute Code = 3001
	InfUnknownCallee   Code = 3002
	InfReturnMismatch  Code = 3003
	InfRecursiveReturn Code = 3004
	InfBadCondition    Code = 3005
	InfFieldMismatch   Code = 3006
	InfLostType        Code = 3007
	InfBadOperand      Code = 3008
	InfDepthExceeded   Code = 3009

	// Representation / lowering / marshaling
	RepInfo             Code = 4000
	RepRecursiveType    Code = 4001
	RepUnsupportedType  Code = 4002
	RepMarshal          Code = 4003
	RepRecursiveValue   Code = 4004
	RepLoweringMismatch Code = 4005

	// Unit files and driver
	PrjInfo        Code = 5000
	PrjBadUnit     Code = 5001
	PrjBadOp       Code = 5002
	PrjMissingName Code = 5003
	PrjTimings     Code = 5004
)

var (
	codeDescription = map[Code]string{
		UnknownCode:         "Unknown error",
		TypInfo:             "Type information",
		TypUnboundVariable:  "Unbound type variable",
		TypArityMismatch:    "Type constructor arity mismatch",
		TypUnknownName:      "Unknown type name",
		TypSyntax:           "Malformed type expression",
		TypMismatch:         "Type mismatch",
		TypUnresolvedMethod: "Method type used before its call was resolved",
		OvlInfo:             "Overload information",
		OvlNoMatch:          "No matching overload found",
		OvlAmbiguous:        "Ambiguous overload resolution",
		OvlBadDefaults:      "Invalid default arguments",
		InfInfo:             "Inference information",
		InfNoSuchAttribute:  "No such attribute",
		InfUnknownCallee:    "Unknown callee",
		InfReturnMismatch:   "Inconsistent return types",
		InfRecursiveReturn:  "Return type of recursive specialization is unknown",
		InfBadCondition:     "Branch condition is not bool",
		InfFieldMismatch:    "Field assignment type mismatch",
		InfLostType:         "Value has no type in context",
		InfBadOperand:       "Operand cannot be typed",
		InfDepthExceeded:    "Specialization depth exceeded",
		RepInfo:             "Representation information",
		RepRecursiveType:    "Unsupported recursive type",
		RepUnsupportedType:  "Type has no low-level representation",
		RepMarshal:          "Value cannot be marshaled",
		RepRecursiveValue:   "Recursive value cannot be marshaled",
		RepLoweringMismatch: "Calling convention lowering failed",
		PrjInfo:             "Unit information",
		PrjBadUnit:          "Malformed unit file",
		PrjBadOp:            "Malformed operation",
		PrjMissingName:      "Undefined name in unit",
		PrjTimings:          "Phase timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("OVL%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("INF%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("REP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Coded is implemented by errors that belong to the diagnostic taxonomy.
type Coded interface {
	error
	Code() Code
}

// CodeOf returns the code of the first Coded error in err's chain.
func CodeOf(err error) Code {
	for err != nil {
		if c, ok := err.(Coded); ok {
			if code := c.Code(); code != UnknownCode {
				return code
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return UnknownCode
		}
		err = u.Unwrap()
	}
	return UnknownCode
}
