package types

type number struct {
	float  bool
	signed bool
	bits   int
}

var numbers = map[string]number{
	PrimInt8:    {signed: true, bits: 8},
	PrimInt16:   {signed: true, bits: 16},
	PrimInt32:   {signed: true, bits: 32},
	PrimInt64:   {signed: true, bits: 64},
	PrimUint8:   {bits: 8},
	PrimUint16:  {bits: 16},
	PrimUint32:  {bits: 32},
	PrimUint64:  {bits: 64},
	PrimFloat32: {float: true, signed: true, bits: 32},
	PrimFloat64: {float: true, signed: true, bits: 64},
}

// Promotes reports whether a value of type from widens implicitly to type
// to. Integers widen within their signedness, unsigned integers widen to
// strictly larger signed ones, floats widen to float64, and any integer
// widens to float64. Only integers up to 16 bits widen to float32.
// Identical types do not promote.
func (in *Interner) Promotes(from, to TypeID) bool {
	if from == to {
		return false
	}
	f, ok := in.number(from)
	if !ok {
		return false
	}
	t, ok := in.number(to)
	if !ok {
		return false
	}
	switch {
	case f.float:
		return t.float && t.bits > f.bits
	case t.float:
		return t.bits == 64 || f.bits <= 16
	case f.signed && !t.signed:
		return false
	}
	return t.bits > f.bits
}

func (in *Interner) number(id TypeID) (number, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindPrim {
		return number{}, false
	}
	n, ok := numbers[tt.Name]
	return n, ok
}
