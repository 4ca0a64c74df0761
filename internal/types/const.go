package types

// ConstType returns the intrinsic type of a host constant. Untyped integer
// and float literals default to 64-bit.
func (in *Interner) ConstType(v any) (TypeID, bool) {
	b := in.builtins
	switch v.(type) {
	case nil:
		return b.None, true
	case bool:
		return b.Bool, true
	case int, int64:
		return b.Int64, true
	case int8:
		return b.Int8, true
	case int16:
		return b.Int16, true
	case int32:
		return b.Int32, true
	case uint8:
		return b.Uint8, true
	case uint16:
		return b.Uint16, true
	case uint32:
		return b.Uint32, true
	case uint, uint64:
		return b.Uint64, true
	case float32:
		return b.Float32, true
	case float64:
		return b.Float64, true
	case string:
		return b.String, true
	}
	return NoTypeID, false
}

// Tuple folds elems right to left into StaticTuple[e0, StaticTuple[e1, ...
// EmptyTuple]].
func (in *Interner) Tuple(elems []TypeID) TypeID {
	out := in.MustApp(in.builtins.EmptyTuple)
	for i := len(elems) - 1; i >= 0; i-- {
		out = in.MustApp(in.builtins.StaticTuple, elems[i], out)
	}
	return out
}

// TupleElems unfolds a StaticTuple chain. ok is false when id is not a
// complete chain.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	var out []TypeID
	for {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != KindApp {
			return nil, false
		}
		switch tt.Ctor {
		case in.builtins.EmptyTuple:
			return out, true
		case in.builtins.StaticTuple:
			out = append(out, tt.Params[0])
			id = tt.Params[1]
		default:
			return nil, false
		}
	}
}
