package ir

// Clone deep-copies f. The returned map sends every value of f (params,
// ops, constants and globals) to its copy, so a typing of f can be carried
// over when needed.
func Clone(f *Func) (*Func, map[Value]Value) {
	if f == nil {
		return nil, nil
	}
	m := make(map[Value]Value)
	out := &Func{Name: f.Name, Lowered: f.Lowered, nextID: f.nextID}
	for _, p := range f.Params {
		cp := *p
		out.Params = append(out.Params, &cp)
		m[p] = &cp
	}
	if f.Out != nil {
		if cp, ok := m[f.Out].(*Arg); ok {
			out.Out = cp
		}
	}
	blocks := make(map[*Block]*Block, len(f.Blocks))
	for _, b := range f.Blocks {
		nb := &Block{Name: b.Name, fn: out}
		blocks[b] = nb
		out.Blocks = append(out.Blocks, nb)
	}
	for _, b := range f.Blocks {
		nb := blocks[b]
		nb.Ops = make([]*Op, 0, len(b.Ops))
		for _, op := range b.Ops {
			cp := &Op{ID: op.ID, Opcode: op.Opcode, Attr: op.Attr, Name: op.Name, block: nb}
			m[op] = cp
			nb.Ops = append(nb.Ops, cp)
		}
	}
	for _, b := range f.Blocks {
		for _, op := range b.Ops {
			cp := m[op].(*Op)
			if len(op.Args) > 0 {
				cp.Args = make([]Value, len(op.Args))
				for i, a := range op.Args {
					cp.Args[i] = cloneValue(a, m)
				}
			}
			if len(op.Targets) > 0 {
				cp.Targets = make([]*Block, len(op.Targets))
				for i, t := range op.Targets {
					cp.Targets[i] = blocks[t]
				}
			}
		}
	}
	return out, m
}

func cloneValue(v Value, m map[Value]Value) Value {
	if mapped, ok := m[v]; ok {
		return mapped
	}
	var out Value
	switch x := v.(type) {
	case *Const:
		cp := *x
		out = &cp
	case *Global:
		cp := *x
		out = &cp
	case *FuncRef:
		cp := *x
		out = &cp
	default:
		// ops and args outside f stay shared
		return v
	}
	m[v] = out
	return out
}
