package ir

import (
	"fmt"
	"slices"
	"strconv"
)

// Op is one IR operation. Ops are mutated in place by rewriting passes;
// when an op must be replaced, Func.Replace relinks every use.
type Op struct {
	ID      int
	Opcode  Opcode
	Args    []Value
	Attr    string   // getfield/setfield attribute, new class name
	Targets []*Block // jump/cbranch successors, phi predecessors
	Name    string   // optional result name from the front-end

	block *Block
}

func (*Op) valueNode() {}

func (o *Op) String() string {
	if o.Name != "" {
		return "%" + o.Name
	}
	return "%" + strconv.Itoa(o.ID)
}

// Block returns the block holding o, or nil once o was removed.
func (o *Op) Block() *Block { return o.block }

// Live reports whether o is still part of a function.
func (o *Op) Live() bool { return o.block != nil }

// SetArgs replaces the operand list.
func (o *Op) SetArgs(args ...Value) { o.Args = args }

// Block is a straight-line sequence of ops ending in a terminator.
type Block struct {
	Name string
	Ops  []*Op

	fn *Func
}

// Terminator returns the last op when it is a terminator.
func (b *Block) Terminator() *Op {
	if b == nil || len(b.Ops) == 0 {
		return nil
	}
	last := b.Ops[len(b.Ops)-1]
	if !last.Opcode.IsTerminator() {
		return nil
	}
	return last
}

// Func is an IR function. The front-end produces it untyped; one copy is
// cloned per specialization and then typed, rewritten and lowered in place.
type Func struct {
	Name   string
	Params []*Arg
	Blocks []*Block

	// Out is the trailing output pointer added by calling-convention
	// lowering, nil before lowering or for by-value returns.
	Out *Arg
	// Lowered is set once calling-convention lowering has run.
	Lowered bool

	nextID int
}

// NewFunc creates a function with the named parameters and an entry block.
func NewFunc(name string, params ...string) *Func {
	f := &Func{Name: name}
	for i, p := range params {
		f.Params = append(f.Params, &Arg{Name: p, Index: i})
	}
	f.NewBlock("entry")
	return f
}

// Entry returns the first block.
func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NewBlock appends an empty block.
func (f *Func) NewBlock(name string) *Block {
	b := &Block{Name: name, fn: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// BlockByName finds a block.
func (f *Func) BlockByName(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Param returns the parameter with the given name.
func (f *Func) Param(name string) *Arg {
	for _, p := range f.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// AddParam appends a parameter.
func (f *Func) AddParam(name string, role ArgRole) *Arg {
	a := &Arg{Name: name, Index: len(f.Params), Role: role}
	f.Params = append(f.Params, a)
	return a
}

// NewOp allocates an op that is not yet placed in a block.
func (f *Func) NewOp(opcode Opcode, args ...Value) *Op {
	op := &Op{ID: f.nextID, Opcode: opcode, Args: args}
	f.nextID++
	return op
}

// Ops returns every live op in program order.
func (f *Func) Ops() []*Op {
	var out []*Op
	for _, b := range f.Blocks {
		out = append(out, b.Ops...)
	}
	return out
}

// Temp returns a fresh name not used by any parameter.
func (f *Func) Temp(prefix string) string {
	for i := 0; ; i++ {
		name := prefix
		if i > 0 {
			name = fmt.Sprintf("%s%d", prefix, i)
		}
		if f.Param(name) == nil {
			return name
		}
	}
}

// Remove detaches op from its block. Uses are left untouched.
func (f *Func) Remove(op *Op) {
	b := op.block
	if b == nil {
		return
	}
	if i := slices.Index(b.Ops, op); i >= 0 {
		b.Ops = slices.Delete(b.Ops, i, i+1)
	}
	op.block = nil
}

// Replace puts repl where old was and redirects every use of old to repl.
func (f *Func) Replace(old, repl *Op) {
	b := old.block
	if b == nil {
		return
	}
	i := slices.Index(b.Ops, old)
	if i < 0 {
		return
	}
	b.Ops[i] = repl
	repl.block = b
	old.block = nil
	f.ReplaceUses(old, repl)
}

// ReplaceUses redirects every operand equal to old to repl, except
// operands of repl itself so that wrappers around old stay intact.
func (f *Func) ReplaceUses(old, repl Value) {
	for _, b := range f.Blocks {
		for _, op := range b.Ops {
			if op == repl {
				continue
			}
			for i, a := range op.Args {
				if a == old {
					op.Args[i] = repl
				}
			}
		}
	}
}

// Uses returns the live ops that take v as an operand.
func (f *Func) Uses(v Value) []*Op {
	var out []*Op
	for _, b := range f.Blocks {
		for _, op := range b.Ops {
			if slices.Contains(op.Args, v) {
				out = append(out, op)
			}
		}
	}
	return out
}
