package ir

import "slices"

// Builder inserts ops at a cursor inside a block.
type Builder struct {
	fn    *Func
	block *Block
	pos   int
}

// NewBuilder positions a builder at the end of f's entry block.
func NewBuilder(f *Func) *Builder {
	b := &Builder{fn: f}
	b.SetBlock(f.Entry())
	return b
}

// Func returns the function being built.
func (b *Builder) Func() *Func { return b.fn }

// SetBlock moves the cursor to the end of blk.
func (b *Builder) SetBlock(blk *Block) {
	b.block = blk
	if blk != nil {
		b.pos = len(blk.Ops)
	}
}

// Before moves the cursor in front of op.
func (b *Builder) Before(op *Op) {
	b.block = op.block
	b.pos = slices.Index(op.block.Ops, op)
}

// After moves the cursor behind op.
func (b *Builder) After(op *Op) {
	b.Before(op)
	b.pos++
}

// Start moves the cursor to the first position of blk.
func (b *Builder) Start(blk *Block) {
	b.block = blk
	b.pos = 0
}

// Place inserts an existing op at the cursor.
func (b *Builder) Place(op *Op) *Op {
	b.block.Ops = slices.Insert(b.block.Ops, b.pos, op)
	op.block = b.block
	b.pos++
	return op
}

// Emit creates and inserts an op.
func (b *Builder) Emit(opcode Opcode, args ...Value) *Op {
	return b.Place(b.fn.NewOp(opcode, args...))
}

// Named is Emit with a result name.
func (b *Builder) Named(name string, opcode Opcode, args ...Value) *Op {
	op := b.Emit(opcode, args...)
	op.Name = name
	return op
}

func (b *Builder) Call(callee Value, args ...Value) *Op {
	return b.Emit(OpCall, append([]Value{callee}, args...)...)
}

func (b *Builder) GetField(obj Value, attr string) *Op {
	op := b.Emit(OpGetField, obj)
	op.Attr = attr
	return op
}

func (b *Builder) SetField(obj Value, attr string, v Value) *Op {
	op := b.Emit(OpSetField, obj, v)
	op.Attr = attr
	return op
}

// New constructs an instance of class from positional field values.
func (b *Builder) New(class string, fields ...Value) *Op {
	op := b.Emit(OpNew, fields...)
	op.Attr = class
	return op
}

// Ret returns v, or nothing when v is nil.
func (b *Builder) Ret(v Value) *Op {
	if v == nil {
		return b.Emit(OpRet)
	}
	return b.Emit(OpRet, v)
}

func (b *Builder) Jump(target *Block) *Op {
	op := b.Emit(OpJump)
	op.Targets = []*Block{target}
	return op
}

func (b *Builder) CBranch(cond Value, then, els *Block) *Op {
	op := b.Emit(OpCBranch, cond)
	op.Targets = []*Block{then, els}
	return op
}

// Phi merges values; vals[i] flows in from preds[i].
func (b *Builder) Phi(vals []Value, preds []*Block) *Op {
	op := b.Emit(OpPhi, vals...)
	op.Targets = preds
	return op
}

func (b *Builder) Alloca() *Op { return b.Emit(OpAlloca) }

func (b *Builder) Load(ptr Value) *Op { return b.Emit(OpLoad, ptr) }

func (b *Builder) Store(v, ptr Value) *Op { return b.Emit(OpStore, v, ptr) }
