package ir

import (
	"errors"
	"fmt"

	"flyc/internal/types"
)

// Validate checks structural invariants of f and, when ctx is non-nil,
// that every live value-producing op and every parameter carries exactly
// one concrete type.
func Validate(f *Func, ctx *Context, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}
	var errs []error
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateOperands(f); err != nil {
		errs = append(errs, err)
	}
	if ctx != nil {
		if err := validateTypes(f, ctx, typesIn); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("function %s: %w", f.Name, err)
	}
	return nil
}

// validateBlocksTerminated checks that every block ends with exactly one
// terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	for _, b := range f.Blocks {
		if b.Terminator() == nil {
			errs = append(errs, fmt.Errorf("%s: unterminated block", b.Name))
			continue
		}
		for _, op := range b.Ops[:len(b.Ops)-1] {
			if op.Opcode.IsTerminator() {
				errs = append(errs, fmt.Errorf("%s: %s before end of block", b.Name, op.Opcode))
			}
		}
	}
	return errors.Join(errs...)
}

func validateTargets(f *Func) error {
	owned := make(map[*Block]struct{}, len(f.Blocks))
	for _, b := range f.Blocks {
		owned[b] = struct{}{}
	}
	var errs []error
	for _, b := range f.Blocks {
		for _, op := range b.Ops {
			for _, t := range op.Targets {
				if _, ok := owned[t]; !ok {
					errs = append(errs, fmt.Errorf("%s: %s targets a foreign block", b.Name, op))
				}
			}
			switch op.Opcode {
			case OpJump:
				if len(op.Targets) != 1 {
					errs = append(errs, fmt.Errorf("%s: jump needs one target", b.Name))
				}
			case OpCBranch:
				if len(op.Targets) != 2 || len(op.Args) != 1 {
					errs = append(errs, fmt.Errorf("%s: cbranch needs a condition and two targets", b.Name))
				}
			case OpConvert:
				if len(op.Args) != 1 {
					errs = append(errs, fmt.Errorf("%s: convert %s needs one operand", b.Name, op))
				}
			case OpPhi:
				if len(op.Targets) != len(op.Args) {
					errs = append(errs, fmt.Errorf("%s: phi %s has %d values for %d predecessors", b.Name, op, len(op.Args), len(op.Targets)))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// validateOperands checks that operands refer to live ops and own params.
func validateOperands(f *Func) error {
	params := make(map[*Arg]struct{}, len(f.Params))
	for _, p := range f.Params {
		params[p] = struct{}{}
	}
	var errs []error
	for _, b := range f.Blocks {
		for _, op := range b.Ops {
			for i, a := range op.Args {
				switch v := a.(type) {
				case nil:
					errs = append(errs, fmt.Errorf("%s: %s operand %d is nil", b.Name, op, i))
				case *Op:
					if v.block == nil || v.block.fn != f {
						errs = append(errs, fmt.Errorf("%s: %s uses dead value %s", b.Name, op, v))
					}
				case *Arg:
					if _, ok := params[v]; !ok {
						errs = append(errs, fmt.Errorf("%s: %s uses foreign parameter %s", b.Name, op, v))
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

func validateTypes(f *Func, ctx *Context, typesIn *types.Interner) error {
	var errs []error
	check := func(where string, v Value) {
		t, ok := ctx.Get(v)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %s has no type", where, v))
			return
		}
		if typesIn != nil && !typesIn.IsConcrete(t) {
			errs = append(errs, fmt.Errorf("%s: %s has non-concrete type %s", where, v, typesIn.String(t)))
		}
	}
	for _, p := range f.Params {
		check("params", p)
	}
	for _, b := range f.Blocks {
		for _, op := range b.Ops {
			if op.Opcode.HasResult() {
				check(b.Name, op)
			}
		}
	}
	return errors.Join(errs...)
}
