// Package layout computes target-specific sizes, alignments and field
// offsets of representations.
package layout

import (
	"flyc/internal/repr"
)

// TypeLayout is the ABI layout of a representation for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int
}

// LayoutEngine computes memory layout for representations.
type LayoutEngine struct {
	Target Target

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		cache:  newCache(),
	}
}

// LayoutOf computes and caches the layout of r. Representations never
// contain a struct inside itself by value, so recursion always ends at a
// pointer.
func (e *LayoutEngine) LayoutOf(r *repr.Repr) (TypeLayout, error) {
	if e == nil || r == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	if cached, ok := e.cache.get(r); ok {
		return cached, nil
	}
	l, err := e.computeLayout(r)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	e.cache.put(r, &l)
	return l, nil
}

// SizeOf returns the size of r in bytes.
func (e *LayoutEngine) SizeOf(r *repr.Repr) (int, error) {
	l, err := e.LayoutOf(r)
	return l.Size, err
}

// AlignOf returns the alignment requirement of r in bytes.
func (e *LayoutEngine) AlignOf(r *repr.Repr) (int, error) {
	l, err := e.LayoutOf(r)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *LayoutEngine) FieldOffset(r *repr.Repr, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(r)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, &LayoutError{Kind: LayoutErrFieldIndex, Repr: r.String(), Value: int64(fieldIdx)}
	}
	return l.FieldOffsets[fieldIdx], nil
}
