package diag

import (
	"cmp"
	"math"
	"slices"
)

// Bag collects the diagnostics of one unit up to a limit.
type Bag struct {
	items []Diagnostic
	limit int
}

// NewBag returns a bag holding at most limit diagnostics; a non-positive
// limit means 65535.
func NewBag(limit int) *Bag {
	if limit <= 0 || limit > math.MaxUint16 {
		limit = math.MaxUint16
	}
	return &Bag{limit: limit}
}

// Add appends d and reports false once the limit is reached.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.limit {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Force appends d past the limit, for summaries that must not be lost.
func (b *Bag) Force(d Diagnostic) {
	b.items = append(b.items, d)
	b.limit = max(b.limit, len(b.items))
}

func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

func (b *Bag) Len() int { return len(b.items) }

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Merge appends every diagnostic of other, growing the limit to fit.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		b.Force(d)
	}
}

// Sort orders by function, op, severity (errors first) and code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.Func, y.Primary.Func),
			cmp.Compare(x.Primary.Op, y.Primary.Op),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup keeps the first of each (code, location, message).
func (b *Bag) Dedup() {
	type key struct {
		code Code
		at   Location
		msg  string
	}
	seen := make(map[key]bool, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := key{d.Code, d.Primary, d.Message}
		if seen[k] {
			return true
		}
		seen[k] = true
		return false
	})
}
