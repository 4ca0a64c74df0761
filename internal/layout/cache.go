package layout

import "flyc/internal/repr"

type cache struct {
	byRepr map[*repr.Repr]TypeLayout
}

func newCache() *cache {
	return &cache{byRepr: make(map[*repr.Repr]TypeLayout, 64)}
}

func (c *cache) get(r *repr.Repr) (TypeLayout, bool) {
	if c == nil {
		return TypeLayout{}, false
	}
	l, ok := c.byRepr[r]
	return l, ok
}

func (c *cache) put(r *repr.Repr, l *TypeLayout) {
	if c == nil {
		return
	}
	if l == nil {
		delete(c.byRepr, r)
		return
	}
	c.byRepr[r] = *l
}
