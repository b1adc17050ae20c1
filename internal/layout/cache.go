package layout

import "ember/internal/types"

type entry struct {
	layout TypeLayout
	err    *Error
}

type cache struct {
	byType map[types.TypeID]entry
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]entry, 256)}
}

func (c *cache) get(id types.TypeID) (entry, bool) {
	l, ok := c.byType[id]
	return l, ok
}

func (c *cache) put(id types.TypeID, e entry) {
	c.byType[id] = e
}
