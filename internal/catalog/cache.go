package catalog

import (
	"fmt"
	"sync"
)

// Entity is an immutable snapshot of a catalog row (color or size) as the
// upstream API returns it. Snapshots are replaced wholesale on fresh fetches,
// never mutated in place.
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
	Code string `json:"codigo,omitempty"`
}

// Cache keeps every color/size entity a session has ever seen, keyed by id.
// Once an entity is selected its label must stay renderable even after the
// paginated search results have moved on, so entries are never evicted for
// the life of the process.
type Cache struct {
	mu     sync.RWMutex
	colors map[int64]Entity
	sizes  map[int64]Entity
}

func NewCache() *Cache {
	return &Cache{
		colors: make(map[int64]Entity),
		sizes:  make(map[int64]Entity),
	}
}

// MergeColors folds freshly fetched colors into the cache. Previously cached
// ids that are no longer in view are kept untouched.
func (c *Cache) MergeColors(items []Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		c.colors[it.ID] = it
	}
}

func (c *Cache) MergeSizes(items []Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		c.sizes[it.ID] = it
	}
}

func (c *Cache) Color(id int64) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.colors[id]
	return e, ok
}

func (c *Cache) Size(id int64) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.sizes[id]
	return e, ok
}

// ColorRef resolves an id to a renderable snapshot. Ids the cache has never
// seen (a selection can legally reference them) get a placeholder label until
// a later merge resolves the real one.
func (c *Cache) ColorRef(id int64) Entity {
	if e, ok := c.Color(id); ok {
		return e
	}
	return Entity{ID: id, Name: fmt.Sprintf("Color #%d", id)}
}

func (c *Cache) SizeRef(id int64) Entity {
	if e, ok := c.Size(id); ok {
		return e
	}
	return Entity{ID: id, Name: fmt.Sprintf("Talla #%d", id)}
}
