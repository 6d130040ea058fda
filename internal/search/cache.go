package search

import (
	"sync"

	"github.com/google/uuid"
)

// Cache keeps each user's merged CSV+master candidate list. Entries never
// expire; callers invalidate them when CSV files or master data change.
type Cache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Candidate
}

func NewCache() *Cache {
	return &Cache{entries: make(map[uuid.UUID][]Candidate)}
}

func (c *Cache) Get(userID uuid.UUID) ([]Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[userID]
	return v, ok
}

func (c *Cache) Set(userID uuid.UUID, candidates []Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = candidates
}

// Invalidate drops one user's entry, e.g. after a CSV upload.
func (c *Cache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// InvalidateAll drops every entry. Master data is shared, so a master save
// affects everyone.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID][]Candidate)
}
