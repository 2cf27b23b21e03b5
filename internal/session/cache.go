package session

import (
	"sync"

	"github.com/frahmantamala/lead-management/internal/core/principal"
)

// Cache holds the per-session resolved access context. Entries are written
// once at login, dropped when a grant edit invalidates the principal, and
// recomputed lazily on the next request. Stale-until-next-request is the
// deliberate consistency model; there is no push invalidation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*principal.AccessContext
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*principal.AccessContext)}
}

func (c *Cache) Get(sessionID string) (*principal.AccessContext, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	access, ok := c.entries[sessionID]
	return access, ok
}

func (c *Cache) Put(sessionID string, access *principal.AccessContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sessionID] = access
}

func (c *Cache) Drop(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}

// InvalidatePrincipal drops every cached session for one principal. Called
// by the permission and department services after a bulk grant replace.
func (c *Cache) InvalidatePrincipal(principalID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, access := range c.entries {
		if access.Principal != nil && access.Principal.ID == principalID {
			delete(c.entries, id)
		}
	}
}
