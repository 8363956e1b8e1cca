package storage

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai_orchestrator/internal/models"
)

// ProviderCache is a thread-safe, tenant-scoped cache for provider lists.
//
// The TTL keeps provider changes near-real-time while absorbing bursts of
// requests from the same tenant. Eviction beyond capacity removes the entry
// that was inserted first, not the least recently used one — reads do not
// reorder entries. The settings-update path must call Invalidate so
// correctness does not depend on TTL expiry alone.
type ProviderCache struct {
	mu            sync.RWMutex
	capacity      int
	ttl           time.Duration
	now           func() time.Time
	items         map[uuid.UUID]*list.Element
	insertionList *list.List
}

type providerCacheEntry struct {
	tenantID  uuid.UUID
	providers []models.Provider
	fetchedAt time.Time
}

// NewProviderCache creates a provider cache. A nil clock defaults to
// time.Now; tests inject their own to make TTL behavior deterministic.
func NewProviderCache(capacity int, ttl time.Duration, clock func() time.Time) *ProviderCache {
	if clock == nil {
		clock = time.Now
	}
	return &ProviderCache{
		capacity:      capacity,
		ttl:           ttl,
		now:           clock,
		items:         make(map[uuid.UUID]*list.Element, capacity),
		insertionList: list.New(),
	}
}

// Get retrieves the cached provider list for a tenant. The returned slice
// is a copy; callers cannot mutate the cached entry through it.
func (c *ProviderCache) Get(tenantID uuid.UUID) ([]models.Provider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, found := c.items[tenantID]
	if !found {
		return nil, false
	}

	entry := elem.Value.(*providerCacheEntry)
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		c.removeElement(elem)
		return nil, false
	}

	out := make([]models.Provider, len(entry.providers))
	copy(out, entry.providers)
	return out, true
}

// Set stores the provider list for a tenant, refreshing the fetch
// timestamp. Inserting past capacity evicts the oldest entry by insertion
// order.
func (c *ProviderCache) Set(tenantID uuid.UUID, providers []models.Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]models.Provider, len(providers))
	copy(stored, providers)

	if elem, found := c.items[tenantID]; found {
		entry := elem.Value.(*providerCacheEntry)
		entry.providers = stored
		entry.fetchedAt = c.now()
		return
	}

	elem := c.insertionList.PushFront(&providerCacheEntry{
		tenantID:  tenantID,
		providers: stored,
		fetchedAt: c.now(),
	})
	c.items[tenantID] = elem

	if c.insertionList.Len() > c.capacity {
		if oldest := c.insertionList.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Invalidate removes a tenant's entry. Called by the settings-update path
// whenever a provider is added, edited or removed.
func (c *ProviderCache) Invalidate(tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.items[tenantID]; found {
		c.removeElement(elem)
	}
}

// Clear removes all entries.
func (c *ProviderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[uuid.UUID]*list.Element, c.capacity)
	c.insertionList.Init()
}

// Len returns the current number of cached tenants.
func (c *ProviderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.insertionList.Len()
}

func (c *ProviderCache) removeElement(elem *list.Element) {
	c.insertionList.Remove(elem)
	entry := elem.Value.(*providerCacheEntry)
	delete(c.items, entry.tenantID)
}

// ProviderCacheStats reports cache configuration and occupancy.
type ProviderCacheStats struct {
	Capacity int
	Size     int
	TTL      time.Duration
}

// Stats returns current cache statistics.
func (c *ProviderCache) Stats() ProviderCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ProviderCacheStats{
		Capacity: c.capacity,
		Size:     c.insertionList.Len(),
		TTL:      c.ttl,
	}
}
