package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"ai_orchestrator/internal/models"
)

// fakeClock is an adjustable clock for deterministic TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testProviders(n int) []models.Provider {
	providers := make([]models.Provider, n)
	for i := range providers {
		providers[i] = models.Provider{
			ID:              uuid.New(),
			ProviderType:    models.ProviderTypeOpenAI,
			EncryptedKey:    "aa:bb:cc",
			Active:          true,
			ConnectionOrder: i + 1,
		}
	}
	return providers
}

func TestProviderCache_SetGet(t *testing.T) {
	clock := newFakeClock()
	cache := NewProviderCache(10, 60*time.Second, clock.Now)

	tenantID := uuid.New()
	providers := testProviders(3)
	cache.Set(tenantID, providers)

	got, found := cache.Get(tenantID)
	if !found {
		t.Fatal("Expected cache hit")
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 providers, got %d", len(got))
	}
	if got[0].ID != providers[0].ID {
		t.Error("Cached providers do not match stored providers")
	}
}

func TestProviderCache_GetMiss(t *testing.T) {
	cache := NewProviderCache(10, 60*time.Second, nil)

	if _, found := cache.Get(uuid.New()); found {
		t.Error("Expected cache miss for unknown tenant")
	}
}

func TestProviderCache_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	cache := NewProviderCache(10, 60*time.Second, clock.Now)

	tenantID := uuid.New()
	cache.Set(tenantID, testProviders(1))

	clock.Advance(59 * time.Second)
	if _, found := cache.Get(tenantID); !found {
		t.Error("Entry expired before TTL")
	}

	clock.Advance(1 * time.Second)
	if _, found := cache.Get(tenantID); found {
		t.Error("Entry still live at exactly TTL")
	}

	// The expired entry is evicted, not just hidden
	if cache.Len() != 0 {
		t.Errorf("Expected expired entry to be removed, cache has %d entries", cache.Len())
	}
}

func TestProviderCache_SetRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewProviderCache(10, 60*time.Second, clock.Now)

	tenantID := uuid.New()
	cache.Set(tenantID, testProviders(1))

	clock.Advance(45 * time.Second)
	cache.Set(tenantID, testProviders(2))

	clock.Advance(45 * time.Second)
	got, found := cache.Get(tenantID)
	if !found {
		t.Fatal("Expected hit after refresh")
	}
	if len(got) != 2 {
		t.Errorf("Expected refreshed list of 2, got %d", len(got))
	}
}

func TestProviderCache_Invalidate(t *testing.T) {
	cache := NewProviderCache(10, 60*time.Second, nil)

	tenantID := uuid.New()
	cache.Set(tenantID, testProviders(1))
	cache.Invalidate(tenantID)

	if _, found := cache.Get(tenantID); found {
		t.Error("Expected miss after invalidation")
	}

	// Invalidating an absent tenant is a no-op
	cache.Invalidate(uuid.New())
}

func TestProviderCache_EvictsOldestInsertion(t *testing.T) {
	clock := newFakeClock()
	cache := NewProviderCache(3, time.Hour, clock.Now)

	tenants := make([]uuid.UUID, 4)
	for i := range tenants {
		tenants[i] = uuid.New()
		cache.Set(tenants[i], testProviders(1))
	}

	// Reading tenant 1 must not protect it: eviction is by insertion
	// order, not recency of use.
	if _, found := cache.Get(tenants[1]); !found {
		t.Fatal("Expected tenant 1 to be cached")
	}

	if _, found := cache.Get(tenants[0]); found {
		t.Error("Expected first-inserted tenant to be evicted")
	}
	for _, id := range tenants[1:] {
		if _, found := cache.Get(id); !found {
			t.Errorf("Expected tenant %s to survive eviction", id)
		}
	}
	if cache.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", cache.Len())
	}
}

func TestProviderCache_ReturnsCopies(t *testing.T) {
	cache := NewProviderCache(10, time.Hour, nil)

	tenantID := uuid.New()
	cache.Set(tenantID, testProviders(1))

	got, _ := cache.Get(tenantID)
	got[0].EncryptedKey = "mutated"

	again, _ := cache.Get(tenantID)
	if again[0].EncryptedKey == "mutated" {
		t.Error("Mutating the returned slice changed the cached entry")
	}
}

func TestProviderCache_Clear(t *testing.T) {
	cache := NewProviderCache(10, time.Hour, nil)

	for i := 0; i < 5; i++ {
		cache.Set(uuid.New(), testProviders(1))
	}
	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d entries", cache.Len())
	}
}

func TestProviderCache_ConcurrentAccess(t *testing.T) {
	cache := NewProviderCache(50, time.Hour, nil)

	tenants := make([]uuid.UUID, 10)
	for i := range tenants {
		tenants[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := tenants[(n+j)%len(tenants)]
				switch j % 3 {
				case 0:
					cache.Set(id, testProviders(2))
				case 1:
					cache.Get(id)
				case 2:
					cache.Invalidate(id)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestProviderCache_Stats(t *testing.T) {
	cache := NewProviderCache(7, 30*time.Second, nil)
	cache.Set(uuid.New(), testProviders(1))

	stats := cache.Stats()
	if stats.Capacity != 7 || stats.Size != 1 || stats.TTL != 30*time.Second {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func BenchmarkProviderCache_Get(b *testing.B) {
	cache := NewProviderCache(100, time.Hour, nil)
	tenantID := uuid.New()
	cache.Set(tenantID, testProviders(5))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get(tenantID)
	}
}

func ExampleProviderCache() {
	cache := NewProviderCache(100, 60*time.Second, nil)
	tenantID := uuid.MustParse("6f1e9e7e-76c5-4bba-9fd1-7f2b3c1a0d42")

	cache.Set(tenantID, []models.Provider{{ProviderType: models.ProviderTypeOpenAI}})
	providers, found := cache.Get(tenantID)
	fmt.Println(found, len(providers))
	// Output: true 1
}
