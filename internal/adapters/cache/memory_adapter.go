package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/agrisense/backend/internal/domain/providers"
)

const (
	// DefaultMemoryCacheSize bounds the number of keys held in process.
	DefaultMemoryCacheSize = 10000
	// memoryCacheMaxTTL is the longest any entry survives, including entries
	// stored without an expiration.
	memoryCacheMaxTTL = 24 * time.Hour
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is a process-local CacheProvider used when Redis is disabled.
// Least recently used keys are evicted once the size limit is reached.
type MemoryAdapter struct {
	items *expirable.LRU[string, memoryItem]
	now   func() time.Time
}

// NewMemoryAdapter creates an empty in-process cache of DefaultMemoryCacheSize keys.
func NewMemoryAdapter() *MemoryAdapter {
	return NewMemoryAdapterWithSize(DefaultMemoryCacheSize)
}

// NewMemoryAdapterWithSize creates an empty in-process cache holding at most size keys.
func NewMemoryAdapterWithSize(size int) *MemoryAdapter {
	return &MemoryAdapter{
		items: expirable.NewLRU[string, memoryItem](size, nil, memoryCacheMaxTTL),
		now:   time.Now,
	}
}

// lookup returns the live item for key, dropping it if its own TTL passed.
func (a *MemoryAdapter) lookup(key string) (memoryItem, bool) {
	item, ok := a.items.Get(key)
	if !ok {
		return memoryItem{}, false
	}
	if !item.expiresAt.IsZero() && !a.now().Before(item.expiresAt) {
		a.items.Remove(key)
		return memoryItem{}, false
	}
	return item, true
}

// Get retrieves a value; absent or expired keys wrap providers.ErrCacheMiss.
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	item, ok := a.lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a copy of value.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	item := memoryItem{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		item.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.items.Add(key, item)
	return nil
}

// Delete removes key.
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.items.Remove(key)
	return nil
}

// Exists reports whether key holds a live value.
func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.lookup(key)
	return ok, nil
}

// Len returns the number of keys currently held, live or not yet purged.
func (a *MemoryAdapter) Len() int {
	return a.items.Len()
}
