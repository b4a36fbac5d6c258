package aicache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
)

// MemoryStore is an instance-local TTL cache for model responses. It is a
// best-effort accelerator, never a source of truth.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore constructs a store with the given default expiry.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &MemoryStore{
		cache: gocache.New(defaultTTL, defaultTTL*2),
	}
}

// Get implements itinerary.ResponseCache.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	value, ok := s.cache.Get(key)
	if !ok {
		return "", false
	}
	text, ok := value.(string)
	return text, ok
}

// Set implements itinerary.ResponseCache.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.cache.Set(key, value, ttl)
}

var _ itinerary.ResponseCache = (*MemoryStore)(nil)
