package aicache

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
)

// ValkeyStore caches model responses in a Valkey-compatible database so
// multiple instances share the same cache.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "aicache"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get implements itinerary.ResponseCache. Lookup failures read as misses.
func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool) {
	cmd := s.client.B().Get().Key(s.key(key)).Build()
	value, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		return "", false
	}
	return value, true
}

// Set implements itinerary.ResponseCache. Write failures are dropped; the
// cache is advisory.
func (s *ValkeyStore) Set(ctx context.Context, key, value string, ttl time.Duration) {
	builder := s.client.B().Set().Key(s.key(key)).Value(value)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	_ = s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) key(key string) string {
	return s.prefix + ":" + key
}

var _ itinerary.ResponseCache = (*ValkeyStore)(nil)
