package queryclient

import (
	"context"
	"time"

	"github.com/renewkit/renewkit/pkg/cache"
)

// Store persists query snapshots as raw JSON. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the snapshot for key, reporting whether one exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a snapshot. A zero ttl means the snapshot does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete drops the snapshot for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps snapshots in a bounded in-process LRU. It is the default
// store for single-replica deployments.
type MemoryStore struct {
	lru *cache.LRU[string, []byte]
}

// NewMemoryStore creates a store holding at most capacity snapshots.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{lru: cache.NewLRU[string, []byte](capacity)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.lru.Get(key)
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.SetTTL(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.lru.Delete(key)
	return nil
}
