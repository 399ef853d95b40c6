package queryclient

import (
	"context"
	"encoding/json"
	"errors"
)

// Query binds a cache key to the fetch function that can produce its value.
// The type parameter fixes the snapshot's shape; snapshots round-trip
// through JSON, so T must marshal cleanly.
type Query[T any] struct {
	client *Client
	key    string
	fetch  func(context.Context) (T, error)
}

// NewQuery declares a query. The fetch function is only invoked on cache
// misses.
func NewQuery[T any](client *Client, key string, fetch func(context.Context) (T, error)) *Query[T] {
	if client == nil {
		panic("queryclient: client is required")
	}
	if fetch == nil {
		panic("queryclient: fetch function is required")
	}
	return &Query[T]{client: client, key: key, fetch: fetch}
}

// Key returns the cache key the query reads and writes.
func (q *Query[T]) Key() string { return q.key }

// Get returns the cached snapshot, fetching it first if none exists.
// Concurrent callers hitting a miss share a single fetch.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	var zero T

	if v, ok, err := q.Cached(ctx); err != nil || ok {
		return v, err
	}

	raw, err := q.client.fetchOnce(ctx, q.key, func(ctx context.Context) ([]byte, error) {
		v, err := q.fetch(ctx)
		if err != nil {
			return nil, errors.Join(ErrFetch, err)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Join(ErrEncode, err)
		}
		if err := q.client.store.Set(ctx, q.key, raw, q.client.ttl); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, errors.Join(ErrDecode, err)
	}
	return v, nil
}

// Cached returns the current snapshot without triggering a fetch. The
// boolean reports whether a snapshot exists.
func (q *Query[T]) Cached(ctx context.Context) (T, bool, error) {
	var zero T

	raw, ok, err := q.client.store.Get(ctx, q.key)
	if err != nil {
		return zero, false, errors.Join(ErrStore, err)
	}
	if !ok {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, errors.Join(ErrDecode, err)
	}
	return v, true, nil
}

// Invalidate drops the query's snapshot so the next Get refetches.
func (q *Query[T]) Invalidate(ctx context.Context) error {
	return q.client.Invalidate(ctx, q.key)
}
