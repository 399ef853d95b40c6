package queryclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/renewkit/renewkit/pkg/async"
)

// Client coordinates cached reads over a snapshot Store. A Client owns the
// single-flight bookkeeping: concurrent cache misses for the same key share
// one fetch instead of stampeding the backend.
type Client struct {
	store Store
	ttl   time.Duration

	mu       sync.Mutex
	inflight map[string]*async.Future[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithTTL sets the expiry applied to every stored snapshot. The default of
// zero keeps snapshots until they are invalidated or evicted.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// New creates a Client over the given store. Panics on a nil store to fail
// fast during initialization.
func New(store Store, opts ...Option) *Client {
	if store == nil {
		panic("queryclient: store is required")
	}
	c := &Client{
		store:    store,
		inflight: make(map[string]*async.Future[[]byte]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed stores a value under key without going through a fetch. It is meant
// for one-time startup seeding of values the server already knows, such as
// a pending purchase id handed over from checkout.
func (c *Client) Seed(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	return c.store.Set(ctx, key, raw, c.ttl)
}

// Invalidate drops the snapshot for key so the next read refetches.
func (c *Client) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// fetchOnce runs fn for key unless a fetch for the same key is already in
// flight, in which case the caller waits for that flight's outcome. fn is
// responsible for storing its own result.
//
// The flight is shared by every waiter, so it must not die with the caller
// that happened to start it: it runs detached from that caller's
// cancellation, and the fetch function has to bound its own time (the
// contracts client does, via its HTTP timeout).
func (c *Client) fetchOnce(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	if flight, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return flight.Await()
	}
	flight := async.Go(context.WithoutCancel(ctx), fn)
	c.inflight[key] = flight
	c.mu.Unlock()

	raw, err := flight.Await()

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()

	return raw, err
}
