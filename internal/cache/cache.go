// Package cache is a time-boxed read-through cache for expensive ledger
// reads. Entries degrade rather than disappear: a value past its TTL is kept
// as fallback for the next failed refresh, so transient RPC trouble never
// blanks a view that was recently correct.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
)

// FetchFunc loads a fresh value from the ledger.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
	ok        bool
}

// Resilient caches one value of type T with a TTL.
//
// Two callers observing a stale entry concurrently will both fetch; the
// duplicate fetch is tolerated rather than deduplicated because reads are
// idempotent and cheap relative to the TTL, and both callers converge on the
// same answer. An Invalidate racing an in-flight fetch can re-stale the
// entry for at most one TTL window.
type Resilient[T any] struct {
	name  string
	ttl   time.Duration
	fetch FetchFunc[T]
	now   func() time.Time

	mu    sync.Mutex
	entry entry[T]
}

// New creates a cache around fetch. name labels log lines and metrics.
func New[T any](name string, ttl time.Duration, fetch FetchFunc[T]) *Resilient[T] {
	return &Resilient[T]{
		name:  name,
		ttl:   ttl,
		fetch: fetch,
		now:   time.Now,
	}
}

// Get returns the cached value when fresh, otherwise refreshes it. On a
// failed refresh any previously fetched value is returned with stale=true
// instead of the error; the error only surfaces when no value was ever
// fetched.
func (c *Resilient[T]) Get(ctx context.Context) (value T, stale bool, err error) {
	c.mu.Lock()
	prior := c.entry
	if prior.ok && c.now().Sub(prior.fetchedAt) < c.ttl {
		c.mu.Unlock()
		metrics.RecordCacheRead(c.name, metrics.CacheHit)
		return prior.value, false, nil
	}
	c.mu.Unlock()

	// Fetch outside the lock; see the stampede note on the type.
	fresh, fetchErr := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if fetchErr == nil {
		c.entry = entry[T]{value: fresh, fetchedAt: c.now(), ok: true}
		metrics.RecordCacheRead(c.name, metrics.CacheRefresh)
		return fresh, false, nil
	}

	if prior.ok {
		log.Warn().
			Err(fetchErr).
			Str("resource", c.name).
			Time("fetched_at", prior.fetchedAt).
			Msg("refresh failed, serving stale value")
		metrics.RecordCacheRead(c.name, metrics.CacheStaleFallback)
		return prior.value, true, nil
	}

	metrics.RecordCacheRead(c.name, metrics.CacheMissError)
	return value, false, fetchErr
}

// Invalidate marks the entry stale by zeroing its timestamp. The value is
// kept so a failed refetch after invalidation still has a fallback.
func (c *Resilient[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry.fetchedAt = time.Time{}
}

// setClock swaps the time source, for tests.
func (c *Resilient[T]) setClock(now func() time.Time) {
	c.now = now
}
