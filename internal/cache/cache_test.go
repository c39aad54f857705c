package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls int
	value int
	err   error
}

func (f *fakeSource) fetch(context.Context) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.value, nil
}

func newTestCache(src *fakeSource, ttl time.Duration) (*Resilient[int], *time.Time) {
	c := New("test", ttl, src.fetch)
	now := time.Unix(1_700_000_000, 0)
	c.setClock(func() time.Time { return now })
	return c, &now
}

func TestGet_FreshWithinTTLSkipsRemote(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{value: 7}
	c, now := newTestCache(src, 10*time.Second)

	v, stale, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.False(t, stale)
	assert.Equal(t, 1, src.calls)

	// Within TTL: zero additional remote fetches.
	*now = now.Add(9 * time.Second)
	v, stale, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.False(t, stale)
	assert.Equal(t, 1, src.calls)

	// Past TTL: refetch.
	src.value = 8
	*now = now.Add(2 * time.Second)
	v, _, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, v)
	assert.Equal(t, 2, src.calls)
}

func TestGet_FailureFallsBackToPriorValue(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{value: 7}
	c, now := newTestCache(src, 10*time.Second)

	_, _, err := c.Get(ctx)
	require.NoError(t, err)

	src.err = errors.New("rpc: rate limited")
	*now = now.Add(time.Minute)

	v, stale, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.True(t, stale)
	assert.Equal(t, 2, src.calls)
}

func TestGet_FailureWithNoPriorValuePropagates(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{err: errors.New("rpc: connection refused")}
	c, _ := newTestCache(src, 10*time.Second)

	_, _, err := c.Get(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestInvalidate_ForcesRefetchButKeepsFallback(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{value: 7}
	c, _ := newTestCache(src, time.Hour)

	_, _, err := c.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)

	// Invalidation bypasses the (long) TTL on the next read.
	src.value = 9
	c.Invalidate()
	v, stale, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.False(t, stale)
	assert.Equal(t, 2, src.calls)

	// Invalidation followed by a failed refetch still serves the last good
	// value: the entry is re-staled, not deleted.
	c.Invalidate()
	src.err = errors.New("rpc: timeout")
	v, stale, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.True(t, stale)
}
