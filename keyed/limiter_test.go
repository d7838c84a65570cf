package keyed

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajiwo/gcra"
)

func newTestQuota(t *testing.T, burst uint64) gcra.Quota {
	t.Helper()
	q, err := gcra.PerSecond(burst)
	require.NoError(t, err)
	return q
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clock := gcra.NewVirtualClock()
		l := NewLimiter(newTestQuota(t, 2), gcra.NoOpMiddleware{}, WithClock(clock))

		_, err := l.Check("alice")
		require.NoError(t, err)
		_, err = l.Check("alice")
		require.NoError(t, err)
		_, err = l.Check("alice")
		require.Error(t, err, "alice's burst is exhausted")

		_, err = l.Check("bob")
		require.NoError(t, err, "bob's state is independent of alice's")
	})
}

func TestLimiter_DefaultsToMutexMapStore(t *testing.T) {
	l := NewLimiter(newTestQuota(t, 1), gcra.NoOpMiddleware{})
	assert.IsType(t, &MutexMapStore{}, l.store)
	assert.True(t, l.IsEmpty())
	_, err := l.Check("x")
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_ShardedStoreBehavesLikeMutexMapStore(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clock := gcra.NewVirtualClock()
		l := NewLimiter(newTestQuota(t, 3), gcra.NoOpMiddleware{},
			WithStore(NewShardedStore(16)), WithClock(clock))

		for i := range 3 {
			_, err := l.Check("shared-key")
			require.NoError(t, err, "cell %d", i)
		}
		_, err := l.Check("shared-key")
		require.Error(t, err)
	})
}

// TestLimiter_RetainRecentDropsOnlyIndistinguishableFromFresh exercises
// spec.md §8's retain-recent scenario: keys are checked at staggered
// offsets, and RetainRecent must only evict a key once its stored tat
// is old enough that reconstructing it fresh could never admit a
// request the un-evicted state would have denied.
func TestLimiter_RetainRecentDropsOnlyIndistinguishableFromFresh(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clock := gcra.NewVirtualClock()
		l := NewLimiter(newTestQuota(t, 1), gcra.NoOpMiddleware{}, WithClock(clock))

		_, err := l.Check("foo")
		require.NoError(t, err)

		clock.Advance(200 * time.Millisecond)
		_, err = l.Check("bar")
		require.NoError(t, err)

		clock.Advance(600 * time.Millisecond)
		_, err = l.Check("baz")
		require.NoError(t, err)

		clock.Advance(1200 * time.Millisecond)
		l.RetainRecent()
		assert.Equal(t, 2, l.Len())
		assert.True(t, keyTracked(l, "bar"))
		assert.True(t, keyTracked(l, "baz"))
		assert.False(t, keyTracked(l, "foo"))

		clock.Advance(200 * time.Millisecond)
		l.RetainRecent()
		assert.Equal(t, 1, l.Len())
		assert.True(t, keyTracked(l, "baz"))

		clock.Advance(600 * time.Millisecond)
		l.RetainRecent()
		assert.True(t, l.IsEmpty())
	})
}

// keyTracked reports whether key still has an entry in l's underlying
// MutexMapStore, without creating one as Store.Cell would.
func keyTracked(l *Limiter[struct{}], key string) bool {
	store := l.store.(*MutexMapStore)
	store.mu.RLock()
	defer store.mu.RUnlock()
	_, ok := store.m[key]
	return ok
}

func TestLimiter_Reset(t *testing.T) {
	l := NewLimiter(newTestQuota(t, 1), gcra.NoOpMiddleware{})

	_, err := l.Check("k")
	require.NoError(t, err)
	_, err = l.Check("k")
	require.Error(t, err)

	l.Reset("k")
	_, err = l.Check("k")
	require.NoError(t, err)
}

func TestCoalescingStore_DeduplicatesConcurrentFirstTouch(t *testing.T) {
	inner := NewMutexMapStore()
	cs := NewCoalescingStore(inner)

	done := make(chan *gcra.StateCell, 2)
	go func() { done <- cs.Cell("k") }()
	go func() { done <- cs.Cell("k") }()

	first := <-done
	second := <-done
	assert.Same(t, first, second)
	assert.Equal(t, 1, inner.Len())
}
