// Package keyed builds many independently-ticking rate limiters
// sharing one Quota, Clock and Middleware behind a single key space —
// one StateCell per key, created lazily on first use.
package keyed

import (
	"github.com/ajiwo/gcra"
)

// entry wraps the StateCell tracked per key. Its stored tat is the only
// signal a Store uses to decide whether a key is worth keeping.
type entry struct {
	cell gcra.StateCell
}

// Store is a concurrent key -> StateCell map. Eviction takes the same
// locks as Cell, so a Cell call can wait on a RetainRecent pass even
// for a different key (all keys in MutexMapStore, keys of the shard
// being swept in ShardedStore).
type Store interface {
	// Cell returns the StateCell for key, creating it on first use.
	// Concurrent first-use calls for the same key must not create more
	// than one cell for it.
	Cell(key string) *gcra.StateCell

	// Len reports the number of keys currently tracked.
	Len() int

	// IsEmpty reports whether the store currently tracks no keys.
	IsEmpty() bool

	// RetainRecent evicts every key whose cell's stored tat is at or
	// before dropBelow (see gcra.EvictionThreshold). A tat that old is
	// indistinguishable from a freshly created cell for any future
	// decision, so dropping it can never change an outcome a caller
	// would otherwise observe.
	RetainRecent(dropBelow gcra.Nanos)

	// ShrinkToFit releases any spare capacity retained by past
	// growth, e.g. after a large RetainRecent eviction.
	ShrinkToFit()
}
