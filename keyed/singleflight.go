package keyed

import (
	"golang.org/x/sync/singleflight"

	"github.com/ajiwo/gcra"
)

// CoalescingStore wraps a Store so that concurrent first-touch Cell
// calls for the same key collapse into a single call to the
// underlying Store, with every caller observing the same cell. The
// built-in Stores (MutexMapStore, ShardedStore) already guarantee this
// on their own via double-checked locking, so wrapping them buys
// nothing; CoalescingStore exists for Store implementations whose
// Cell method is not itself cheap or safe to race (for example, one
// backed by an external lookup), where collapsing duplicate
// first-touch work is worth a singleflight.Group.
type CoalescingStore struct {
	inner Store
	group singleflight.Group
}

// NewCoalescingStore wraps inner with first-touch call coalescing.
func NewCoalescingStore(inner Store) *CoalescingStore {
	return &CoalescingStore{inner: inner}
}

func (s *CoalescingStore) Cell(key string) *gcra.StateCell {
	v, _, _ := s.group.Do(key, func() (any, error) {
		return s.inner.Cell(key), nil
	})
	return v.(*gcra.StateCell)
}

func (s *CoalescingStore) Len() int      { return s.inner.Len() }
func (s *CoalescingStore) IsEmpty() bool { return s.inner.IsEmpty() }
func (s *CoalescingStore) ShrinkToFit()  { s.inner.ShrinkToFit() }

func (s *CoalescingStore) RetainRecent(dropBelow gcra.Nanos) {
	s.inner.RetainRecent(dropBelow)
}
