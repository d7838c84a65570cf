package keyed

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/ajiwo/gcra"
)

type shard struct {
	mu sync.RWMutex
	m  map[string]*entry
}

// ShardedStore is a Store split across a fixed number of independently
// locked shards, keyed by a hash of the key. Under concurrent access
// from many goroutines touching different keys, contention is spread
// across shards instead of serializing on one lock, at the cost of
// Len/RetainRecent/ShrinkToFit needing to visit every shard.
type ShardedStore struct {
	shards []*shard
	mask   uint64
	hash   func(string) uint64
}

// ShardedStoreOption configures a ShardedStore at construction time.
type ShardedStoreOption func(*ShardedStore)

// WithMapHasher overrides the hash function used to pick a key's
// shard. The default is xxhash.Sum64String, a fast, well-distributed
// string hash.
func WithMapHasher(hash func(string) uint64) ShardedStoreOption {
	return func(s *ShardedStore) {
		s.hash = hash
	}
}

// NewShardedStore returns a ShardedStore with numShards shards, rounded
// up to the next power of two (minimum 1).
func NewShardedStore(numShards int, opts ...ShardedStoreOption) *ShardedStore {
	n := nextPowerOfTwo(numShards)
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{m: make(map[string]*entry)}
	}
	s := &ShardedStore{
		shards: shards,
		mask:   uint64(n - 1),
		hash:   xxhash.Sum64String,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (s *ShardedStore) shardFor(key string) *shard {
	return s.shards[s.hash(key)&s.mask]
}

func (s *ShardedStore) Cell(key string) *gcra.StateCell {
	sh := s.shardFor(key)

	sh.mu.RLock()
	e, ok := sh.m[key]
	sh.mu.RUnlock()
	if ok {
		return &e.cell
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.m[key]; ok {
		return &e.cell
	}
	e = &entry{}
	sh.m[key] = e
	return &e.cell
}

func (s *ShardedStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.m)
		sh.mu.RUnlock()
	}
	return total
}

func (s *ShardedStore) IsEmpty() bool {
	for _, sh := range s.shards {
		sh.mu.RLock()
		empty := len(sh.m) == 0
		sh.mu.RUnlock()
		if !empty {
			return false
		}
	}
	return true
}

func (s *ShardedStore) RetainRecent(dropBelow gcra.Nanos) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.m {
			if e.cell.Tat() <= dropBelow {
				delete(sh.m, key)
			}
		}
		sh.mu.Unlock()
	}
}

func (s *ShardedStore) ShrinkToFit() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		shrunk := make(map[string]*entry, len(sh.m))
		for k, v := range sh.m {
			shrunk[k] = v
		}
		sh.m = shrunk
		sh.mu.Unlock()
	}
}
