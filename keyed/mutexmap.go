package keyed

import (
	"sync"

	"github.com/ajiwo/gcra"
)

// MutexMapStore is a Store backed by a single map guarded by an
// RWMutex. It favors simplicity over scalability: fine for key spaces
// with light contention, but every insert or eviction serializes
// against every other Store operation. For high key-churn or
// high-concurrency workloads, prefer ShardedStore.
type MutexMapStore struct {
	mu sync.RWMutex
	m  map[string]*entry
}

// NewMutexMapStore returns an empty MutexMapStore.
func NewMutexMapStore() *MutexMapStore {
	return &MutexMapStore{m: make(map[string]*entry)}
}

func (s *MutexMapStore) Cell(key string) *gcra.StateCell {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if ok {
		return &e.cell
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.m[key]; ok {
		return &e.cell
	}
	e = &entry{}
	s.m[key] = e
	return &e.cell
}

func (s *MutexMapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *MutexMapStore) IsEmpty() bool {
	return s.Len() == 0
}

func (s *MutexMapStore) RetainRecent(dropBelow gcra.Nanos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.m {
		if e.cell.Tat() <= dropBelow {
			delete(s.m, key)
		}
	}
}

func (s *MutexMapStore) ShrinkToFit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	shrunk := make(map[string]*entry, len(s.m))
	for k, v := range s.m {
		shrunk[k] = v
	}
	s.m = shrunk
}
