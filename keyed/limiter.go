package keyed

import (
	"github.com/ajiwo/gcra"
)

// Limiter enforces one Quota independently per key, backed by a Store
// of per-key StateCells. All keys share the same Clock and Middleware;
// only the accumulated state differs between keys.
type Limiter[P any] struct {
	quota gcra.Quota
	store Store
	clock gcra.Clock
	mw    gcra.Middleware[P]
}

// Config configures a Limiter at construction time.
type Config struct {
	Store Store
	Clock gcra.Clock
}

// Option configures a Limiter at construction time.
type Option func(*Config)

// WithStore overrides the Store backing the limiter. The default is a
// MutexMapStore; pass a ShardedStore for higher-concurrency key spaces.
func WithStore(store Store) Option {
	return func(c *Config) {
		c.Store = store
	}
}

// WithClock overrides the Clock every key's decisions read from.
func WithClock(clock gcra.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// NewLimiter builds a Limiter enforcing q independently per key,
// handing positive decisions to mw.
func NewLimiter[P any](q gcra.Quota, mw gcra.Middleware[P], opts ...Option) *Limiter[P] {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Store == nil {
		cfg.Store = NewMutexMapStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = gcra.NewRealClock()
	}
	return &Limiter[P]{
		quota: q,
		store: cfg.Store,
		clock: cfg.Clock,
		mw:    mw,
	}
}

// Check admits a single cell for key if the quota currently allows it.
func (l *Limiter[P]) Check(key string) (P, error) {
	return gcra.Check(l.store.Cell(key), l.quota, l.clock, l.mw)
}

// CheckOnly reports what Check would do for key without mutating state.
func (l *Limiter[P]) CheckOnly(key string) (P, error) {
	return gcra.CheckOnly(l.store.Cell(key), l.quota, l.clock, l.mw)
}

// CheckN admits a batch of n cells for key atomically.
func (l *Limiter[P]) CheckN(key string, n uint64) (P, error) {
	return gcra.CheckN(l.store.Cell(key), l.quota, l.clock, l.mw, n)
}

// CheckNOnly reports what CheckN would do for key without mutating state.
func (l *Limiter[P]) CheckNOnly(key string, n uint64) (P, error) {
	return gcra.CheckNOnly(l.store.Cell(key), l.quota, l.clock, l.mw, n)
}

// CheckAnyN admits as many of up to n cells for key as currently fit.
func (l *Limiter[P]) CheckAnyN(key string, n uint64) (uint64, P, error) {
	return gcra.CheckAnyN(l.store.Cell(key), l.quota, l.clock, l.mw, n)
}

// CheckAnyNOnly reports what CheckAnyN would do without mutating state.
func (l *Limiter[P]) CheckAnyNOnly(key string, n uint64) (uint64, P, error) {
	return gcra.CheckAnyNOnly(l.store.Cell(key), l.quota, l.clock, l.mw, n)
}

// Quota returns the quota this limiter enforces.
func (l *Limiter[P]) Quota() gcra.Quota {
	return l.quota
}

// Reset clears key back to a fresh state.
func (l *Limiter[P]) Reset(key string) {
	l.store.Cell(key).Reset()
}

// Len reports the number of keys currently tracked.
func (l *Limiter[P]) Len() int {
	return l.store.Len()
}

// IsEmpty reports whether the limiter currently tracks no keys.
func (l *Limiter[P]) IsEmpty() bool {
	return l.store.IsEmpty()
}

// RetainRecent evicts every key whose stored tat is old enough to be
// indistinguishable from a freshly created cell, bounding memory growth
// for unbounded key spaces (e.g. keys derived from client IPs) without
// ever evicting a key whose accumulated burst state would change a
// future decision. The drop threshold is derived from the limiter's own
// Clock and Quota, so it advances in step with whatever time source the
// limiter's decisions use, including a VirtualClock under test.
func (l *Limiter[P]) RetainRecent() {
	l.store.RetainRecent(gcra.EvictionThreshold(l.clock, l.quota))
}

// ShrinkToFit releases spare map/shard capacity retained by past
// growth, typically called after a RetainRecent eviction removes a
// large fraction of tracked keys.
func (l *Limiter[P]) ShrinkToFit() {
	l.store.ShrinkToFit()
}
