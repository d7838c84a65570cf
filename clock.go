package gcra

import (
	"sync"
	"sync/atomic"
	"time"
)

// Instant is a single point in time as read from a Clock, expressed as
// Nanos since whatever reference point that Clock uses. Instants from
// different Clock implementations (or different instances of the same
// kind) are not comparable to each other.
type Instant struct {
	nanos Nanos
}

// Add returns the Instant n nanoseconds after i.
func (i Instant) Add(n Nanos) Instant {
	return Instant{nanos: i.nanos.Add(n)}
}

// SaturatingSub returns the Instant n nanoseconds before i, never going
// earlier than the zero Instant.
func (i Instant) SaturatingSub(n Nanos) Instant {
	return Instant{nanos: i.nanos.Sub(n)}
}

// DurationSince returns the (saturating, non-negative) Nanos elapsed
// between earlier and i. If earlier is actually after i, the result is
// zero rather than negative.
func (i Instant) DurationSince(earlier Instant) Nanos {
	return i.nanos.Sub(earlier.nanos)
}

// Nanos returns the raw reading backing this Instant.
func (i Instant) Nanos() Nanos {
	return i.nanos
}

// Clock produces monotonically-useful time readings for the GCRA
// engine. Reading Now must be cheap and safe to call concurrently from
// any number of goroutines without locking.
type Clock interface {
	Now() Instant
}

// RealClock wraps the platform's monotonic timer (time.Now(), relying
// on the runtime's monotonic reading). It is the default clock for
// production use.
type RealClock struct {
	start time.Time
}

// NewRealClock returns a RealClock whose epoch is the moment of
// construction; all later readings are nanoseconds elapsed since then.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

func (c *RealClock) Now() Instant {
	n, _ := FromDuration(time.Since(c.start))
	return Instant{nanos: n}
}

// WallClock wraps wall-clock time instead of the monotonic reading.
// Unlike RealClock it is subject to backward jumps (NTP step, operator
// clock change); DurationSince still saturates to zero in that case,
// it just means a backward jump can make two readings collapse to the
// same elapsed duration instead of producing a negative one.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	// Round(0) strips the monotonic reading, so time.Since measures
	// wall-clock time.
	return &WallClock{start: time.Now().Round(0)}
}

func (c *WallClock) Now() Instant {
	d := time.Since(c.start)
	if d < 0 {
		d = 0
	}
	n, _ := FromDuration(d)
	return Instant{nanos: n}
}

// VirtualClock is a clock whose reading is advanced explicitly by test
// code rather than tracking real time. All clones (copies of the
// VirtualClock value) share the same underlying counter, since the
// counter lives behind a pointer.
type VirtualClock struct {
	nanos *atomic.Uint64
}

// NewVirtualClock returns a VirtualClock starting at zero.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{nanos: new(atomic.Uint64)}
}

func (c *VirtualClock) Now() Instant {
	return Instant{nanos: Nanos(c.nanos.Load())}
}

// Advance moves the clock forward by d. Negative advances are ignored.
func (c *VirtualClock) Advance(d time.Duration) {
	n, ok := FromDuration(d)
	if !ok {
		return
	}
	c.nanos.Add(uint64(n))
}

// upkeepClockState is the state shared by every copy of an UpkeepClock:
// one background goroutine reads a real clock on an interval and
// publishes the reading to an atomic cache, so concurrent readers never
// contend on anything beyond a single atomic load. It keeps no count of
// live handles; the goroutine runs until the first Close.
type upkeepClockState struct {
	source   Clock
	cached   atomic.Uint64
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// UpkeepClock caches a source Clock's reading, refreshed by a single
// background goroutine on a fixed interval. Readers pay only for an
// atomic load; staleness is bounded by the configured interval. The
// background goroutine is spawned when the first handle is built and
// stopped when Close is called on any handle sharing that state.
type UpkeepClock struct {
	state *upkeepClockState
}

// NewUpkeepClock builds an UpkeepClock sourcing readings from source
// every interval. The background refresh goroutine starts immediately.
func NewUpkeepClock(source Clock, interval time.Duration) *UpkeepClock {
	st := &upkeepClockState{
		source:   source,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	st.cached.Store(uint64(source.Now().nanos))

	go st.run()

	return &UpkeepClock{state: st}
}

func (s *upkeepClockState) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cached.Store(uint64(s.source.Now().nanos))
		}
	}
}

func (c *UpkeepClock) Now() Instant {
	return Instant{nanos: Nanos(c.state.cached.Load())}
}

// Close stops the background refresh goroutine. It is safe to call
// multiple times and from multiple clones; the goroutine stops once the
// first Close call arrives.
func (c *UpkeepClock) Close() {
	c.state.once.Do(func() {
		close(c.state.stop)
	})
	<-c.state.done
}
