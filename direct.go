package gcra

// DirectLimiter is a single, unkeyed rate limiter: one Quota, one
// StateCell, one Clock. P is the positive-outcome shape produced by
// the configured Middleware. Every method is safe for concurrent use
// and never blocks.
type DirectLimiter[P any] struct {
	quota Quota
	cell  StateCell
	clock Clock
	mw    Middleware[P]
}

// NewDirectLimiter builds a DirectLimiter enforcing q, handing
// positive decisions to mw. By default it reads time from a shared
// process-wide RealClock; pass WithClock to override.
func NewDirectLimiter[P any](q Quota, mw Middleware[P], opts ...Option) (*DirectLimiter[P], error) {
	cfg := newConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}
	return &DirectLimiter[P]{
		quota: q,
		clock: cfg.clock,
		mw:    mw,
	}, nil
}

// Check admits a single cell if the quota allows it right now.
func (l *DirectLimiter[P]) Check() (P, error) {
	return Check(&l.cell, l.quota, l.clock, l.mw)
}

// CheckOnly reports what Check would do without mutating state.
func (l *DirectLimiter[P]) CheckOnly() (P, error) {
	return CheckOnly(&l.cell, l.quota, l.clock, l.mw)
}

// CheckN admits a batch of n cells atomically: either all n are
// admitted, or none are. It returns an *InsufficientCapacityError if n
// exceeds the quota's burst size, since no amount of waiting would
// ever admit a batch that large.
func (l *DirectLimiter[P]) CheckN(n uint64) (P, error) {
	return CheckN(&l.cell, l.quota, l.clock, l.mw, n)
}

// CheckNOnly reports what CheckN would do without mutating state.
func (l *DirectLimiter[P]) CheckNOnly(n uint64) (P, error) {
	return CheckNOnly(&l.cell, l.quota, l.clock, l.mw, n)
}

// CheckAnyN admits as many of up to n cells as the quota currently
// allows (possibly zero, possibly fewer than n), never failing. It
// returns the number actually admitted alongside the positive outcome
// describing the resulting state.
func (l *DirectLimiter[P]) CheckAnyN(n uint64) (uint64, P, error) {
	return CheckAnyN(&l.cell, l.quota, l.clock, l.mw, n)
}

// CheckAnyNOnly reports what CheckAnyN would do without mutating state.
func (l *DirectLimiter[P]) CheckAnyNOnly(n uint64) (uint64, P, error) {
	return CheckAnyNOnly(&l.cell, l.quota, l.clock, l.mw, n)
}

// Quota returns the quota this limiter enforces.
func (l *DirectLimiter[P]) Quota() Quota {
	return l.quota
}

// Reset clears the limiter back to a fresh state, as if it had never
// been used.
func (l *DirectLimiter[P]) Reset() {
	l.cell.Reset()
}

// Check, CheckOnly, CheckN, CheckNOnly, CheckAnyN and CheckAnyNOnly are
// the cell-parametrized decision engine behind DirectLimiter and
// keyed.Limiter alike: each takes the StateCell to decide against
// explicitly, so a keyed limiter can share one Quota, Clock and
// Middleware across many independently-ticking cells without
// duplicating the GCRA arithmetic per key.

// Check admits a single cell against q using cell for state and clock
// for the current time, handing a positive decision to mw.
func Check[P any](cell *StateCell, q Quota, clock Clock, mw Middleware[P]) (P, error) {
	return Decide(cell, singleDecider(q, clock, mw))
}

// CheckOnly reports what Check would do without mutating cell.
func CheckOnly[P any](cell *StateCell, q Quota, clock Clock, mw Middleware[P]) (P, error) {
	return Peek(cell, singleDecider(q, clock, mw))
}

func singleDecider[P any](q Quota, clock Clock, mw Middleware[P]) DecideFunc[P] {
	g := newGcra(q)
	return func(prev Nanos, prevOK bool) (P, Nanos, bool, error) {
		t0 := clock.Now().nanos
		var zero P
		allowed, next, snapshot := g.decideSingle(t0, prev, prevOK)
		if !allowed {
			return zero, 0, false, NotUntil{state: snapshot}
		}
		return mw.Allow(snapshot), next, true, nil
	}
}

// CheckN admits a batch of n cells against q atomically.
func CheckN[P any](cell *StateCell, q Quota, clock Clock, mw Middleware[P], n uint64) (P, error) {
	return Decide(cell, batchDecider(q, clock, mw, n))
}

// CheckNOnly reports what CheckN would do without mutating cell.
func CheckNOnly[P any](cell *StateCell, q Quota, clock Clock, mw Middleware[P], n uint64) (P, error) {
	return Peek(cell, batchDecider(q, clock, mw, n))
}

func batchDecider[P any](q Quota, clock Clock, mw Middleware[P], n uint64) DecideFunc[P] {
	g := newGcra(q)
	return func(prev Nanos, prevOK bool) (P, Nanos, bool, error) {
		t0 := clock.Now().nanos
		var zero P
		allowed, next, snapshot, err := g.decideAllOrNothing(t0, prev, prevOK, n)
		if err != nil {
			return zero, 0, false, err
		}
		if !allowed {
			return zero, 0, false, NotUntil{state: snapshot}
		}
		return mw.Allow(snapshot), next, true, nil
	}
}

// CheckAnyN admits as many of up to n cells against q as currently fit.
func CheckAnyN[P any](cell *StateCell, q Quota, clock Clock, mw Middleware[P], n uint64) (uint64, P, error) {
	return anyNResult(Decide(cell, anyNDecider(q, clock, mw, n)))
}

// CheckAnyNOnly reports what CheckAnyN would do without mutating cell.
func CheckAnyNOnly[P any](cell *StateCell, q Quota, clock Clock, mw Middleware[P], n uint64) (uint64, P, error) {
	return anyNResult(Peek(cell, anyNDecider(q, clock, mw, n)))
}

type anyNOutcome[P any] struct {
	admitted uint64
	outcome  P
}

func anyNDecider[P any](q Quota, clock Clock, mw Middleware[P], n uint64) DecideFunc[anyNOutcome[P]] {
	g := newGcra(q)
	return func(prev Nanos, prevOK bool) (anyNOutcome[P], Nanos, bool, error) {
		t0 := clock.Now().nanos
		k, next, snapshot := g.decideAnyN(t0, prev, prevOK, n)
		return anyNOutcome[P]{admitted: k, outcome: mw.Allow(snapshot)}, next, true, nil
	}
}

func anyNResult[P any](out anyNOutcome[P], err error) (uint64, P, error) {
	if err != nil {
		var zero P
		return 0, zero, err
	}
	return out.admitted, out.outcome, nil
}
