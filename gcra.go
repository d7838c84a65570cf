package gcra

import "fmt"

// gcra holds the derived GCRA parameters for a quota: t, the cost of
// admitting one cell, and tau, the tolerance above one cell that may
// accumulate as burst. Total burst capacity is t+tau.
type gcra struct {
	t   Nanos
	tau Nanos
}

func newGcra(q Quota) gcra {
	t, tau := q.gcraParameters()
	if t == 0 {
		t = 1 // a cell must always cost at least 1ns
	}
	return gcra{t: t, tau: tau}
}

// burstCapacity is 1 + tau/t, equivalently the quota's max burst.
func (g gcra) burstCapacity() uint64 {
	return 1 + g.tau.Div(g.t)
}

// StateSnapshot is the full state behind a single GCRA decision: the
// quota parameters used, the instant the decision was measured at
// (relative to the limiter's start epoch), and the tat that decision
// produced — the new tat on a positive outcome, or the earliest
// admissible tat on a negative one.
type StateSnapshot struct {
	t, tau Nanos
	t0     Nanos
	tat    Nanos
}

// Quota reconstructs the Quota that produced this snapshot.
func (s StateSnapshot) Quota() Quota {
	return fromGCRAParameters(s.t, s.tau)
}

// RemainingBurstCapacity is the number of further cells that could be
// admitted immediately, given the tat this snapshot encodes, clamped
// to [0, max_burst].
func (s StateSnapshot) RemainingBurstCapacity() uint64 {
	capacity := s.t.Add(s.tau)
	available := s.t0.Add(s.tau).Add(s.t).Sub(s.tat)
	remaining := available.Min(capacity).Div(s.t)
	maxBurst := s.Quota().BurstSize()
	if remaining > maxBurst {
		return maxBurst
	}
	return remaining
}

// NotUntil is a negative rate-limiting outcome: a snapshot of the
// state that produced the denial, plus the limiter's start epoch
// needed to turn the snapshot's relative tat back into an Instant.
type NotUntil struct {
	state StateSnapshot
	start Instant
}

// EarliestPossible is the earliest Instant at which an otherwise
// identical decision (no other calls intervening) would be admitted.
func (n NotUntil) EarliestPossible() Instant {
	return n.start.Add(n.state.tat)
}

// WaitTimeFrom is the duration that must pass, measured from from,
// before a decision could be admitted. It saturates to zero if the
// earliest possible time is not after from.
func (n NotUntil) WaitTimeFrom(from Instant) Nanos {
	earliest := n.EarliestPossible()
	if from.nanos > earliest.nanos {
		earliest = from
	}
	return earliest.DurationSince(from)
}

// Quota reconstructs the Quota that produced this denial.
func (n NotUntil) Quota() Quota {
	return n.state.Quota()
}

// Error implements error, so a NotUntil can be returned and matched
// with errors.As by callers that want the wait time without caring
// about it on the happy path.
func (n NotUntil) Error() string {
	return fmt.Sprintf("gcra: not until %s", n.EarliestPossible().nanos)
}

// decideSingle implements spec.md §4.4's single-cell decision. prevOK
// is false when the cell has never been touched ("None" in spec
// terms); in that case tat is ignored and treated as t0 (fresh state,
// admit immediately).
//
// Returns (allowed, newTAT, snapshot). newTAT is only meaningful when
// allowed is true.
func (g gcra) decideSingle(t0 Nanos, prevTAT Nanos, prevOK bool) (bool, Nanos, StateSnapshot) {
	tat := prevTAT
	if !prevOK {
		tat = t0
	}

	earliest := tat.Sub(g.tau)
	if t0 < earliest {
		return false, 0, StateSnapshot{t: g.t, tau: g.tau, t0: earliest, tat: earliest}
	}

	newTAT := tat.Max(t0).Add(g.t)
	return true, newTAT, StateSnapshot{t: g.t, tau: g.tau, t0: t0, tat: newTAT}
}

// decideAllOrNothing implements spec.md §4.4's all-or-nothing batch
// decision for n >= 1 cells. It returns an *InsufficientCapacityError
// immediately (without touching state) when n cannot fit under this
// quota no matter how long the caller waits.
func (g gcra) decideAllOrNothing(t0 Nanos, prevTAT Nanos, prevOK bool, n uint64) (bool, Nanos, StateSnapshot, error) {
	if n == 0 {
		tat := prevTAT
		if !prevOK {
			tat = t0
		}
		return true, tat, StateSnapshot{t: g.t, tau: g.tau, t0: t0, tat: tat}, nil
	}

	additional := g.t.Mul(n - 1)
	if additional > g.tau {
		return false, 0, StateSnapshot{}, &InsufficientCapacityError{MaxFeasible: g.burstCapacity()}
	}

	tat := prevTAT
	if !prevOK {
		tat = t0
	}

	earliest := tat.Add(additional).Sub(g.tau)
	if t0 < earliest {
		return false, 0, StateSnapshot{t: g.t, tau: g.tau, t0: earliest, tat: earliest}, nil
	}

	newTAT := tat.Max(t0).Add(g.t).Add(additional)
	return true, newTAT, StateSnapshot{t: g.t, tau: g.tau, t0: t0, tat: newTAT}, nil
}

// decideAnyN implements spec.md §4.4's partial-vending batch decision.
// It never fails: it admits k = min(n, max_available, burstCapacity)
// cells (possibly zero) and reports k alongside the resulting state.
func (g gcra) decideAnyN(t0 Nanos, prevTAT Nanos, prevOK bool, n uint64) (uint64, Nanos, StateSnapshot) {
	tat := prevTAT
	if !prevOK {
		tat = t0
	}

	var maxAvailable uint64
	if tat > t0.Add(g.tau) {
		maxAvailable = 0
	} else {
		available := t0.Add(g.tau).Sub(tat)
		maxAvailable = available.Div(g.t) + 1
	}

	k := n
	if maxAvailable < k {
		k = maxAvailable
	}
	if capacity := g.burstCapacity(); capacity < k {
		k = capacity
	}

	newTAT := tat
	if k > 0 {
		newTAT = tat.Max(t0).Add(g.t).Add(g.t.Mul(k - 1))
	}

	return k, newTAT, StateSnapshot{t: g.t, tau: g.tau, t0: t0, tat: newTAT}
}
