package gcra

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Quota is an immutable rate-limiting quota: a maximum burst size and
// the time it takes to replenish a single cell of that burst.
//
// Neither field may be zero: ReplenishPerCell must be at least 1ns and
// MaxBurst must be at least 1.
type Quota struct {
	replenishPerCell Nanos
	maxBurst         uint64
}

// PerSecond constructs a quota allowing n cells per second, with a
// burst size of n: replenishPerCell = 1s/n.
func PerSecond(n uint64) (Quota, error) {
	return perPeriod(n, time.Second)
}

// PerMinute constructs a quota allowing n cells per minute, with a
// burst size of n.
func PerMinute(n uint64) (Quota, error) {
	return perPeriod(n, time.Minute)
}

// PerHour constructs a quota allowing n cells per hour, with a burst
// size of n.
func PerHour(n uint64) (Quota, error) {
	return perPeriod(n, time.Hour)
}

func perPeriod(n uint64, period time.Duration) (Quota, error) {
	if n == 0 {
		return Quota{}, &ConstructionError{Reason: "max burst must be positive"}
	}
	interval := period / time.Duration(n)
	if interval <= 0 {
		interval = 1 // floor at 1ns, per spec.md §4.3
	}
	nanos, ok := FromDuration(interval)
	if !ok {
		return Quota{}, &ConstructionError{Reason: "replenish interval overflows Nanos"}
	}
	return Quota{replenishPerCell: nanos, maxBurst: n}, nil
}

// WithPeriod constructs a quota that replenishes exactly one cell every
// d, with a burst size of 1. Use AllowBurst to raise the burst size
// while keeping the same per-cell replenish rate.
func WithPeriod(d time.Duration) (Quota, error) {
	if d <= 0 {
		return Quota{}, &ConstructionError{Reason: "period must be positive"}
	}
	nanos, ok := FromDuration(d)
	if !ok {
		return Quota{}, &ConstructionError{Reason: "period overflows Nanos"}
	}
	return Quota{replenishPerCell: nanos, maxBurst: 1}, nil
}

// AllowBurst returns a copy of q with its max burst size replaced by n.
func (q Quota) AllowBurst(n uint64) (Quota, error) {
	if n == 0 {
		return Quota{}, &ConstructionError{Reason: "max burst must be positive"}
	}
	q.maxBurst = n
	return q, nil
}

// ReplenishInterval is the time it takes to replenish a single cell.
func (q Quota) ReplenishInterval() time.Duration {
	return q.replenishPerCell.ToDuration()
}

// BurstSize is the maximum number of cells admittable from a fully
// replenished state.
func (q Quota) BurstSize() uint64 {
	return q.maxBurst
}

// BurstSizeReplenishedIn is the time it takes to replenish the entire
// maximum burst size from empty.
func (q Quota) BurstSizeReplenishedIn() time.Duration {
	return q.replenishPerCell.Mul(q.maxBurst).ToDuration()
}

// gcraParameters returns the derived GCRA parameters t (cost of one
// cell) and tau (tolerance above one cell).
func (q Quota) gcraParameters() (t, tau Nanos) {
	t = q.replenishPerCell
	tau = t.Mul(q.maxBurst - 1)
	return t, tau
}

// EvictionThreshold returns the drop threshold D = now - t described by
// spec.md §4.7: any StateCell whose stored tat is at or before D is
// indistinguishable from a freshly created cell for every future
// decision under q, and so can be safely evicted from a keyed store.
func EvictionThreshold(clock Clock, q Quota) Nanos {
	t, _ := q.gcraParameters()
	return clock.Now().nanos.Sub(t)
}

// fromGCRAParameters reconstructs the Quota that produced t and tau.
// Quota -> (t, tau) -> Quota is the identity (see spec.md §8).
func fromGCRAParameters(t, tau Nanos) Quota {
	return Quota{
		replenishPerCell: t,
		maxBurst:         1 + tau.Div(t),
	}
}

var quotaGrammar = regexp.MustCompile(`(?i)^\s*([0-9]+)\s*(?:/|per)\s*([0-9]+)?\s*(second|minute|hour)s?\s*$`)

// ParseQuota parses a human-readable quota string of the form
// "<max_burst> (per|/) [<count>] (second|minute|hour)[s]", case
// insensitively. count defaults to 1 when omitted.
func ParseQuota(s string) (Quota, error) {
	m := quotaGrammar.FindStringSubmatch(s)
	if m == nil {
		return Quota{}, &ConstructionError{Reason: fmt.Sprintf("unable to parse quota string: %q", s)}
	}

	maxBurst, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || maxBurst == 0 {
		return Quota{}, &ConstructionError{Reason: fmt.Sprintf("invalid max burst in quota string: %q", s)}
	}

	count := uint64(1)
	if m[2] != "" {
		count, err = strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return Quota{}, &ConstructionError{Reason: fmt.Sprintf("invalid count in quota string: %q", s)}
		}
	}

	var unitSeconds uint64
	switch strings.ToLower(m[3]) {
	case "second":
		unitSeconds = 1
	case "minute":
		unitSeconds = 60
	case "hour":
		unitSeconds = 3600
	default:
		return Quota{}, &ConstructionError{Reason: fmt.Sprintf("unrecognized unit in quota string: %q", s)}
	}

	period := time.Duration(count*unitSeconds) * time.Second
	if period == 0 {
		return Quota{}, &ConstructionError{Reason: fmt.Sprintf("quota string produces zero period: %q", s)}
	}

	interval := period / time.Duration(maxBurst)
	if interval <= 0 {
		interval = 1
	}
	q, err := WithPeriod(interval)
	if err != nil {
		return Quota{}, err
	}
	return q.AllowBurst(maxBurst)
}
