package gcra

import "fmt"

// InsufficientCapacityError is returned by an all-or-nothing batch
// check when n exceeds the quota's max burst: no limiter configured
// with this quota will ever admit a batch that large, no matter how
// long it waits.
type InsufficientCapacityError struct {
	// MaxFeasible is the largest batch size this quota can ever admit.
	MaxFeasible uint64
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("gcra: requested batch exceeds max feasible size %d", e.MaxFeasible)
}

// ConstructionError is returned when building a Quota or Limiter from
// invalid inputs (zero duration, zero burst, unparseable quota string).
// It is never returned from the decision hot path.
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("gcra: %s", e.Reason)
}
