package gcra

import (
	"fmt"
	"math"
	"time"
)

// Nanos is a non-negative count of nanoseconds from an unspecified
// reference point. Subtraction saturates at zero instead of wrapping or
// going negative; this is what lets the rest of the package treat "time
// since start" as a plain unsigned integer.
//
// Nanos cannot represent durations longer than roughly 584 years
// (math.MaxUint64 nanoseconds).
type Nanos uint64

// MaxNanos is the largest representable Nanos value.
const MaxNanos Nanos = math.MaxUint64

// FromDuration converts a time.Duration to Nanos. It reports ok=false if
// d is negative (Nanos has no sign) or would overflow a uint64 count of
// nanoseconds, which in practice never happens for any time.Duration
// since time.Duration is itself an int64 count of nanoseconds.
func FromDuration(d time.Duration) (Nanos, bool) {
	if d < 0 {
		return 0, false
	}
	return Nanos(d), true
}

// ToDuration converts n to a time.Duration, saturating at
// time.Duration's max value if n overflows an int64.
func (n Nanos) ToDuration() time.Duration {
	if n > Nanos(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(n)
}

// Add returns n+m, saturating at MaxNanos instead of wrapping.
func (n Nanos) Add(m Nanos) Nanos {
	sum := n + m
	if sum < n {
		return MaxNanos
	}
	return sum
}

// Sub returns n-m, saturating at zero instead of wrapping.
func (n Nanos) Sub(m Nanos) Nanos {
	if n < m {
		return 0
	}
	return n - m
}

// Mul returns n multiplied by the non-negative integer k, saturating
// at MaxNanos instead of overflowing.
func (n Nanos) Mul(k uint64) Nanos {
	if n == 0 || k == 0 {
		return 0
	}
	if uint64(n) > uint64(MaxNanos)/k {
		return MaxNanos
	}
	return n * Nanos(k)
}

// Div returns n divided by d (integer division, truncating).
func (n Nanos) Div(d Nanos) uint64 {
	if d == 0 {
		return 0
	}
	return uint64(n / d)
}

// Min returns the smaller of n and m.
func (n Nanos) Min(m Nanos) Nanos {
	if n < m {
		return n
	}
	return m
}

// Max returns the larger of n and m.
func (n Nanos) Max(m Nanos) Nanos {
	if n > m {
		return n
	}
	return m
}

func (n Nanos) String() string {
	return fmt.Sprintf("%dns", uint64(n))
}
