package gcra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNanos_SaturatingArithmetic(t *testing.T) {
	t.Run("Sub never goes negative", func(t *testing.T) {
		assert.Equal(t, Nanos(0), Nanos(5).Sub(10))
		assert.Equal(t, Nanos(5), Nanos(10).Sub(5))
	})

	t.Run("Add saturates at MaxNanos", func(t *testing.T) {
		assert.Equal(t, MaxNanos, MaxNanos.Add(1))
		assert.Equal(t, Nanos(15), Nanos(10).Add(5))
	})

	t.Run("Mul saturates on overflow", func(t *testing.T) {
		assert.Equal(t, MaxNanos, Nanos(MaxNanos/2+1).Mul(3))
		assert.Equal(t, Nanos(20), Nanos(4).Mul(5))
		assert.Equal(t, Nanos(0), Nanos(4).Mul(0))
	})

	t.Run("Div truncates toward zero", func(t *testing.T) {
		assert.Equal(t, uint64(3), Nanos(10).Div(3))
		assert.Equal(t, uint64(0), Nanos(10).Div(0))
	})

	t.Run("Min and Max", func(t *testing.T) {
		assert.Equal(t, Nanos(3), Nanos(3).Min(7))
		assert.Equal(t, Nanos(7), Nanos(3).Max(7))
	})
}

func TestNanos_DurationConversion(t *testing.T) {
	t.Run("round-trips within range", func(t *testing.T) {
		n, ok := FromDuration(5 * time.Second)
		require.True(t, ok)
		assert.Equal(t, 5*time.Second, n.ToDuration())
	})

	t.Run("rejects negative durations", func(t *testing.T) {
		_, ok := FromDuration(-time.Second)
		assert.False(t, ok)
	})

	t.Run("ToDuration saturates at the largest representable duration", func(t *testing.T) {
		d := MaxNanos.ToDuration()
		assert.Equal(t, time.Duration(1<<63-1), d)
	})
}
