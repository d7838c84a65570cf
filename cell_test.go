package gcra

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysAdmit(next Nanos) DecideFunc[string] {
	return func(prev Nanos, prevOK bool) (string, Nanos, bool, error) {
		return "ok", next, true, nil
	}
}

func alwaysDeny() DecideFunc[string] {
	return func(prev Nanos, prevOK bool) (string, Nanos, bool, error) {
		return "", 0, false, nil
	}
}

func alwaysError(sentinel error) DecideFunc[string] {
	return func(prev Nanos, prevOK bool) (string, Nanos, bool, error) {
		return "", 0, false, sentinel
	}
}

func TestStateCell_Decide(t *testing.T) {
	t.Run("mutating decision installs the new value", func(t *testing.T) {
		var c StateCell
		out, err := Decide(&c, alwaysAdmit(42))
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, Nanos(42), c.Tat())
	})

	t.Run("non-mutating decision leaves the cell untouched", func(t *testing.T) {
		var c StateCell
		_, err := Decide(&c, alwaysAdmit(42))
		require.NoError(t, err)

		out, err := Decide(&c, alwaysDeny())
		require.NoError(t, err)
		assert.Equal(t, "", out)
		assert.Equal(t, Nanos(42), c.Tat())
	})

	t.Run("error aborts without touching state", func(t *testing.T) {
		var c StateCell
		_, err := Decide(&c, alwaysAdmit(42))
		require.NoError(t, err)

		sentinel := errors.New("boom")
		_, err = Decide(&c, alwaysError(sentinel))
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, Nanos(42), c.Tat())
	})
}

func TestStateCell_Peek(t *testing.T) {
	t.Run("restores the prior value after a winning compare-and-swap", func(t *testing.T) {
		var c StateCell
		_, err := Decide(&c, alwaysAdmit(42))
		require.NoError(t, err)

		out, err := Peek(&c, alwaysAdmit(999))
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, Nanos(42), c.Tat(), "peek must not leave the mutation in place")
	})
}

func TestStateCell_Reset(t *testing.T) {
	var c StateCell
	_, err := Decide(&c, alwaysAdmit(42))
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, Nanos(0), c.Tat())
}
