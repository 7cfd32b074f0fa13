//go:build !nocheck

package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recoverError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
	}()
	fn()
	return nil
}

func TestOffsetBounds(t *testing.T) {
	m := NewMapping(Of(3, 4), RowMajor)

	err := recoverError(t, func() { m.Offset(3, 0) })
	assert.True(t, errors.Is(err, ErrBounds))
	var be *BoundsError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 0, be.Dim)

	err = recoverError(t, func() { m.Offset(0, -1) })
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Dim)

	err = recoverError(t, func() { m.Offset(1) })
	require.True(t, errors.As(err, &be))
	assert.Equal(t, -1, be.Dim)
	assert.Contains(t, be.Error(), "1 indices for rank 2")
}
