package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = byte(i + 1)
	}

	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseAddress("abc")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddressText(t *testing.T) {
	a := Address{0xAA, 0xBB}
	text, err := a.MarshalText()
	require.NoError(t, err)

	var b Address
	require.NoError(t, b.UnmarshalText(text))
	assert.Equal(t, a, b)
	assert.False(t, b.IsZero())
	assert.True(t, ZeroAddress.IsZero())
}

func TestAddressCompare(t *testing.T) {
	a := Address{1}
	b := Address{2}
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}
