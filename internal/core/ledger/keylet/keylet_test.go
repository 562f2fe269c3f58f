package keylet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

func TestProgramIDsDistinct(t *testing.T) {
	ids := []types.Address{SystemProgram, TokenProgram, AccessProgram, StoreProgram, OCR2Program}
	seen := make(map[types.Address]bool)
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestDerivedAddress(t *testing.T) {
	state := types.Address{7, 7, 7}

	addr, nonce, err := StoreAuthority(state)
	require.NoError(t, err)

	again, err := CreateDerivedAddress(OCR2Program, nonce, []byte("store"), state[:])
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	vault, _, err := VaultAuthority(state)
	require.NoError(t, err)
	assert.NotEqual(t, addr, vault)

	other, _, err := StoreAuthority(types.Address{8})
	require.NoError(t, err)
	assert.NotEqual(t, addr, other)
}

func TestKeyletTypes(t *testing.T) {
	a := types.Address{1}
	assert.Equal(t, entry.TypeTransmissions, Transmissions(a).Type)
	assert.Equal(t, entry.TypeState, State(a).Type)
	assert.Equal(t, entry.TypeAny, Account(a).Type)
	assert.Equal(t, a, Proposal(a).Key)
}
