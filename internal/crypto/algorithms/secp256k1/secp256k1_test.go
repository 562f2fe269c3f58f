package secp256k1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	crypto "github.com/LeJamon/goOCR2/internal/crypto/common"
)

func TestKnownAddress(t *testing.T) {
	// Private key 1 maps to the well known generator-point address.
	raw := make([]byte, 32)
	raw[31] = 1
	key, err := KeyFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", key.Address().String())
}

func TestSignRecover(t *testing.T) {
	key, err := KeyFromSeed([]byte("oracle-0"))
	require.NoError(t, err)
	hash := crypto.Sha256([]byte("report"))

	sig, err := key.Sign(hash)
	require.NoError(t, err)
	assert.LessOrEqual(t, sig[64], byte(3))

	addr, err := Recover(hash, sig[:])
	require.NoError(t, err)
	assert.Equal(t, key.Address(), addr)

	other := crypto.Sha256([]byte("other report"))
	addr, err = Recover(other, sig[:])
	if err == nil {
		assert.NotEqual(t, key.Address(), addr)
	}
}

func TestRecoverRejectsMalformed(t *testing.T) {
	hash := crypto.Sha256([]byte("x"))
	_, err := Recover(hash, make([]byte, 10))
	require.ErrorIs(t, err, ErrInvalidSignature)

	sig := make([]byte, SignatureSize)
	sig[64] = 9
	_, err = Recover(hash, sig)
	require.ErrorIs(t, err, ErrInvalidRecoveryID)
}

func TestParseSignerAddress(t *testing.T) {
	key, err := KeyFromSeed([]byte("oracle-1"))
	require.NoError(t, err)
	parsed, err := ParseSignerAddress(key.Address().String())
	require.NoError(t, err)
	assert.Equal(t, key.Address(), parsed)

	_, err = ParseSignerAddress("0x1234")
	require.Error(t, err)
}

func TestSignRecoverProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "seed")
		msg := rapid.SliceOf(rapid.Byte()).Draw(t, "msg")
		key, err := KeyFromSeed(seed)
		if err != nil {
			t.Skip("zero scalar")
		}
		hash := crypto.Sha256(msg)
		sig, err := key.Sign(hash)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		addr, err := Recover(hash, sig[:])
		if err != nil {
			t.Fatalf("recover: %v", err)
		}
		if addr != key.Address() {
			t.Fatalf("recovered %s, want %s", addr, key.Address())
		}
	})
}
