// Package ed25519 derives, signs and verifies with the account keys that
// authorize ledger transactions.
package ed25519

import (
	"bytes"
	"crypto/ed25519"
	"errors"

	"github.com/LeJamon/goOCR2/internal/core/types"
	crypto "github.com/LeJamon/goOCR2/internal/crypto/common"
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key format")
	ErrInvalidSignature  = errors.New("invalid signature format")
)

// SignatureSize is the length of an ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// KeyPair is an account signing key.
type KeyPair struct {
	private ed25519.PrivateKey
	public  types.Address
}

// DeriveKeypair deterministically derives a key pair from arbitrary seed bytes.
func DeriveKeypair(seed []byte) (*KeyPair, error) {
	keyMaterial := crypto.Sha512Half(seed)
	pub, priv, err := ed25519.GenerateKey(bytes.NewReader(keyMaterial[:]))
	if err != nil {
		return nil, err
	}
	var addr types.Address
	copy(addr[:], pub)
	return &KeyPair{private: priv, public: addr}, nil
}

// FromPrivateKey wraps a 32-byte seed or 64-byte expanded ed25519 private key.
func FromPrivateKey(raw []byte) (*KeyPair, error) {
	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(append([]byte(nil), raw...))
	default:
		return nil, ErrInvalidPrivateKey
	}
	var addr types.Address
	copy(addr[:], priv.Public().(ed25519.PublicKey))
	return &KeyPair{private: priv, public: addr}, nil
}

// Address returns the public key, which doubles as the account address.
func (k *KeyPair) Address() types.Address {
	return k.public
}

// Seed returns the 32-byte private seed.
func (k *KeyPair) Seed() []byte {
	return k.private.Seed()
}

// Sign signs message.
func (k *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}

// Verify checks signature over message against the address used as public key.
func Verify(addr types.Address, message, signature []byte) bool {
	if len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(addr[:]), message, signature)
}
