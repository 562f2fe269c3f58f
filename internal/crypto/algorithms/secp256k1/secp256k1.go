// Package secp256k1 implements the report signatures used by oracle nodes:
// recoverable ECDSA over secp256k1 with Ethereum-style 20-byte signer addresses.
package secp256k1

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	crypto "github.com/LeJamon/goOCR2/internal/crypto/common"
)

const (
	// SignatureSize is r(32) || s(32) || recovery id(1).
	SignatureSize = 65

	// AddressSize is the length of a signer address.
	AddressSize = 20

	// compactHeaderBase is the header byte offset used by compact signatures
	// for uncompressed public keys.
	compactHeaderBase = 27
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key format")
	ErrInvalidSignature  = errors.New("invalid signature format")
	ErrInvalidRecoveryID = errors.New("invalid recovery id")
)

// SignerAddress is the 20-byte identity of a report signer.
type SignerAddress [AddressSize]byte

// String returns the 0x-prefixed hex form.
func (a SignerAddress) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a SignerAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *SignerAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseSignerAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseSignerAddress decodes an optionally 0x-prefixed hex signer address.
func ParseSignerAddress(s string) (SignerAddress, error) {
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return SignerAddress{}, err
	}
	if len(raw) != AddressSize {
		return SignerAddress{}, fmt.Errorf("signer address must be %d bytes, got %d", AddressSize, len(raw))
	}
	var a SignerAddress
	copy(a[:], raw)
	return a, nil
}

// PublicKeyAddress derives the signer address of a public key:
// the last 20 bytes of keccak256 over the 64-byte uncompressed point.
func PublicKeyAddress(pub *secp256k1.PublicKey) SignerAddress {
	uncompressed := pub.SerializeUncompressed()
	digest := crypto.Keccak256(uncompressed[1:])
	var a SignerAddress
	copy(a[:], digest[12:])
	return a
}

// Key is a report signing key held by an oracle node.
type Key struct {
	priv *btcec.PrivateKey
}

// KeyFromSeed derives a signing key from arbitrary seed bytes.
func KeyFromSeed(seed []byte) (*Key, error) {
	scalar := crypto.Sha256(seed)
	return KeyFromBytes(scalar[:])
}

// KeyFromBytes wraps a 32-byte private scalar.
func KeyFromBytes(raw []byte) (*Key, error) {
	if len(raw) != 32 {
		return nil, ErrInvalidPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	if priv.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return &Key{priv: priv}, nil
}

// GenerateKey creates a random signing key.
func GenerateKey() (*Key, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

// Bytes returns the private scalar.
func (k *Key) Bytes() []byte {
	return k.priv.Serialize()
}

// Address returns the signer address of the key.
func (k *Key) Address() SignerAddress {
	return PublicKeyAddress(k.priv.PubKey())
}

// Sign produces a 65-byte r || s || recid signature over a 32-byte hash.
func (k *Key) Sign(hash [32]byte) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	compact := btcecdsa.SignCompact(k.priv, hash[:], false)
	if len(compact) != SignatureSize {
		return out, ErrInvalidSignature
	}
	copy(out[:64], compact[1:])
	out[64] = compact[0] - compactHeaderBase
	return out, nil
}

// Recover returns the signer address that produced sig over hash.
func Recover(hash [32]byte, sig []byte) (SignerAddress, error) {
	if len(sig) != SignatureSize {
		return SignerAddress{}, ErrInvalidSignature
	}
	recID := sig[64]
	if recID > 3 {
		return SignerAddress{}, ErrInvalidRecoveryID
	}
	compact := make([]byte, SignatureSize)
	compact[0] = compactHeaderBase + recID
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return SignerAddress{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return PublicKeyAddress(pub), nil
}
