package entry

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// DiscriminatorSize is the length of the type tag that prefixes program-owned account data.
const DiscriminatorSize = 8

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	// TypeAny matches any account, including plain lamport wallets with no data.
	TypeAny Type = 0x0000

	// Token program
	TypeMint         Type = 0x0101 // Token mint
	TypeTokenAccount Type = 0x0102 // Token balance holder

	// Access program
	TypeAccessController Type = 0x0201 // Access list

	// Store program
	TypeStore         Type = 0x0301 // Feed store authority record
	TypeTransmissions Type = 0x0302 // Feed ring buffer

	// Aggregator program
	TypeState    Type = 0x0401 // Aggregator configuration
	TypeProposal Type = 0x0402 // Staged configuration proposal
)

var known = []Type{
	TypeMint,
	TypeTokenAccount,
	TypeAccessController,
	TypeStore,
	TypeTransmissions,
	TypeState,
	TypeProposal,
}

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeAny:
		return "Account"
	case TypeMint:
		return "Mint"
	case TypeTokenAccount:
		return "TokenAccount"
	case TypeAccessController:
		return "AccessController"
	case TypeStore:
		return "Store"
	case TypeTransmissions:
		return "Transmissions"
	case TypeState:
		return "State"
	case TypeProposal:
		return "Proposal"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
	}
}

// Discriminator returns the 8-byte tag written at the start of account data
// of this type: the first 8 bytes of sha256("account:<Name>").
func (t Type) Discriminator() [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + t.String()))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// Matches reports whether data carries the discriminator of t.
// TypeAny matches everything.
func (t Type) Matches(data []byte) bool {
	if t == TypeAny {
		return true
	}
	if len(data) < DiscriminatorSize {
		return false
	}
	d := t.Discriminator()
	return bytes.Equal(data[:DiscriminatorSize], d[:])
}

// Detect returns the type whose discriminator prefixes data, or TypeAny.
func Detect(data []byte) Type {
	for _, t := range known {
		if t.Matches(data) {
			return t
		}
	}
	return TypeAny
}
