package keylet

import (
	"errors"

	"filippo.io/edwards25519"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/types"
	crypto "github.com/LeJamon/goOCR2/internal/crypto/common"
)

// Space identifiers for address derivation
const (
	spaceProgram uint16 = 'P' // Built-in program id
	spaceDerived uint16 = 'D' // Program derived address
)

// ErrOnCurve is returned when a derived candidate is a valid ed25519 point and
// could therefore have a private key.
var ErrOnCurve = errors.New("derived address is on the ed25519 curve")

// ErrNoDerivedAddress is returned when no nonce yields an off-curve address.
var ErrNoDerivedAddress = errors.New("unable to find a viable derived address nonce")

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  types.Address
}

// Built-in program ids.
var (
	SystemProgram = ProgramID("system")
	TokenProgram  = ProgramID("token")
	AccessProgram = ProgramID("access")
	StoreProgram  = ProgramID("store")
	OCR2Program   = ProgramID("ocr2")
)

// indexHash computes a key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) types.Address {
	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, []byte{byte(space >> 8), byte(space)})
	inputs = append(inputs, data...)
	return types.Address(crypto.Sha512Half(inputs...))
}

// ProgramID returns the fixed address of a built-in program.
func ProgramID(name string) types.Address {
	return indexHash(spaceProgram, []byte(name))
}

// Account returns the keylet for an account of any type.
func Account(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeAny, Key: addr}
}

// Mint returns the keylet for a token mint.
func Mint(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeMint, Key: addr}
}

// TokenAccount returns the keylet for a token account.
func TokenAccount(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeTokenAccount, Key: addr}
}

// AccessController returns the keylet for an access controller.
func AccessController(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeAccessController, Key: addr}
}

// Store returns the keylet for a store record.
func Store(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeStore, Key: addr}
}

// Transmissions returns the keylet for a feed ring buffer.
func Transmissions(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeTransmissions, Key: addr}
}

// State returns the keylet for an aggregator state.
func State(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeState, Key: addr}
}

// Proposal returns the keylet for a configuration proposal.
func Proposal(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeProposal, Key: addr}
}

// CreateDerivedAddress hashes the seeds, nonce and owning program into an
// address. It fails when the result lies on the ed25519 curve.
func CreateDerivedAddress(program types.Address, nonce uint8, seeds ...[]byte) (types.Address, error) {
	parts := make([][]byte, 0, len(seeds)+2)
	parts = append(parts, seeds...)
	parts = append(parts, []byte{nonce}, program[:])
	addr := indexHash(spaceDerived, parts...)
	if _, err := new(edwards25519.Point).SetBytes(addr[:]); err == nil {
		return types.ZeroAddress, ErrOnCurve
	}
	return addr, nil
}

// FindDerivedAddress searches nonces from 255 downward and returns the first
// off-curve address together with its nonce.
func FindDerivedAddress(program types.Address, seeds ...[]byte) (types.Address, uint8, error) {
	for nonce := 255; nonce >= 0; nonce-- {
		addr, err := CreateDerivedAddress(program, uint8(nonce), seeds...)
		if err == nil {
			return addr, uint8(nonce), nil
		}
	}
	return types.ZeroAddress, 0, ErrNoDerivedAddress
}

// StoreAuthority is the aggregator-derived signer allowed to write to feeds
// whose writer is set to it.
func StoreAuthority(state types.Address) (types.Address, uint8, error) {
	return FindDerivedAddress(OCR2Program, []byte("store"), state[:])
}

// VaultAuthority is the aggregator-derived owner of the billing token vault.
func VaultAuthority(state types.Address) (types.Address, uint8, error) {
	return FindDerivedAddress(OCR2Program, []byte("vault"), state[:])
}
