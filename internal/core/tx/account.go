package tx

import (
	"encoding/binary"
	"errors"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// AccountOverhead is the fixed number of bytes charged for rent on top of
// the account's data size.
const AccountOverhead = 128

// accountHeaderSize is owner(32) + lamports(8) + nonce(8).
const accountHeaderSize = 48

// ErrAccountEncoding is returned when a stored account blob is truncated.
var ErrAccountEncoding = errors.New("malformed account encoding")

// Account is a ledger entry: a lamport balance, an owning program and
// program-defined data. Only the owning program may change Data or debit
// lamports. Nonce is the last transaction nonce the account paid fees for.
type Account struct {
	Owner    types.Address `json:"owner"`
	Lamports uint64        `json:"lamports"`
	Nonce    uint64        `json:"nonce"`
	Data     []byte        `json:"data"`
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := &Account{Owner: a.Owner, Lamports: a.Lamports, Nonce: a.Nonce}
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return c
}

// Type returns the entry type detected from the data discriminator.
func (a *Account) Type() entry.Type {
	return entry.Detect(a.Data)
}

// Equal reports whether two accounts hold identical state.
func (a *Account) Equal(b *Account) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Owner != b.Owner || a.Lamports != b.Lamports || a.Nonce != b.Nonce || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// EncodeAccount serializes an account as owner || lamports(LE) || nonce(LE) || data.
func EncodeAccount(a *Account) []byte {
	out := make([]byte, accountHeaderSize+len(a.Data))
	copy(out[:32], a.Owner[:])
	binary.LittleEndian.PutUint64(out[32:40], a.Lamports)
	binary.LittleEndian.PutUint64(out[40:48], a.Nonce)
	copy(out[accountHeaderSize:], a.Data)
	return out
}

// DecodeAccount parses the output of EncodeAccount.
func DecodeAccount(raw []byte) (*Account, error) {
	if len(raw) < accountHeaderSize {
		return nil, ErrAccountEncoding
	}
	a := &Account{
		Lamports: binary.LittleEndian.Uint64(raw[32:40]),
		Nonce:    binary.LittleEndian.Uint64(raw[40:48]),
	}
	copy(a.Owner[:], raw[:32])
	if len(raw) > accountHeaderSize {
		a.Data = append([]byte(nil), raw[accountHeaderSize:]...)
	}
	return a, nil
}

// RentExemptMinimum returns the lamports an account of the given data size
// must hold.
func RentExemptMinimum(rentPerByte uint64, space int) uint64 {
	return rentPerByte * uint64(space+AccountOverhead)
}
