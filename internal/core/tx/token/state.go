package token

import (
	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Account data sizes
const (
	// MintSize is discriminator(8) + authority(32) + supply(8) + decimals(1)
	MintSize = 49

	// AccountSize is discriminator(8) + mint(32) + authority(32) + amount(8)
	AccountSize = 80
)

// Mint is the state of a token mint.
type Mint struct {
	Authority types.Address `json:"authority"`
	Supply    uint64        `json:"supply"`
	Decimals  uint8         `json:"decimals"`
}

// Encode serializes the mint into its account layout.
func (m *Mint) Encode() ([]byte, error) {
	w := layout.NewWriter(entry.TypeMint, MintSize)
	w.Address(m.Authority)
	w.U64(m.Supply)
	w.U8(m.Decimals)
	return w.Bytes()
}

// DecodeMint parses mint account data.
func DecodeMint(data []byte) (*Mint, error) {
	r := layout.NewReader(data)
	m := &Mint{
		Authority: r.Address(),
		Supply:    r.U64(),
		Decimals:  r.U8(),
	}
	return m, r.Err()
}

// Account is the state of a token account.
type Account struct {
	Mint      types.Address `json:"mint"`
	Authority types.Address `json:"authority"`
	Amount    uint64        `json:"amount"`
}

// Encode serializes the token account into its account layout.
func (a *Account) Encode() ([]byte, error) {
	w := layout.NewWriter(entry.TypeTokenAccount, AccountSize)
	w.Address(a.Mint)
	w.Address(a.Authority)
	w.U64(a.Amount)
	return w.Bytes()
}

// DecodeAccount parses token account data.
func DecodeAccount(data []byte) (*Account, error) {
	r := layout.NewReader(data)
	a := &Account{
		Mint:      r.Address(),
		Authority: r.Address(),
		Amount:    r.U64(),
	}
	return a, r.Err()
}
