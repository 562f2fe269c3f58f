package token

import (
	"math/bits"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// LoadMint reads an initialized mint.
func LoadMint(ctx *tx.ApplyContext, addr types.Address) (*tx.Account, *Mint, tx.Result) {
	raw, r := ctx.Load(keylet.Mint(addr), keylet.TokenProgram)
	if !r.IsSuccess() {
		return nil, nil, r
	}
	m, err := DecodeMint(raw.Data)
	if err != nil {
		return nil, nil, tx.TecINVALID_ACCOUNT
	}
	return raw, m, tx.TesSUCCESS
}

// LoadAccount reads an initialized token account.
func LoadAccount(ctx *tx.ApplyContext, addr types.Address) (*tx.Account, *Account, tx.Result) {
	raw, r := ctx.Load(keylet.TokenAccount(addr), keylet.TokenProgram)
	if !r.IsSuccess() {
		return nil, nil, r
	}
	a, err := DecodeAccount(raw.Data)
	if err != nil {
		return nil, nil, tx.TecINVALID_ACCOUNT
	}
	return raw, a, tx.TesSUCCESS
}

// ReadAccount decodes a token account from a committed view, outside of a
// transaction.
func ReadAccount(view tx.AccountReader, addr types.Address) (*Account, error) {
	raw, err := view.Read(keylet.TokenAccount(addr))
	if err != nil {
		return nil, err
	}
	if raw == nil || !entry.TypeTokenAccount.Matches(raw.Data) {
		return nil, tx.TecNO_ENTRY.Err()
	}
	return DecodeAccount(raw.Data)
}

func store(ctx *tx.ApplyContext, k keylet.Keylet, raw *tx.Account, encode func() ([]byte, error)) tx.Result {
	data, err := encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(k, raw)
}

// claimUninitialized checks an account handed to the token program has the
// right size and has not been initialized yet.
func claimUninitialized(ctx *tx.ApplyContext, k keylet.Keylet, size int) (*tx.Account, tx.Result) {
	raw, err := ctx.View.Read(k)
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	if raw == nil {
		return nil, tx.TecNO_ENTRY
	}
	if raw.Owner != keylet.TokenProgram {
		return nil, tx.TecWRONG_OWNER
	}
	if len(raw.Data) != size {
		return nil, tx.TecACCOUNT_SIZE
	}
	if entry.Detect(raw.Data) != entry.TypeAny {
		return nil, tx.TecALREADY_INITIALIZED
	}
	return raw, tx.TesSUCCESS
}

func addAmount(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}
