// Package token implements a minimal fungible token program: mints, token
// accounts, minting and transfers. The OCR2 program pays oracles with it.
package token

import (
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Instruction kinds
const (
	KindInitializeMint    = "initialize_mint"
	KindInitializeAccount = "initialize_account"
	KindMintTo            = "mint_to"
	KindTransfer          = "transfer"
)

func init() {
	tx.Register(keylet.TokenProgram, KindInitializeMint, func() tx.Handler { return &InitializeMint{} })
	tx.Register(keylet.TokenProgram, KindInitializeAccount, func() tx.Handler { return &InitializeAccount{} })
	tx.Register(keylet.TokenProgram, KindMintTo, func() tx.Handler { return &MintTo{} })
	tx.Register(keylet.TokenProgram, KindTransfer, func() tx.Handler { return &Transfer{} })
}

// InitializeMint turns an empty token-owned account into a mint.
type InitializeMint struct {
	Mint      types.Address `codec:"mint" json:"mint"`
	Authority types.Address `codec:"authority" json:"authority"`
	Decimals  uint8         `codec:"decimals" json:"decimals"`
}

func (i *InitializeMint) Program() types.Address { return keylet.TokenProgram }
func (i *InitializeMint) Kind() string           { return KindInitializeMint }

// Validate validates the InitializeMint instruction
func (i *InitializeMint) Validate() error {
	if i.Mint.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("initialize_mint: missing address")
	}
	return nil
}

// Apply applies the InitializeMint instruction
func (i *InitializeMint) Apply(ctx *tx.ApplyContext) tx.Result {
	k := keylet.Mint(i.Mint)
	raw, r := claimUninitialized(ctx, k, MintSize)
	if !r.IsSuccess() {
		return r
	}
	m := &Mint{Authority: i.Authority, Decimals: i.Decimals}
	return store(ctx, k, raw, m.Encode)
}

// InitializeAccount turns an empty token-owned account into a token account
// of Mint controlled by Authority.
type InitializeAccount struct {
	Account   types.Address `codec:"account" json:"account"`
	Mint      types.Address `codec:"mint" json:"mint"`
	Authority types.Address `codec:"authority" json:"authority"`
}

func (i *InitializeAccount) Program() types.Address { return keylet.TokenProgram }
func (i *InitializeAccount) Kind() string           { return KindInitializeAccount }

// Validate validates the InitializeAccount instruction
func (i *InitializeAccount) Validate() error {
	if i.Account.IsZero() || i.Mint.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("initialize_account: missing address")
	}
	return nil
}

// Apply applies the InitializeAccount instruction
func (i *InitializeAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	if _, _, r := LoadMint(ctx, i.Mint); !r.IsSuccess() {
		return r
	}
	k := keylet.TokenAccount(i.Account)
	raw, r := claimUninitialized(ctx, k, AccountSize)
	if !r.IsSuccess() {
		return r
	}
	a := &Account{Mint: i.Mint, Authority: i.Authority}
	return store(ctx, k, raw, a.Encode)
}

// MintTo issues new tokens into a token account. The mint authority signs.
type MintTo struct {
	Mint        types.Address `codec:"mint" json:"mint"`
	Destination types.Address `codec:"destination" json:"destination"`
	Authority   types.Address `codec:"authority" json:"authority"`
	Amount      uint64        `codec:"amount" json:"amount"`
}

func (i *MintTo) Program() types.Address { return keylet.TokenProgram }
func (i *MintTo) Kind() string           { return KindMintTo }

// Validate validates the MintTo instruction
func (i *MintTo) Validate() error {
	if i.Mint.IsZero() || i.Destination.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("mint_to: missing address")
	}
	if i.Amount == 0 {
		return tx.Errorf(tx.TemBAD_AMOUNT, "mint_to: zero amount")
	}
	return nil
}

// Apply applies the MintTo instruction
func (i *MintTo) Apply(ctx *tx.ApplyContext) tx.Result {
	mintRaw, mint, r := LoadMint(ctx, i.Mint)
	if !r.IsSuccess() {
		return r
	}
	if mint.Authority != i.Authority || !ctx.IsSigner(i.Authority) {
		return tx.TecNO_PERMISSION
	}
	destRaw, dest, r := LoadAccount(ctx, i.Destination)
	if !r.IsSuccess() {
		return r
	}
	if dest.Mint != i.Mint {
		return tx.TecMINT_MISMATCH
	}

	var ok bool
	if mint.Supply, ok = addAmount(mint.Supply, i.Amount); !ok {
		return tx.TecMATH_OVERFLOW
	}
	if dest.Amount, ok = addAmount(dest.Amount, i.Amount); !ok {
		return tx.TecMATH_OVERFLOW
	}
	if r := store(ctx, keylet.Mint(i.Mint), mintRaw, mint.Encode); !r.IsSuccess() {
		return r
	}
	return store(ctx, keylet.TokenAccount(i.Destination), destRaw, dest.Encode)
}

// Transfer moves tokens between two accounts of the same mint. The source's
// authority signs, directly or as a derived program authority.
type Transfer struct {
	Source      types.Address `codec:"source" json:"source"`
	Destination types.Address `codec:"destination" json:"destination"`
	Authority   types.Address `codec:"authority" json:"authority"`
	Amount      uint64        `codec:"amount" json:"amount"`
}

func (i *Transfer) Program() types.Address { return keylet.TokenProgram }
func (i *Transfer) Kind() string           { return KindTransfer }

// Validate validates the Transfer instruction
func (i *Transfer) Validate() error {
	if i.Source.IsZero() || i.Destination.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("transfer: missing address")
	}
	return nil
}

// Apply applies the Transfer instruction
func (i *Transfer) Apply(ctx *tx.ApplyContext) tx.Result {
	srcRaw, src, r := LoadAccount(ctx, i.Source)
	if !r.IsSuccess() {
		return r
	}
	if src.Authority != i.Authority || !ctx.IsSigner(i.Authority) {
		return tx.TecNO_PERMISSION
	}
	if i.Amount == 0 || i.Source == i.Destination {
		return tx.TesSUCCESS
	}
	destRaw, dest, r := LoadAccount(ctx, i.Destination)
	if !r.IsSuccess() {
		return r
	}
	if dest.Mint != src.Mint {
		return tx.TecMINT_MISMATCH
	}
	if src.Amount < i.Amount {
		return tx.TecINSUFFICIENT_FUNDS
	}

	src.Amount -= i.Amount
	var ok bool
	if dest.Amount, ok = addAmount(dest.Amount, i.Amount); !ok {
		return tx.TecMATH_OVERFLOW
	}
	if r := store(ctx, keylet.TokenAccount(i.Source), srcRaw, src.Encode); !r.IsSuccess() {
		return r
	}
	ctx.Log("transferred %d from %s to %s", i.Amount, i.Source, i.Destination)
	return store(ctx, keylet.TokenAccount(i.Destination), destRaw, dest.Encode)
}
