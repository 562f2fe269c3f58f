// Package system implements the system program: account creation and
// lamport transfers between system-owned accounts.
package system

import (
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// MaxAccountSpace is the largest data size an account may be created with.
const MaxAccountSpace = 10 * 1024 * 1024

// Instruction kinds
const (
	KindCreateAccount = "create_account"
	KindTransfer      = "transfer"
)

func init() {
	tx.Register(keylet.SystemProgram, KindCreateAccount, func() tx.Handler { return &CreateAccount{} })
	tx.Register(keylet.SystemProgram, KindTransfer, func() tx.Handler { return &Transfer{} })
}

// CreateAccount funds a new account from From and assigns it to Owner with
// Space zeroed data bytes. Both From and New must sign.
type CreateAccount struct {
	From     types.Address `codec:"from" json:"from"`
	New      types.Address `codec:"new" json:"new"`
	Lamports uint64        `codec:"lamports" json:"lamports"`
	Space    uint64        `codec:"space" json:"space"`
	Owner    types.Address `codec:"owner" json:"owner"`
}

func (c *CreateAccount) Program() types.Address { return keylet.SystemProgram }
func (c *CreateAccount) Kind() string           { return KindCreateAccount }

// Validate validates the CreateAccount instruction
func (c *CreateAccount) Validate() error {
	if c.From.IsZero() || c.New.IsZero() || c.Owner.IsZero() {
		return tx.Malformed("create_account: missing address")
	}
	if c.From == c.New {
		return tx.Malformed("create_account: funding account cannot be the new account")
	}
	if c.Space > MaxAccountSpace {
		return tx.Errorf(tx.TemBAD_ACCOUNT_SIZE, "space %d exceeds %d", c.Space, MaxAccountSpace)
	}
	return nil
}

// Apply applies the CreateAccount instruction
func (c *CreateAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(c.From) || !ctx.IsSigner(c.New) {
		return tx.TecNO_PERMISSION
	}

	newKey := keylet.Account(c.New)
	exists, err := ctx.View.Exists(newKey)
	if err != nil {
		return tx.TecINTERNAL
	}
	if exists {
		return tx.TecALREADY_INITIALIZED
	}

	if c.Lamports < ctx.RentExemptMinimum(int(c.Space)) {
		return tx.TecINSUFFICIENT_RENT
	}

	if r := debit(ctx, c.From, c.Lamports); !r.IsSuccess() {
		return r
	}
	if err := ctx.View.Insert(newKey, &tx.Account{
		Owner:    c.Owner,
		Lamports: c.Lamports,
		Data:     make([]byte, c.Space),
	}); err != nil {
		return tx.TecINTERNAL
	}
	ctx.Log("created account %s owned by %s with %d bytes", c.New, c.Owner, c.Space)
	return tx.TesSUCCESS
}

// Transfer moves lamports from a system-owned account. The destination is
// created as a system account when missing.
type Transfer struct {
	From     types.Address `codec:"from" json:"from"`
	To       types.Address `codec:"to" json:"to"`
	Lamports uint64        `codec:"lamports" json:"lamports"`
}

func (t *Transfer) Program() types.Address { return keylet.SystemProgram }
func (t *Transfer) Kind() string           { return KindTransfer }

// Validate validates the Transfer instruction
func (t *Transfer) Validate() error {
	if t.From.IsZero() || t.To.IsZero() {
		return tx.Malformed("transfer: missing address")
	}
	if t.Lamports == 0 {
		return tx.Errorf(tx.TemBAD_AMOUNT, "transfer: zero lamports")
	}
	return nil
}

// Apply applies the Transfer instruction
func (t *Transfer) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(t.From) {
		return tx.TecNO_PERMISSION
	}
	if t.From == t.To {
		return tx.TesSUCCESS
	}
	if r := debit(ctx, t.From, t.Lamports); !r.IsSuccess() {
		return r
	}

	toKey := keylet.Account(t.To)
	dest, err := ctx.View.Read(toKey)
	if err != nil {
		return tx.TecINTERNAL
	}
	if dest == nil {
		if err := ctx.View.Insert(toKey, &tx.Account{Owner: keylet.SystemProgram, Lamports: t.Lamports}); err != nil {
			return tx.TecINTERNAL
		}
		return tx.TesSUCCESS
	}
	dest.Lamports += t.Lamports
	return ctx.Store(toKey, dest)
}

func debit(ctx *tx.ApplyContext, from types.Address, lamports uint64) tx.Result {
	fromKey := keylet.Account(from)
	src, err := ctx.View.Read(fromKey)
	if err != nil {
		return tx.TecINTERNAL
	}
	if src == nil {
		return tx.TecNO_ENTRY
	}
	if src.Owner != keylet.SystemProgram {
		return tx.TecWRONG_OWNER
	}
	if src.Lamports < lamports {
		return tx.TecINSUFFICIENT_FUNDS
	}
	src.Lamports -= lamports
	return ctx.Store(fromKey, src)
}
