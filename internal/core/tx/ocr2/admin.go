package ocr2

import (
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/access"
	"github.com/LeJamon/goOCR2/internal/core/tx/store"
	"github.com/LeJamon/goOCR2/internal/core/tx/token"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Initialize sets up an aggregator on a pre-allocated state account. The
// vault must be a token account of the mint held by the vault authority.
type Initialize struct {
	State                     types.Address `codec:"state" json:"state"`
	Owner                     types.Address `codec:"owner" json:"owner"`
	Feed                      types.Address `codec:"feed" json:"feed"`
	TokenMint                 types.Address `codec:"token_mint" json:"token_mint"`
	TokenVault                types.Address `codec:"token_vault" json:"token_vault"`
	RequesterAccessController types.Address `codec:"requester_access_controller" json:"requester_access_controller"`
	BillingAccessController   types.Address `codec:"billing_access_controller" json:"billing_access_controller"`

	// MinAnswer and MaxAnswer are base-10 signed 128-bit integers
	MinAnswer string `codec:"min_answer" json:"min_answer"`
	MaxAnswer string `codec:"max_answer" json:"max_answer"`
}

func (i *Initialize) Program() types.Address { return keylet.OCR2Program }
func (i *Initialize) Kind() string           { return KindInitialize }

func (i *Initialize) bounds() (sdkmath.Int, sdkmath.Int, error) {
	lo, ok := sdkmath.NewIntFromString(i.MinAnswer)
	if !ok || !types.FitsInt128(lo) {
		return sdkmath.Int{}, sdkmath.Int{}, tx.Malformed("initialize: min answer %q is not a 128-bit integer", i.MinAnswer)
	}
	hi, ok := sdkmath.NewIntFromString(i.MaxAnswer)
	if !ok || !types.FitsInt128(hi) {
		return sdkmath.Int{}, sdkmath.Int{}, tx.Malformed("initialize: max answer %q is not a 128-bit integer", i.MaxAnswer)
	}
	if lo.GT(hi) {
		return sdkmath.Int{}, sdkmath.Int{}, tx.Malformed("initialize: min answer exceeds max answer")
	}
	return lo, hi, nil
}

// Validate validates the Initialize instruction
func (i *Initialize) Validate() error {
	if i.State.IsZero() || i.Owner.IsZero() || i.Feed.IsZero() || i.TokenMint.IsZero() || i.TokenVault.IsZero() {
		return tx.Malformed("initialize: missing address")
	}
	_, _, err := i.bounds()
	return err
}

// Apply applies the Initialize instruction
func (i *Initialize) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(i.Owner) {
		return tx.TecNO_PERMISSION
	}
	k := keylet.State(i.State)
	raw, r := claim(ctx, k, StateSize)
	if !r.IsSuccess() {
		return r
	}
	minAnswer, maxAnswer, err := i.bounds()
	if err != nil {
		return tx.TemMALFORMED
	}
	if _, err := store.ReadFeed(ctx.View, i.Feed); err != nil {
		return tx.TecNO_ENTRY
	}
	if _, _, r := token.LoadMint(ctx, i.TokenMint); !r.IsSuccess() {
		return r
	}

	_, storeNonce, err := keylet.StoreAuthority(i.State)
	if err != nil {
		return tx.TecINTERNAL
	}
	vaultAuthority, vaultNonce, err := keylet.VaultAuthority(i.State)
	if err != nil {
		return tx.TecINTERNAL
	}
	_, vault, r := token.LoadAccount(ctx, i.TokenVault)
	if !r.IsSuccess() {
		return r
	}
	if vault.Mint != i.TokenMint {
		return tx.TecMINT_MISMATCH
	}
	if vault.Authority != vaultAuthority {
		return tx.TecINVALID_ACCOUNT
	}

	s := &State{
		Version:    stateVersion,
		StoreNonce: storeNonce,
		VaultNonce: vaultNonce,
		Owner:      i.Owner,
		Feed:       i.Feed,
		Config: Config{
			MinAnswer:                 minAnswer,
			MaxAnswer:                 maxAnswer,
			TokenMint:                 i.TokenMint,
			TokenVault:                i.TokenVault,
			RequesterAccessController: i.RequesterAccessController,
			BillingAccessController:   i.BillingAccessController,
		},
	}
	data, err := s.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(k, raw)
}

// TransferOwnership nominates a new aggregator owner.
type TransferOwnership struct {
	State         types.Address `codec:"state" json:"state"`
	ProposedOwner types.Address `codec:"proposed_owner" json:"proposed_owner"`
}

func (i *TransferOwnership) Program() types.Address { return keylet.OCR2Program }
func (i *TransferOwnership) Kind() string           { return KindTransferOwnership }

// Validate validates the TransferOwnership instruction
func (i *TransferOwnership) Validate() error {
	if i.State.IsZero() || i.ProposedOwner.IsZero() {
		return tx.Malformed("transfer_ownership: missing address")
	}
	return nil
}

// Apply applies the TransferOwnership instruction
func (i *TransferOwnership) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateState(ctx, i.State, func(s *State) tx.Result {
		s.ProposedOwner = i.ProposedOwner
		return tx.TesSUCCESS
	})
}

// AcceptOwnership completes an ownership transfer. The proposed owner signs.
type AcceptOwnership struct {
	State types.Address `codec:"state" json:"state"`
}

func (i *AcceptOwnership) Program() types.Address { return keylet.OCR2Program }
func (i *AcceptOwnership) Kind() string           { return KindAcceptOwnership }

// Validate validates the AcceptOwnership instruction
func (i *AcceptOwnership) Validate() error {
	if i.State.IsZero() {
		return tx.Malformed("accept_ownership: missing state")
	}
	return nil
}

// Apply applies the AcceptOwnership instruction
func (i *AcceptOwnership) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	if s.ProposedOwner.IsZero() || !ctx.IsSigner(s.ProposedOwner) {
		return tx.TecNO_PERMISSION
	}
	s.Owner = s.ProposedOwner
	s.ProposedOwner = types.ZeroAddress
	return saveState(ctx, i.State, raw, s)
}

// SetRequesterAccessController replaces the list allowed to request rounds.
type SetRequesterAccessController struct {
	State      types.Address `codec:"state" json:"state"`
	Controller types.Address `codec:"controller" json:"controller"`
}

func (i *SetRequesterAccessController) Program() types.Address { return keylet.OCR2Program }
func (i *SetRequesterAccessController) Kind() string           { return KindSetRequesterAccessController }

// Validate validates the SetRequesterAccessController instruction
func (i *SetRequesterAccessController) Validate() error {
	if i.State.IsZero() {
		return tx.Malformed("set_requester_access_controller: missing state")
	}
	return nil
}

// Apply applies the SetRequesterAccessController instruction
func (i *SetRequesterAccessController) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateState(ctx, i.State, func(s *State) tx.Result {
		s.Config.RequesterAccessController = i.Controller
		return tx.TesSUCCESS
	})
}

// SetBillingAccessController replaces the list allowed to manage billing.
type SetBillingAccessController struct {
	State      types.Address `codec:"state" json:"state"`
	Controller types.Address `codec:"controller" json:"controller"`
}

func (i *SetBillingAccessController) Program() types.Address { return keylet.OCR2Program }
func (i *SetBillingAccessController) Kind() string           { return KindSetBillingAccessController }

// Validate validates the SetBillingAccessController instruction
func (i *SetBillingAccessController) Validate() error {
	if i.State.IsZero() {
		return tx.Malformed("set_billing_access_controller: missing state")
	}
	return nil
}

// Apply applies the SetBillingAccessController instruction
func (i *SetBillingAccessController) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateState(ctx, i.State, func(s *State) tx.Result {
		s.Config.BillingAccessController = i.Controller
		return tx.TesSUCCESS
	})
}

// RequestNewRound asks the oracle network for a fresh report. It only emits
// an event carrying the current config digest, epoch and round.
type RequestNewRound struct {
	State     types.Address `codec:"state" json:"state"`
	Authority types.Address `codec:"authority" json:"authority"`
}

func (i *RequestNewRound) Program() types.Address { return keylet.OCR2Program }
func (i *RequestNewRound) Kind() string           { return KindRequestNewRound }

// Validate validates the RequestNewRound instruction
func (i *RequestNewRound) Validate() error {
	if i.State.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("request_new_round: missing address")
	}
	return nil
}

// Apply applies the RequestNewRound instruction
func (i *RequestNewRound) Apply(ctx *tx.ApplyContext) tx.Result {
	_, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	if !ctx.IsSigner(i.Authority) {
		return tx.TecNO_PERMISSION
	}
	if i.Authority != s.Owner && !access.HasAccess(ctx.View, s.Config.RequesterAccessController, i.Authority) {
		return tx.TecNO_PERMISSION
	}

	w := &layout.Writer{}
	w.Address(i.State)
	w.Address(i.Authority)
	w.Fixed(s.Config.LatestConfigDigest[:])
	w.U32(s.Config.Epoch)
	w.U8(s.Config.Round)
	data, err := w.Bytes()
	if err != nil {
		return tx.TecINTERNAL
	}
	ctx.Emit(EventRoundRequested, data)
	return tx.TesSUCCESS
}

// Close pays every oracle, sweeps the remaining vault balance to
// TokenRecipient and erases the aggregator state.
type Close struct {
	State          types.Address `codec:"state" json:"state"`
	Receiver       types.Address `codec:"receiver" json:"receiver"`
	TokenRecipient types.Address `codec:"token_recipient" json:"token_recipient"`
}

func (i *Close) Program() types.Address { return keylet.OCR2Program }
func (i *Close) Kind() string           { return KindClose }

// Validate validates the Close instruction
func (i *Close) Validate() error {
	if i.State.IsZero() || i.Receiver.IsZero() || i.TokenRecipient.IsZero() {
		return tx.Malformed("close: missing address")
	}
	return nil
}

// Apply applies the Close instruction
func (i *Close) Apply(ctx *tx.ApplyContext) tx.Result {
	_, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	if !ctx.IsSigner(s.Owner) {
		return tx.TecNO_PERMISSION
	}
	if r := payOracles(ctx, i.State, s); !r.IsSuccess() {
		return r
	}

	_, vault, r := token.LoadAccount(ctx, s.Config.TokenVault)
	if !r.IsSuccess() {
		return r
	}
	if vault.Amount > 0 {
		vaultAuthority, err := s.VaultAuthority(i.State)
		if err != nil {
			return tx.TecINTERNAL
		}
		if r := ctx.Invoke(&token.Transfer{
			Source:      s.Config.TokenVault,
			Destination: i.TokenRecipient,
			Authority:   vaultAuthority,
			Amount:      vault.Amount,
		}, vaultAuthority); !r.IsSuccess() {
			return r
		}
	}
	return ctx.Close(keylet.State(i.State), i.Receiver)
}
