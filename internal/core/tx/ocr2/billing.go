package ocr2

import (
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/access"
	"github.com/LeJamon/goOCR2/internal/core/tx/token"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// TransmitterPayment is the reimbursement owed to a transmitter:
// transmissionPayment + floor(lamports * juelsPerFeecoin / 1e9).
func TransmitterPayment(transmissionPaymentGjuels uint32, lamports, juelsPerFeecoin uint64) sdkmath.Int {
	reimbursement := sdkmath.NewIntFromUint64(lamports).
		Mul(sdkmath.NewIntFromUint64(juelsPerFeecoin)).
		QuoRaw(feeScale)
	return reimbursement.Add(sdkmath.NewIntFromUint64(uint64(transmissionPaymentGjuels)))
}

// creditTransmission credits every signing oracle with the observation
// payment and the transmitter with its transmission payment.
func creditTransmission(ctx *tx.ApplyContext, s *State, signers []int, transmitter int, juelsPerFeecoin uint64) tx.Result {
	observation := sdkmath.NewIntFromUint64(uint64(s.Config.Billing.ObservationPaymentGjuels))
	for _, idx := range signers {
		if r := credit(&s.Oracles[idx], observation); !r.IsSuccess() {
			return r
		}
	}

	var lamports uint64
	if ctx.FeePayer == s.Oracles[transmitter].Transmitter {
		lamports = ctx.Fee
	}
	payment := TransmitterPayment(s.Config.Billing.TransmissionPaymentGjuels, lamports, juelsPerFeecoin)
	return credit(&s.Oracles[transmitter], payment)
}

func credit(o *Oracle, amount sdkmath.Int) tx.Result {
	total := sdkmath.NewIntFromUint64(o.PaymentGjuels).Add(amount)
	if !total.IsUint64() {
		return tx.TecMATH_OVERFLOW
	}
	o.PaymentGjuels = total.Uint64()
	return tx.TesSUCCESS
}

// payOracles transfers every oracle's full balance from the vault to its
// payee and zeroes the ledger entries.
func payOracles(ctx *tx.ApplyContext, state types.Address, s *State) tx.Result {
	vaultAuthority, err := s.VaultAuthority(state)
	if err != nil {
		return tx.TecINTERNAL
	}
	for idx := range s.Oracles {
		o := &s.Oracles[idx]
		if o.PaymentGjuels == 0 {
			continue
		}
		if r := ctx.Invoke(&token.Transfer{
			Source:      s.Config.TokenVault,
			Destination: o.Payee,
			Authority:   vaultAuthority,
			Amount:      o.PaymentGjuels,
		}, vaultAuthority); !r.IsSuccess() {
			return r
		}
		o.PaymentGjuels = 0
		o.FromRoundID = s.Config.LatestAggregatorRoundID
	}
	return tx.TesSUCCESS
}

// billingAuthorized allows the owner or a member of the billing access controller.
func billingAuthorized(ctx *tx.ApplyContext, s *State, authority types.Address) bool {
	if !ctx.IsSigner(authority) {
		return false
	}
	return authority == s.Owner || access.HasAccess(ctx.View, s.Config.BillingAccessController, authority)
}

// SetBilling settles balances at the old rates and installs new ones.
type SetBilling struct {
	State                     types.Address `codec:"state" json:"state"`
	Authority                 types.Address `codec:"authority" json:"authority"`
	ObservationPaymentGjuels  uint32        `codec:"observation_payment_gjuels" json:"observation_payment_gjuels"`
	TransmissionPaymentGjuels uint32        `codec:"transmission_payment_gjuels" json:"transmission_payment_gjuels"`
}

func (i *SetBilling) Program() types.Address { return keylet.OCR2Program }
func (i *SetBilling) Kind() string           { return KindSetBilling }

// Validate validates the SetBilling instruction
func (i *SetBilling) Validate() error {
	if i.State.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("set_billing: missing address")
	}
	return nil
}

// Apply applies the SetBilling instruction
func (i *SetBilling) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	if !billingAuthorized(ctx, s, i.Authority) {
		return tx.TecNO_PERMISSION
	}
	if r := payOracles(ctx, i.State, s); !r.IsSuccess() {
		return r
	}
	s.Config.Billing = Billing{
		ObservationPaymentGjuels:  i.ObservationPaymentGjuels,
		TransmissionPaymentGjuels: i.TransmissionPaymentGjuels,
	}
	return saveState(ctx, i.State, raw, s)
}

// PayOracles pays out every oracle's accrued balance.
type PayOracles struct {
	State     types.Address `codec:"state" json:"state"`
	Authority types.Address `codec:"authority" json:"authority"`
}

func (i *PayOracles) Program() types.Address { return keylet.OCR2Program }
func (i *PayOracles) Kind() string           { return KindPayOracles }

// Validate validates the PayOracles instruction
func (i *PayOracles) Validate() error {
	if i.State.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("pay_oracles: missing address")
	}
	return nil
}

// Apply applies the PayOracles instruction
func (i *PayOracles) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	if !billingAuthorized(ctx, s, i.Authority) {
		return tx.TecNO_PERMISSION
	}
	if r := payOracles(ctx, i.State, s); !r.IsSuccess() {
		return r
	}
	return saveState(ctx, i.State, raw, s)
}

// WithdrawFunds moves vault surplus, the balance not owed to oracles, to any
// token account of the mint.
type WithdrawFunds struct {
	State     types.Address `codec:"state" json:"state"`
	Authority types.Address `codec:"authority" json:"authority"`
	Recipient types.Address `codec:"recipient" json:"recipient"`
	Amount    uint64        `codec:"amount" json:"amount"`
}

func (i *WithdrawFunds) Program() types.Address { return keylet.OCR2Program }
func (i *WithdrawFunds) Kind() string           { return KindWithdrawFunds }

// Validate validates the WithdrawFunds instruction
func (i *WithdrawFunds) Validate() error {
	if i.State.IsZero() || i.Authority.IsZero() || i.Recipient.IsZero() {
		return tx.Malformed("withdraw_funds: missing address")
	}
	if i.Amount == 0 {
		return tx.Errorf(tx.TemBAD_AMOUNT, "withdraw_funds: zero amount")
	}
	return nil
}

// Apply applies the WithdrawFunds instruction
func (i *WithdrawFunds) Apply(ctx *tx.ApplyContext) tx.Result {
	_, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	if !billingAuthorized(ctx, s, i.Authority) {
		return tx.TecNO_PERMISSION
	}
	_, vault, r := token.LoadAccount(ctx, s.Config.TokenVault)
	if !r.IsSuccess() {
		return r
	}
	available := sdkmath.NewIntFromUint64(vault.Amount).Sub(s.TotalOwed())
	if available.LT(sdkmath.NewIntFromUint64(i.Amount)) {
		return tx.TecINSUFFICIENT_FUNDS
	}
	vaultAuthority, err := s.VaultAuthority(i.State)
	if err != nil {
		return tx.TecINTERNAL
	}
	return ctx.Invoke(&token.Transfer{
		Source:      s.Config.TokenVault,
		Destination: i.Recipient,
		Authority:   vaultAuthority,
		Amount:      i.Amount,
	}, vaultAuthority)
}

// TransferPayeeship proposes a new payee for the oracle with the given
// transmitter. The authority of the current payee account signs.
type TransferPayeeship struct {
	State       types.Address `codec:"state" json:"state"`
	Transmitter types.Address `codec:"transmitter" json:"transmitter"`
	Authority   types.Address `codec:"authority" json:"authority"`
	Proposed    types.Address `codec:"proposed" json:"proposed"`
}

func (i *TransferPayeeship) Program() types.Address { return keylet.OCR2Program }
func (i *TransferPayeeship) Kind() string           { return KindTransferPayeeship }

// Validate validates the TransferPayeeship instruction
func (i *TransferPayeeship) Validate() error {
	if i.State.IsZero() || i.Transmitter.IsZero() || i.Authority.IsZero() || i.Proposed.IsZero() {
		return tx.Malformed("transfer_payeeship: missing address")
	}
	return nil
}

// Apply applies the TransferPayeeship instruction
func (i *TransferPayeeship) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	idx := s.OracleByTransmitter(i.Transmitter)
	if idx < 0 {
		return tx.TecNO_ENTRY
	}
	o := &s.Oracles[idx]
	_, current, r := token.LoadAccount(ctx, o.Payee)
	if !r.IsSuccess() {
		return r
	}
	if current.Authority != i.Authority || !ctx.IsSigner(i.Authority) {
		return tx.TecNO_PERMISSION
	}
	_, proposed, r := token.LoadAccount(ctx, i.Proposed)
	if !r.IsSuccess() {
		return r
	}
	if proposed.Mint != s.Config.TokenMint {
		return tx.TecMINT_MISMATCH
	}
	o.ProposedPayee = i.Proposed
	return saveState(ctx, i.State, raw, s)
}

// AcceptPayeeship completes a payee handover. The authority of the proposed
// payee account signs.
type AcceptPayeeship struct {
	State       types.Address `codec:"state" json:"state"`
	Transmitter types.Address `codec:"transmitter" json:"transmitter"`
	Authority   types.Address `codec:"authority" json:"authority"`
}

func (i *AcceptPayeeship) Program() types.Address { return keylet.OCR2Program }
func (i *AcceptPayeeship) Kind() string           { return KindAcceptPayeeship }

// Validate validates the AcceptPayeeship instruction
func (i *AcceptPayeeship) Validate() error {
	if i.State.IsZero() || i.Transmitter.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("accept_payeeship: missing address")
	}
	return nil
}

// Apply applies the AcceptPayeeship instruction
func (i *AcceptPayeeship) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	idx := s.OracleByTransmitter(i.Transmitter)
	if idx < 0 {
		return tx.TecNO_ENTRY
	}
	o := &s.Oracles[idx]
	if o.ProposedPayee.IsZero() {
		return tx.TecINVALID_STATE
	}
	_, proposed, r := token.LoadAccount(ctx, o.ProposedPayee)
	if !r.IsSuccess() {
		return r
	}
	if proposed.Authority != i.Authority || !ctx.IsSigner(i.Authority) {
		return tx.TecNO_PERMISSION
	}
	o.Payee = o.ProposedPayee
	o.ProposedPayee = types.ZeroAddress
	return saveState(ctx, i.State, raw, s)
}
