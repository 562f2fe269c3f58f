package ocr2

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
)

// Oracle is an active member of the oracle set together with its billing
// ledger entry.
type Oracle struct {
	Signer        secp256k1.SignerAddress `json:"signer"`
	Transmitter   types.Address           `json:"transmitter"`
	Payee         types.Address           `json:"payee"`
	ProposedPayee types.Address           `json:"proposed_payee"`
	FromRoundID   uint32                  `json:"from_round_id"`
	PaymentGjuels uint64                  `json:"payment_gjuels"`
}

// Billing holds the payment rates in gjuels.
type Billing struct {
	ObservationPaymentGjuels  uint32 `json:"observation_payment_gjuels"`
	TransmissionPaymentGjuels uint32 `json:"transmission_payment_gjuels"`
}

// OffchainConfig is a versioned opaque blob consumed by the oracle nodes.
type OffchainConfig struct {
	Version uint64 `json:"version"`
	Data    []byte `json:"data"`
}

// Config is the active configuration of an aggregator.
type Config struct {
	LatestConfigDigest        [32]byte      `json:"latest_config_digest"`
	F                         uint8         `json:"f"`
	Epoch                     uint32        `json:"epoch"`
	Round                     uint8         `json:"round"`
	LatestAggregatorRoundID   uint32        `json:"latest_aggregator_round_id"`
	LatestTransmitter         types.Address `json:"latest_transmitter"`
	ConfigCount               uint32        `json:"config_count"`
	MinAnswer                 sdkmath.Int   `json:"min_answer"`
	MaxAnswer                 sdkmath.Int   `json:"max_answer"`
	Billing                   Billing       `json:"billing"`
	TokenMint                 types.Address `json:"token_mint"`
	TokenVault                types.Address `json:"token_vault"`
	RequesterAccessController types.Address `json:"requester_access_controller"`
	BillingAccessController   types.Address `json:"billing_access_controller"`
}

// State is the authoritative record of an aggregator. Instructions load it,
// mutate the copy and write it back whole.
type State struct {
	Version        uint8          `json:"version"`
	StoreNonce     uint8          `json:"store_nonce"`
	VaultNonce     uint8          `json:"vault_nonce"`
	Owner          types.Address  `json:"owner"`
	ProposedOwner  types.Address  `json:"proposed_owner"`
	Feed           types.Address  `json:"feed"`
	Config         Config         `json:"config"`
	Oracles        []Oracle       `json:"oracles"`
	OffchainConfig OffchainConfig `json:"offchain_config"`
}

// Encode serializes the state into its fixed account layout.
func (s *State) Encode() ([]byte, error) {
	if len(s.Oracles) > MaxOracles {
		return nil, fmt.Errorf("%d oracles exceed %d", len(s.Oracles), MaxOracles)
	}
	if len(s.OffchainConfig.Data) > MaxOffchainConfigLen {
		return nil, fmt.Errorf("offchain config of %d bytes exceeds %d", len(s.OffchainConfig.Data), MaxOffchainConfigLen)
	}
	w := layout.NewWriter(entry.TypeState, StateSize)
	w.U8(s.Version)
	w.U8(s.StoreNonce)
	w.U8(s.VaultNonce)
	w.Address(s.Owner)
	w.Address(s.ProposedOwner)
	w.Address(s.Feed)

	c := &s.Config
	w.Fixed(c.LatestConfigDigest[:])
	w.U8(c.F)
	w.U8(uint8(len(s.Oracles)))
	w.U32(c.Epoch)
	w.U8(c.Round)
	w.U32(c.LatestAggregatorRoundID)
	w.Address(c.LatestTransmitter)
	w.U32(c.ConfigCount)
	w.Int128(c.MinAnswer)
	w.Int128(c.MaxAnswer)
	w.U32(c.Billing.ObservationPaymentGjuels)
	w.U32(c.Billing.TransmissionPaymentGjuels)
	w.Address(c.TokenMint)
	w.Address(c.TokenVault)
	w.Address(c.RequesterAccessController)
	w.Address(c.BillingAccessController)

	for i := 0; i < MaxOracles; i++ {
		var o Oracle
		if i < len(s.Oracles) {
			o = s.Oracles[i]
		}
		w.Fixed(o.Signer[:])
		w.Address(o.Transmitter)
		w.Address(o.Payee)
		w.Address(o.ProposedPayee)
		w.U32(o.FromRoundID)
		w.U64(o.PaymentGjuels)
	}
	encodeOffchainConfig(w, s.OffchainConfig)
	return w.Bytes()
}

// DecodeState parses aggregator state account data.
func DecodeState(data []byte) (*State, error) {
	if !entry.TypeState.Matches(data) || len(data) != StateSize {
		return nil, fmt.Errorf("not an aggregator state account")
	}
	r := layout.NewReader(data)
	s := &State{
		Version:       r.U8(),
		StoreNonce:    r.U8(),
		VaultNonce:    r.U8(),
		Owner:         r.Address(),
		ProposedOwner: r.Address(),
		Feed:          r.Address(),
	}
	c := &s.Config
	copy(c.LatestConfigDigest[:], r.Fixed(32))
	c.F = r.U8()
	n := int(r.U8())
	c.Epoch = r.U32()
	c.Round = r.U8()
	c.LatestAggregatorRoundID = r.U32()
	c.LatestTransmitter = r.Address()
	c.ConfigCount = r.U32()
	c.MinAnswer = r.Int128()
	c.MaxAnswer = r.Int128()
	c.Billing.ObservationPaymentGjuels = r.U32()
	c.Billing.TransmissionPaymentGjuels = r.U32()
	c.TokenMint = r.Address()
	c.TokenVault = r.Address()
	c.RequesterAccessController = r.Address()
	c.BillingAccessController = r.Address()

	if n > MaxOracles {
		return nil, fmt.Errorf("oracle count %d exceeds %d", n, MaxOracles)
	}
	s.Oracles = make([]Oracle, 0, n)
	for i := 0; i < MaxOracles; i++ {
		var o Oracle
		copy(o.Signer[:], r.Fixed(secp256k1.AddressSize))
		o.Transmitter = r.Address()
		o.Payee = r.Address()
		o.ProposedPayee = r.Address()
		o.FromRoundID = r.U32()
		o.PaymentGjuels = r.U64()
		if i < n {
			s.Oracles = append(s.Oracles, o)
		}
	}
	cfg, err := decodeOffchainConfig(r)
	if err != nil {
		return nil, err
	}
	s.OffchainConfig = cfg
	return s, r.Err()
}

func encodeOffchainConfig(w *layout.Writer, c OffchainConfig) {
	w.U64(c.Version)
	w.U32(uint32(len(c.Data)))
	var buf [MaxOffchainConfigLen]byte
	copy(buf[:], c.Data)
	w.Fixed(buf[:])
}

func decodeOffchainConfig(r *layout.Reader) (OffchainConfig, error) {
	c := OffchainConfig{Version: r.U64()}
	n := r.U32()
	buf := r.Fixed(MaxOffchainConfigLen)
	if n > MaxOffchainConfigLen {
		return OffchainConfig{}, fmt.Errorf("offchain config length %d exceeds %d", n, MaxOffchainConfigLen)
	}
	if buf != nil {
		c.Data = buf[:n]
	}
	return c, nil
}

// TotalOwed sums every oracle's accrued balance.
func (s *State) TotalOwed() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, o := range s.Oracles {
		total = total.Add(sdkmath.NewIntFromUint64(o.PaymentGjuels))
	}
	return total
}

// OracleByTransmitter returns the index of the oracle with the given
// transmitter, or -1.
func (s *State) OracleByTransmitter(transmitter types.Address) int {
	for i, o := range s.Oracles {
		if o.Transmitter == transmitter {
			return i
		}
	}
	return -1
}

// StoreAuthority is the derived signer the aggregator writes rounds with.
func (s *State) StoreAuthority(state types.Address) (types.Address, error) {
	return keylet.CreateDerivedAddress(keylet.OCR2Program, s.StoreNonce, []byte("store"), state[:])
}

// VaultAuthority is the derived owner of the billing vault.
func (s *State) VaultAuthority(state types.Address) (types.Address, error) {
	return keylet.CreateDerivedAddress(keylet.OCR2Program, s.VaultNonce, []byte("vault"), state[:])
}

// ReadState decodes a committed aggregator state.
func ReadState(view tx.AccountReader, addr types.Address) (*State, error) {
	raw, err := view.Read(keylet.State(addr))
	if err != nil {
		return nil, err
	}
	if raw == nil || raw.Owner != keylet.OCR2Program {
		return nil, tx.Errorf(tx.TecNO_ENTRY, "aggregator %s not found", addr)
	}
	return DecodeState(raw.Data)
}

func loadState(ctx *tx.ApplyContext, addr types.Address) (*tx.Account, *State, tx.Result) {
	raw, r := ctx.Load(keylet.State(addr), keylet.OCR2Program)
	if !r.IsSuccess() {
		return nil, nil, r
	}
	s, err := DecodeState(raw.Data)
	if err != nil {
		return nil, nil, tx.TecINVALID_ACCOUNT
	}
	return raw, s, tx.TesSUCCESS
}

func saveState(ctx *tx.ApplyContext, addr types.Address, raw *tx.Account, s *State) tx.Result {
	data, err := s.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(keylet.State(addr), raw)
}

// updateState runs an owner-only mutation.
func updateState(ctx *tx.ApplyContext, addr types.Address, fn func(s *State) tx.Result) tx.Result {
	raw, s, r := loadState(ctx, addr)
	if !r.IsSuccess() {
		return r
	}
	if !ctx.IsSigner(s.Owner) {
		return tx.TecNO_PERMISSION
	}
	if r := fn(s); !r.IsSuccess() {
		return r
	}
	return saveState(ctx, addr, raw, s)
}
