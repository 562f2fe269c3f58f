package ocr2

import (
	"bytes"
	"sort"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/token"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
)

// OracleConfig is a proposed oracle identity.
type OracleConfig struct {
	Signer      secp256k1.SignerAddress `codec:"signer" json:"signer"`
	Transmitter types.Address           `codec:"transmitter" json:"transmitter"`
}

// Proposal is a staged configuration.
type Proposal struct {
	Version        uint8          `json:"version"`
	Owner          types.Address  `json:"owner"`
	State          uint8          `json:"state"`
	F              uint8          `json:"f"`
	TokenMint      types.Address  `json:"token_mint"`
	Oracles        []DigestOracle `json:"oracles"`
	OffchainConfig OffchainConfig `json:"offchain_config"`
}

// Encode serializes the proposal into its fixed account layout.
func (p *Proposal) Encode() ([]byte, error) {
	w := layout.NewWriter(entry.TypeProposal, ProposalSize)
	w.U8(p.Version)
	w.Address(p.Owner)
	w.U8(p.State)
	w.U8(p.F)
	w.Address(p.TokenMint)
	w.U8(uint8(len(p.Oracles)))
	for i := 0; i < MaxOracles; i++ {
		var o DigestOracle
		if i < len(p.Oracles) {
			o = p.Oracles[i]
		}
		w.Fixed(o.Signer[:])
		w.Address(o.Transmitter)
		w.Address(o.Payee)
	}
	encodeOffchainConfig(w, p.OffchainConfig)
	return w.Bytes()
}

// DecodeProposal parses proposal account data.
func DecodeProposal(data []byte) (*Proposal, error) {
	if !entry.TypeProposal.Matches(data) || len(data) != ProposalSize {
		return nil, layout.ErrShortBuffer
	}
	r := layout.NewReader(data)
	p := &Proposal{
		Version:   r.U8(),
		Owner:     r.Address(),
		State:     r.U8(),
		F:         r.U8(),
		TokenMint: r.Address(),
	}
	n := int(r.U8())
	if n > MaxOracles {
		return nil, layout.ErrShortBuffer
	}
	for i := 0; i < MaxOracles; i++ {
		var o DigestOracle
		copy(o.Signer[:], r.Fixed(secp256k1.AddressSize))
		o.Transmitter = r.Address()
		o.Payee = r.Address()
		if i < n {
			p.Oracles = append(p.Oracles, o)
		}
	}
	cfg, err := decodeOffchainConfig(r)
	if err != nil {
		return nil, err
	}
	p.OffchainConfig = cfg
	return p, r.Err()
}

// Digest computes the digest AcceptProposal will check.
func (p *Proposal) Digest() [32]byte {
	return ConfigDigest(p.Oracles, p.F, p.TokenMint, p.OffchainConfig.Version, p.OffchainConfig.Data)
}

func (p *Proposal) payeesSet() bool {
	if len(p.Oracles) == 0 {
		return false
	}
	for _, o := range p.Oracles {
		if o.Payee.IsZero() {
			return false
		}
	}
	return true
}

// ReadProposal decodes a committed proposal.
func ReadProposal(view tx.AccountReader, addr types.Address) (*Proposal, error) {
	raw, err := view.Read(keylet.Proposal(addr))
	if err != nil {
		return nil, err
	}
	if raw == nil || raw.Owner != keylet.OCR2Program {
		return nil, tx.Errorf(tx.TecNO_ENTRY, "proposal %s not found", addr)
	}
	return DecodeProposal(raw.Data)
}

func loadProposal(ctx *tx.ApplyContext, addr types.Address) (*tx.Account, *Proposal, tx.Result) {
	raw, r := ctx.Load(keylet.Proposal(addr), keylet.OCR2Program)
	if !r.IsSuccess() {
		return nil, nil, r
	}
	p, err := DecodeProposal(raw.Data)
	if err != nil {
		return nil, nil, tx.TecINVALID_ACCOUNT
	}
	if !ctx.IsSigner(p.Owner) {
		return nil, nil, tx.TecNO_PERMISSION
	}
	return raw, p, tx.TesSUCCESS
}

// updateProposal runs an owner-only mutation on a proposal still open for changes.
func updateProposal(ctx *tx.ApplyContext, addr types.Address, fn func(p *Proposal) tx.Result) tx.Result {
	raw, p, r := loadProposal(ctx, addr)
	if !r.IsSuccess() {
		return r
	}
	if p.State != ProposalProposed {
		return tx.TecINVALID_STATE
	}
	if r := fn(p); !r.IsSuccess() {
		return r
	}
	data, err := p.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(keylet.Proposal(addr), raw)
}

// CreateProposal initializes a pre-allocated proposal account. Its signer
// owns the proposal.
type CreateProposal struct {
	Proposal types.Address `codec:"proposal" json:"proposal"`
	Owner    types.Address `codec:"owner" json:"owner"`

	// Version is the off-chain config version being proposed
	Version uint64 `codec:"version" json:"version"`
}

func (i *CreateProposal) Program() types.Address { return keylet.OCR2Program }
func (i *CreateProposal) Kind() string           { return KindCreateProposal }

// Validate validates the CreateProposal instruction
func (i *CreateProposal) Validate() error {
	if i.Proposal.IsZero() || i.Owner.IsZero() {
		return tx.Malformed("create_proposal: missing address")
	}
	if i.Version == 0 {
		return tx.Malformed("create_proposal: version must be non-zero")
	}
	return nil
}

// Apply applies the CreateProposal instruction
func (i *CreateProposal) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(i.Owner) {
		return tx.TecNO_PERMISSION
	}
	k := keylet.Proposal(i.Proposal)
	raw, r := claim(ctx, k, ProposalSize)
	if !r.IsSuccess() {
		return r
	}
	p := &Proposal{
		Version:        proposalVersion,
		Owner:          i.Owner,
		State:          ProposalProposed,
		OffchainConfig: OffchainConfig{Version: i.Version},
	}
	data, err := p.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(k, raw)
}

// ProposeConfig sets the oracle set and fault tolerance of a proposal.
// Oracles are stored sorted by signer address; previously proposed payees
// are cleared.
type ProposeConfig struct {
	Proposal types.Address  `codec:"proposal" json:"proposal"`
	Oracles  []OracleConfig `codec:"oracles" json:"oracles"`
	F        uint8          `codec:"f" json:"f"`
}

func (i *ProposeConfig) Program() types.Address { return keylet.OCR2Program }
func (i *ProposeConfig) Kind() string           { return KindProposeConfig }

// Validate validates the ProposeConfig instruction
func (i *ProposeConfig) Validate() error {
	if i.Proposal.IsZero() {
		return tx.Malformed("propose_config: missing proposal")
	}
	return ValidateOracleSet(i.Oracles, i.F)
}

// ValidateOracleSet checks the size, fault tolerance and distinct identities
// of an oracle set.
func ValidateOracleSet(oracles []OracleConfig, f uint8) error {
	n := len(oracles)
	if f == 0 {
		return tx.Errorf(tx.TemBAD_THRESHOLD, "f must be positive")
	}
	if n == 0 || n > MaxOracles {
		return tx.Errorf(tx.TemBAD_ORACLE_COUNT, "oracle count %d outside [1, %d]", n, MaxOracles)
	}
	if n < 3*int(f)+1 {
		return tx.Errorf(tx.TemBAD_ORACLE_COUNT, "%d oracles cannot tolerate f=%d faults", n, f)
	}
	signers := make(map[secp256k1.SignerAddress]bool, n)
	transmitters := make(map[types.Address]bool, n)
	for _, o := range oracles {
		if o.Transmitter.IsZero() || o.Signer == (secp256k1.SignerAddress{}) {
			return tx.Malformed("oracle with empty signer or transmitter")
		}
		if signers[o.Signer] {
			return tx.Errorf(tx.TemDUPLICATE_ORACLE, "duplicate signer %s", o.Signer)
		}
		if transmitters[o.Transmitter] {
			return tx.Errorf(tx.TemDUPLICATE_ORACLE, "duplicate transmitter %s", o.Transmitter)
		}
		signers[o.Signer] = true
		transmitters[o.Transmitter] = true
	}
	return nil
}

// Apply applies the ProposeConfig instruction
func (i *ProposeConfig) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateProposal(ctx, i.Proposal, func(p *Proposal) tx.Result {
		if p.OffchainConfig.Version == 0 {
			return tx.TecINVALID_CONFIG
		}
		oracles := make([]DigestOracle, 0, len(i.Oracles))
		for _, o := range i.Oracles {
			oracles = append(oracles, DigestOracle{Signer: o.Signer, Transmitter: o.Transmitter})
		}
		sort.Slice(oracles, func(a, b int) bool {
			return bytes.Compare(oracles[a].Signer[:], oracles[b].Signer[:]) < 0
		})
		p.Oracles = oracles
		p.F = i.F
		return tx.TesSUCCESS
	})
}

// WriteOffchainConfig appends a chunk to the proposal's off-chain config.
type WriteOffchainConfig struct {
	Proposal types.Address `codec:"proposal" json:"proposal"`
	Data     []byte        `codec:"data" json:"data"`
}

func (i *WriteOffchainConfig) Program() types.Address { return keylet.OCR2Program }
func (i *WriteOffchainConfig) Kind() string           { return KindWriteOffchainConfig }

// Validate validates the WriteOffchainConfig instruction
func (i *WriteOffchainConfig) Validate() error {
	if i.Proposal.IsZero() {
		return tx.Malformed("write_offchain_config: missing proposal")
	}
	if len(i.Data) == 0 {
		return tx.Malformed("write_offchain_config: empty chunk")
	}
	if len(i.Data) > MaxOffchainConfigLen {
		return tx.Errorf(tx.TemOVERSIZE, "chunk of %d bytes exceeds %d", len(i.Data), MaxOffchainConfigLen)
	}
	return nil
}

// Apply applies the WriteOffchainConfig instruction
func (i *WriteOffchainConfig) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateProposal(ctx, i.Proposal, func(p *Proposal) tx.Result {
		if len(p.OffchainConfig.Data)+len(i.Data) > MaxOffchainConfigLen {
			return tx.TecOVERSIZE
		}
		p.OffchainConfig.Data = append(p.OffchainConfig.Data, i.Data...)
		return tx.TesSUCCESS
	})
}

// ProposePayees binds one payee token account to each proposed oracle, in
// the stored (signer-sorted) order.
type ProposePayees struct {
	Proposal  types.Address   `codec:"proposal" json:"proposal"`
	TokenMint types.Address   `codec:"token_mint" json:"token_mint"`
	Payees    []types.Address `codec:"payees" json:"payees"`
}

func (i *ProposePayees) Program() types.Address { return keylet.OCR2Program }
func (i *ProposePayees) Kind() string           { return KindProposePayees }

// Validate validates the ProposePayees instruction
func (i *ProposePayees) Validate() error {
	if i.Proposal.IsZero() || i.TokenMint.IsZero() {
		return tx.Malformed("propose_payees: missing address")
	}
	if len(i.Payees) == 0 || len(i.Payees) > MaxOracles {
		return tx.Errorf(tx.TemBAD_ORACLE_COUNT, "payee count %d outside [1, %d]", len(i.Payees), MaxOracles)
	}
	for _, p := range i.Payees {
		if p.IsZero() {
			return tx.Malformed("propose_payees: empty payee")
		}
	}
	return nil
}

// Apply applies the ProposePayees instruction
func (i *ProposePayees) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateProposal(ctx, i.Proposal, func(p *Proposal) tx.Result {
		if len(p.Oracles) != len(i.Payees) {
			return tx.TecINVALID_CONFIG
		}
		for idx, payee := range i.Payees {
			_, acct, r := token.LoadAccount(ctx, payee)
			if !r.IsSuccess() {
				return r
			}
			if acct.Mint != i.TokenMint {
				return tx.TecMINT_MISMATCH
			}
			p.Oracles[idx].Payee = payee
		}
		p.TokenMint = i.TokenMint
		return tx.TesSUCCESS
	})
}

// FinalizeProposal locks a complete proposal against further changes.
type FinalizeProposal struct {
	Proposal types.Address `codec:"proposal" json:"proposal"`
}

func (i *FinalizeProposal) Program() types.Address { return keylet.OCR2Program }
func (i *FinalizeProposal) Kind() string           { return KindFinalizeProposal }

// Validate validates the FinalizeProposal instruction
func (i *FinalizeProposal) Validate() error {
	if i.Proposal.IsZero() {
		return tx.Malformed("finalize_proposal: missing proposal")
	}
	return nil
}

// Apply applies the FinalizeProposal instruction
func (i *FinalizeProposal) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateProposal(ctx, i.Proposal, func(p *Proposal) tx.Result {
		if len(p.Oracles) == 0 || p.F == 0 || !p.payeesSet() || p.OffchainConfig.Version == 0 {
			return tx.TecINVALID_CONFIG
		}
		p.State = ProposalFinalized
		ctx.Log("proposal finalized with digest %x", p.Digest())
		return tx.TesSUCCESS
	})
}

// CloseProposal discards a proposal in any stage and returns its lamports.
type CloseProposal struct {
	Proposal types.Address `codec:"proposal" json:"proposal"`
	Receiver types.Address `codec:"receiver" json:"receiver"`
}

func (i *CloseProposal) Program() types.Address { return keylet.OCR2Program }
func (i *CloseProposal) Kind() string           { return KindCloseProposal }

// Validate validates the CloseProposal instruction
func (i *CloseProposal) Validate() error {
	if i.Proposal.IsZero() || i.Receiver.IsZero() {
		return tx.Malformed("close_proposal: missing address")
	}
	return nil
}

// Apply applies the CloseProposal instruction
func (i *CloseProposal) Apply(ctx *tx.ApplyContext) tx.Result {
	if _, _, r := loadProposal(ctx, i.Proposal); !r.IsSuccess() {
		return r
	}
	return ctx.Close(keylet.Proposal(i.Proposal), i.Receiver)
}

// AcceptProposal installs a finalized proposal as the aggregator's active
// configuration. The caller supplies the digest it verified out of band;
// any mismatch rejects the instruction without change.
type AcceptProposal struct {
	State    types.Address `codec:"state" json:"state"`
	Proposal types.Address `codec:"proposal" json:"proposal"`
	Digest   [32]byte      `codec:"digest" json:"digest"`
	Receiver types.Address `codec:"receiver" json:"receiver"`
}

func (i *AcceptProposal) Program() types.Address { return keylet.OCR2Program }
func (i *AcceptProposal) Kind() string           { return KindAcceptProposal }

// Validate validates the AcceptProposal instruction
func (i *AcceptProposal) Validate() error {
	if i.State.IsZero() || i.Proposal.IsZero() || i.Receiver.IsZero() {
		return tx.Malformed("accept_proposal: missing address")
	}
	return nil
}

// Apply applies the AcceptProposal instruction
func (i *AcceptProposal) Apply(ctx *tx.ApplyContext) tx.Result {
	stateRaw, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	_, p, r := loadProposal(ctx, i.Proposal)
	if !r.IsSuccess() {
		return r
	}
	if !ctx.IsSigner(s.Owner) || p.Owner != s.Owner {
		return tx.TecNO_PERMISSION
	}
	if p.State != ProposalFinalized {
		return tx.TecINVALID_STATE
	}
	digest := p.Digest()
	if digest != i.Digest {
		ctx.Log("digest mismatch: computed %x", digest)
		return tx.TecDIGEST_MISMATCH
	}
	if p.TokenMint != s.Config.TokenMint {
		return tx.TecMINT_MISMATCH
	}

	// Settle the outgoing oracle set before replacing it.
	if r := payOracles(ctx, i.State, s); !r.IsSuccess() {
		return r
	}

	oracles := make([]Oracle, 0, len(p.Oracles))
	for _, o := range p.Oracles {
		oracles = append(oracles, Oracle{
			Signer:      o.Signer,
			Transmitter: o.Transmitter,
			Payee:       o.Payee,
			FromRoundID: s.Config.LatestAggregatorRoundID,
		})
	}
	s.Oracles = oracles
	s.Config.F = p.F
	s.Config.LatestConfigDigest = digest
	s.Config.ConfigCount++
	s.Config.Epoch = 0
	s.Config.Round = 0
	s.OffchainConfig = OffchainConfig{
		Version: p.OffchainConfig.Version,
		Data:    append([]byte(nil), p.OffchainConfig.Data...),
	}
	if r := saveState(ctx, i.State, stateRaw, s); !r.IsSuccess() {
		return r
	}

	w := &layout.Writer{}
	w.Address(i.State)
	w.Fixed(digest[:])
	w.U32(s.Config.ConfigCount)
	w.U8(s.Config.F)
	w.U8(uint8(len(s.Oracles)))
	if event, err := w.Bytes(); err == nil {
		ctx.Emit(EventSetConfig, event)
	}
	return ctx.Close(keylet.Proposal(i.Proposal), i.Receiver)
}

// claim returns an ocr2-owned account of the given size that has not been
// initialized yet.
func claim(ctx *tx.ApplyContext, k keylet.Keylet, size int) (*tx.Account, tx.Result) {
	raw, err := ctx.View.Read(k)
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	if raw == nil {
		return nil, tx.TecNO_ENTRY
	}
	if raw.Owner != keylet.OCR2Program {
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
