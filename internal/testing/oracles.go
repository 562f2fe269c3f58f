package testing

import (
	"bytes"
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/tx/store"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
	offchainpkg "github.com/LeJamon/goOCR2/internal/offchain"
)

// Oracle is one member of a test oracle set.
type Oracle struct {
	Name        string
	Key         *secp256k1.Key
	Transmitter *Account
	PayeeOwner  *Account
	Payee       *Account
}

// Signer returns the oracle's report signer address.
func (o *Oracle) Signer() secp256k1.SignerAddress { return o.Key.Address() }

// SortOracles orders oracles by signer address, the order the program
// stores them in.
func SortOracles(oracles []*Oracle) {
	sort.Slice(oracles, func(i, j int) bool {
		a, b := oracles[i].Signer(), oracles[j].Signer()
		return bytes.Compare(a[:], b[:]) < 0
	})
}

// AggregatorConfig describes an aggregator to deploy.
type AggregatorConfig struct {
	Name      string
	Oracles   int
	F         uint8
	Slots     int
	MinAnswer int64
	MaxAnswer int64
	Billing   ocr2.Billing

	// OffchainConfig defaults to a short fixed blob
	OffchainConfig []byte

	// VaultFunds is minted into the vault after deployment
	VaultFunds uint64
}

// Aggregator is a deployed, configured aggregator and its collaborators.
type Aggregator struct {
	env *TestEnv

	Name           string
	Owner          *Account
	MintAuthority  *Account
	State          *Account
	Feed           *Account
	Mint           *Account
	Vault          *Account
	Oracles        []*Oracle
	F              uint8
	StoreNonce     uint8
	Digest         [32]byte
	OffchainConfig []byte

	epoch     uint32
	proposals int
}

// DeployAggregator creates the mint, vault, feed and state of an aggregator
// and installs an oracle set through the full proposal flow.
func (e *TestEnv) DeployAggregator(cfg AggregatorConfig) *Aggregator {
	e.t.Helper()
	if cfg.Name == "" {
		cfg.Name = "agg"
	}
	if cfg.Oracles == 0 {
		cfg.Oracles = 4
	}
	if cfg.F == 0 {
		cfg.F = 1
	}
	if cfg.MinAnswer == 0 && cfg.MaxAnswer == 0 {
		cfg.MinAnswer, cfg.MaxAnswer = -1_000_000_000, 1_000_000_000
	}
	if cfg.OffchainConfig == nil {
		cfg.OffchainConfig = []byte("offchain-config-v1")
	}

	name := cfg.Name
	a := &Aggregator{
		env:           e,
		Name:          name,
		Owner:         e.Account(name + "-owner"),
		MintAuthority: e.Account(name + "-mint-authority"),
	}
	e.Fund(a.Owner)

	a.State = e.Allocate(name+"-state", keylet.OCR2Program, ocr2.StateSize)
	a.Mint = e.CreateMint(name+"-mint", a.MintAuthority, 9)
	vaultAuthority, _, err := keylet.VaultAuthority(a.State.Address)
	require.NoError(e.t, err)
	a.Vault = e.CreateTokenAccount(name+"-vault", a.Mint, vaultAuthority)
	a.Feed = e.CreateFeed(name+"-feed", a.Owner, FeedConfig{Description: name, Decimals: 8, Slots: cfg.Slots})

	storeAuthority, storeNonce, err := keylet.StoreAuthority(a.State.Address)
	require.NoError(e.t, err)
	a.StoreNonce = storeNonce
	RequireTxSuccess(e.t, e.Submit([]*Account{a.Owner},
		&store.SetWriter{Feed: a.Feed.Address, Writer: storeAuthority},
		&ocr2.Initialize{
			State:      a.State.Address,
			Owner:      a.Owner.Address,
			Feed:       a.Feed.Address,
			TokenMint:  a.Mint.Address,
			TokenVault: a.Vault.Address,
			MinAnswer:  fmt.Sprint(cfg.MinAnswer),
			MaxAnswer:  fmt.Sprint(cfg.MaxAnswer),
		},
	))

	if cfg.Billing != (ocr2.Billing{}) {
		RequireTxSuccess(e.t, e.Submit([]*Account{a.Owner}, &ocr2.SetBilling{
			State:                     a.State.Address,
			Authority:                 a.Owner.Address,
			ObservationPaymentGjuels:  cfg.Billing.ObservationPaymentGjuels,
			TransmissionPaymentGjuels: cfg.Billing.TransmissionPaymentGjuels,
		}))
	}
	if cfg.VaultFunds > 0 {
		e.MintTo(a.Mint, a.MintAuthority, a.Vault.Address, cfg.VaultFunds)
	}

	RequireTxSuccess(e.t, a.Configure(a.NewOracles(cfg.Oracles), cfg.F, cfg.OffchainConfig))
	return a
}

// NewOracles creates n oracles with funded transmitters and payee token
// accounts, sorted by signer.
func (a *Aggregator) NewOracles(n int) []*Oracle {
	e := a.env
	e.t.Helper()
	oracles := make([]*Oracle, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s-oracle-%d-%d", a.Name, a.proposals, i)
		key, err := secp256k1.KeyFromSeed([]byte(name))
		require.NoError(e.t, err)
		o := &Oracle{
			Name:        name,
			Key:         key,
			Transmitter: e.Account(name + "-transmitter"),
			PayeeOwner:  e.Account(name + "-payee-owner"),
		}
		e.Fund(o.Transmitter)
		o.Payee = e.CreateTokenAccount(name+"-payee", a.Mint, o.PayeeOwner.Address)
		oracles = append(oracles, o)
	}
	SortOracles(oracles)
	return oracles
}

// Configure runs the proposal flow for a new oracle set and returns the
// result of the accepting transaction.
func (a *Aggregator) Configure(oracles []*Oracle, f uint8, offchain []byte) tx.ApplyResult {
	e := a.env
	e.t.Helper()
	a.proposals++
	proposal := e.Allocate(fmt.Sprintf("%s-proposal-%d", a.Name, a.proposals), keylet.OCR2Program, ocr2.ProposalSize)
	digest := a.ProposeAndFinalize(proposal, oracles, f, offchain)

	result := e.Submit([]*Account{a.Owner}, &ocr2.AcceptProposal{
		State:    a.State.Address,
		Proposal: proposal.Address,
		Digest:   digest,
		Receiver: a.Owner.Address,
	})
	if result.Result.IsSuccess() {
		a.Oracles = oracles
		a.F = f
		a.Digest = digest
		a.OffchainConfig = offchain
		a.epoch = 0
	}
	return result
}

// ProposeAndFinalize stages a finalized proposal and returns the digest the
// program will compute for it.
func (a *Aggregator) ProposeAndFinalize(proposal *Account, oracles []*Oracle, f uint8, offchain []byte) [32]byte {
	e := a.env
	e.t.Helper()
	configs := make([]ocr2.OracleConfig, len(oracles))
	payees := make([]types.Address, len(oracles))
	digestOracles := make([]ocr2.DigestOracle, len(oracles))
	for i, o := range oracles {
		configs[i] = ocr2.OracleConfig{Signer: o.Signer(), Transmitter: o.Transmitter.Address}
		payees[i] = o.Payee.Address
		digestOracles[i] = ocr2.DigestOracle{Signer: o.Signer(), Transmitter: o.Transmitter.Address, Payee: o.Payee.Address}
	}

	const version = 1
	handlers := []tx.Handler{
		&ocr2.CreateProposal{Proposal: proposal.Address, Owner: a.Owner.Address, Version: version},
		&ocr2.ProposeConfig{Proposal: proposal.Address, Oracles: configs, F: f},
	}
	for _, w := range offchainpkg.WriteInstructions(proposal.Address, offchain, 1024) {
		handlers = append(handlers, w)
	}
	handlers = append(handlers,
		&ocr2.ProposePayees{Proposal: proposal.Address, TokenMint: a.Mint.Address, Payees: payees},
		&ocr2.FinalizeProposal{Proposal: proposal.Address},
	)
	RequireTxSuccess(e.t, e.Submit([]*Account{a.Owner}, handlers...))
	return ocr2.ConfigDigest(digestOracles, f, a.Mint.Address, version, offchain)
}

// StateOf decodes the committed aggregator state.
func (a *Aggregator) StateOf() *ocr2.State {
	a.env.t.Helper()
	s, err := ocr2.ReadState(a.env.engine, a.State.Address)
	require.NoError(a.env.t, err)
	return s
}

// Report builds a report with the given median, observed by every oracle.
func (a *Aggregator) Report(median int64, juelsPerFeecoin uint64) ocr2.Report {
	r := ocr2.Report{
		ObservationsTimestamp: a.env.Timestamp(),
		ObserverCount:         uint8(len(a.Oracles)),
		Median:                sdkmath.NewInt(median),
		JuelsPerFeecoin:       juelsPerFeecoin,
	}
	for i := range a.Oracles {
		r.Observers[i] = uint8(i)
	}
	return r
}

// NextContext returns a report context for the next epoch of the active
// configuration.
func (a *Aggregator) NextContext() ocr2.ReportContext {
	a.epoch++
	return ocr2.ReportContext{ConfigDigest: a.Digest, Epoch: a.epoch, Round: 1}
}

// BuildTransmit signs report under ctx with the keys of signers.
func (a *Aggregator) BuildTransmit(transmitter *Oracle, ctx ocr2.ReportContext, report ocr2.Report, signers []*Oracle) *ocr2.Transmit {
	a.env.t.Helper()
	keys := make([]*secp256k1.Key, len(signers))
	for i, s := range signers {
		keys[i] = s.Key
	}
	sigs, err := ocr2.SignReport(ctx, report, keys...)
	require.NoError(a.env.t, err)
	ins, err := ocr2.NewTransmit(a.State.Address, transmitter.Transmitter.Address, a.Feed.Address, a.StoreNonce, ctx, report, sigs)
	require.NoError(a.env.t, err)
	return ins
}

// Transmit submits report in a fresh epoch, signed by signers and paid for
// by the transmitter.
func (a *Aggregator) Transmit(transmitter *Oracle, report ocr2.Report, signers []*Oracle) tx.ApplyResult {
	a.env.t.Helper()
	ins := a.BuildTransmit(transmitter, a.NextContext(), report, signers)
	return a.env.SubmitAs(transmitter.Transmitter, nil, ins)
}
