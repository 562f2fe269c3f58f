package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/access"
	"github.com/LeJamon/goOCR2/internal/core/tx/store"
	"github.com/LeJamon/goOCR2/internal/core/tx/system"
	"github.com/LeJamon/goOCR2/internal/core/tx/token"
	"github.com/LeJamon/goOCR2/internal/core/types"

	_ "github.com/LeJamon/goOCR2/internal/core/tx/all"
)

// Funding defaults, in lamports.
const (
	// PayerFund is the genesis balance of the shared fee payer
	PayerFund uint64 = 1_000_000_000_000_000

	// DefaultFund is the balance given to accounts by Fund
	DefaultFund uint64 = 10_000_000_000
)

// TestEnv manages an in-memory ledger for program testing. Every
// transaction is paid for by a shared, pre-funded payer.
type TestEnv struct {
	t        *testing.T
	view     tx.LedgerView
	engine   *tx.Engine
	clock    *ManualClock
	payer    *Account
	nonce    uint64
	accounts map[string]*Account
}

// NewTestEnv creates an environment with the default engine configuration.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, tx.DefaultEngineConfig())
}

// NewTestEnvWithConfig creates an environment with a custom engine configuration.
func NewTestEnvWithConfig(t *testing.T, config tx.EngineConfig) *TestEnv {
	t.Helper()
	return NewTestEnvWithView(t, tx.NewMemoryView(), config)
}

// NewTestEnvWithView runs the environment on top of an empty ledger view.
func NewTestEnvWithView(t *testing.T, view tx.LedgerView, config tx.EngineConfig) *TestEnv {
	t.Helper()

	payer := NewAccount("payer")
	err := view.Insert(keylet.Account(payer.Address), &tx.Account{
		Owner:    keylet.SystemProgram,
		Lamports: PayerFund,
	})
	require.NoError(t, err)

	clock := NewManualClock()
	return &TestEnv{
		t:        t,
		view:     view,
		engine:   tx.NewEngine(view, config, clock),
		clock:    clock,
		payer:    payer,
		accounts: map[string]*Account{payer.Name: payer},
	}
}

// T returns the test the environment belongs to.
func (e *TestEnv) T() *testing.T { return e.t }

// Engine returns the underlying engine.
func (e *TestEnv) Engine() *tx.Engine { return e.engine }

// View returns the committed ledger.
func (e *TestEnv) View() tx.AccountReader { return e.engine }

// Payer returns the shared fee payer.
func (e *TestEnv) Payer() *Account { return e.payer }

// Now returns the clock time transactions observe.
func (e *TestEnv) Now() time.Time { return e.clock.Now() }

// Timestamp returns the clock in the u32 unix seconds reports carry.
func (e *TestEnv) Timestamp() uint32 { return e.clock.Timestamp() }

// AdvanceTime moves the clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) { e.clock.Advance(d) }

// Account returns a named account, creating it on first use.
func (e *TestEnv) Account(name string) *Account {
	if a, ok := e.accounts[name]; ok {
		return a
	}
	a := NewAccount(name)
	e.accounts[name] = a
	return a
}

// Build creates a transaction paid by feePayer and signed by it and signers.
func (e *TestEnv) Build(feePayer *Account, signers []*Account, handlers ...tx.Handler) *tx.Transaction {
	e.t.Helper()
	e.nonce++
	txn, err := tx.NewTransaction(feePayer.Address, e.nonce, handlers...)
	require.NoError(e.t, err)

	keys := []tx.Signer{feePayer.Key}
	for _, s := range signers {
		if s != feePayer {
			keys = append(keys, s.Key)
		}
	}
	require.NoError(e.t, txn.Sign(keys...))
	return txn
}

// Submit applies handlers paid by the shared payer, with signers as
// additional signers.
func (e *TestEnv) Submit(signers []*Account, handlers ...tx.Handler) tx.ApplyResult {
	e.t.Helper()
	return e.engine.Apply(e.Build(e.payer, signers, handlers...))
}

// SubmitAs applies handlers paid by feePayer.
func (e *TestEnv) SubmitAs(feePayer *Account, signers []*Account, handlers ...tx.Handler) tx.ApplyResult {
	e.t.Helper()
	return e.engine.Apply(e.Build(feePayer, signers, handlers...))
}

// Simulate runs handlers without committing.
func (e *TestEnv) Simulate(handlers ...tx.Handler) tx.ApplyResult {
	e.t.Helper()
	return e.engine.Simulate(e.Build(e.payer, nil, handlers...))
}

// Query runs a store query and returns its return data.
func (e *TestEnv) Query(feed types.Address, scope store.Scope, roundID uint32) ([]byte, tx.ApplyResult) {
	e.t.Helper()
	result := e.Simulate(&store.Query{Feed: feed, Scope: scope, RoundID: roundID})
	data, _ := tx.ParseReturnData(result.Logs)
	return data, result
}

// Fund transfers DefaultFund lamports from the payer to each account.
func (e *TestEnv) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, a := range accounts {
		e.FundAmount(a, DefaultFund)
	}
}

// FundAmount transfers lamports from the payer to an account.
func (e *TestEnv) FundAmount(a *Account, lamports uint64) {
	e.t.Helper()
	RequireTxSuccess(e.t, e.Submit(nil, &system.Transfer{From: e.payer.Address, To: a.Address, Lamports: lamports}))
}

// Allocate creates a rent-exempt account of the given size owned by a
// program, ready for that program to initialize.
func (e *TestEnv) Allocate(name string, owner types.Address, space int) *Account {
	e.t.Helper()
	a := e.Account(name)
	RequireTxSuccess(e.t, e.Submit([]*Account{a}, &system.CreateAccount{
		From:     e.payer.Address,
		New:      a.Address,
		Lamports: tx.RentExemptMinimum(e.engine.Config().RentPerByte, space),
		Space:    uint64(space),
		Owner:    owner,
	}))
	return a
}

// Lamports returns the lamport balance of an account, zero when missing.
func (e *TestEnv) Lamports(addr types.Address) uint64 {
	e.t.Helper()
	a, err := e.engine.Read(keylet.Account(addr))
	require.NoError(e.t, err)
	if a == nil {
		return 0
	}
	return a.Lamports
}

// Exists reports whether an account exists.
func (e *TestEnv) Exists(addr types.Address) bool {
	e.t.Helper()
	a, err := e.engine.Read(keylet.Account(addr))
	require.NoError(e.t, err)
	return a != nil
}

// CreateMint creates a token mint controlled by authority.
func (e *TestEnv) CreateMint(name string, authority *Account, decimals uint8) *Account {
	e.t.Helper()
	mint := e.Allocate(name, keylet.TokenProgram, token.MintSize)
	RequireTxSuccess(e.t, e.Submit(nil, &token.InitializeMint{
		Mint:      mint.Address,
		Authority: authority.Address,
		Decimals:  decimals,
	}))
	return mint
}

// CreateTokenAccount creates a token account of mint held by authority.
func (e *TestEnv) CreateTokenAccount(name string, mint *Account, authority types.Address) *Account {
	e.t.Helper()
	acct := e.Allocate(name, keylet.TokenProgram, token.AccountSize)
	RequireTxSuccess(e.t, e.Submit(nil, &token.InitializeAccount{
		Account:   acct.Address,
		Mint:      mint.Address,
		Authority: authority,
	}))
	return acct
}

// MintTo issues amount tokens of mint into dest.
func (e *TestEnv) MintTo(mint, authority *Account, dest types.Address, amount uint64) {
	e.t.Helper()
	RequireTxSuccess(e.t, e.Submit([]*Account{authority}, &token.MintTo{
		Mint:        mint.Address,
		Destination: dest,
		Authority:   authority.Address,
		Amount:      amount,
	}))
}

// TokenBalance returns the balance of a token account.
func (e *TestEnv) TokenBalance(addr types.Address) uint64 {
	e.t.Helper()
	a, err := token.ReadAccount(e.engine, addr)
	require.NoError(e.t, err)
	return a.Amount
}

// CreateAccessController creates an access list owned by owner holding members.
func (e *TestEnv) CreateAccessController(name string, owner *Account, members ...types.Address) *Account {
	e.t.Helper()
	ac := e.Allocate(name, keylet.AccessProgram, access.ControllerSize)
	handlers := []tx.Handler{&access.Initialize{Controller: ac.Address, Owner: owner.Address}}
	for _, m := range members {
		handlers = append(handlers, &access.AddAccess{Controller: ac.Address, Owner: owner.Address, Address: m})
	}
	RequireTxSuccess(e.t, e.Submit([]*Account{owner}, handlers...))
	return ac
}

// FeedConfig describes a feed to create.
type FeedConfig struct {
	Description string
	Decimals    uint8
	Slots       int
	LiveLength  uint32
}

// CreateFeed creates a feed owned by owner.
func (e *TestEnv) CreateFeed(name string, owner *Account, cfg FeedConfig) *Account {
	e.t.Helper()
	if cfg.Slots == 0 {
		cfg.Slots = 8
	}
	if cfg.LiveLength == 0 {
		cfg.LiveLength = uint32(cfg.Slots)
	}
	feed := e.Allocate(name, keylet.StoreProgram, store.FeedSize(cfg.Slots))
	RequireTxSuccess(e.t, e.Submit([]*Account{owner}, &store.CreateFeed{
		Feed:        feed.Address,
		Owner:       owner.Address,
		Description: cfg.Description,
		Decimals:    cfg.Decimals,
		LiveLength:  cfg.LiveLength,
	}))
	return feed
}

// Feed decodes a committed feed.
func (e *TestEnv) Feed(addr types.Address) *store.Feed {
	e.t.Helper()
	f, err := store.ReadFeed(e.engine, addr)
	require.NoError(e.t, err)
	return f
}
