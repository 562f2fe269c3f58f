package tx

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/log"
)

// Engine defaults
const (
	// DefaultLamportsPerSignature is the fee charged per transaction signature
	DefaultLamportsPerSignature = 5000

	// DefaultRentPerByte is the rent-exempt lamports charged per account byte
	DefaultRentPerByte = 6960

	// DefaultMaxInstructions bounds the number of instructions per transaction
	DefaultMaxInstructions = 32
)

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// LamportsPerSignature is the fee charged per signature in lamports
	LamportsPerSignature uint64

	// RentPerByte is the rent-exempt cost of one account byte in lamports
	RentPerByte uint64

	// MaxInstructions is the maximum number of instructions per transaction
	MaxInstructions int

	// SkipSignatureVerification skips signature checks (for testing/standalone)
	SkipSignatureVerification bool
}

// DefaultEngineConfig returns the configuration used by devnets.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		LamportsPerSignature: DefaultLamportsPerSignature,
		RentPerByte:          DefaultRentPerByte,
		MaxInstructions:      DefaultMaxInstructions,
	}
}

// Clock is the time source observed by transactions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Engine processes transactions against a ledger. Apply calls are serialized,
// which makes every transaction's read-modify-write of feed and billing state
// atomic.
type Engine struct {
	mu     sync.Mutex
	view   LedgerView
	config EngineConfig
	clock  Clock
	slot   uint64
}

// NewEngine creates a new transaction engine
func NewEngine(view LedgerView, config EngineConfig, clock Clock) *Engine {
	if config.MaxInstructions <= 0 {
		config.MaxInstructions = DefaultMaxInstructions
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{
		view:   view,
		config: config,
		clock:  clock,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Slot returns the slot of the last applied transaction.
func (e *Engine) Slot() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slot
}

// Read returns a committed account, or nil when it does not exist.
func (e *Engine) Read(k keylet.Keylet) (*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Read(k)
}

// ForEach iterates over committed accounts.
func (e *Engine) ForEach(fn func(key types.Address, a *Account) bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.ForEach(fn)
}

// Apply processes a transaction and applies it to the ledger. On success
// every instruction's changes are committed together. When an instruction
// fails with a tec code only the fee is charged. Any other failure leaves the
// ledger untouched.
func (e *Engine) Apply(t *Transaction) ApplyResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.apply(t, true)
	log.Logger.Debug().
		Hex("tx", res.TxHash[:]).
		Str("result", res.Result.String()).
		Bool("applied", res.Applied).
		Uint64("slot", res.Slot).
		Msg("transaction processed")
	return res
}

// Simulate runs a transaction without committing anything. It is used for
// read-only queries such as the store program's Query instruction.
func (e *Engine) Simulate(t *Transaction) ApplyResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(t, false)
}

func (e *Engine) apply(t *Transaction, commit bool) ApplyResult {
	// Step 1: Preflight checks (syntax and signatures)
	handlers, signers, result, msg := e.preflight(t)
	if !result.IsSuccess() {
		return failed(result, msg)
	}

	txHash, err := t.Hash()
	if err != nil {
		return failed(TefINTERNAL, "failed to compute transaction hash: "+err.Error())
	}

	// Step 2: Preclaim checks (nonce is fresh, fee payer can pay)
	fee := e.calculateFee(t)
	payerKey := keylet.Account(t.FeePayer)
	payer, err := e.view.Read(payerKey)
	if err != nil {
		return failed(TefINTERNAL, err.Error())
	}
	if payer == nil {
		return failed(TerNO_ACCOUNT, "")
	}
	if t.Nonce <= payer.Nonce {
		return failed(TefPAST_NONCE, fmt.Sprintf("nonce %d, last used %d", t.Nonce, payer.Nonce))
	}
	if payer.Lamports < fee {
		return failed(TerINSUF_FEE, "")
	}

	slot := e.slot + 1

	// Step 3: Charge the fee and run every instruction
	table := NewApplyStateTable(e.view)
	payer.Lamports -= fee
	payer.Nonce = t.Nonce
	if err := table.Update(payerKey, payer); err != nil {
		return failed(TefINTERNAL, err.Error())
	}

	tr := &trace{}
	ctx := &ApplyContext{
		View:     table,
		FeePayer: t.FeePayer,
		Fee:      fee,
		Slot:     slot,
		Time:     e.clock.Now().UTC(),
		Config:   e.config,
		TxHash:   txHash,
		signers:  signers,
		trace:    tr,
	}
	for _, h := range handlers {
		ctx.Program = h.Program()
		result = runInstruction(ctx, h)
		if !result.IsSuccess() {
			break
		}
	}

	applied := ApplyResult{
		Result:     result,
		Fee:        fee,
		Slot:       slot,
		TxHash:     txHash,
		Logs:       tr.logs,
		ReturnData: tr.returnData,
		Message:    result.Message(),
	}
	if result.IsSuccess() {
		applied.Events = tr.events
	}

	if !commit {
		table.Discard()
		return applied
	}
	if !result.ClaimsFee() {
		table.Discard()
		return applied
	}

	if !result.IsSuccess() {
		// Roll back the instructions, keep the fee.
		table.Discard()
		table = NewApplyStateTable(e.view)
		feeOnly, err := e.view.Read(payerKey)
		if err != nil || feeOnly == nil {
			return failed(TefINTERNAL, "fee payer vanished")
		}
		feeOnly.Lamports -= fee
		feeOnly.Nonce = t.Nonce
		if err := table.Update(payerKey, feeOnly); err != nil {
			return failed(TefINTERNAL, err.Error())
		}
	}

	metadata, err := table.Apply()
	if err != nil {
		return failed(TefINTERNAL, "commit: "+err.Error())
	}
	e.slot = slot
	applied.Applied = true
	applied.Metadata = metadata
	return applied
}

// preflight performs stateless validation and decodes every instruction.
func (e *Engine) preflight(t *Transaction) ([]Handler, map[types.Address]bool, Result, string) {
	if t == nil || t.FeePayer.IsZero() {
		return nil, nil, TemMALFORMED, "missing fee payer"
	}
	if len(t.Instructions) == 0 {
		return nil, nil, TemNO_INSTRUCTIONS, ""
	}
	if len(t.Instructions) > e.config.MaxInstructions {
		return nil, nil, TemTOO_MANY_INSTRUCTIONS, ""
	}

	var signers map[types.Address]bool
	if e.config.SkipSignatureVerification {
		signers = make(map[types.Address]bool, len(t.Signatures)+1)
		for _, s := range t.Signatures {
			signers[s.Signer] = true
		}
		signers[t.FeePayer] = true
	} else {
		var err error
		signers, err = t.VerifySignatures()
		if err != nil {
			return nil, nil, TefBAD_SIGNATURE, err.Error()
		}
		if !signers[t.FeePayer] {
			return nil, nil, TefNO_FEE_PAYER, ""
		}
	}

	handlers := make([]Handler, 0, len(t.Instructions))
	for _, ins := range t.Instructions {
		h, err := DecodeInstruction(ins)
		if err != nil {
			if errors.Is(err, ErrUnknownInstruction) {
				return nil, nil, TemUNKNOWN_INSTRUCTION, err.Error()
			}
			return nil, nil, resultFromError(err), err.Error()
		}
		if err := h.Validate(); err != nil {
			return nil, nil, resultFromError(err), err.Error()
		}
		handlers = append(handlers, h)
	}
	return handlers, signers, TesSUCCESS, ""
}

// calculateFee charges per signature, with a floor of one.
func (e *Engine) calculateFee(t *Transaction) uint64 {
	n := uint64(len(t.Signatures))
	if n == 0 {
		n = 1
	}
	return n * e.config.LamportsPerSignature
}

func failed(result Result, msg string) ApplyResult {
	if msg == "" {
		msg = result.Message()
	}
	return ApplyResult{Result: result, Message: msg}
}
