package tx

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// maxInvokeDepth bounds nested program invocations.
const maxInvokeDepth = 4

// ApplyContext provides all the state and helpers needed to apply an instruction.
// It is passed to Handler.Apply() instead of individual parameters.
type ApplyContext struct {
	// View provides read/write access to ledger state (the ApplyStateTable)
	View LedgerView

	// FeePayer is the account charged for the transaction
	FeePayer types.Address

	// Fee is the fee charged to the fee payer, in lamports
	Fee uint64

	// Slot is the slot this transaction is applied in
	Slot uint64

	// Time is the clock time observed for this transaction
	Time time.Time

	// Config holds engine configuration
	Config EngineConfig

	// TxHash is the hash of the current transaction
	TxHash [32]byte

	// Program is the program currently executing
	Program types.Address

	signers map[types.Address]bool
	trace   *trace
	depth   int
}

type trace struct {
	logs       []string
	events     []Event
	returnData []byte
}

// UnixTimestamp returns the clock time in whole seconds.
func (ctx *ApplyContext) UnixTimestamp() int64 {
	return ctx.Time.Unix()
}

// IsSigner reports whether addr authorized the transaction, directly or as a
// derived authority of the invoking program.
func (ctx *ApplyContext) IsSigner(addr types.Address) bool {
	return ctx.signers[addr]
}

// Log appends a "Program log:" line.
func (ctx *ApplyContext) Log(format string, args ...any) {
	ctx.trace.logs = append(ctx.trace.logs, LogPrefix+fmt.Sprintf(format, args...))
}

// Return sets the instruction's return data and logs it as a
// "Program return:" line.
func (ctx *ApplyContext) Return(data []byte) {
	ctx.trace.returnData = append([]byte(nil), data...)
	ctx.trace.logs = append(ctx.trace.logs, ReturnPrefix+base64.StdEncoding.EncodeToString(data))
}

// Emit records a structured event and logs it as a "Program data:" line.
func (ctx *ApplyContext) Emit(name string, data []byte) {
	ctx.trace.events = append(ctx.trace.events, Event{Program: ctx.Program, Name: name, Data: append([]byte(nil), data...)})
	ctx.trace.logs = append(ctx.trace.logs, DataPrefix+base64.StdEncoding.EncodeToString(data))
}

// Load reads an account that must exist, be owned by owner and carry the
// keylet's entry type.
func (ctx *ApplyContext) Load(k keylet.Keylet, owner types.Address) (*Account, Result) {
	a, err := ctx.View.Read(k)
	if err != nil {
		return nil, TecINTERNAL
	}
	if a == nil {
		return nil, TecNO_ENTRY
	}
	if a.Owner != owner {
		return nil, TecWRONG_OWNER
	}
	if !k.Type.Matches(a.Data) {
		return nil, TecINVALID_ACCOUNT
	}
	return a, TesSUCCESS
}

// Store writes back an account previously loaded or created.
func (ctx *ApplyContext) Store(k keylet.Keylet, a *Account) Result {
	if err := ctx.View.Update(k, a); err != nil {
		return TecINTERNAL
	}
	return TesSUCCESS
}

// Close erases an account and credits its lamports to receiver.
func (ctx *ApplyContext) Close(k keylet.Keylet, receiver types.Address) Result {
	a, err := ctx.View.Read(k)
	if err != nil {
		return TecINTERNAL
	}
	if a == nil {
		return TecNO_ENTRY
	}
	if receiver == k.Key {
		return TecINVALID_ACCOUNT
	}
	dest, err := ctx.View.Read(keylet.Account(receiver))
	if err != nil {
		return TecINTERNAL
	}
	if dest == nil {
		return TecNO_ENTRY
	}
	dest.Lamports += a.Lamports
	if err := ctx.View.Erase(k); err != nil {
		return TecINTERNAL
	}
	if err := ctx.View.Update(keylet.Account(receiver), dest); err != nil {
		return TecINTERNAL
	}
	return TesSUCCESS
}

// RentExemptMinimum returns the rent-exempt minimum for an account of the given size.
func (ctx *ApplyContext) RentExemptMinimum(space int) uint64 {
	return RentExemptMinimum(ctx.Config.RentPerByte, space)
}

// Invoke runs another program's instruction inside the current transaction.
// extraSigners are derived authorities the calling program vouches for.
func (ctx *ApplyContext) Invoke(h Handler, extraSigners ...types.Address) Result {
	if ctx.depth >= maxInvokeDepth {
		return TecINTERNAL
	}
	if err := h.Validate(); err != nil {
		return resultFromError(err)
	}
	child := *ctx
	child.Program = h.Program()
	child.depth = ctx.depth + 1
	child.signers = make(map[types.Address]bool, len(ctx.signers)+len(extraSigners))
	for k, v := range ctx.signers {
		child.signers[k] = v
	}
	for _, s := range extraSigners {
		child.signers[s] = true
	}
	return runInstruction(&child, h)
}

func runInstruction(ctx *ApplyContext, h Handler) Result {
	ctx.trace.logs = append(ctx.trace.logs, fmt.Sprintf("Program %s invoke [%d] %s", ctx.Program, ctx.depth+1, h.Kind()))
	result := h.Apply(ctx)
	if result.IsSuccess() {
		ctx.trace.logs = append(ctx.trace.logs, fmt.Sprintf("Program %s success", ctx.Program))
	} else {
		ctx.trace.logs = append(ctx.trace.logs, fmt.Sprintf("Program %s failed: %s", ctx.Program, result))
	}
	return result
}
