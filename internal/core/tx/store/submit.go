package store

import (
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Submit appends a round to a feed. Only the feed's writer may submit; the
// round takes the current slot and clock time.
type Submit struct {
	Feed   types.Address `codec:"feed" json:"feed"`
	Writer types.Address `codec:"writer" json:"writer"`

	// Answer is a base-10 signed 128-bit integer
	Answer string `codec:"answer" json:"answer"`
}

func (i *Submit) Program() types.Address { return keylet.StoreProgram }
func (i *Submit) Kind() string           { return KindSubmit }

// Validate validates the Submit instruction
func (i *Submit) Validate() error {
	if i.Feed.IsZero() || i.Writer.IsZero() {
		return tx.Malformed("submit: missing address")
	}
	if _, err := i.answer(); err != nil {
		return err
	}
	return nil
}

func (i *Submit) answer() (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(i.Answer)
	if !ok || !types.FitsInt128(v) {
		return sdkmath.Int{}, tx.Malformed("submit: answer %q is not a 128-bit integer", i.Answer)
	}
	return v, nil
}

// Apply applies the Submit instruction
func (i *Submit) Apply(ctx *tx.ApplyContext) tx.Result {
	answer, err := i.answer()
	if err != nil {
		return tx.TemMALFORMED
	}
	raw, f, r := loadFeed(ctx, i.Feed)
	if !r.IsSuccess() {
		return r
	}
	if f.Writer.IsZero() || f.Writer != i.Writer || !ctx.IsSigner(i.Writer) {
		return tx.TecNO_PERMISSION
	}

	prev, prevErr := f.Latest()
	round, err := f.Push(ctx.Slot, uint32(ctx.UnixTimestamp()), answer)
	if err != nil {
		return tx.TecANSWER_OUT_OF_RANGE
	}

	if prevErr == nil && exceedsThreshold(prev.Answer, answer, f.FlaggingThreshold) {
		f.State = StateFlagged
		ctx.Log("round %d flagged: answer %s deviates from %s beyond threshold %d",
			round.RoundID, answer, prev.Answer, f.FlaggingThreshold)
	} else if f.State == StateFlagged && prevErr == nil && f.FlaggingThreshold > 0 {
		f.State = StateNormal
		ctx.Log("round %d within threshold, flag cleared", round.RoundID)
	}
	return saveFeed(ctx, i.Feed, raw, f)
}
