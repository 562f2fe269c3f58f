package store

import (
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// SetValidatorConfig sets the flagging threshold. Zero disables flagging.
type SetValidatorConfig struct {
	Feed      types.Address `codec:"feed" json:"feed"`
	Threshold uint32        `codec:"threshold" json:"threshold"`
}

func (i *SetValidatorConfig) Program() types.Address { return keylet.StoreProgram }
func (i *SetValidatorConfig) Kind() string           { return KindSetValidatorConfig }

// Validate validates the SetValidatorConfig instruction
func (i *SetValidatorConfig) Validate() error {
	if i.Feed.IsZero() {
		return tx.Malformed("set_validator_config: missing feed")
	}
	return nil
}

// Apply applies the SetValidatorConfig instruction
func (i *SetValidatorConfig) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateFeed(ctx, i.Feed, func(f *Feed) tx.Result {
		f.FlaggingThreshold = i.Threshold
		return tx.TesSUCCESS
	})
}

// SetWriter names the only authority allowed to submit rounds. The zero
// address clears it.
type SetWriter struct {
	Feed   types.Address `codec:"feed" json:"feed"`
	Writer types.Address `codec:"writer" json:"writer"`
}

func (i *SetWriter) Program() types.Address { return keylet.StoreProgram }
func (i *SetWriter) Kind() string           { return KindSetWriter }

// Validate validates the SetWriter instruction
func (i *SetWriter) Validate() error {
	if i.Feed.IsZero() {
		return tx.Malformed("set_writer: missing feed")
	}
	return nil
}

// Apply applies the SetWriter instruction
func (i *SetWriter) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateFeed(ctx, i.Feed, func(f *Feed) tx.Result {
		f.Writer = i.Writer
		return tx.TesSUCCESS
	})
}

// TransferFeedOwnership proposes a new feed owner.
type TransferFeedOwnership struct {
	Feed          types.Address `codec:"feed" json:"feed"`
	ProposedOwner types.Address `codec:"proposed_owner" json:"proposed_owner"`
}

func (i *TransferFeedOwnership) Program() types.Address { return keylet.StoreProgram }
func (i *TransferFeedOwnership) Kind() string           { return KindTransferFeedOwnership }

// Validate validates the TransferFeedOwnership instruction
func (i *TransferFeedOwnership) Validate() error {
	if i.Feed.IsZero() || i.ProposedOwner.IsZero() {
		return tx.Malformed("transfer_feed_ownership: missing address")
	}
	return nil
}

// Apply applies the TransferFeedOwnership instruction
func (i *TransferFeedOwnership) Apply(ctx *tx.ApplyContext) tx.Result {
	return updateFeed(ctx, i.Feed, func(f *Feed) tx.Result {
		f.ProposedOwner = i.ProposedOwner
		return tx.TesSUCCESS
	})
}

// AcceptFeedOwnership completes an ownership handshake. The proposed owner
// signs, directly or through the store it names.
type AcceptFeedOwnership struct {
	Feed types.Address `codec:"feed" json:"feed"`
}

func (i *AcceptFeedOwnership) Program() types.Address { return keylet.StoreProgram }
func (i *AcceptFeedOwnership) Kind() string           { return KindAcceptFeedOwnership }

// Validate validates the AcceptFeedOwnership instruction
func (i *AcceptFeedOwnership) Validate() error {
	if i.Feed.IsZero() {
		return tx.Malformed("accept_feed_ownership: missing feed")
	}
	return nil
}

// Apply applies the AcceptFeedOwnership instruction
func (i *AcceptFeedOwnership) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, f, r := loadFeed(ctx, i.Feed)
	if !r.IsSuccess() {
		return r
	}
	if !authorized(ctx, f.ProposedOwner) {
		return tx.TecNO_PERMISSION
	}
	f.Owner = f.ProposedOwner
	f.ProposedOwner = types.ZeroAddress
	return saveFeed(ctx, i.Feed, raw, f)
}

// LowerFlag clears a raised flag.
type LowerFlag struct {
	Feed      types.Address `codec:"feed" json:"feed"`
	Authority types.Address `codec:"authority" json:"authority"`
}

func (i *LowerFlag) Program() types.Address { return keylet.StoreProgram }
func (i *LowerFlag) Kind() string           { return KindLowerFlag }

// Validate validates the LowerFlag instruction
func (i *LowerFlag) Validate() error {
	if i.Feed.IsZero() || i.Authority.IsZero() {
		return tx.Malformed("lower_flag: missing address")
	}
	return nil
}

// Apply applies the LowerFlag instruction
func (i *LowerFlag) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, f, r := loadFeed(ctx, i.Feed)
	if !r.IsSuccess() {
		return r
	}
	if !canLowerFlag(ctx, f, i.Authority) {
		return tx.TecNO_PERMISSION
	}
	f.State = StateNormal
	return saveFeed(ctx, i.Feed, raw, f)
}

// CloseFeed erases a feed and returns its lamports to Receiver. The writer
// must have been cleared first.
type CloseFeed struct {
	Feed     types.Address `codec:"feed" json:"feed"`
	Receiver types.Address `codec:"receiver" json:"receiver"`
}

func (i *CloseFeed) Program() types.Address { return keylet.StoreProgram }
func (i *CloseFeed) Kind() string           { return KindCloseFeed }

// Validate validates the CloseFeed instruction
func (i *CloseFeed) Validate() error {
	if i.Feed.IsZero() || i.Receiver.IsZero() {
		return tx.Malformed("close_feed: missing address")
	}
	return nil
}

// Apply applies the CloseFeed instruction
func (i *CloseFeed) Apply(ctx *tx.ApplyContext) tx.Result {
	_, f, r := loadFeed(ctx, i.Feed)
	if !r.IsSuccess() {
		return r
	}
	if !authorized(ctx, f.Owner) {
		return tx.TecNO_PERMISSION
	}
	if !f.Writer.IsZero() {
		return tx.TecWRITER_SET
	}
	return ctx.Close(keylet.Transmissions(i.Feed), i.Receiver)
}

// updateFeed runs an owner-only mutation.
func updateFeed(ctx *tx.ApplyContext, addr types.Address, fn func(f *Feed) tx.Result) tx.Result {
	raw, f, r := loadFeed(ctx, addr)
	if !r.IsSuccess() {
		return r
	}
	if !authorized(ctx, f.Owner) {
		return tx.TecNO_PERMISSION
	}
	if r := fn(f); !r.IsSuccess() {
		return r
	}
	return saveFeed(ctx, addr, raw, f)
}
