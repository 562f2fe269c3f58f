// Package store implements the feed store program: fixed-capacity ring
// buffers of rounds with a writer-only submit path and a scoped read API.
package store

import (
	"errors"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

func init() {
	tx.Register(keylet.StoreProgram, KindInitializeStore, func() tx.Handler { return &InitializeStore{} })
	tx.Register(keylet.StoreProgram, KindCreateFeed, func() tx.Handler { return &CreateFeed{} })
	tx.Register(keylet.StoreProgram, KindSubmit, func() tx.Handler { return &Submit{} })
	tx.Register(keylet.StoreProgram, KindQuery, func() tx.Handler { return &Query{} })
	tx.Register(keylet.StoreProgram, KindSetValidatorConfig, func() tx.Handler { return &SetValidatorConfig{} })
	tx.Register(keylet.StoreProgram, KindSetWriter, func() tx.Handler { return &SetWriter{} })
	tx.Register(keylet.StoreProgram, KindTransferFeedOwnership, func() tx.Handler { return &TransferFeedOwnership{} })
	tx.Register(keylet.StoreProgram, KindAcceptFeedOwnership, func() tx.Handler { return &AcceptFeedOwnership{} })
	tx.Register(keylet.StoreProgram, KindLowerFlag, func() tx.Handler { return &LowerFlag{} })
	tx.Register(keylet.StoreProgram, KindCloseFeed, func() tx.Handler { return &CloseFeed{} })
}

// InitializeStore sets up a store record on a pre-allocated account.
type InitializeStore struct {
	Store                    types.Address `codec:"store" json:"store"`
	Owner                    types.Address `codec:"owner" json:"owner"`
	LoweringAccessController types.Address `codec:"lowering_access_controller" json:"lowering_access_controller"`
}

func (i *InitializeStore) Program() types.Address { return keylet.StoreProgram }
func (i *InitializeStore) Kind() string           { return KindInitializeStore }

// Validate validates the InitializeStore instruction
func (i *InitializeStore) Validate() error {
	if i.Store.IsZero() || i.Owner.IsZero() {
		return tx.Malformed("initialize_store: missing address")
	}
	return nil
}

// Apply applies the InitializeStore instruction
func (i *InitializeStore) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(i.Owner) {
		return tx.TecNO_PERMISSION
	}
	k := keylet.Store(i.Store)
	raw, r := claim(ctx, k)
	if !r.IsSuccess() {
		return r
	}
	if len(raw.Data) != StoreSize {
		return tx.TecACCOUNT_SIZE
	}
	s := &Store{Owner: i.Owner, LoweringAccessController: i.LoweringAccessController}
	data, err := s.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(k, raw)
}

// CreateFeed lays out a feed on a pre-allocated account. The account size
// fixes the number of round slots.
type CreateFeed struct {
	Feed        types.Address `codec:"feed" json:"feed"`
	Owner       types.Address `codec:"owner" json:"owner"`
	Description string        `codec:"description" json:"description"`
	Decimals    uint8         `codec:"decimals" json:"decimals"`
	Granularity uint8         `codec:"granularity" json:"granularity"`
	LiveLength  uint32        `codec:"live_length" json:"live_length"`
}

func (i *CreateFeed) Program() types.Address { return keylet.StoreProgram }
func (i *CreateFeed) Kind() string           { return KindCreateFeed }

// Validate validates the CreateFeed instruction
func (i *CreateFeed) Validate() error {
	if i.Feed.IsZero() || i.Owner.IsZero() {
		return tx.Malformed("create_feed: missing address")
	}
	if len(i.Description) > DescriptionSize {
		return tx.Malformed("create_feed: description longer than %d bytes", DescriptionSize)
	}
	if i.LiveLength == 0 {
		return tx.Errorf(tx.TemBAD_ACCOUNT_SIZE, "create_feed: live length must be positive")
	}
	return nil
}

// Apply applies the CreateFeed instruction
func (i *CreateFeed) Apply(ctx *tx.ApplyContext) tx.Result {
	if !authorized(ctx, i.Owner) {
		return tx.TecNO_PERMISSION
	}
	k := keylet.Transmissions(i.Feed)
	raw, r := claim(ctx, k)
	if !r.IsSuccess() {
		return r
	}
	f, err := NewFeed(len(raw.Data), Header{
		Owner:       i.Owner,
		Description: i.Description,
		Decimals:    i.Decimals,
		Granularity: i.Granularity,
		LiveLength:  i.LiveLength,
	})
	if err != nil {
		if errors.Is(err, ErrFeedSize) {
			ctx.Log("%v", err)
			return tx.TecACCOUNT_SIZE
		}
		return tx.TecINVALID_ACCOUNT
	}
	ctx.Log("feed %s created with %d slots", i.Feed, f.SlotCount())
	return saveFeed(ctx, i.Feed, raw, f)
}

// claim returns a store-owned account that has not been initialized yet.
func claim(ctx *tx.ApplyContext, k keylet.Keylet) (*tx.Account, tx.Result) {
	raw, err := ctx.View.Read(k)
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	if raw == nil {
		return nil, tx.TecNO_ENTRY
	}
	if raw.Owner != keylet.StoreProgram {
		return nil, tx.TecWRONG_OWNER
	}
	if entry.Detect(raw.Data) != entry.TypeAny {
		return nil, tx.TecALREADY_INITIALIZED
	}
	return raw, tx.TesSUCCESS
}
