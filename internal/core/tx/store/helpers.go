package store

import (
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/access"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Store is a record that can own feeds on behalf of its owner and names the
// access controller allowed to lower flags.
type Store struct {
	Owner                    types.Address `json:"owner"`
	LoweringAccessController types.Address `json:"lowering_access_controller"`
}

// Encode serializes the store into its account layout.
func (s *Store) Encode() ([]byte, error) {
	w := layout.NewWriter(entry.TypeStore, StoreSize)
	w.Address(s.Owner)
	w.Address(s.LoweringAccessController)
	return w.Bytes()
}

// DecodeStore parses store account data.
func DecodeStore(data []byte) (*Store, error) {
	r := layout.NewReader(data)
	s := &Store{Owner: r.Address(), LoweringAccessController: r.Address()}
	return s, r.Err()
}

// ReadFeed decodes a committed feed account.
func ReadFeed(view tx.AccountReader, addr types.Address) (*Feed, error) {
	raw, err := view.Read(keylet.Transmissions(addr))
	if err != nil {
		return nil, err
	}
	if raw == nil || raw.Owner != keylet.StoreProgram {
		return nil, tx.Errorf(tx.TecNO_ENTRY, "feed %s not found", addr)
	}
	return ParseFeed(raw.Data)
}

func loadFeed(ctx *tx.ApplyContext, addr types.Address) (*tx.Account, *Feed, tx.Result) {
	raw, r := ctx.Load(keylet.Transmissions(addr), keylet.StoreProgram)
	if !r.IsSuccess() {
		return nil, nil, r
	}
	f, err := ParseFeed(raw.Data)
	if err != nil {
		return nil, nil, tx.TecINVALID_ACCOUNT
	}
	return raw, f, tx.TesSUCCESS
}

func saveFeed(ctx *tx.ApplyContext, addr types.Address, raw *tx.Account, f *Feed) tx.Result {
	data, err := f.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(keylet.Transmissions(addr), raw)
}

// loadStore returns the store record at addr, or nil when addr is not a store.
func loadStore(ctx *tx.ApplyContext, addr types.Address) *Store {
	raw, r := ctx.Load(keylet.Store(addr), keylet.StoreProgram)
	if !r.IsSuccess() {
		return nil
	}
	s, err := DecodeStore(raw.Data)
	if err != nil {
		return nil
	}
	return s
}

// authorized reports whether owner signed, or owner is a store whose owner
// signed.
func authorized(ctx *tx.ApplyContext, owner types.Address) bool {
	if owner.IsZero() {
		return false
	}
	if ctx.IsSigner(owner) {
		return true
	}
	s := loadStore(ctx, owner)
	return s != nil && ctx.IsSigner(s.Owner)
}

// canLowerFlag allows the feed owner, or any member of the lowering access
// controller of the store owning the feed.
func canLowerFlag(ctx *tx.ApplyContext, f *Feed, authority types.Address) bool {
	if !ctx.IsSigner(authority) {
		return false
	}
	if authorized(ctx, f.Owner) {
		return true
	}
	s := loadStore(ctx, f.Owner)
	return s != nil && access.HasAccess(ctx.View, s.LoweringAccessController, authority)
}

// exceedsThreshold reports whether answer deviates from prev by more than
// threshold, in units of 1/100000 of prev.
func exceedsThreshold(prev, answer sdkmath.Int, threshold uint32) bool {
	if threshold == 0 || prev.IsZero() {
		return false
	}
	deviation := answer.Sub(prev).Abs().MulRaw(flaggingPrecision).Quo(prev.Abs())
	return deviation.GT(sdkmath.NewIntFromUint64(uint64(threshold)))
}
