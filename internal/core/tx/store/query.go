package store

import (
	"fmt"
	"strings"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Scope selects what a Query returns.
type Scope uint8

// Query scopes
const (
	ScopeVersion Scope = iota
	ScopeDecimals
	ScopeDescription
	ScopeRoundData
	ScopeLatestRoundData
	ScopeAggregator
)

var scopeNames = map[Scope]string{
	ScopeVersion:         "version",
	ScopeDecimals:        "decimals",
	ScopeDescription:     "description",
	ScopeRoundData:       "round_data",
	ScopeLatestRoundData: "latest_round_data",
	ScopeAggregator:      "aggregator",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scope(%d)", uint8(s))
}

// ParseScope resolves a scope name.
func ParseScope(name string) (Scope, error) {
	for s, n := range scopeNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown scope %q", name)
}

// Query is a read-only accessor. It emits exactly one "Program return:" line
// carrying the scope's packed encoding.
type Query struct {
	Feed    types.Address `codec:"feed" json:"feed"`
	Scope   Scope         `codec:"scope" json:"scope"`
	RoundID uint32        `codec:"round_id" json:"round_id"`
}

func (i *Query) Program() types.Address { return keylet.StoreProgram }
func (i *Query) Kind() string           { return KindQuery }

// Validate validates the Query instruction
func (i *Query) Validate() error {
	if i.Feed.IsZero() {
		return tx.Malformed("query: missing feed")
	}
	return nil
}

// Apply applies the Query instruction
func (i *Query) Apply(ctx *tx.ApplyContext) tx.Result {
	_, f, r := loadFeed(ctx, i.Feed)
	if !r.IsSuccess() {
		return r
	}
	data, r := Answer(f, i.Scope, i.RoundID)
	if !r.IsSuccess() {
		return r
	}
	ctx.Return(data)
	return tx.TesSUCCESS
}

// Answer packs the response of a scope.
func Answer(f *Feed, scope Scope, roundID uint32) ([]byte, tx.Result) {
	w := &layout.Writer{}
	switch scope {
	case ScopeVersion:
		w.U8(FeedVersion)
	case ScopeDecimals:
		w.U8(f.Decimals)
	case ScopeDescription:
		w.U32(uint32(len(f.Description)))
		w.Fixed([]byte(f.Description))
	case ScopeRoundData, ScopeLatestRoundData:
		if scope == ScopeLatestRoundData {
			roundID = f.LatestRoundID
		}
		round, err := f.Round(roundID)
		if err != nil {
			return nil, tx.TecNO_ROUND_DATA
		}
		encodeRound(w, round)
	case ScopeAggregator:
		w.Address(f.Owner)
		w.Address(f.ProposedOwner)
		w.Address(f.Writer)
		w.U8(f.Decimals)
		w.U32(f.FlaggingThreshold)
		w.U32(f.LatestRoundID)
		w.U8(f.Granularity)
		w.U32(f.LiveLength)
		w.U32(uint32(f.SlotCount()))
	default:
		return nil, tx.TecUNKNOWN_SCOPE
	}
	data, err := w.Bytes()
	if err != nil {
		return nil, tx.TecINTERNAL
	}
	return data, tx.TesSUCCESS
}

func encodeRound(w *layout.Writer, r Round) {
	w.U32(r.RoundID)
	w.U64(r.Slot)
	w.U32(r.Timestamp)
	w.Int128(r.Answer)
}

// RoundDataSize is the packed size of a RoundData response.
const RoundDataSize = 4 + 8 + 4 + types.Int128Size

// DecodeRound parses a RoundData or LatestRoundData response.
func DecodeRound(data []byte) (Round, error) {
	if len(data) != RoundDataSize {
		return Round{}, fmt.Errorf("round data is %d bytes, want %d", len(data), RoundDataSize)
	}
	r := layout.NewRawReader(data)
	round := Round{
		RoundID:   r.U32(),
		Slot:      r.U64(),
		Timestamp: r.U32(),
		Answer:    r.Int128(),
	}
	return round, r.Err()
}

// DecodeDescription parses a Description response.
func DecodeDescription(data []byte) (string, error) {
	r := layout.NewRawReader(data)
	n := r.U32()
	s := r.Fixed(int(n))
	if err := r.Err(); err != nil {
		return "", err
	}
	return string(s), nil
}
