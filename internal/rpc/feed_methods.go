package rpc

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/store"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb"
)

// DefaultHistoryLimit is used when round_history has no limit.
const DefaultHistoryLimit = 10

// QueryParams is the body of query. Scope is a scope name or number.
type QueryParams struct {
	Feed    string          `json:"feed"`
	Scope   json.RawMessage `json:"scope"`
	RoundID uint32          `json:"round_id"`

	// RoundIDAlt accepts the camel-case spelling used by feed clients
	RoundIDAlt uint32 `json:"roundId"`
}

func (p *QueryParams) roundID() uint32 {
	if p.RoundID != 0 {
		return p.RoundID
	}
	return p.RoundIDAlt
}

func parseScope(raw json.RawMessage) (store.Scope, *RpcError) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, RpcErrorInvalidParams("Missing field 'scope'")
	}
	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return 0, RpcErrorInvalidParams("Invalid scope")
		}
		s, err := store.ParseScope(name)
		if err != nil {
			return 0, RpcErrorInvalidParams(err.Error())
		}
		return s, nil
	}
	var n uint8
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, RpcErrorInvalidParams("Invalid scope")
	}
	return store.Scope(n), nil
}

// feedReader loads feeds for the feed methods.
type feedReader struct{ backend Backend }

func (b *feedReader) read(field, value string) (types.Address, *store.Feed, *RpcError) {
	addr, rpcErr := parseAddress(field, value)
	if rpcErr != nil {
		return addr, nil, rpcErr
	}
	f, err := store.ReadFeed(b.backend, addr)
	if err != nil {
		if errors.Is(err, tx.ErrNotFound) {
			return addr, nil, RpcErrorFeedNotFound(value)
		}
		return addr, nil, RpcErrorInternal(err.Error())
	}
	return addr, f, nil
}

// QueryMethod handles the query method. The result carries the packed
// answer and the "Program return:" line a Query instruction would log.
type QueryMethod struct{ feedReader }

func (m *QueryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p QueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	scope, rpcErr := parseScope(p.Scope)
	if rpcErr != nil {
		return nil, rpcErr
	}
	_, f, rpcErr := m.read("feed", p.Feed)
	if rpcErr != nil {
		return nil, rpcErr
	}

	data, r := store.Answer(f, scope, p.roundID())
	switch r {
	case tx.TesSUCCESS:
	case tx.TecNO_ROUND_DATA:
		return nil, RpcErrorNoRoundData(fmt.Sprintf("round %d is not available", p.roundID()))
	case tx.TecUNKNOWN_SCOPE:
		return nil, RpcErrorInvalidParams("Unknown scope " + scope.String())
	default:
		return nil, RpcErrorInternal(r.String())
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	result := map[string]interface{}{
		"scope":       scope.String(),
		"return_data": encoded,
		"log":         tx.ReturnPrefix + encoded,
	}
	switch scope {
	case store.ScopeVersion:
		result["version"] = data[0]
	case store.ScopeDecimals:
		result["decimals"] = data[0]
	case store.ScopeDescription:
		result["description"] = f.Description
	case store.ScopeRoundData, store.ScopeLatestRoundData:
		round, err := store.DecodeRound(data)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		result["round"] = round
	case store.ScopeAggregator:
		result["aggregator"] = feedHeader(f)
	}
	return result, nil
}

func feedHeader(f *store.Feed) map[string]interface{} {
	return map[string]interface{}{
		"owner":              f.Owner.String(),
		"proposed_owner":     f.ProposedOwner.String(),
		"writer":             f.Writer.String(),
		"description":        f.Description,
		"decimals":           f.Decimals,
		"flagging_threshold": f.FlaggingThreshold,
		"latest_round_id":    f.LatestRoundID,
		"granularity":        f.Granularity,
		"live_length":        f.LiveLength,
		"slot_count":         f.SlotCount(),
		"state":              f.State,
	}
}

// FeedInfoParams is the body of feed_info.
type FeedInfoParams struct {
	Feed string `json:"feed"`
}

// FeedInfoMethod handles the feed_info method
type FeedInfoMethod struct{ feedReader }

func (m *FeedInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p FeedInfoParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	addr, f, rpcErr := m.read("feed", p.Feed)
	if rpcErr != nil {
		return nil, rpcErr
	}
	result := feedHeader(f)
	result["feed"] = addr.String()
	if latest, err := f.Latest(); err == nil {
		result["latest_round"] = latest
	}
	return result, nil
}

// RoundHistoryParams is the body of round_history.
type RoundHistoryParams struct {
	Feed  string `json:"feed"`
	Limit int    `json:"limit"`
}

// RoundView is one round_history entry.
type RoundView struct {
	RoundID               uint32 `json:"round_id"`
	Answer                string `json:"answer"`
	Slot                  uint64 `json:"slot"`
	Timestamp             uint32 `json:"timestamp"`
	ConfigDigest          string `json:"config_digest,omitempty"`
	Epoch                 uint32 `json:"epoch,omitempty"`
	Round                 uint8  `json:"round,omitempty"`
	Transmitter           string `json:"transmitter,omitempty"`
	ObservationsTimestamp uint32 `json:"observations_timestamp,omitempty"`
	JuelsPerFeecoin       uint64 `json:"juels_per_feecoin,omitempty"`
	TxHash                string `json:"tx_hash,omitempty"`
}

func recordView(r relationaldb.RoundRecord) RoundView {
	return RoundView{
		RoundID:               r.RoundID,
		Answer:                r.Answer,
		Slot:                  r.Slot,
		Timestamp:             r.Timestamp,
		ConfigDigest:          hex.EncodeToString(r.ConfigDigest[:]),
		Epoch:                 r.Epoch,
		Round:                 r.Round,
		Transmitter:           r.Transmitter.String(),
		ObservationsTimestamp: r.ObservationsTimestamp,
		JuelsPerFeecoin:       r.JuelsPerFeecoin,
		TxHash:                hex.EncodeToString(r.TxHash[:]),
	}
}

// RoundHistoryMethod handles the round_history method. Rounds come from the
// index when one is configured, otherwise from the feed's live window.
type RoundHistoryMethod struct{ feedReader }

func (m *RoundHistoryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p RoundHistoryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Limit == 0 {
		p.Limit = DefaultHistoryLimit
	}
	if p.Limit < 0 || p.Limit > relationaldb.MaxLimit {
		return nil, RpcErrorInvalidParams(fmt.Sprintf("limit must be between 1 and %d", relationaldb.MaxLimit))
	}
	addr, f, rpcErr := m.read("feed", p.Feed)
	if rpcErr != nil {
		return nil, rpcErr
	}

	rounds := []RoundView{}
	records, err := m.backend.RoundHistory(ctx.Context, addr, p.Limit)
	switch {
	case errors.Is(err, ErrIndexDisabled):
		for _, r := range f.Rounds(p.Limit) {
			rounds = append(rounds, RoundView{RoundID: r.RoundID, Answer: r.Answer.String(), Slot: r.Slot, Timestamp: r.Timestamp})
		}
		return map[string]interface{}{"feed": addr.String(), "source": "feed", "rounds": rounds}, nil
	case err != nil:
		return nil, RpcErrorInternal(err.Error())
	}
	for _, r := range records {
		rounds = append(rounds, recordView(r))
	}
	return map[string]interface{}{"feed": addr.String(), "source": "index", "rounds": rounds}, nil
}
