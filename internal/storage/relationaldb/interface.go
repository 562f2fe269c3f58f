// Package relationaldb indexes accepted rounds in a SQL database so that
// history older than a feed's ring buffer stays queryable.
package relationaldb

//go:generate mockgen -destination=mock/mock_repository.go -package=mock . RoundRepository

import (
	"context"
	"time"

	"github.com/LeJamon/goOCR2/internal/core/types"
)

// RoundRecord is one accepted transmission.
type RoundRecord struct {
	Feed                  types.Address `json:"feed"`
	RoundID               uint32        `json:"round_id"`
	State                 types.Address `json:"state"`
	ConfigDigest          [32]byte      `json:"config_digest"`
	Epoch                 uint32        `json:"epoch"`
	Round                 uint8         `json:"round"`
	Answer                string        `json:"answer"`
	Transmitter           types.Address `json:"transmitter"`
	ObservationsTimestamp uint32        `json:"observations_timestamp"`
	JuelsPerFeecoin       uint64        `json:"juels_per_feecoin"`
	Slot                  uint64        `json:"slot"`
	Timestamp             uint32        `json:"timestamp"`
	TxHash                [32]byte      `json:"tx_hash"`
}

// FeedSummary aggregates the indexed history of one feed.
type FeedSummary struct {
	Feed         types.Address
	Rounds       uint64
	FirstRoundID uint32
	LastRoundID  uint32
	LastSeen     time.Time
}

// RoundRepository stores and queries indexed rounds.
type RoundRepository interface {
	// SaveRound records a round. Saving the same (feed, round id) twice
	// returns ErrDuplicate.
	SaveRound(ctx context.Context, r *RoundRecord) error

	// Round returns a single round or ErrRoundNotFound.
	Round(ctx context.Context, feed types.Address, roundID uint32) (*RoundRecord, error)

	// LatestRounds returns up to limit rounds, newest first.
	LatestRounds(ctx context.Context, feed types.Address, limit int) ([]RoundRecord, error)

	// Summary returns the indexed totals of a feed.
	Summary(ctx context.Context, feed types.Address) (*FeedSummary, error)

	Close() error
}
