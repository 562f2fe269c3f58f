package rpc

import (
	"context"
	"errors"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb"
)

// ErrIndexDisabled is returned by RoundHistory when the node keeps no round
// index. Handlers then fall back to the feed's ring buffer.
var ErrIndexDisabled = errors.New("round index disabled")

// Backend provides access to core services from RPC handlers.
type Backend interface {
	tx.AccountReader

	// Submit applies a transaction and commits it on success
	Submit(ctx context.Context, t *tx.Transaction) (tx.ApplyResult, error)

	// Simulate applies a transaction without committing
	Simulate(t *tx.Transaction) tx.ApplyResult

	// RoundHistory returns indexed rounds of a feed, newest first
	RoundHistory(ctx context.Context, feed types.Address, limit int) ([]relationaldb.RoundRecord, error)

	// Info returns server status information
	Info() ServerInfo
}

// ServerInfo is the server_info result.
type ServerInfo struct {
	BuildVersion         string `json:"build_version"`
	Slot                 uint64 `json:"slot"`
	Uptime               uint64 `json:"uptime"`
	StateBackend         string `json:"state_backend"`
	IndexDriver          string `json:"index_driver"`
	LamportsPerSignature uint64 `json:"lamports_per_signature"`
	RentPerByte          uint64 `json:"rent_per_byte"`
	Subscribers          int    `json:"subscribers"`
}
