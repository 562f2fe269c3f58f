package rpc

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
)

// TransmissionEvent is pushed to "transmissions" subscribers for every
// accepted report.
type TransmissionEvent struct {
	Type                  string `json:"type"`
	Feed                  string `json:"feed"`
	State                 string `json:"state"`
	RoundID               uint32 `json:"round_id"`
	ConfigDigest          string `json:"config_digest"`
	Epoch                 uint32 `json:"epoch"`
	Round                 uint8  `json:"round"`
	Answer                string `json:"answer"`
	Transmitter           string `json:"transmitter"`
	ObservationsTimestamp uint32 `json:"observations_timestamp"`
	Observers             string `json:"observers"`
	JuelsPerFeecoin       uint64 `json:"juels_per_feecoin"`
	Slot                  uint64 `json:"slot"`
	Timestamp             uint32 `json:"timestamp"`
	TxHash                string `json:"tx_hash"`
}

// NewTransmissionEvent converts a decoded NewTransmission event.
func NewTransmissionEvent(ev *ocr2.NewTransmission, txHash [32]byte) *TransmissionEvent {
	return &TransmissionEvent{
		Type:                  "transmission",
		Feed:                  ev.Feed.String(),
		State:                 ev.State.String(),
		RoundID:               ev.RoundID,
		ConfigDigest:          hex.EncodeToString(ev.ConfigDigest[:]),
		Epoch:                 ev.Epoch,
		Round:                 ev.Round,
		Answer:                ev.Answer.String(),
		Transmitter:           ev.Transmitter.String(),
		ObservationsTimestamp: ev.ObservationsTimestamp,
		Observers:             hex.EncodeToString(ev.Observers[:ev.ObserverCount]),
		JuelsPerFeecoin:       ev.JuelsPerFeecoin,
		Slot:                  ev.Slot,
		Timestamp:             ev.Timestamp,
		TxHash:                hex.EncodeToString(txHash[:]),
	}
}

// TransactionEvent is pushed to "transactions" subscribers for every
// committed transaction.
type TransactionEvent struct {
	Type   string `json:"type"`
	Result Result `json:"transaction"`
}

// EventView is the JSON form of a program event.
type EventView struct {
	Program string `json:"program"`
	Name    string `json:"name"`
	Data    string `json:"data"`
}

// Result is the JSON form of an ApplyResult.
type Result struct {
	EngineResult        string      `json:"engine_result"`
	EngineResultCode    int         `json:"engine_result_code"`
	EngineResultMessage string      `json:"engine_result_message"`
	Applied             bool        `json:"applied"`
	Fee                 uint64      `json:"fee"`
	Slot                uint64      `json:"slot"`
	TxHash              string      `json:"tx_hash"`
	Logs                []string    `json:"logs"`
	ReturnData          string      `json:"return_data,omitempty"`
	Events              []EventView `json:"events,omitempty"`
	Metadata            interface{} `json:"metadata,omitempty"`
}

// NewResult converts an ApplyResult.
func NewResult(res tx.ApplyResult) Result {
	r := Result{
		EngineResult:        res.Result.String(),
		EngineResultCode:    int(res.Result),
		EngineResultMessage: res.Message,
		Applied:             res.Applied,
		Fee:                 res.Fee,
		Slot:                res.Slot,
		TxHash:              hex.EncodeToString(res.TxHash[:]),
		Logs:                res.Logs,
	}
	if r.EngineResultMessage == "" {
		r.EngineResultMessage = res.Result.Message()
	}
	if r.Logs == nil {
		r.Logs = []string{}
	}
	if len(res.ReturnData) > 0 {
		r.ReturnData = base64.StdEncoding.EncodeToString(res.ReturnData)
	}
	for _, e := range res.Events {
		r.Events = append(r.Events, EventView{
			Program: e.Program.String(),
			Name:    e.Name,
			Data:    base64.StdEncoding.EncodeToString(e.Data),
		})
	}
	if res.Metadata != nil {
		r.Metadata = res.Metadata
	}
	return r
}
