package ocr2

import (
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// NewTransmission is emitted for every accepted report.
type NewTransmission struct {
	State                 types.Address      `json:"state"`
	Feed                  types.Address      `json:"feed"`
	RoundID               uint32             `json:"round_id"`
	ConfigDigest          [32]byte           `json:"config_digest"`
	Answer                sdkmath.Int        `json:"answer"`
	Transmitter           types.Address      `json:"transmitter"`
	ObservationsTimestamp uint32             `json:"observations_timestamp"`
	ObserverCount         uint8              `json:"observer_count"`
	Observers             [MaxObservers]byte `json:"observers"`
	JuelsPerFeecoin       uint64             `json:"juels_per_feecoin"`
	Epoch                 uint32             `json:"epoch"`
	Round                 uint8              `json:"round"`
	Slot                  uint64             `json:"slot"`
	Timestamp             uint32             `json:"timestamp"`
}

// Encode returns the packed event payload.
func (e *NewTransmission) Encode() ([]byte, error) {
	w := &layout.Writer{}
	w.Address(e.State)
	w.Address(e.Feed)
	w.U32(e.RoundID)
	w.Fixed(e.ConfigDigest[:])
	w.Int128(e.Answer)
	w.Address(e.Transmitter)
	w.U32(e.ObservationsTimestamp)
	w.U8(e.ObserverCount)
	w.Fixed(e.Observers[:])
	w.U64(e.JuelsPerFeecoin)
	w.U32(e.Epoch)
	w.U8(e.Round)
	w.U64(e.Slot)
	w.U32(e.Timestamp)
	return w.Bytes()
}

// DecodeNewTransmission parses a NewTransmission payload.
func DecodeNewTransmission(data []byte) (*NewTransmission, error) {
	r := layout.NewRawReader(data)
	e := &NewTransmission{
		State:   r.Address(),
		Feed:    r.Address(),
		RoundID: r.U32(),
	}
	copy(e.ConfigDigest[:], r.Fixed(32))
	e.Answer = r.Int128()
	e.Transmitter = r.Address()
	e.ObservationsTimestamp = r.U32()
	e.ObserverCount = r.U8()
	copy(e.Observers[:], r.Fixed(MaxObservers))
	e.JuelsPerFeecoin = r.U64()
	e.Epoch = r.U32()
	e.Round = r.U8()
	e.Slot = r.U64()
	e.Timestamp = r.U32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return e, nil
}
