package store

import (
	"bytes"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

var (
	// ErrFeedSize is returned when an account cannot hold a feed layout.
	ErrFeedSize = errors.New("feed account size mismatch")

	// ErrRoundNotFound is returned for rounds outside the live window.
	ErrRoundNotFound = errors.New("round not found")
)

// Header is the fixed part of a feed account.
type Header struct {
	Version           uint8         `json:"version"`
	State             uint8         `json:"state"`
	Owner             types.Address `json:"owner"`
	ProposedOwner     types.Address `json:"proposed_owner"`
	Writer            types.Address `json:"writer"`
	Description       string        `json:"description"`
	Decimals          uint8         `json:"decimals"`
	FlaggingThreshold uint32        `json:"flagging_threshold"`
	LatestRoundID     uint32        `json:"latest_round_id"`
	Granularity       uint8         `json:"granularity"`
	LiveLength        uint32        `json:"live_length"`
	Cursor            uint32        `json:"cursor"`
}

// Round is one stored answer.
type Round struct {
	RoundID   uint32      `json:"round_id"`
	Slot      uint64      `json:"slot"`
	Timestamp uint32      `json:"timestamp"`
	Answer    sdkmath.Int `json:"answer"`
}

// Feed is a decoded feed account: the header plus its ring of round slots.
type Feed struct {
	Header
	data []byte
}

// CheckSize returns the slot count of a feed account of the given size.
func CheckSize(size int) (int, error) {
	if size < HeaderEnd+SlotSize {
		return 0, fmt.Errorf("%w: %d bytes is smaller than one slot", ErrFeedSize, size)
	}
	if (size-HeaderEnd)%SlotSize != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not slot aligned", ErrFeedSize, size)
	}
	return (size - HeaderEnd) / SlotSize, nil
}

// NewFeed lays out an empty feed over account data of the given size.
func NewFeed(size int, h Header) (*Feed, error) {
	slots, err := CheckSize(size)
	if err != nil {
		return nil, err
	}
	if h.LiveLength == 0 || int(h.LiveLength) > slots {
		return nil, fmt.Errorf("%w: live length %d with %d slots", ErrFeedSize, h.LiveLength, slots)
	}
	if len(h.Description) > DescriptionSize {
		return nil, fmt.Errorf("description longer than %d bytes", DescriptionSize)
	}
	h.Version = FeedVersion
	return &Feed{Header: h, data: make([]byte, size)}, nil
}

// ParseFeed decodes feed account data.
func ParseFeed(data []byte) (*Feed, error) {
	if !entry.TypeTransmissions.Matches(data) {
		return nil, fmt.Errorf("%w: not a feed account", ErrFeedSize)
	}
	if _, err := CheckSize(len(data)); err != nil {
		return nil, err
	}
	r := layout.NewReader(data)
	h := Header{
		Version:       r.U8(),
		State:         r.U8(),
		Owner:         r.Address(),
		ProposedOwner: r.Address(),
		Writer:        r.Address(),
	}
	h.Description = string(bytes.TrimRight(r.Fixed(DescriptionSize), "\x00"))
	h.Decimals = r.U8()
	h.FlaggingThreshold = r.U32()
	h.LatestRoundID = r.U32()
	h.Granularity = r.U8()
	h.LiveLength = r.U32()
	h.Cursor = r.U32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return &Feed{Header: h, data: append([]byte(nil), data...)}, nil
}

// SlotCount returns the ring capacity.
func (f *Feed) SlotCount() int {
	return (len(f.data) - HeaderEnd) / SlotSize
}

// Encode writes the header back and returns the account data.
func (f *Feed) Encode() ([]byte, error) {
	w := layout.NewWriter(entry.TypeTransmissions, HeaderEnd)
	w.U8(f.Version)
	w.U8(f.State)
	w.Address(f.Owner)
	w.Address(f.ProposedOwner)
	w.Address(f.Writer)
	var desc [DescriptionSize]byte
	copy(desc[:], f.Description)
	w.Fixed(desc[:])
	w.U8(f.Decimals)
	w.U32(f.FlaggingThreshold)
	w.U32(f.LatestRoundID)
	w.U8(f.Granularity)
	w.U32(f.LiveLength)
	w.U32(f.Cursor)
	w.Pad(HeaderEnd)
	header, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	copy(f.data[:HeaderEnd], header)
	return append([]byte(nil), f.data...), nil
}

// Push writes a round at the cursor and advances it, overwriting the oldest
// slot once the ring is full.
func (f *Feed) Push(slot uint64, timestamp uint32, answer sdkmath.Int) (Round, error) {
	if !types.FitsInt128(answer) {
		return Round{}, types.ErrInt128Overflow
	}
	off := HeaderEnd + int(f.Cursor)*SlotSize
	w := &layout.Writer{}
	w.U64(slot)
	w.U32(timestamp)
	w.U32(0)
	w.Int128(answer)
	w.Pad(SlotSize)
	encoded, err := w.Bytes()
	if err != nil {
		return Round{}, err
	}
	copy(f.data[off:off+SlotSize], encoded)

	f.Cursor = (f.Cursor + 1) % uint32(f.SlotCount())
	f.LatestRoundID++
	return Round{RoundID: f.LatestRoundID, Slot: slot, Timestamp: timestamp, Answer: answer}, nil
}

// Latest returns the most recent round.
func (f *Feed) Latest() (Round, error) {
	return f.Round(f.LatestRoundID)
}

// Round returns a round still inside the live window.
func (f *Feed) Round(id uint32) (Round, error) {
	if id == 0 || id > f.LatestRoundID || f.LatestRoundID-id >= f.window() {
		return Round{}, fmt.Errorf("%w: %d", ErrRoundNotFound, id)
	}
	back := f.LatestRoundID - id
	n := uint32(f.SlotCount())
	idx := (f.Cursor + n - 1 - back%n) % n
	return f.readSlot(id, int(idx))
}

// Rounds returns up to limit live rounds, newest first.
func (f *Feed) Rounds(limit int) []Round {
	var out []Round
	for id := f.LatestRoundID; id > 0 && len(out) < limit; id-- {
		r, err := f.Round(id)
		if err != nil {
			break
		}
		out = append(out, r)
	}
	return out
}

func (f *Feed) window() uint32 {
	n := uint32(f.SlotCount())
	if f.LiveLength > 0 && f.LiveLength < n {
		return f.LiveLength
	}
	return n
}

func (f *Feed) readSlot(id uint32, idx int) (Round, error) {
	off := HeaderEnd + idx*SlotSize
	r := layout.NewRawReader(f.data[off : off+SlotSize])
	round := Round{RoundID: id}
	round.Slot = r.U64()
	round.Timestamp = r.U32()
	r.Skip(4)
	round.Answer = r.Int128()
	return round, r.Err()
}
