package ocr2

import (
	"encoding/binary"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
	crypto "github.com/LeJamon/goOCR2/internal/crypto/common"
)

var (
	// ErrReportLength is returned for report or context buffers of the wrong size.
	ErrReportLength = errors.New("invalid report length")

	// ErrObserverCount is returned when a report claims more observers than it carries.
	ErrObserverCount = errors.New("invalid observer count")
)

// ReportContext binds a report to a configuration and a reporting instance.
type ReportContext struct {
	ConfigDigest [32]byte
	Epoch        uint32
	Round        uint8
	ExtraHash    [32]byte
}

// Encode returns the 96-byte wire form.
func (c ReportContext) Encode() []byte {
	out := make([]byte, ReportContextLen)
	copy(out[:32], c.ConfigDigest[:])
	binary.BigEndian.PutUint32(out[59:63], c.Epoch)
	out[63] = c.Round
	copy(out[64:], c.ExtraHash[:])
	return out
}

// DecodeReportContext parses the 96-byte wire form.
func DecodeReportContext(raw []byte) (ReportContext, error) {
	if len(raw) != ReportContextLen {
		return ReportContext{}, fmt.Errorf("%w: context is %d bytes", ErrReportLength, len(raw))
	}
	var c ReportContext
	copy(c.ConfigDigest[:], raw[:32])
	c.Epoch = binary.BigEndian.Uint32(raw[59:63])
	c.Round = raw[63]
	copy(c.ExtraHash[:], raw[64:])
	return c, nil
}

// After reports whether c is a later reporting instance than (epoch, round).
func (c ReportContext) After(epoch uint32, round uint8) bool {
	if c.Epoch != epoch {
		return c.Epoch > epoch
	}
	return c.Round > round
}

// Report is the median report signed by the oracles.
type Report struct {
	ObservationsTimestamp uint32
	ObserverCount         uint8
	Observers             [MaxObservers]byte
	Median                sdkmath.Int
	JuelsPerFeecoin       uint64
}

// Encode returns the 61-byte wire form.
func (r Report) Encode() ([]byte, error) {
	out := make([]byte, RawReportLen)
	binary.BigEndian.PutUint32(out[0:4], r.ObservationsTimestamp)
	out[4] = r.ObserverCount
	copy(out[5:37], r.Observers[:])
	if err := types.PutInt128BE(out[37:53], r.Median); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint64(out[53:61], r.JuelsPerFeecoin)
	return out, nil
}

// DecodeReport parses the 61-byte wire form.
func DecodeReport(raw []byte) (Report, error) {
	if len(raw) != RawReportLen {
		return Report{}, fmt.Errorf("%w: report is %d bytes", ErrReportLength, len(raw))
	}
	r := Report{
		ObservationsTimestamp: binary.BigEndian.Uint32(raw[0:4]),
		ObserverCount:         raw[4],
		Median:                types.Int128BE(raw[37:53]),
		JuelsPerFeecoin:       binary.BigEndian.Uint64(raw[53:61]),
	}
	copy(r.Observers[:], raw[5:37])
	if r.ObserverCount > MaxObservers {
		return Report{}, fmt.Errorf("%w: %d", ErrObserverCount, r.ObserverCount)
	}
	return r, nil
}

// ReportHash is the message signed by oracles:
// sha256(u8 len(rawReport) || rawReport || reportContext).
func ReportHash(rawReport, reportContext []byte) [32]byte {
	return crypto.Sha256([]byte{uint8(len(rawReport))}, rawReport, reportContext)
}

// SignReport signs a report with each key, in the order given.
func SignReport(ctx ReportContext, report Report, keys ...*secp256k1.Key) ([][SignatureSize]byte, error) {
	raw, err := report.Encode()
	if err != nil {
		return nil, err
	}
	hash := ReportHash(raw, ctx.Encode())
	sigs := make([][SignatureSize]byte, 0, len(keys))
	for _, k := range keys {
		sig, err := k.Sign(hash)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
