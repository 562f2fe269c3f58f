package ocr2

import (
	"fmt"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/store"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
)

const transmitHeaderLen = 3*types.AddressLength + 1 + ReportContextLen + RawReportLen

// Transmit submits a signed report. Its payload keeps the on-chain layout:
// u8 store nonce, 96-byte report context, 61-byte raw report, then 65 bytes
// per signature.
type Transmit struct {
	State         types.Address
	Transmitter   types.Address
	Feed          types.Address
	StoreNonce    uint8
	ReportContext []byte
	RawReport     []byte
	Signatures    [][SignatureSize]byte
}

// NewTransmit encodes a report and its signatures into a Transmit instruction.
func NewTransmit(state, transmitter, feed types.Address, storeNonce uint8, ctx ReportContext, report Report, sigs [][SignatureSize]byte) (*Transmit, error) {
	raw, err := report.Encode()
	if err != nil {
		return nil, err
	}
	return &Transmit{
		State:         state,
		Transmitter:   transmitter,
		Feed:          feed,
		StoreNonce:    storeNonce,
		ReportContext: ctx.Encode(),
		RawReport:     raw,
		Signatures:    sigs,
	}, nil
}

func (i *Transmit) Program() types.Address { return keylet.OCR2Program }
func (i *Transmit) Kind() string           { return KindTransmit }

// MarshalBinary implements encoding.BinaryMarshaler.
func (i *Transmit) MarshalBinary() ([]byte, error) {
	if len(i.ReportContext) != ReportContextLen || len(i.RawReport) != RawReportLen {
		return nil, ErrReportLength
	}
	out := make([]byte, 0, transmitHeaderLen+len(i.Signatures)*SignatureSize)
	out = append(out, i.State[:]...)
	out = append(out, i.Transmitter[:]...)
	out = append(out, i.Feed[:]...)
	out = append(out, i.StoreNonce)
	out = append(out, i.ReportContext...)
	out = append(out, i.RawReport...)
	for _, sig := range i.Signatures {
		out = append(out, sig[:]...)
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (i *Transmit) UnmarshalBinary(data []byte) error {
	if len(data) < transmitHeaderLen || (len(data)-transmitHeaderLen)%SignatureSize != 0 {
		return fmt.Errorf("%w: transmit payload is %d bytes", ErrReportLength, len(data))
	}
	off := 0
	next := func(n int) []byte {
		b := data[off : off+n]
		off += n
		return b
	}
	copy(i.State[:], next(types.AddressLength))
	copy(i.Transmitter[:], next(types.AddressLength))
	copy(i.Feed[:], next(types.AddressLength))
	i.StoreNonce = next(1)[0]
	i.ReportContext = append([]byte(nil), next(ReportContextLen)...)
	i.RawReport = append([]byte(nil), next(RawReportLen)...)
	i.Signatures = nil
	for off < len(data) {
		var sig [SignatureSize]byte
		copy(sig[:], next(SignatureSize))
		i.Signatures = append(i.Signatures, sig)
	}
	return nil
}

// Validate validates the Transmit instruction
func (i *Transmit) Validate() error {
	if i.State.IsZero() || i.Transmitter.IsZero() || i.Feed.IsZero() {
		return tx.Malformed("transmit: missing address")
	}
	if _, err := DecodeReportContext(i.ReportContext); err != nil {
		return tx.Errorf(tx.TemBAD_REPORT, "%v", err)
	}
	if _, err := DecodeReport(i.RawReport); err != nil {
		return tx.Errorf(tx.TemBAD_REPORT, "%v", err)
	}
	if len(i.Signatures) == 0 || len(i.Signatures) > MaxOracles {
		return tx.Errorf(tx.TemBAD_REPORT, "signature count %d outside [1, %d]", len(i.Signatures), MaxOracles)
	}
	return nil
}

// Apply applies the Transmit instruction
func (i *Transmit) Apply(ctx *tx.ApplyContext) tx.Result {
	stateRaw, s, r := loadState(ctx, i.State)
	if !r.IsSuccess() {
		return r
	}
	if s.Feed != i.Feed {
		return tx.TecINVALID_ACCOUNT
	}
	if i.StoreNonce != s.StoreNonce {
		return tx.TecNO_PERMISSION
	}

	reportCtx, _ := DecodeReportContext(i.ReportContext)
	report, _ := DecodeReport(i.RawReport)

	// (1) the report must be for the active configuration and a new instance
	if reportCtx.ConfigDigest != s.Config.LatestConfigDigest {
		return tx.TecSTALE_CONFIG
	}
	if !reportCtx.After(s.Config.Epoch, s.Config.Round) {
		return tx.TecSTALE_REPORT
	}

	transmitter := s.OracleByTransmitter(i.Transmitter)
	if transmitter < 0 || !ctx.IsSigner(i.Transmitter) {
		return tx.TecNO_PERMISSION
	}

	// (2)-(4) ordered signer match and threshold
	signers, r := VerifySignatures(s, ReportHash(i.RawReport, i.ReportContext), i.Signatures)
	if !r.IsSuccess() {
		ctx.Log("signature verification failed: %s", r)
		return r
	}

	if report.Median.LT(s.Config.MinAnswer) || report.Median.GT(s.Config.MaxAnswer) {
		return tx.TecANSWER_OUT_OF_RANGE
	}

	storeAuthority, err := s.StoreAuthority(i.State)
	if err != nil {
		return tx.TecINTERNAL
	}
	if r := ctx.Invoke(&store.Submit{
		Feed:   i.Feed,
		Writer: storeAuthority,
		Answer: report.Median.String(),
	}, storeAuthority); !r.IsSuccess() {
		return r
	}

	if r := creditTransmission(ctx, s, signers, transmitter, report.JuelsPerFeecoin); !r.IsSuccess() {
		return r
	}

	s.Config.LatestAggregatorRoundID++
	s.Config.Epoch = reportCtx.Epoch
	s.Config.Round = reportCtx.Round
	s.Config.LatestTransmitter = i.Transmitter
	if r := saveState(ctx, i.State, stateRaw, s); !r.IsSuccess() {
		return r
	}

	event := &NewTransmission{
		State:                 i.State,
		Feed:                  i.Feed,
		RoundID:               s.Config.LatestAggregatorRoundID,
		ConfigDigest:          reportCtx.ConfigDigest,
		Answer:                report.Median,
		Transmitter:           i.Transmitter,
		ObservationsTimestamp: report.ObservationsTimestamp,
		ObserverCount:         report.ObserverCount,
		Observers:             report.Observers,
		JuelsPerFeecoin:       report.JuelsPerFeecoin,
		Epoch:                 reportCtx.Epoch,
		Round:                 reportCtx.Round,
		Slot:                  ctx.Slot,
		Timestamp:             uint32(ctx.UnixTimestamp()),
	}
	data, err := event.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	ctx.Emit(EventNewTransmission, data)
	return tx.TesSUCCESS
}

// VerifySignatures recovers each signature over hash and matches it, in
// order, against the ascending signer list of the active oracle set. It
// returns the indexes of the signing oracles. Unknown, repeated or
// out-of-order signers fail, as do fewer than f+1 signatures.
func VerifySignatures(s *State, hash [32]byte, sigs [][SignatureSize]byte) ([]int, tx.Result) {
	signers := make([]int, 0, len(sigs))
	next := 0
	for _, sig := range sigs {
		addr, err := secp256k1.Recover(hash, sig[:])
		if err != nil {
			return nil, tx.TecBAD_SIGNER
		}
		for next < len(s.Oracles) && s.Oracles[next].Signer != addr {
			next++
		}
		if next == len(s.Oracles) {
			return nil, tx.TecBAD_SIGNER
		}
		signers = append(signers, next)
		next++
	}
	if len(signers) < int(s.Config.F)+1 {
		return nil, tx.TecSIGNATURE_THRESHOLD
	}
	return signers, tx.TesSUCCESS
}
