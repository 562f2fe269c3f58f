package ocr2

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
)

func drawAddress(t *rapid.T, label string) types.Address {
	var a types.Address
	copy(a[:], rapid.SliceOfN(rapid.Byte(), types.AddressLength, types.AddressLength).Draw(t, label))
	return a
}

func drawOracles(t *rapid.T) []DigestOracle {
	n := rapid.IntRange(1, MaxOracles).Draw(t, "n")
	oracles := make([]DigestOracle, n)
	for i := range oracles {
		copy(oracles[i].Signer[:], rapid.SliceOfN(rapid.Byte(), secp256k1.AddressSize, secp256k1.AddressSize).Draw(t, "signer"))
		oracles[i].Transmitter = drawAddress(t, "transmitter")
		oracles[i].Payee = drawAddress(t, "payee")
	}
	return oracles
}

func TestConfigDigestProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		oracles := drawOracles(t)
		f := rapid.Uint8().Draw(t, "f")
		mint := drawAddress(t, "mint")
		version := rapid.Uint64().Draw(t, "version")
		offchain := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "offchain")

		digest := ConfigDigest(oracles, f, mint, version, offchain)
		if digest != ConfigDigest(oracles, f, mint, version, append([]byte(nil), offchain...)) {
			t.Fatalf("digest is not deterministic")
		}

		if ConfigDigest(oracles, f+1, mint, version, offchain) == digest {
			t.Fatalf("digest ignores f")
		}
		if ConfigDigest(oracles, f, mint, version+1, offchain) == digest {
			t.Fatalf("digest ignores the off-chain version")
		}
		if ConfigDigest(oracles, f, mint, version, append(offchain, 0)) == digest {
			t.Fatalf("digest ignores the off-chain config")
		}

		idx := rapid.IntRange(0, len(oracles)-1).Draw(t, "idx")
		changed := append([]DigestOracle(nil), oracles...)
		changed[idx].Payee[0] ^= 0x01
		if ConfigDigest(changed, f, mint, version, offchain) == digest {
			t.Fatalf("digest ignores payee %d", idx)
		}
	})
}

func TestReportContextOrdering(t *testing.T) {
	tt := []struct {
		name  string
		ctx   ReportContext
		epoch uint32
		round uint8
		after bool
	}{
		{name: "later epoch", ctx: ReportContext{Epoch: 2, Round: 0}, epoch: 1, round: 9, after: true},
		{name: "later round", ctx: ReportContext{Epoch: 1, Round: 3}, epoch: 1, round: 2, after: true},
		{name: "same instance", ctx: ReportContext{Epoch: 1, Round: 2}, epoch: 1, round: 2},
		{name: "earlier epoch", ctx: ReportContext{Epoch: 1, Round: 9}, epoch: 2, round: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.after, tc.ctx.After(tc.epoch, tc.round))
		})
	}
}

func TestReportContextLayout(t *testing.T) {
	ctx := ReportContext{Epoch: 0x01020304, Round: 7}
	ctx.ConfigDigest[0] = 0xaa
	ctx.ExtraHash[31] = 0xbb

	raw := ctx.Encode()
	require.Len(t, raw, ReportContextLen)
	require.Equal(t, byte(0xaa), raw[0])
	require.Equal(t, make([]byte, 27), raw[32:59])
	require.Equal(t, []byte{1, 2, 3, 4, 7}, raw[59:64])
	require.Equal(t, byte(0xbb), raw[95])

	decoded, err := DecodeReportContext(raw)
	require.NoError(t, err)
	require.Equal(t, ctx, decoded)

	_, err = DecodeReportContext(raw[:95])
	require.ErrorIs(t, err, ErrReportLength)
}

func TestReportLayout(t *testing.T) {
	r := Report{
		ObservationsTimestamp: 1700000000,
		ObserverCount:         3,
		Median:                sdkmath.NewInt(-2),
		JuelsPerFeecoin:       5,
	}
	r.Observers[0], r.Observers[1], r.Observers[2] = 2, 0, 1

	raw, err := r.Encode()
	require.NoError(t, err)
	require.Len(t, raw, RawReportLen)
	// median is big-endian two's complement
	require.Equal(t, byte(0xff), raw[37])
	require.Equal(t, byte(0xfe), raw[52])

	decoded, err := DecodeReport(raw)
	require.NoError(t, err)
	require.True(t, decoded.Median.Equal(r.Median))
	require.Equal(t, r.Observers, decoded.Observers)

	raw[4] = MaxObservers + 1
	_, err = DecodeReport(raw)
	require.ErrorIs(t, err, ErrObserverCount)

	_, err = DecodeReport(raw[:60])
	require.ErrorIs(t, err, ErrReportLength)

	r.Median = types.MaxInt128.AddRaw(1)
	_, err = r.Encode()
	require.Error(t, err)
}

func TestSignReportRecoversSigners(t *testing.T) {
	k1, err := secp256k1.KeyFromSeed([]byte("report-signer-1"))
	require.NoError(t, err)
	k2, err := secp256k1.KeyFromSeed([]byte("report-signer-2"))
	require.NoError(t, err)

	ctx := ReportContext{Epoch: 1, Round: 1}
	report := Report{Median: sdkmath.NewInt(42)}
	sigs, err := SignReport(ctx, report, k1, k2)
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	raw, err := report.Encode()
	require.NoError(t, err)
	hash := ReportHash(raw, ctx.Encode())
	addr, err := secp256k1.Recover(hash, sigs[1][:])
	require.NoError(t, err)
	require.Equal(t, k2.Address(), addr)
}

func TestTransmitBinaryLayout(t *testing.T) {
	k, err := secp256k1.KeyFromSeed([]byte("transmit-layout"))
	require.NoError(t, err)
	ctx := ReportContext{Epoch: 3, Round: 1}
	report := Report{Median: sdkmath.NewInt(7), ObserverCount: 1}
	sigs, err := SignReport(ctx, report, k, k)
	require.NoError(t, err)

	var state, transmitter, feed types.Address
	state[0], transmitter[0], feed[0] = 1, 2, 3
	ins, err := NewTransmit(state, transmitter, feed, 254, ctx, report, sigs)
	require.NoError(t, err)
	require.NoError(t, ins.Validate())

	raw, err := ins.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, transmitHeaderLen+2*SignatureSize)
	require.Equal(t, byte(254), raw[3*types.AddressLength])

	var decoded Transmit
	require.NoError(t, decoded.UnmarshalBinary(raw))
	require.Equal(t, ins, &decoded)

	require.ErrorIs(t, decoded.UnmarshalBinary(raw[:len(raw)-1]), ErrReportLength)
}

func TestTransmitValidate(t *testing.T) {
	ctx := ReportContext{Epoch: 1, Round: 1}
	report := Report{Median: sdkmath.NewInt(1)}
	var addr types.Address
	addr[0] = 9

	tt := []struct {
		name   string
		mutate func(i *Transmit)
	}{
		{name: "no signatures", mutate: func(i *Transmit) { i.Signatures = nil }},
		{name: "too many signatures", mutate: func(i *Transmit) {
			i.Signatures = make([][SignatureSize]byte, MaxOracles+1)
		}},
		{name: "short context", mutate: func(i *Transmit) { i.ReportContext = i.ReportContext[:10] }},
		{name: "short report", mutate: func(i *Transmit) { i.RawReport = i.RawReport[:10] }},
		{name: "missing feed", mutate: func(i *Transmit) { i.Feed = types.ZeroAddress }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ins, err := NewTransmit(addr, addr, addr, 1, ctx, report, make([][SignatureSize]byte, 1))
			require.NoError(t, err)
			tc.mutate(ins)
			require.Error(t, ins.Validate())
		})
	}
}

func TestTransmitterPaymentProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		transmission := rapid.Uint32().Draw(t, "transmission")
		lamports := rapid.Uint64().Draw(t, "lamports")
		juels := rapid.Uint64().Draw(t, "juels")

		got := TransmitterPayment(transmission, lamports, juels)
		if got.LT(sdkmath.NewIntFromUint64(uint64(transmission))) {
			t.Fatalf("payment %s below the flat transmission payment %d", got, transmission)
		}

		// floor(lamports * juels / 1e9), checked without the division
		reimbursed := got.Sub(sdkmath.NewIntFromUint64(uint64(transmission)))
		product := sdkmath.NewIntFromUint64(lamports).Mul(sdkmath.NewIntFromUint64(juels))
		low := reimbursed.MulRaw(feeScale)
		high := reimbursed.AddRaw(1).MulRaw(feeScale)
		if low.GT(product) || !high.GT(product) {
			t.Fatalf("reimbursement %s is not floor(%d * %d / 1e9)", reimbursed, lamports, juels)
		}
	})

	require.Equal(t, "5", TransmitterPayment(0, 5000, 1_000_000).String())
	require.Equal(t, "100", TransmitterPayment(100, 999, 1_000_000).String())
}

func TestCreditOverflow(t *testing.T) {
	o := &Oracle{PaymentGjuels: ^uint64(0) - 1}
	require.True(t, credit(o, sdkmath.NewInt(1)).IsSuccess())
	require.Equal(t, ^uint64(0), o.PaymentGjuels)
	require.False(t, credit(o, sdkmath.NewInt(1)).IsSuccess())
	require.Equal(t, ^uint64(0), o.PaymentGjuels)
}

func TestStateEncodeKeepsOracles(t *testing.T) {
	s := &State{
		Version:    stateVersion,
		StoreNonce: 250,
		VaultNonce: 251,
		Config: Config{
			F:         1,
			Epoch:     7,
			MinAnswer: types.MinInt128,
			MaxAnswer: types.MaxInt128,
			Billing:   Billing{ObservationPaymentGjuels: 3, TransmissionPaymentGjuels: 4},
		},
		OffchainConfig: OffchainConfig{Version: 2, Data: []byte("abc")},
	}
	for i := 0; i < MaxOracles; i++ {
		o := Oracle{PaymentGjuels: uint64(i) * 10, FromRoundID: uint32(i)}
		o.Signer[0] = byte(i + 1)
		o.Transmitter[0] = byte(i + 1)
		s.Oracles = append(s.Oracles, o)
	}

	data, err := s.Encode()
	require.NoError(t, err)
	require.Len(t, data, StateSize)

	decoded, err := DecodeState(data)
	require.NoError(t, err)
	require.Len(t, decoded.Oracles, MaxOracles)
	require.Equal(t, s.Oracles[MaxOracles-1], decoded.Oracles[MaxOracles-1])
	require.True(t, decoded.Config.MinAnswer.Equal(types.MinInt128))
	require.True(t, decoded.Config.MaxAnswer.Equal(types.MaxInt128))
	require.Equal(t, s.OffchainConfig, decoded.OffchainConfig)
	require.Equal(t, uint8(251), decoded.VaultNonce)

	total := sdkmath.ZeroInt()
	for i := 0; i < MaxOracles; i++ {
		total = total.AddRaw(int64(i) * 10)
	}
	require.True(t, decoded.TotalOwed().Equal(total))
	require.Equal(t, 4, decoded.OracleByTransmitter(s.Oracles[4].Transmitter))
	require.Equal(t, -1, decoded.OracleByTransmitter(types.ZeroAddress))
}
