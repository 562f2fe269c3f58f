package offchain

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"
	"pgregory.net/rapid"

	"github.com/LeJamon/goOCR2/internal/core/types"
)

func validConfig() *Config {
	return &Config{
		DeltaProgress: 2 * time.Second,
		DeltaResend:   5 * time.Second,
		DeltaRound:    time.Second,
		DeltaGrace:    400 * time.Millisecond,
		DeltaStage:    5 * time.Second,
		RMax:          3,
		S:             []uint32{1, 1, 2},
		OffchainPublicKeys: [][]byte{
			bytes.Repeat([]byte{1}, 32),
			bytes.Repeat([]byte{2}, 32),
		},
		PeerIDs:          []string{"peer-1", "peer-2"},
		ConfigPublicKeys: [][]byte{bytes.Repeat([]byte{3}, 32), bytes.Repeat([]byte{4}, 32)},
		ReportingPluginConfig: ReportingPluginConfig{
			AlphaReportPpb: 1_000_000,
			AlphaAcceptPpb: 1_000_000,
			DeltaC:         time.Minute,
		},
		MaxDurationQuery:                        100 * time.Millisecond,
		MaxDurationObservation:                  300 * time.Millisecond,
		MaxDurationReport:                       300 * time.Millisecond,
		MaxDurationShouldAcceptFinalizedReport:  time.Second,
		MaxDurationShouldTransmitAcceptedReport: time.Second,
	}
}

func TestValidate(t *testing.T) {
	tt := []struct {
		name   string
		mutate func(c *Config)
		err    error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "negative grace", mutate: func(c *Config) { c.DeltaGrace = -1 }, err: ErrNegativeDuration},
		{name: "negative report duration", mutate: func(c *Config) { c.MaxDurationReport = -time.Second }, err: ErrNegativeDuration},
		{name: "progress below safe interval", mutate: func(c *Config) {
			c.DeltaProgress, c.DeltaRound = 199*time.Millisecond, 0
			c.MaxDurationQuery, c.MaxDurationObservation, c.MaxDurationReport = 0, 0, 0
		}, err: ErrBelowSafeInterval},
		{name: "resend below safe interval", mutate: func(c *Config) { c.DeltaResend = time.Millisecond }, err: ErrBelowSafeInterval},
		{name: "round equals progress", mutate: func(c *Config) { c.DeltaRound = c.DeltaProgress }, err: ErrRoundTooLong},
		{name: "generation equals progress", mutate: func(c *Config) {
			c.MaxDurationQuery, c.MaxDurationObservation, c.MaxDurationReport = time.Second, 500*time.Millisecond, 500*time.Millisecond
		}, err: ErrGenerationTooLong},
		{name: "zero rMax", mutate: func(c *Config) { c.RMax = 0 }, err: ErrBadRMax},
		{name: "rMax 255", mutate: func(c *Config) { c.RMax = 255 }, err: ErrBadRMax},
		{name: "schedule too long", mutate: func(c *Config) { c.S = make([]uint32, MaxScheduleLength) }, err: ErrBadSchedule},
		{name: "schedule entry above max oracles", mutate: func(c *Config) { c.S = []uint32{20} }, err: ErrBadSchedule},
		{name: "schedule entry at max oracles", mutate: func(c *Config) { c.S = []uint32{19} }},
		{name: "missing peer id", mutate: func(c *Config) { c.PeerIDs = c.PeerIDs[:1] }, err: ErrKeyCount},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestEncode(t *testing.T) {
	raw, err := Encode(validConfig())
	require.NoError(t, err)
	require.Equal(t, EncodingVersion, raw[0])

	var body []byte
	require.NoError(t, codec.NewEncoderBytes(&body, msgpack).Encode(validConfig()))
	require.Equal(t, append([]byte{EncodingVersion}, body...), raw)

	got, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, validConfig(), got)

	bad := validConfig()
	bad.RMax = 0
	_, err = Encode(bad)
	require.ErrorIs(t, err, ErrBadRMax)

	big := validConfig()
	for i := 0; i < 200; i++ {
		big.PeerIDs = append(big.PeerIDs, "12D3KooWPeerIdentifierPaddingPadding")
		big.OffchainPublicKeys = append(big.OffchainPublicKeys, make([]byte, 32))
		big.ConfigPublicKeys = append(big.ConfigPublicKeys, make([]byte, 32))
	}
	_, err = Encode(big)
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = Decode([]byte{9, 1, 2})
	require.ErrorIs(t, err, ErrUnknownVersion)
	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrUnknownVersion)
}

func TestChunks(t *testing.T) {
	tt := []struct {
		name string
		size int
		in   int
		want []int
	}{
		{name: "empty", size: 4, in: 0, want: nil},
		{name: "exact", size: 4, in: 8, want: []int{4, 4}},
		{name: "remainder", size: 4, in: 9, want: []int{4, 4, 1}},
		{name: "single", size: 16, in: 3, want: []int{3}},
		{name: "default size", size: 0, in: 2500, want: []int{1000, 1000, 500}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var got []int
			for _, c := range Chunks(make([]byte, tc.in), tc.size) {
				got = append(got, len(c))
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestChunksConcatenate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 5000).Draw(t, "data")
		size := rapid.IntRange(1, 1200).Draw(t, "size")

		var joined []byte
		for i, c := range Chunks(data, size) {
			if len(c) == 0 || len(c) > size {
				t.Fatalf("chunk %d has %d bytes, size %d", i, len(c), size)
			}
			joined = append(joined, c...)
		}
		if !bytes.Equal(joined, data) {
			t.Fatalf("chunks do not concatenate back to the input")
		}
	})
}

func TestWriteInstructions(t *testing.T) {
	var proposal types.Address
	proposal[0] = 1
	data := bytes.Repeat([]byte{7}, 2100)

	ws := WriteInstructions(proposal, data, 1000)
	require.Len(t, ws, 3)
	for _, w := range ws {
		require.Equal(t, proposal, w.Proposal)
		require.NoError(t, w.Validate())
	}
	require.Len(t, ws[2].Data, 100)
}
