package store

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/LeJamon/goOCR2/internal/core/types"
)

func TestCheckSize(t *testing.T) {
	tt := []struct {
		name  string
		size  int
		slots int
		err   bool
	}{
		{name: "one slot", size: FeedSize(1), slots: 1},
		{name: "many slots", size: FeedSize(128), slots: 128},
		{name: "header only", size: HeaderEnd, err: true},
		{name: "partial slot", size: FeedSize(2) + 1, err: true},
		{name: "empty", size: 0, err: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			slots, err := CheckSize(tc.size)
			if tc.err {
				require.ErrorIs(t, err, ErrFeedSize)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.slots, slots)
		})
	}
}

func TestNewFeedLiveLength(t *testing.T) {
	_, err := NewFeed(FeedSize(4), Header{LiveLength: 0})
	require.ErrorIs(t, err, ErrFeedSize)

	_, err = NewFeed(FeedSize(4), Header{LiveLength: 5})
	require.ErrorIs(t, err, ErrFeedSize)

	f, err := NewFeed(FeedSize(4), Header{LiveLength: 4, Description: "ETH / USD"})
	require.NoError(t, err)
	require.Equal(t, uint8(FeedVersion), f.Version)
	require.Equal(t, 4, f.SlotCount())
	_, err = f.Latest()
	require.ErrorIs(t, err, ErrRoundNotFound)
}

// The ring keeps the last min(live length, slots) rounds, in order, and
// survives an encode/parse cycle.
func TestFeedRingProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		slots := rapid.IntRange(1, 12).Draw(t, "slots")
		live := rapid.IntRange(1, slots).Draw(t, "live")
		answers := rapid.SliceOfN(rapid.Int64(), 0, 40).Draw(t, "answers")

		f, err := NewFeed(FeedSize(slots), Header{LiveLength: uint32(live)})
		if err != nil {
			t.Fatalf("new feed: %v", err)
		}
		for i, a := range answers {
			round, err := f.Push(uint64(i+1), uint32(1000+i), sdkmath.NewInt(a))
			if err != nil {
				t.Fatalf("push %d: %v", i, err)
			}
			if round.RoundID != uint32(i+1) {
				t.Fatalf("round id %d, want %d", round.RoundID, i+1)
			}
		}

		n := len(answers)
		if int(f.LatestRoundID) != n {
			t.Fatalf("latest %d, want %d", f.LatestRoundID, n)
		}
		if int(f.Cursor) != n%slots {
			t.Fatalf("cursor %d, want %d", f.Cursor, n%slots)
		}

		data, err := f.Encode()
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		parsed, err := ParseFeed(data)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		for id := 1; id <= n+1; id++ {
			round, err := parsed.Round(uint32(id))
			kept := id <= n && n-id < live
			if !kept {
				if err == nil {
					t.Fatalf("round %d should be gone", id)
				}
				continue
			}
			if err != nil {
				t.Fatalf("round %d: %v", id, err)
			}
			if !round.Answer.Equal(sdkmath.NewInt(answers[id-1])) {
				t.Fatalf("round %d answer %s, want %d", id, round.Answer, answers[id-1])
			}
			if round.Slot != uint64(id) || round.Timestamp != uint32(999+id) {
				t.Fatalf("round %d slot %d timestamp %d", id, round.Slot, round.Timestamp)
			}
		}

		rounds := parsed.Rounds(slots + 1)
		want := live
		if n < want {
			want = n
		}
		if len(rounds) != want {
			t.Fatalf("rounds %d, want %d", len(rounds), want)
		}
		for i, r := range rounds {
			if int(r.RoundID) != n-i {
				t.Fatalf("rounds[%d] = %d, want %d", i, r.RoundID, n-i)
			}
		}
	})
}

func TestFeedPushRejectsWideAnswer(t *testing.T) {
	f, err := NewFeed(FeedSize(2), Header{LiveLength: 2})
	require.NoError(t, err)

	tooBig := types.MaxInt128.AddRaw(1)
	_, err = f.Push(1, 1, tooBig)
	require.ErrorIs(t, err, types.ErrInt128Overflow)
	require.Zero(t, f.LatestRoundID)
}

func TestExceedsThreshold(t *testing.T) {
	tt := []struct {
		name      string
		prev      int64
		answer    int64
		threshold uint32
		want      bool
	}{
		{name: "disabled", prev: 100, answer: 1000, threshold: 0},
		{name: "zero previous", prev: 0, answer: 1000, threshold: 1},
		{name: "within", prev: 100, answer: 105, threshold: 10000},
		{name: "at threshold", prev: 100, answer: 110, threshold: 10000},
		{name: "beyond", prev: 100, answer: 111, threshold: 10000, want: true},
		{name: "negative previous", prev: -100, answer: -150, threshold: 10000, want: true},
		{name: "downward", prev: 100, answer: 80, threshold: 10000, want: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := exceedsThreshold(sdkmath.NewInt(tc.prev), sdkmath.NewInt(tc.answer), tc.threshold)
			require.Equal(t, tc.want, got)
		})
	}
}
