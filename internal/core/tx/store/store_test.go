package store_test

import (
	"encoding/binary"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/store"
	"github.com/LeJamon/goOCR2/internal/core/types"
	jtx "github.com/LeJamon/goOCR2/internal/testing"
)

func TestCreateFeed(t *testing.T) {
	tt := []struct {
		name   string
		space  int
		live   uint32
		sign   bool
		result tx.Result
	}{
		{name: "success", space: store.FeedSize(4), live: 4, sign: true, result: tx.TesSUCCESS},
		{name: "shorter live window", space: store.FeedSize(4), live: 2, sign: true, result: tx.TesSUCCESS},
		{name: "owner must sign", space: store.FeedSize(4), live: 4, result: tx.TecNO_PERMISSION},
		{name: "smaller than one slot", space: store.HeaderEnd + store.SlotSize - 1, live: 1, sign: true, result: tx.TecACCOUNT_SIZE},
		{name: "misaligned", space: store.FeedSize(3) + 7, live: 1, sign: true, result: tx.TecACCOUNT_SIZE},
		{name: "live length above slots", space: store.FeedSize(2), live: 3, sign: true, result: tx.TecACCOUNT_SIZE},
		{name: "zero live length", space: store.FeedSize(2), live: 0, sign: true, result: tx.TemBAD_ACCOUNT_SIZE},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			env := jtx.NewTestEnv(t)
			owner := env.Account("owner")
			feed := env.Allocate("feed", keylet.StoreProgram, tc.space)

			var signers []*jtx.Account
			if tc.sign {
				signers = append(signers, owner)
			}
			result := env.Submit(signers, &store.CreateFeed{
				Feed:        feed.Address,
				Owner:       owner.Address,
				Description: "ETH / USD",
				Decimals:    8,
				LiveLength:  tc.live,
			})
			jtx.RequireTxFail(t, result, tc.result)
			if !tc.result.IsSuccess() {
				return
			}

			f := env.Feed(feed.Address)
			require.Equal(t, owner.Address, f.Owner)
			require.Equal(t, "ETH / USD", f.Description)
			require.Equal(t, tc.live, f.LiveLength)
			require.True(t, f.Writer.IsZero())
		})
	}
}

func TestCreateFeedTwice(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := env.Account("owner")
	feed := env.CreateFeed("feed", owner, jtx.FeedConfig{Description: "BTC / USD"})

	result := env.Submit([]*jtx.Account{owner}, &store.CreateFeed{
		Feed:       feed.Address,
		Owner:      owner.Address,
		LiveLength: 1,
	})
	jtx.RequireTxFail(t, result, tx.TecALREADY_INITIALIZED)
}

func TestSubmitWriterOnly(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := env.Account("owner")
	writer := env.Account("writer")
	stranger := env.Account("stranger")
	feed := env.CreateFeed("feed", owner, jtx.FeedConfig{Decimals: 8})

	submit := func(w *jtx.Account, signers []*jtx.Account, answer string) tx.ApplyResult {
		return env.Submit(signers, &store.Submit{Feed: feed.Address, Writer: w.Address, Answer: answer})
	}

	jtx.RequireTxFail(t, submit(writer, []*jtx.Account{writer}, "1"), tx.TecNO_PERMISSION)

	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{owner}, &store.SetWriter{Feed: feed.Address, Writer: writer.Address}))

	tt := []struct {
		name    string
		writer  *jtx.Account
		signers []*jtx.Account
		answer  string
		result  tx.Result
	}{
		{name: "stranger", writer: stranger, signers: []*jtx.Account{stranger}, answer: "1", result: tx.TecNO_PERMISSION},
		{name: "writer did not sign", writer: writer, answer: "1", result: tx.TecNO_PERMISSION},
		{name: "not a number", writer: writer, signers: []*jtx.Account{writer}, answer: "one", result: tx.TemMALFORMED},
		{name: "wider than 128 bits", writer: writer, signers: []*jtx.Account{writer}, answer: types.MaxInt128.AddRaw(1).String(), result: tx.TemMALFORMED},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			jtx.RequireTxFail(t, submit(tc.writer, tc.signers, tc.answer), tc.result)
		})
	}
	require.Zero(t, env.Feed(feed.Address).LatestRoundID)

	result := submit(writer, []*jtx.Account{writer}, "-4200000000")
	jtx.RequireTxSuccess(t, result)

	data, query := env.Query(feed.Address, store.ScopeLatestRoundData, 0)
	jtx.RequireSimulated(t, query)
	round, err := store.DecodeRound(data)
	require.NoError(t, err)
	require.Equal(t, uint32(1), round.RoundID)
	require.Equal(t, result.Slot, round.Slot)
	require.Equal(t, env.Timestamp(), round.Timestamp)
	require.True(t, round.Answer.Equal(sdkmath.NewInt(-4200000000)))
}

func TestQueryScopes(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := env.Account("owner")
	writer := env.Account("writer")
	feed := env.CreateFeed("feed", owner, jtx.FeedConfig{Description: "LINK / USD", Decimals: 9, Slots: 3})
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{owner}, &store.SetWriter{Feed: feed.Address, Writer: writer.Address}))

	_, result := env.Query(feed.Address, store.ScopeLatestRoundData, 0)
	jtx.RequireTxFail(t, result, tx.TecNO_ROUND_DATA)

	for i := int64(1); i <= 5; i++ {
		jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{writer}, &store.Submit{
			Feed:   feed.Address,
			Writer: writer.Address,
			Answer: sdkmath.NewInt(i * 100).String(),
		}))
	}

	t.Run("version", func(t *testing.T) {
		data, result := env.Query(feed.Address, store.ScopeVersion, 0)
		jtx.RequireSimulated(t, result)
		require.Equal(t, []byte{store.FeedVersion}, data)
	})

	t.Run("decimals", func(t *testing.T) {
		data, result := env.Query(feed.Address, store.ScopeDecimals, 0)
		jtx.RequireSimulated(t, result)
		require.Equal(t, []byte{9}, data)
	})

	t.Run("description", func(t *testing.T) {
		data, result := env.Query(feed.Address, store.ScopeDescription, 0)
		jtx.RequireSimulated(t, result)
		desc, err := store.DecodeDescription(data)
		require.NoError(t, err)
		require.Equal(t, "LINK / USD", desc)
	})

	t.Run("round data inside window", func(t *testing.T) {
		for id := uint32(3); id <= 5; id++ {
			data, result := env.Query(feed.Address, store.ScopeRoundData, id)
			jtx.RequireSimulated(t, result)
			round, err := store.DecodeRound(data)
			require.NoError(t, err)
			require.Equal(t, id, round.RoundID)
			require.True(t, round.Answer.Equal(sdkmath.NewInt(int64(id)*100)))
		}
	})

	t.Run("evicted and future rounds", func(t *testing.T) {
		for _, id := range []uint32{0, 1, 2, 6} {
			_, result := env.Query(feed.Address, store.ScopeRoundData, id)
			jtx.RequireTxFail(t, result, tx.TecNO_ROUND_DATA)
		}
	})

	t.Run("aggregator", func(t *testing.T) {
		data, result := env.Query(feed.Address, store.ScopeAggregator, 0)
		jtx.RequireSimulated(t, result)
		require.Len(t, data, 3*types.AddressLength+1+4+4+1+4+4)
		require.Equal(t, owner.Address[:], data[:types.AddressLength])
		require.Equal(t, writer.Address[:], data[2*types.AddressLength:3*types.AddressLength])
		latest := binary.LittleEndian.Uint32(data[3*types.AddressLength+5:])
		require.Equal(t, uint32(5), latest)
	})

	t.Run("unknown scope", func(t *testing.T) {
		data, result := env.Query(feed.Address, store.Scope(42), 0)
		jtx.RequireTxFail(t, result, tx.TecUNKNOWN_SCOPE)
		require.Nil(t, data)
	})

	t.Run("query commits nothing", func(t *testing.T) {
		slot := env.Engine().Slot()
		_, result := env.Query(feed.Address, store.ScopeVersion, 0)
		require.False(t, result.Applied)
		require.Equal(t, slot, env.Engine().Slot())
	})
}

func TestParseScope(t *testing.T) {
	s, err := store.ParseScope("LATEST_ROUND_DATA")
	require.NoError(t, err)
	require.Equal(t, store.ScopeLatestRoundData, s)
	require.Equal(t, "latest_round_data", s.String())

	_, err = store.ParseScope("answer")
	require.Error(t, err)
	require.Equal(t, "scope(42)", store.Scope(42).String())
}

func TestFlagging(t *testing.T) {
	env := jtx.NewTestEnv(t)
	admin := env.Account("admin")
	writer := env.Account("writer")
	member := env.Account("member")
	stranger := env.Account("stranger")

	ac := env.CreateAccessController("lowering", admin, member.Address)
	st := env.Allocate("store", keylet.StoreProgram, store.StoreSize)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{admin}, &store.InitializeStore{
		Store:                    st.Address,
		Owner:                    admin.Address,
		LoweringAccessController: ac.Address,
	}))

	// The store owns the feed, so its owner signs on the feed's behalf.
	feed := env.Allocate("feed", keylet.StoreProgram, store.FeedSize(4))
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{admin},
		&store.CreateFeed{Feed: feed.Address, Owner: st.Address, LiveLength: 4},
		&store.SetWriter{Feed: feed.Address, Writer: writer.Address},
		&store.SetValidatorConfig{Feed: feed.Address, Threshold: 10000},
	))

	submit := func(answer int64) tx.ApplyResult {
		return env.Submit([]*jtx.Account{writer}, &store.Submit{
			Feed:   feed.Address,
			Writer: writer.Address,
			Answer: sdkmath.NewInt(answer).String(),
		})
	}

	jtx.RequireTxSuccess(t, submit(100))
	require.Equal(t, store.StateNormal, env.Feed(feed.Address).State)

	result := submit(120)
	jtx.RequireTxSuccess(t, result)
	jtx.RequireLog(t, result, "round 2 flagged")
	require.Equal(t, store.StateFlagged, env.Feed(feed.Address).State)

	result = submit(121)
	jtx.RequireTxSuccess(t, result)
	jtx.RequireLog(t, result, "flag cleared")
	require.Equal(t, store.StateNormal, env.Feed(feed.Address).State)

	jtx.RequireTxSuccess(t, submit(50))
	require.Equal(t, store.StateFlagged, env.Feed(feed.Address).State)

	lower := func(authority *jtx.Account) tx.ApplyResult {
		return env.Submit([]*jtx.Account{authority}, &store.LowerFlag{Feed: feed.Address, Authority: authority.Address})
	}
	jtx.RequireTxFail(t, lower(stranger), tx.TecNO_PERMISSION)
	jtx.RequireTxFail(t, env.Submit(nil, &store.LowerFlag{Feed: feed.Address, Authority: member.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, lower(member))
	require.Equal(t, store.StateNormal, env.Feed(feed.Address).State)
}

func TestFeedOwnership(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := env.Account("owner")
	next := env.Account("next")
	writer := env.Account("writer")
	feed := env.CreateFeed("feed", owner, jtx.FeedConfig{})

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{next},
		&store.TransferFeedOwnership{Feed: feed.Address, ProposedOwner: next.Address}), tx.TecNO_PERMISSION)

	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{owner},
		&store.TransferFeedOwnership{Feed: feed.Address, ProposedOwner: next.Address}))
	require.Equal(t, next.Address, env.Feed(feed.Address).ProposedOwner)

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{owner}, &store.AcceptFeedOwnership{Feed: feed.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{next}, &store.AcceptFeedOwnership{Feed: feed.Address}))

	f := env.Feed(feed.Address)
	require.Equal(t, next.Address, f.Owner)
	require.True(t, f.ProposedOwner.IsZero())

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{owner},
		&store.SetWriter{Feed: feed.Address, Writer: writer.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{next},
		&store.SetWriter{Feed: feed.Address, Writer: writer.Address}))
}

func TestCloseFeed(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := env.Account("owner")
	writer := env.Account("writer")
	receiver := env.Account("receiver")
	env.Fund(receiver)
	feed := env.CreateFeed("feed", owner, jtx.FeedConfig{Slots: 4})
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{owner}, &store.SetWriter{Feed: feed.Address, Writer: writer.Address}))

	closeFeed := &store.CloseFeed{Feed: feed.Address, Receiver: receiver.Address}
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{owner}, closeFeed), tx.TecWRITER_SET)
	jtx.RequireTxFail(t, env.Submit(nil, &store.SetWriter{Feed: feed.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{owner}, &store.SetWriter{Feed: feed.Address}))

	rent := tx.RentExemptMinimum(env.Engine().Config().RentPerByte, store.FeedSize(4))
	jtx.AssertLamportChange(t, env, receiver.Address, int64(rent), func() {
		jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{owner}, closeFeed))
	})
	jtx.RequireAccountNotExists(t, env, feed.Address)

	_, result := env.Query(feed.Address, store.ScopeVersion, 0)
	jtx.RequireTxFail(t, result, tx.TecNO_ENTRY)
}
