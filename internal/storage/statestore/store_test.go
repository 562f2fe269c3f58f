package statestore_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/storage/compression"
	"github.com/LeJamon/goOCR2/internal/storage/database"
	"github.com/LeJamon/goOCR2/internal/storage/database/mock"
	"github.com/LeJamon/goOCR2/internal/storage/statestore"
	jtx "github.com/LeJamon/goOCR2/internal/testing"
)

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func account(lamports uint64, data ...byte) *tx.Account {
	return &tx.Account{Owner: keylet.SystemProgram, Lamports: lamports, Data: data}
}

func TestStoreOperations(t *testing.T) {
	for _, backend := range statestore.Backends {
		for _, codec := range []string{"none", "lz4"} {
			t.Run(backend+"/"+codec, func(t *testing.T) {
				s, err := statestore.Open(backend, t.TempDir(), statestore.Config{CacheSize: 2, Compression: codec})
				require.NoError(t, err)
				defer s.Close()

				k := keylet.Account(addr(1))
				got, err := s.Read(k)
				require.NoError(t, err)
				require.Nil(t, got)
				require.ErrorIs(t, s.Update(k, account(1)), tx.ErrEntryNotFound)
				require.ErrorIs(t, s.Erase(k), tx.ErrEntryNotFound)

				require.NoError(t, s.Insert(k, account(10, make([]byte, 300)...)))
				require.ErrorIs(t, s.Insert(k, account(1)), tx.ErrEntryExists)
				require.NoError(t, s.Update(k, account(11, 1, 2, 3)))

				got, err = s.Read(k)
				require.NoError(t, err)
				require.True(t, account(11, 1, 2, 3).Equal(got))

				// Callers receive copies.
				got.Data[0] = 9
				again, err := s.Read(k)
				require.NoError(t, err)
				require.Equal(t, byte(1), again.Data[0])

				require.NoError(t, s.ApplyChanges([]tx.Change{
					{Key: addr(3), Account: account(3), Created: true},
					{Key: addr(2), Account: account(2), Created: true},
					{Key: addr(1)},
				}))
				exists, err := s.Exists(k)
				require.NoError(t, err)
				require.False(t, exists)

				var seen []uint64
				require.NoError(t, s.ForEach(func(key types.Address, a *tx.Account) bool {
					require.Equal(t, a.Lamports, uint64(key[0]))
					seen = append(seen, a.Lamports)
					return true
				}))
				require.Equal(t, []uint64{2, 3}, seen)
			})
		}
	}
}

func TestStoreUnknownBackend(t *testing.T) {
	_, err := statestore.Open("rocksdb", t.TempDir(), statestore.Config{})
	require.ErrorIs(t, err, database.ErrUnknownBackend)

	_, err = statestore.Open(statestore.BackendPebble, "", statestore.Config{})
	require.Error(t, err)
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := statestore.Config{Compression: "lz4"}

	s, err := statestore.Open(statestore.BackendPebble, dir, cfg)
	require.NoError(t, err)
	require.NoError(t, s.Insert(keylet.Account(addr(7)), account(70, 7, 7, 7)))
	require.NoError(t, s.Close())

	s, err = statestore.Open(statestore.BackendPebble, dir, cfg)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Read(keylet.Account(addr(7)))
	require.NoError(t, err)
	require.True(t, account(70, 7, 7, 7).Equal(got))
	require.Equal(t, uint64(1), s.Stats().Misses)

	_, err = s.Read(keylet.Account(addr(7)))
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.Stats().Hits)
}

func TestStoreReopenWithOtherCompression(t *testing.T) {
	tt := []struct {
		name   string
		write  string
		reopen string
	}{
		{"lz4 then none", "lz4", "none"},
		{"lz4 then default", "lz4", ""},
		{"none then lz4", "none", "lz4"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			big := account(90, bytes.Repeat([]byte{3}, 512)...)

			s, err := statestore.Open(statestore.BackendPebble, dir, statestore.Config{Compression: tc.write})
			require.NoError(t, err)
			require.NoError(t, s.Insert(keylet.Account(addr(9)), big))
			require.NoError(t, s.Close())

			s, err = statestore.Open(statestore.BackendPebble, dir, statestore.Config{Compression: tc.reopen})
			require.NoError(t, err)
			defer s.Close()

			got, err := s.Read(keylet.Account(addr(9)))
			require.NoError(t, err)
			require.True(t, big.Equal(got))

			got.Lamports = 91
			require.NoError(t, s.Update(keylet.Account(addr(9)), got))
			var lamports []uint64
			require.NoError(t, s.ForEach(func(_ types.Address, a *tx.Account) bool {
				lamports = append(lamports, a.Lamports)
				return true
			}))
			require.Equal(t, []uint64{91}, lamports)
		})
	}
}

func TestFailedBatchLeavesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDB(ctrl)

	s, err := statestore.New(db, statestore.Config{})
	require.NoError(t, err)

	k := addr(5)
	db.EXPECT().Batch(gomock.Any(), gomock.Len(1)).Return(nil)
	require.NoError(t, s.ApplyChanges([]tx.Change{{Key: k, Account: account(5), Created: true}}))

	db.EXPECT().Batch(gomock.Any(), gomock.Len(1)).Return(errors.New("disk full"))
	require.Error(t, s.ApplyChanges([]tx.Change{{Key: k, Account: account(6)}}))

	// Served from cache: the database is not read again.
	got, err := s.Read(keylet.Account(k))
	require.NoError(t, err)
	require.Equal(t, uint64(5), got.Lamports)

	db.EXPECT().Read(gomock.Any(), gomock.Any()).Return(nil, database.ErrKeyNotFound)
	got, err = s.Read(keylet.Account(addr(6)))
	require.NoError(t, err)
	require.Nil(t, got)

	db.EXPECT().Read(gomock.Any(), gomock.Any()).Return([]byte{compression.IDNone, 1, 2}, nil)
	_, err = s.Read(keylet.Account(addr(8)))
	require.ErrorIs(t, err, tx.ErrAccountEncoding)

	db.EXPECT().Read(gomock.Any(), gomock.Any()).Return([]byte{9, 1, 2}, nil)
	_, err = s.Read(keylet.Account(addr(9)))
	require.ErrorIs(t, err, compression.ErrUnknownCodec)

	db.EXPECT().Close().Return(nil)
	require.NoError(t, s.Close())
}

func TestAggregatorOnPersistentState(t *testing.T) {
	dir := t.TempDir()
	s, err := statestore.Open(statestore.BackendBbolt, dir, statestore.Config{CacheSize: 8, Compression: "lz4"})
	require.NoError(t, err)

	env := jtx.NewTestEnvWithView(t, s, tx.DefaultEngineConfig())
	a := env.DeployAggregator(jtx.AggregatorConfig{})
	jtx.RequireTxSuccess(t, a.Transmit(a.Oracles[0], a.Report(42, 0), a.Oracles[:2]))
	want := a.StateOf()
	require.NoError(t, s.Close())

	s, err = statestore.Open(statestore.BackendBbolt, dir, statestore.Config{})
	require.NoError(t, err)
	defer s.Close()

	got, err := ocr2.ReadState(s, a.State.Address)
	require.NoError(t, err)
	require.Equal(t, want.Config.LatestAggregatorRoundID, got.Config.LatestAggregatorRoundID)
	require.Equal(t, uint32(1), got.Config.LatestAggregatorRoundID)
	require.Equal(t, want.Config.LatestConfigDigest, got.Config.LatestConfigDigest)
	require.Len(t, got.Oracles, len(a.Oracles))

	raw, err := s.Read(keylet.Account(a.Feed.Address))
	require.NoError(t, err)
	require.NotNil(t, raw)
}
