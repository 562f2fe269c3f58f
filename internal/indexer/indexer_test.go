package indexer_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/indexer"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb/mock"
	jtx "github.com/LeJamon/goOCR2/internal/testing"
)

func transmitted(t *testing.T, median int64) (*jtx.Aggregator, tx.ApplyResult) {
	t.Helper()
	env := jtx.NewTestEnv(t)
	a := env.DeployAggregator(jtx.AggregatorConfig{})
	result := a.Transmit(a.Oracles[0], a.Report(median, 7), a.Oracles[:2])
	jtx.RequireTxSuccess(t, result)
	return a, result
}

func TestIndexTransmission(t *testing.T) {
	a, result := transmitted(t, -12)
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRoundRepository(ctrl)

	var saved *relationaldb.RoundRecord
	repo.EXPECT().SaveRound(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *relationaldb.RoundRecord) error {
			saved = r
			return nil
		})

	n, err := indexer.New(repo).Index(context.Background(), result)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, a.Feed.Address, saved.Feed)
	require.Equal(t, a.State.Address, saved.State)
	require.Equal(t, uint32(1), saved.RoundID)
	require.Equal(t, "-12", saved.Answer)
	require.Equal(t, uint64(7), saved.JuelsPerFeecoin)
	require.Equal(t, a.Digest, saved.ConfigDigest)
	require.Equal(t, result.TxHash, saved.TxHash)
}

func TestIndexSkipsFailuresAndOtherEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRoundRepository(ctrl)
	ix := indexer.New(repo)

	n, err := ix.Index(context.Background(), tx.ApplyResult{Result: tx.TecBAD_SIGNER, Applied: true})
	require.NoError(t, err)
	require.Zero(t, n)

	env := jtx.NewTestEnv(t)
	a := env.DeployAggregator(jtx.AggregatorConfig{})
	request := env.Submit([]*jtx.Account{a.Owner}, &ocr2.RequestNewRound{State: a.State.Address, Authority: a.Owner.Address})
	jtx.RequireTxSuccess(t, request)
	n, err = ix.Index(context.Background(), request)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestIndexErrors(t *testing.T) {
	_, result := transmitted(t, 5)
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRoundRepository(ctrl)
	ix := indexer.New(repo)

	repo.EXPECT().SaveRound(gomock.Any(), gomock.Any()).Return(relationaldb.ErrDuplicate)
	n, err := ix.Index(context.Background(), result)
	require.NoError(t, err)
	require.Zero(t, n)

	boom := errors.New("connection reset")
	repo.EXPECT().SaveRound(gomock.Any(), gomock.Any()).Return(boom)
	_, err = ix.Index(context.Background(), result)
	require.ErrorIs(t, err, boom)
}

func TestIndexIntoSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := relationaldb.Open(ctx, relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "rounds.db")))
	require.NoError(t, err)
	defer repo.Close()

	env := jtx.NewTestEnv(t)
	a := env.DeployAggregator(jtx.AggregatorConfig{})
	ix := indexer.New(repo)
	for i := int64(1); i <= 3; i++ {
		result := a.Transmit(a.Oracles[0], a.Report(i*100, 0), a.Oracles[:2])
		jtx.RequireTxSuccess(t, result)
		n, err := ix.Index(ctx, result)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}

	rounds, err := repo.LatestRounds(ctx, a.Feed.Address, 10)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	require.Equal(t, "300", rounds[0].Answer)
	require.Equal(t, uint32(3), rounds[0].RoundID)
}
