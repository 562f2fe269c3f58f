package testing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
)

func TestNewAccount(t *testing.T) {
	alice1 := NewAccount("alice")
	alice2 := NewAccount("alice")
	assert.Equal(t, alice1.Address, alice2.Address)

	bob := NewAccount("bob")
	assert.NotEqual(t, alice1.Address, bob.Address)
	assert.Contains(t, alice1.String(), "alice")
}

func TestManualClock(t *testing.T) {
	tt := []struct {
		name  string
		start time.Time
		step  time.Duration
		want  time.Time
		stamp uint32
	}{
		{
			name:  "whole seconds",
			start: GenesisTime,
			step:  10 * time.Second,
			want:  GenesisTime.Add(10 * time.Second),
			stamp: uint32(GenesisTime.Unix()) + 10,
		},
		{
			name:  "sub-second part dropped",
			start: GenesisTime,
			step:  2500 * time.Millisecond,
			want:  GenesisTime.Add(2 * time.Second),
			stamp: uint32(GenesisTime.Unix()) + 2,
		},
		{
			name:  "start truncated to seconds",
			start: GenesisTime.Add(700 * time.Millisecond),
			step:  time.Second,
			want:  GenesisTime.Add(time.Second),
			stamp: uint32(GenesisTime.Unix()) + 1,
		},
		{
			name:  "stops at u32 range",
			start: time.Unix(math.MaxUint32-1, 0),
			step:  time.Hour,
			want:  time.Unix(math.MaxUint32, 0).UTC(),
			stamp: math.MaxUint32,
		},
		{
			name:  "never before epoch",
			start: time.Unix(5, 0),
			step:  -time.Minute,
			want:  time.Unix(0, 0).UTC(),
			stamp: 0,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			clock := NewManualClockAt(tc.start)
			clock.Advance(tc.step)
			assert.True(t, tc.want.Equal(clock.Now()), "got %s", clock.Now())
			assert.Equal(t, tc.stamp, clock.Timestamp())
		})
	}

	clock := NewManualClock()
	assert.True(t, GenesisTime.Equal(clock.Now()))
	target := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(target)
	assert.True(t, target.Equal(clock.Now()))
}

func TestFundAndAllocate(t *testing.T) {
	env := NewTestEnv(t)
	alice := env.Account("alice")

	env.Fund(alice)
	RequireLamports(t, env, alice.Address, DefaultFund)

	acct := env.Allocate("program-account", keylet.StoreProgram, 64)
	a, err := env.Engine().Read(keylet.Account(acct.Address))
	require.NoError(t, err)
	require.Equal(t, keylet.StoreProgram, a.Owner)
	require.Len(t, a.Data, 64)
	require.Equal(t, tx.RentExemptMinimum(tx.DefaultRentPerByte, 64), a.Lamports)
}

func TestDeployAggregator(t *testing.T) {
	env := NewTestEnv(t)
	agg := env.DeployAggregator(AggregatorConfig{Oracles: 4, F: 1})

	s := agg.StateOf()
	require.Equal(t, agg.Digest, s.Config.LatestConfigDigest)
	require.Equal(t, uint32(1), s.Config.ConfigCount)
	require.Len(t, s.Oracles, 4)
	for i, o := range agg.Oracles {
		require.Equal(t, o.Signer(), s.Oracles[i].Signer)
		require.Equal(t, o.Payee.Address, s.Oracles[i].Payee)
	}
}
