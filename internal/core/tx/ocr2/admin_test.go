package ocr2_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/types"
	jtx "github.com/LeJamon/goOCR2/internal/testing"
)

func TestInitialize(t *testing.T) {
	type fixture struct {
		owner *jtx.Account
		ins   *ocr2.Initialize
	}
	setup := func(t *testing.T, env *jtx.TestEnv) fixture {
		owner := env.Account("owner")
		mintAuthority := env.Account("mint-authority")
		state := env.Allocate("state", keylet.OCR2Program, ocr2.StateSize)
		mint := env.CreateMint("mint", mintAuthority, 9)
		vaultAuthority, _, err := keylet.VaultAuthority(state.Address)
		require.NoError(t, err)
		vault := env.CreateTokenAccount("vault", mint, vaultAuthority)
		feed := env.CreateFeed("feed", owner, jtx.FeedConfig{})
		return fixture{owner: owner, ins: &ocr2.Initialize{
			State:      state.Address,
			Owner:      owner.Address,
			Feed:       feed.Address,
			TokenMint:  mint.Address,
			TokenVault: vault.Address,
			MinAnswer:  "-100",
			MaxAnswer:  "100",
		}}
	}

	tt := []struct {
		name   string
		mutate func(t *testing.T, env *jtx.TestEnv, f fixture)
		result tx.Result
	}{
		{
			name:   "success",
			result: tx.TesSUCCESS,
		},
		{
			name:   "min above max",
			mutate: func(t *testing.T, env *jtx.TestEnv, f fixture) { f.ins.MinAnswer = "101" },
			result: tx.TemMALFORMED,
		},
		{
			name:   "bound wider than 128 bits",
			mutate: func(t *testing.T, env *jtx.TestEnv, f fixture) { f.ins.MaxAnswer = types.MaxInt128.AddRaw(1).String() },
			result: tx.TemMALFORMED,
		},
		{
			name: "feed does not exist",
			mutate: func(t *testing.T, env *jtx.TestEnv, f fixture) {
				f.ins.Feed = env.Account("missing-feed").Address
			},
			result: tx.TecNO_ENTRY,
		},
		{
			name: "vault of another mint",
			mutate: func(t *testing.T, env *jtx.TestEnv, f fixture) {
				other := env.CreateMint("other-mint", env.Account("mint-authority"), 9)
				vaultAuthority, _, err := keylet.VaultAuthority(f.ins.State)
				require.NoError(t, err)
				f.ins.TokenVault = env.CreateTokenAccount("other-vault", other, vaultAuthority).Address
			},
			result: tx.TecMINT_MISMATCH,
		},
		{
			name: "vault not held by the vault authority",
			mutate: func(t *testing.T, env *jtx.TestEnv, f fixture) {
				f.ins.TokenVault = env.CreateTokenAccount("owner-vault", env.Account("mint"), f.owner.Address).Address
			},
			result: tx.TecINVALID_ACCOUNT,
		},
		{
			name: "state of the wrong size",
			mutate: func(t *testing.T, env *jtx.TestEnv, f fixture) {
				f.ins.State = env.Allocate("small-state", keylet.OCR2Program, 64).Address
			},
			result: tx.TecACCOUNT_SIZE,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			env := jtx.NewTestEnv(t)
			f := setup(t, env)
			if tc.mutate != nil {
				tc.mutate(t, env, f)
			}
			result := env.Submit([]*jtx.Account{f.owner}, f.ins)
			jtx.RequireTxFail(t, result, tc.result)
			if !tc.result.IsSuccess() {
				return
			}

			s, err := ocr2.ReadState(env.View(), f.ins.State)
			require.NoError(t, err)
			require.Equal(t, f.owner.Address, s.Owner)
			require.Equal(t, "-100", s.Config.MinAnswer.String())
			require.Equal(t, "100", s.Config.MaxAnswer.String())
			require.Empty(t, s.Oracles)

			storeAuthority, err := s.StoreAuthority(f.ins.State)
			require.NoError(t, err)
			expected, _, err := keylet.StoreAuthority(f.ins.State)
			require.NoError(t, err)
			require.Equal(t, expected, storeAuthority)

			jtx.RequireTxFail(t, env.Submit([]*jtx.Account{f.owner}, f.ins), tx.TecALREADY_INITIALIZED)
		})
	}
}

func TestOwnershipTransfer(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := env.DeployAggregator(jtx.AggregatorConfig{})
	next := env.Account("next-owner")
	stranger := env.Account("stranger")

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{next}, &ocr2.AcceptOwnership{State: a.State.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{stranger},
		&ocr2.TransferOwnership{State: a.State.Address, ProposedOwner: next.Address}), tx.TecNO_PERMISSION)

	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{a.Owner},
		&ocr2.TransferOwnership{State: a.State.Address, ProposedOwner: next.Address}))
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{stranger}, &ocr2.AcceptOwnership{State: a.State.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{next}, &ocr2.AcceptOwnership{State: a.State.Address}))

	s := a.StateOf()
	require.Equal(t, next.Address, s.Owner)
	require.True(t, s.ProposedOwner.IsZero())

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{a.Owner},
		&ocr2.SetRequesterAccessController{State: a.State.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{next},
		&ocr2.SetRequesterAccessController{State: a.State.Address}))
}

func TestRequestNewRound(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := env.DeployAggregator(jtx.AggregatorConfig{})
	requester := env.Account("requester")

	request := func(authority *jtx.Account) tx.ApplyResult {
		return env.Submit([]*jtx.Account{authority}, &ocr2.RequestNewRound{State: a.State.Address, Authority: authority.Address})
	}

	jtx.RequireTxFail(t, request(requester), tx.TecNO_PERMISSION)
	jtx.RequireTxFail(t, env.Submit(nil, &ocr2.RequestNewRound{State: a.State.Address, Authority: a.Owner.Address}), tx.TecNO_PERMISSION)

	result := request(a.Owner)
	jtx.RequireTxSuccess(t, result)
	require.Len(t, result.Events, 1)
	require.Equal(t, ocr2.EventRoundRequested, result.Events[0].Name)

	r := layout.NewRawReader(result.Events[0].Data)
	require.Equal(t, a.State.Address, r.Address())
	require.Equal(t, a.Owner.Address, r.Address())
	require.Equal(t, a.Digest[:], r.Fixed(32))
	require.NoError(t, r.Err())

	ac := env.CreateAccessController("requesters", a.Owner, requester.Address)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{a.Owner},
		&ocr2.SetRequesterAccessController{State: a.State.Address, Controller: ac.Address}))
	jtx.RequireTxSuccess(t, request(requester))
}

func TestCloseAggregator(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := billedAggregator(t, env, 1_000)
	treasury := env.CreateTokenAccount("treasury", a.Mint, a.Owner.Address)

	closeIns := &ocr2.Close{State: a.State.Address, Receiver: a.Owner.Address, TokenRecipient: treasury.Address}
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{env.Account("stranger")}, closeIns), tx.TecNO_PERMISSION)

	rent := tx.RentExemptMinimum(env.Engine().Config().RentPerByte, ocr2.StateSize)
	jtx.AssertLamportChange(t, env, a.Owner.Address, int64(rent), func() {
		jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{a.Owner}, closeIns))
	})

	jtx.RequireAccountNotExists(t, env, a.State.Address)
	jtx.RequireTokenBalance(t, env, a.Oracles[0].Payee.Address, 60)
	jtx.RequireTokenBalance(t, env, a.Oracles[1].Payee.Address, 20)
	jtx.RequireTokenBalance(t, env, treasury.Address, 1_000-80)
	jtx.RequireTokenBalance(t, env, a.Vault.Address, 0)

	result := a.Transmit(a.Oracles[0], a.Report(1, 0), a.Oracles[:2])
	jtx.RequireTxFail(t, result, tx.TecNO_ENTRY)
}
