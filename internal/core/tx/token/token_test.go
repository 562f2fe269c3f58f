package token_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/token"
	jtx "github.com/LeJamon/goOCR2/internal/testing"
)

type tokenEnv struct {
	env       *jtx.TestEnv
	authority *jtx.Account
	alice     *jtx.Account
	bob       *jtx.Account
	mint      *jtx.Account
	aliceAcct *jtx.Account
	bobAcct   *jtx.Account
}

func newTokenEnv(t *testing.T) *tokenEnv {
	env := jtx.NewTestEnv(t)
	te := &tokenEnv{
		env:       env,
		authority: env.Account("mint-authority"),
		alice:     env.Account("alice"),
		bob:       env.Account("bob"),
	}
	te.mint = env.CreateMint("mint", te.authority, 9)
	te.aliceAcct = env.CreateTokenAccount("alice-tokens", te.mint, te.alice.Address)
	te.bobAcct = env.CreateTokenAccount("bob-tokens", te.mint, te.bob.Address)
	return te
}

func TestMintTo(t *testing.T) {
	te := newTokenEnv(t)
	te.env.MintTo(te.mint, te.authority, te.aliceAcct.Address, 1_000)
	jtx.RequireTokenBalance(t, te.env, te.aliceAcct.Address, 1_000)

	result := te.env.Submit([]*jtx.Account{te.alice}, &token.MintTo{
		Mint:        te.mint.Address,
		Destination: te.aliceAcct.Address,
		Authority:   te.alice.Address,
		Amount:      1,
	})
	jtx.RequireTxFail(t, result, tx.TecNO_PERMISSION)

	result = te.env.Submit([]*jtx.Account{te.authority}, &token.MintTo{
		Mint:        te.mint.Address,
		Destination: te.aliceAcct.Address,
		Authority:   te.authority.Address,
		Amount:      math.MaxUint64,
	})
	jtx.RequireTxFail(t, result, tx.TecMATH_OVERFLOW)
	jtx.RequireTokenBalance(t, te.env, te.aliceAcct.Address, 1_000)
}

func TestTransfer(t *testing.T) {
	tt := []struct {
		name   string
		signer func(te *tokenEnv) *jtx.Account
		dest   func(te *tokenEnv) *jtx.Account
		amount uint64
		result tx.Result
	}{
		{
			name:   "success",
			signer: func(te *tokenEnv) *jtx.Account { return te.alice },
			dest:   func(te *tokenEnv) *jtx.Account { return te.bobAcct },
			amount: 400,
			result: tx.TesSUCCESS,
		},
		{
			name:   "wrong authority",
			signer: func(te *tokenEnv) *jtx.Account { return te.bob },
			dest:   func(te *tokenEnv) *jtx.Account { return te.bobAcct },
			amount: 400,
			result: tx.TecNO_PERMISSION,
		},
		{
			name:   "insufficient funds",
			signer: func(te *tokenEnv) *jtx.Account { return te.alice },
			dest:   func(te *tokenEnv) *jtx.Account { return te.bobAcct },
			amount: 1_001,
			result: tx.TecINSUFFICIENT_FUNDS,
		},
		{
			name:   "mint mismatch",
			signer: func(te *tokenEnv) *jtx.Account { return te.alice },
			dest: func(te *tokenEnv) *jtx.Account {
				other := te.env.CreateMint("other-mint", te.authority, 6)
				return te.env.CreateTokenAccount("other-tokens", other, te.bob.Address)
			},
			amount: 1,
			result: tx.TecMINT_MISMATCH,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			te := newTokenEnv(t)
			te.env.MintTo(te.mint, te.authority, te.aliceAcct.Address, 1_000)
			signer := tc.signer(te)
			dest := tc.dest(te)

			result := te.env.Submit([]*jtx.Account{signer}, &token.Transfer{
				Source:      te.aliceAcct.Address,
				Destination: dest.Address,
				Authority:   signer.Address,
				Amount:      tc.amount,
			})
			jtx.RequireTxFail(t, result, tc.result)

			if tc.result == tx.TesSUCCESS {
				jtx.RequireTokenBalance(t, te.env, te.aliceAcct.Address, 1_000-tc.amount)
				jtx.RequireTokenBalance(t, te.env, dest.Address, tc.amount)
				return
			}
			jtx.RequireTokenBalance(t, te.env, te.aliceAcct.Address, 1_000)
		})
	}
}

func TestInitializeAccountTwice(t *testing.T) {
	te := newTokenEnv(t)
	result := te.env.Submit(nil, &token.InitializeAccount{
		Account:   te.aliceAcct.Address,
		Mint:      te.mint.Address,
		Authority: te.bob.Address,
	})
	jtx.RequireTxFail(t, result, tx.TecALREADY_INITIALIZED)

	a, err := token.ReadAccount(te.env.View(), te.aliceAcct.Address)
	require.NoError(t, err)
	require.Equal(t, te.alice.Address, a.Authority)
}

func TestInitializeMintWrongSize(t *testing.T) {
	env := jtx.NewTestEnv(t)
	acct := env.Allocate("small", keylet.TokenProgram, token.MintSize-1)
	result := env.Submit(nil, &token.InitializeMint{Mint: acct.Address, Authority: env.Payer().Address})
	jtx.RequireTxFail(t, result, tx.TecACCOUNT_SIZE)
}
