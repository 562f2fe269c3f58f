package ocr2_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	jtx "github.com/LeJamon/goOCR2/internal/testing"
)

// billedAggregator deploys an aggregator and runs two transmissions, leaving
// oracle 0 owed 60 gjuels and oracle 1 owed 20.
func billedAggregator(t *testing.T, env *jtx.TestEnv, vault uint64) *jtx.Aggregator {
	t.Helper()
	a := env.DeployAggregator(jtx.AggregatorConfig{Billing: testBilling, VaultFunds: vault})
	for i := 0; i < 2; i++ {
		jtx.RequireTxSuccess(t, a.Transmit(a.Oracles[0], a.Report(int64(i), 0), a.Oracles[:2]))
	}
	s := a.StateOf()
	require.Equal(t, uint64(60), s.Oracles[0].PaymentGjuels)
	require.Equal(t, uint64(20), s.Oracles[1].PaymentGjuels)
	return a
}

func TestSetBilling(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := billedAggregator(t, env, 1_000)
	member := env.Account("billing-member")
	stranger := env.Account("stranger")

	setBilling := func(authority *jtx.Account, obs, trans uint32) tx.ApplyResult {
		return env.Submit([]*jtx.Account{authority}, &ocr2.SetBilling{
			State:                     a.State.Address,
			Authority:                 authority.Address,
			ObservationPaymentGjuels:  obs,
			TransmissionPaymentGjuels: trans,
		})
	}

	jtx.RequireTxFail(t, setBilling(stranger, 1, 1), tx.TecNO_PERMISSION)
	jtx.RequireTxFail(t, setBilling(member, 1, 1), tx.TecNO_PERMISSION)

	ac := env.CreateAccessController("billing-ac", a.Owner, member.Address)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{stranger},
		&ocr2.SetBillingAccessController{State: a.State.Address, Controller: ac.Address}), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{a.Owner},
		&ocr2.SetBillingAccessController{State: a.State.Address, Controller: ac.Address}))

	// Balances are settled at the old rates before the new ones apply.
	jtx.RequireTxSuccess(t, setBilling(member, 1, 2))
	jtx.RequireTokenBalance(t, env, a.Oracles[0].Payee.Address, 60)
	jtx.RequireTokenBalance(t, env, a.Oracles[1].Payee.Address, 20)
	jtx.RequireTokenBalance(t, env, a.Vault.Address, 1_000-80)

	s := a.StateOf()
	require.Equal(t, ocr2.Billing{ObservationPaymentGjuels: 1, TransmissionPaymentGjuels: 2}, s.Config.Billing)
	require.True(t, s.TotalOwed().IsZero())

	jtx.RequireTxSuccess(t, a.Transmit(a.Oracles[2], a.Report(5, 0), a.Oracles[1:3]))
	s = a.StateOf()
	require.Equal(t, uint64(1), s.Oracles[1].PaymentGjuels)
	require.Equal(t, uint64(3), s.Oracles[2].PaymentGjuels)
}

func TestSetBillingWithEmptyVault(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := billedAggregator(t, env, 0)

	result := env.Submit([]*jtx.Account{a.Owner}, &ocr2.SetBilling{State: a.State.Address, Authority: a.Owner.Address})
	jtx.RequireTxFail(t, result, tx.TecINSUFFICIENT_FUNDS)
	require.Equal(t, testBilling, a.StateOf().Config.Billing)
	require.Equal(t, uint64(60), a.StateOf().Oracles[0].PaymentGjuels)
}

func TestPayOracles(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := billedAggregator(t, env, 1_000)

	stranger := env.Account("stranger")
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{stranger},
		&ocr2.PayOracles{State: a.State.Address, Authority: stranger.Address}), tx.TecNO_PERMISSION)

	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{a.Owner},
		&ocr2.PayOracles{State: a.State.Address, Authority: a.Owner.Address}))
	jtx.RequireTokenBalance(t, env, a.Oracles[0].Payee.Address, 60)
	jtx.RequireTokenBalance(t, env, a.Oracles[1].Payee.Address, 20)
	jtx.RequireTokenBalance(t, env, a.Oracles[2].Payee.Address, 0)

	s := a.StateOf()
	require.True(t, s.TotalOwed().IsZero())
	require.Equal(t, uint32(2), s.Oracles[0].FromRoundID)
	require.Equal(t, uint32(2), s.Oracles[1].FromRoundID)
	require.Zero(t, s.Oracles[2].FromRoundID)

	// Nothing owed, nothing moves.
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{a.Owner},
		&ocr2.PayOracles{State: a.State.Address, Authority: a.Owner.Address}))
	jtx.RequireTokenBalance(t, env, a.Vault.Address, 1_000-80)
}

func TestWithdrawFunds(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := billedAggregator(t, env, 1_000)
	recipient := env.CreateTokenAccount("treasury", a.Mint, a.Owner.Address)

	withdraw := func(amount uint64) tx.ApplyResult {
		return env.Submit([]*jtx.Account{a.Owner}, &ocr2.WithdrawFunds{
			State:     a.State.Address,
			Authority: a.Owner.Address,
			Recipient: recipient.Address,
			Amount:    amount,
		})
	}

	jtx.RequireTxFail(t, withdraw(0), tx.TemBAD_AMOUNT)
	// 80 gjuels are still owed to oracles.
	jtx.RequireTxFail(t, withdraw(921), tx.TecINSUFFICIENT_FUNDS)
	jtx.RequireTxSuccess(t, withdraw(920))
	jtx.RequireTokenBalance(t, env, recipient.Address, 920)
	jtx.RequireTokenBalance(t, env, a.Vault.Address, 80)
	jtx.RequireTxFail(t, withdraw(1), tx.TecINSUFFICIENT_FUNDS)

	stranger := env.Account("stranger")
	result := env.Submit([]*jtx.Account{stranger}, &ocr2.WithdrawFunds{
		State:     a.State.Address,
		Authority: stranger.Address,
		Recipient: recipient.Address,
		Amount:    1,
	})
	jtx.RequireTxFail(t, result, tx.TecNO_PERMISSION)
}

func TestWithdrawFundsCannotBeReplayed(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := billedAggregator(t, env, 1_000)
	recipient := env.CreateTokenAccount("treasury", a.Mint, a.Owner.Address)

	signed := env.Build(env.Payer(), []*jtx.Account{a.Owner}, &ocr2.WithdrawFunds{
		State:     a.State.Address,
		Authority: a.Owner.Address,
		Recipient: recipient.Address,
		Amount:    100,
	})
	jtx.RequireTxSuccess(t, env.Engine().Apply(signed))
	payerBalance := env.Lamports(env.Payer().Address)

	for i := 0; i < 3; i++ {
		jtx.RequireTxFail(t, env.Engine().Apply(signed), tx.TefPAST_NONCE)
	}
	jtx.RequireTokenBalance(t, env, recipient.Address, 100)
	jtx.RequireTokenBalance(t, env, a.Vault.Address, 1_000-80-100)
	require.Equal(t, payerBalance, env.Lamports(env.Payer().Address))
}

func TestPayeeship(t *testing.T) {
	env := jtx.NewTestEnv(t)
	a := billedAggregator(t, env, 1_000)
	o := a.Oracles[1]
	heir := env.Account("heir")
	heirPayee := env.CreateTokenAccount("heir-payee", a.Mint, heir.Address)

	otherMint := env.CreateMint("other-mint", a.MintAuthority, 9)
	foreign := env.CreateTokenAccount("foreign-payee", otherMint, heir.Address)

	transfer := func(authority *jtx.Account, proposed *jtx.Account) tx.ApplyResult {
		return env.Submit([]*jtx.Account{authority}, &ocr2.TransferPayeeship{
			State:       a.State.Address,
			Transmitter: o.Transmitter.Address,
			Authority:   authority.Address,
			Proposed:    proposed.Address,
		})
	}
	accept := func(authority *jtx.Account) tx.ApplyResult {
		return env.Submit([]*jtx.Account{authority}, &ocr2.AcceptPayeeship{
			State:       a.State.Address,
			Transmitter: o.Transmitter.Address,
			Authority:   authority.Address,
		})
	}

	jtx.RequireTxFail(t, accept(heir), tx.TecINVALID_STATE)
	jtx.RequireTxFail(t, transfer(heir, heirPayee), tx.TecNO_PERMISSION)
	jtx.RequireTxFail(t, transfer(o.PayeeOwner, foreign), tx.TecMINT_MISMATCH)

	jtx.RequireTxSuccess(t, transfer(o.PayeeOwner, heirPayee))
	require.Equal(t, heirPayee.Address, a.StateOf().Oracles[1].ProposedPayee)

	jtx.RequireTxFail(t, accept(o.PayeeOwner), tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, accept(heir))

	s := a.StateOf()
	require.Equal(t, heirPayee.Address, s.Oracles[1].Payee)
	require.True(t, s.Oracles[1].ProposedPayee.IsZero())

	// Accrued balance now flows to the new payee.
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{a.Owner},
		&ocr2.PayOracles{State: a.State.Address, Authority: a.Owner.Address}))
	jtx.RequireTokenBalance(t, env, heirPayee.Address, 20)
	jtx.RequireTokenBalance(t, env, o.Payee.Address, 0)

	unknown := env.Account("unknown")
	result := env.Submit([]*jtx.Account{heir}, &ocr2.AcceptPayeeship{
		State:       a.State.Address,
		Transmitter: unknown.Address,
		Authority:   heir.Address,
	})
	jtx.RequireTxFail(t, result, tx.TecNO_ENTRY)
}
