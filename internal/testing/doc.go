// Package testing provides test infrastructure for ledger program testing.
//
// It offers a deterministic environment in which accounts are funded,
// program accounts are allocated and transactions are applied through the
// same Engine the node runs.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: an in-memory ledger with a funded fee payer and a manual clock
//   - Account: deterministic ed25519 test accounts
//   - Oracle and Aggregator: oracle key sets and a fully configured aggregator
//   - Assertions: helpers for result codes, balances and program logs
//
// # Basic Usage
//
//	func TestTransmit(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//	    agg := env.DeployAggregator(testing.AggregatorConfig{Oracles: 4, F: 1})
//
//	    report := agg.Report(1_234, 0)
//	    result := agg.Transmit(agg.Oracles[0], report, agg.Oracles[:2])
//	    testing.RequireTxSuccess(t, result)
//	}
//
// # TestEnv
//
// TestEnv applies every transaction with a shared fee payer. Extra signers
// are passed explicitly:
//
//	env.Fund(alice)                                 // fund with DefaultFund lamports
//	acct := env.Allocate("feed", keylet.StoreProgram, size) // pre-allocate a program account
//	env.Submit([]*testing.Account{alice}, ins...)   // apply with alice as extra signer
//	env.Simulate(ins...)                            // run without committing
//
// # Clock Control
//
// The environment uses a ManualClock with whole-second resolution, matching
// the u32 timestamps in reports and rounds:
//
//	env.AdvanceTime(10 * time.Second)
//	env.Timestamp()
package testing
