package testing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// RequireTxSuccess asserts that a transaction was applied successfully.
func RequireTxSuccess(t *testing.T, result tx.ApplyResult) {
	t.Helper()
	require.Equal(t, tx.TesSUCCESS, result.Result,
		"Expected tesSUCCESS, got %s: %s\n%s", result.Result, result.Message, strings.Join(result.Logs, "\n"))
	require.True(t, result.Applied, "Expected transaction to be applied")
}

// RequireSimulated asserts that a simulated transaction succeeded without
// committing.
func RequireSimulated(t *testing.T, result tx.ApplyResult) {
	t.Helper()
	require.Equal(t, tx.TesSUCCESS, result.Result,
		"Expected tesSUCCESS, got %s: %s\n%s", result.Result, result.Message, strings.Join(result.Logs, "\n"))
	require.False(t, result.Applied, "Simulated transaction was committed")
}

// RequireTxFail asserts that a transaction failed with a specific code.
func RequireTxFail(t *testing.T, result tx.ApplyResult, expected tx.Result) {
	t.Helper()
	require.Equal(t, expected, result.Result,
		"Expected %s, got %s: %s\n%s", expected, result.Result, result.Message, strings.Join(result.Logs, "\n"))
}

// RequireTxClass asserts that a transaction failed with an error of the given class.
func RequireTxClass(t *testing.T, result tx.ApplyResult, class error) {
	t.Helper()
	err := result.Err()
	require.Error(t, err, "Expected failure of class %v, transaction succeeded", class)
	require.True(t, errors.Is(err, class), "Expected class %v, got %s (%v)", class, result.Result, result.Result.Class())
}

// RequireLamports asserts the lamport balance of an account.
func RequireLamports(t *testing.T, env *TestEnv, addr types.Address, expected uint64) {
	t.Helper()
	actual := env.Lamports(addr)
	require.Equal(t, expected, actual, "Account %s lamports: expected %d, got %d", addr, expected, actual)
}

// RequireTokenBalance asserts the balance of a token account.
func RequireTokenBalance(t *testing.T, env *TestEnv, addr types.Address, expected uint64) {
	t.Helper()
	actual := env.TokenBalance(addr)
	require.Equal(t, expected, actual, "Token account %s: expected %d, got %d", addr, expected, actual)
}

// RequireAccountExists asserts that an account exists.
func RequireAccountExists(t *testing.T, env *TestEnv, addr types.Address) {
	t.Helper()
	require.True(t, env.Exists(addr), "Account %s should exist", addr)
}

// RequireAccountNotExists asserts that an account does not exist.
func RequireAccountNotExists(t *testing.T, env *TestEnv, addr types.Address) {
	t.Helper()
	require.False(t, env.Exists(addr), "Account %s should not exist", addr)
}

// RequireLog asserts that some program log line contains substr.
func RequireLog(t *testing.T, result tx.ApplyResult, substr string) {
	t.Helper()
	for _, l := range result.Logs {
		if strings.Contains(l, substr) {
			return
		}
	}
	require.Failf(t, "missing log line", "no log contains %q:\n%s", substr, strings.Join(result.Logs, "\n"))
}

// AssertLamportChange asserts that fn changes an account's lamports by delta.
func AssertLamportChange(t *testing.T, env *TestEnv, addr types.Address, delta int64, fn func()) {
	t.Helper()
	before := env.Lamports(addr)
	fn()
	after := env.Lamports(addr)
	require.Equal(t, delta, int64(after)-int64(before),
		"Account %s lamport change: expected %d, got %d", addr, delta, int64(after)-int64(before))
}
