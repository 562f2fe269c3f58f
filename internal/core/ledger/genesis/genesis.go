// Package genesis seeds the initial funded accounts of a ledger.
package genesis

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// ErrZeroBalance is returned for a genesis account without lamports.
var ErrZeroBalance = errors.New("genesis account has no lamports")

// Account is a system-owned wallet present from the first slot.
type Account struct {
	Address  types.Address
	Lamports uint64
}

// Validate checks that no address is repeated and every balance is positive.
func Validate(accounts []Account) error {
	seen := make(map[types.Address]bool, len(accounts))
	for _, a := range accounts {
		if a.Lamports == 0 {
			return fmt.Errorf("%s: %w", a.Address, ErrZeroBalance)
		}
		if seen[a.Address] {
			return fmt.Errorf("duplicate genesis account %s", a.Address)
		}
		seen[a.Address] = true
	}
	return nil
}

// Apply inserts the accounts that do not exist yet and returns how many were
// created. Existing accounts are left untouched so a restarted node keeps
// its state.
func Apply(view tx.LedgerView, accounts []Account) (int, error) {
	if err := Validate(accounts); err != nil {
		return 0, err
	}
	created := 0
	for _, a := range accounts {
		k := keylet.Account(a.Address)
		exists, err := view.Exists(k)
		if err != nil {
			return created, fmt.Errorf("check %s: %w", a.Address, err)
		}
		if exists {
			continue
		}
		if err := view.Insert(k, &tx.Account{Owner: keylet.SystemProgram, Lamports: a.Lamports}); err != nil {
			return created, fmt.Errorf("insert %s: %w", a.Address, err)
		}
		created++
	}
	return created, nil
}
