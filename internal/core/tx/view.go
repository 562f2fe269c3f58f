package tx

import (
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// AccountReader reads committed or pending accounts.
type AccountReader interface {
	// Read returns a copy of the account, or nil when it does not exist
	Read(k keylet.Keylet) (*Account, error)
}

// LedgerView provides read/write access to ledger state
type LedgerView interface {
	AccountReader

	// Exists checks if an account exists
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new account
	Insert(k keylet.Keylet, a *Account) error

	// Update modifies an existing account
	Update(k keylet.Keylet, a *Account) error

	// Erase removes an account
	Erase(k keylet.Keylet) error

	// ForEach iterates over all accounts
	// If fn returns false, iteration stops early
	ForEach(fn func(key types.Address, a *Account) bool) error
}

// Change is a single committed modification. A nil Account means erase.
type Change struct {
	Key     types.Address
	Account *Account
	Created bool
}

// BatchWriter is implemented by views that can commit a set of changes atomically.
type BatchWriter interface {
	ApplyChanges(changes []Change) error
}
