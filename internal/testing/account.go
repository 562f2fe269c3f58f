package testing

import (
	"fmt"

	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/ed25519"
)

// Account is a test account with a deterministic ed25519 key.
type Account struct {
	// Name is a human-readable identifier used in failure messages.
	Name string

	// Key signs transactions on behalf of the account.
	Key *ed25519.KeyPair

	// Address is the account address, the ed25519 public key.
	Address types.Address
}

// NewAccount derives an account from its name. The same name always yields
// the same account.
func NewAccount(name string) *Account {
	key, err := ed25519.DeriveKeypair([]byte("test-account:" + name))
	if err != nil {
		panic("failed to derive keypair for account " + name + ": " + err.Error())
	}
	return &Account{Name: name, Key: key, Address: key.Address()}
}

// String returns the account name and address.
func (a *Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Address)
}

// Addresses returns the addresses of accounts, in order.
func Addresses(accounts ...*Account) []types.Address {
	out := make([]types.Address, len(accounts))
	for i, a := range accounts {
		out[i] = a.Address
	}
	return out
}
