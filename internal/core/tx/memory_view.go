package tx

import (
	"sort"
	"sync"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// MemoryView is a LedgerView held entirely in memory.
type MemoryView struct {
	mu       sync.RWMutex
	accounts map[types.Address]*Account
}

// NewMemoryView creates an empty in-memory ledger.
func NewMemoryView() *MemoryView {
	return &MemoryView{accounts: make(map[types.Address]*Account)}
}

func (v *MemoryView) Read(k keylet.Keylet) (*Account, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.accounts[k.Key].Clone(), nil
}

func (v *MemoryView) Exists(k keylet.Keylet) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.accounts[k.Key]
	return ok, nil
}

func (v *MemoryView) Insert(k keylet.Keylet, a *Account) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.accounts[k.Key]; ok {
		return ErrEntryExists
	}
	v.accounts[k.Key] = a.Clone()
	return nil
}

func (v *MemoryView) Update(k keylet.Keylet, a *Account) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.accounts[k.Key]; !ok {
		return ErrEntryNotFound
	}
	v.accounts[k.Key] = a.Clone()
	return nil
}

func (v *MemoryView) Erase(k keylet.Keylet) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.accounts[k.Key]; !ok {
		return ErrEntryNotFound
	}
	delete(v.accounts, k.Key)
	return nil
}

// ForEach visits accounts in key order.
func (v *MemoryView) ForEach(fn func(key types.Address, a *Account) bool) error {
	v.mu.RLock()
	keys := make([]types.Address, 0, len(v.accounts))
	for k := range v.accounts {
		keys = append(keys, k)
	}
	v.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })

	for _, k := range keys {
		v.mu.RLock()
		a := v.accounts[k].Clone()
		v.mu.RUnlock()
		if a == nil {
			continue
		}
		if !fn(k, a) {
			return nil
		}
	}
	return nil
}

// ApplyChanges commits a change set under a single lock.
func (v *MemoryView) ApplyChanges(changes []Change) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range changes {
		if c.Account == nil {
			delete(v.accounts, c.Key)
			continue
		}
		v.accounts[c.Key] = c.Account.Clone()
	}
	return nil
}
