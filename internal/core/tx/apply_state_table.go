package tx

import (
	"errors"
	"sort"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

var (
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original *Account // nil for inserts
	Current  *Account
}

// ApplyStateTable wraps a LedgerView and buffers all modifications made while
// a transaction runs. Nothing reaches the base view until Apply.
type ApplyStateTable struct {
	base  LedgerView
	items map[types.Address]*TrackedEntry
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[types.Address]*TrackedEntry),
	}
}

// Read reads an account, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) (*Account, error) {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current.Clone(), nil
	}

	a, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	if a != nil {
		t.items[k.Key] = &TrackedEntry{
			Action:   ActionCache,
			Original: a,
			Current:  a.Clone(),
		}
		return a.Clone(), nil
	}
	return nil, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if entry, exists := t.items[k.Key]; exists {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *ApplyStateTable) Insert(k keylet.Keylet, a *Account) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = a.Clone()
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	t.items[k.Key] = &TrackedEntry{
		Action:  ActionInsert,
		Current: a.Clone(),
	}
	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, a *Account) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return ErrEntryNotFound
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		entry.Current = a.Clone()
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}
	t.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  a.Clone(),
	}
	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if entry, exists := t.items[k.Key]; exists {
		switch entry.Action {
		case ActionErase:
			return ErrEntryNotFound
		case ActionInsert:
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		entry.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}
	t.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// ForEach iterates over the base view merged with pending changes.
func (t *ApplyStateTable) ForEach(fn func(key types.Address, a *Account) bool) error {
	seen := make(map[types.Address]bool, len(t.items))
	stopped := false
	err := t.base.ForEach(func(key types.Address, a *Account) bool {
		if entry, tracked := t.items[key]; tracked {
			seen[key] = true
			if entry.Action == ActionErase {
				return true
			}
			a = entry.Current.Clone()
		}
		if !fn(key, a) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil || stopped {
		return err
	}
	for _, key := range t.sortedKeys() {
		entry := t.items[key]
		if seen[key] || entry.Action != ActionInsert {
			continue
		}
		if !fn(key, entry.Current.Clone()) {
			return nil
		}
	}
	return nil
}

func (t *ApplyStateTable) sortedKeys() []types.Address {
	keys := make([]types.Address, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	return keys
}

// Changes returns the pending modifications in key order.
func (t *ApplyStateTable) Changes() []Change {
	var changes []Change
	for _, key := range t.sortedKeys() {
		entry := t.items[key]
		switch entry.Action {
		case ActionInsert:
			changes = append(changes, Change{Key: key, Account: entry.Current.Clone(), Created: true})
		case ActionModify:
			if entry.Original.Equal(entry.Current) {
				continue
			}
			changes = append(changes, Change{Key: key, Account: entry.Current.Clone()})
		case ActionErase:
			changes = append(changes, Change{Key: key})
		}
	}
	return changes
}

// Apply commits all changes to the base view and returns generated metadata.
func (t *ApplyStateTable) Apply() (*Metadata, error) {
	changes := t.Changes()
	metadata := &Metadata{AffectedNodes: make([]AffectedNode, 0, len(changes))}
	for _, c := range changes {
		metadata.AffectedNodes = append(metadata.AffectedNodes, t.affectedNode(c))
	}

	if bw, ok := t.base.(BatchWriter); ok {
		if err := bw.ApplyChanges(changes); err != nil {
			return nil, err
		}
	} else {
		for _, c := range changes {
			k := keylet.Account(c.Key)
			var err error
			switch {
			case c.Account == nil:
				err = t.base.Erase(k)
			case c.Created:
				err = t.base.Insert(k, c.Account)
			default:
				err = t.base.Update(k, c.Account)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	t.items = make(map[types.Address]*TrackedEntry)
	return metadata, nil
}

// Discard drops every pending change.
func (t *ApplyStateTable) Discard() {
	t.items = make(map[types.Address]*TrackedEntry)
}

func (t *ApplyStateTable) affectedNode(c Change) AffectedNode {
	entry := t.items[c.Key]
	node := AffectedNode{Key: c.Key}
	switch {
	case c.Account == nil:
		node.NodeType = NodeDeleted
		node.EntryType = entry.Original.Type().String()
		node.PreviousLamports = entry.Original.Lamports
	case c.Created:
		node.NodeType = NodeCreated
		node.EntryType = c.Account.Type().String()
		node.FinalLamports = c.Account.Lamports
	default:
		node.NodeType = NodeModified
		node.EntryType = c.Account.Type().String()
		node.PreviousLamports = entry.Original.Lamports
		node.FinalLamports = c.Account.Lamports
	}
	return node
}
