// Package statestore persists ledger accounts in a key/value database with
// an LRU cache of decoded accounts in front of it.
package statestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/log"
	"github.com/LeJamon/goOCR2/internal/storage/compression"
	"github.com/LeJamon/goOCR2/internal/storage/database"
)

// accountPrefix namespaces account records in the database.
const accountPrefix byte = 'a'

// DefaultCacheSize is used when Config.CacheSize is not positive.
const DefaultCacheSize = 4096

// Config configures a Store.
type Config struct {
	CacheSize   int
	Compression string
}

// Store implements tx.LedgerView and tx.BatchWriter.
type Store struct {
	mu    sync.RWMutex
	db    database.DB
	codec compression.Compressor
	cache *lru.Cache[types.Address, *tx.Account]

	hits   uint64
	misses uint64
}

var (
	_ tx.LedgerView  = (*Store)(nil)
	_ tx.BatchWriter = (*Store)(nil)
)

// New wraps db. The store takes ownership of db and closes it in Close.
func New(db database.DB, cfg Config) (*Store, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Compression == "" {
		cfg.Compression = "none"
	}
	codec, err := compression.Get(cfg.Compression)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[types.Address, *tx.Account](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, codec: codec, cache: cache}, nil
}

func accountKey(addr types.Address) []byte {
	k := make([]byte, 1+types.AddressLength)
	k[0] = accountPrefix
	copy(k[1:], addr[:])
	return k
}

// encode seals with the configured codec. decode picks the codec from the
// blob's id byte, so a store reopened with different compression still reads.
func (s *Store) encode(a *tx.Account) ([]byte, error) {
	return compression.Seal(s.codec, tx.EncodeAccount(a))
}

func (s *Store) decode(raw []byte) (*tx.Account, error) {
	blob, err := compression.Open(raw)
	if err != nil {
		return nil, err
	}
	return tx.DecodeAccount(blob)
}

// load returns the stored account without copying, or nil. Callers hold mu.
func (s *Store) load(addr types.Address) (*tx.Account, error) {
	if a, ok := s.cache.Get(addr); ok {
		s.hits++
		return a, nil
	}
	s.misses++

	raw, err := s.db.Read(context.Background(), accountKey(addr))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", addr, err)
	}
	a, err := s.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode account %s: %w", addr, err)
	}
	s.cache.Add(addr, a)
	return a, nil
}

func (s *Store) Read(k keylet.Keylet) (*tx.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.load(k.Key)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	a, err := s.Read(k)
	return a != nil, err
}

func (s *Store) Insert(k keylet.Keylet, a *tx.Account) error {
	if existing, err := s.Read(k); err != nil {
		return err
	} else if existing != nil {
		return tx.ErrEntryExists
	}
	return s.ApplyChanges([]tx.Change{{Key: k.Key, Account: a, Created: true}})
}

func (s *Store) Update(k keylet.Keylet, a *tx.Account) error {
	if existing, err := s.Read(k); err != nil {
		return err
	} else if existing == nil {
		return tx.ErrEntryNotFound
	}
	return s.ApplyChanges([]tx.Change{{Key: k.Key, Account: a}})
}

func (s *Store) Erase(k keylet.Keylet) error {
	if existing, err := s.Read(k); err != nil {
		return err
	} else if existing == nil {
		return tx.ErrEntryNotFound
	}
	return s.ApplyChanges([]tx.Change{{Key: k.Key}})
}

// ForEach visits accounts in key order, reading from the database.
func (s *Store) ForEach(fn func(key types.Address, a *tx.Account) bool) error {
	prefix := []byte{accountPrefix}
	it, err := s.db.Iterator(context.Background(), prefix, database.PrefixEnd(prefix))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		var addr types.Address
		copy(addr[:], it.Key()[1:])
		a, err := s.decode(it.Value())
		if err != nil {
			return fmt.Errorf("decode account %s: %w", addr, err)
		}
		if !fn(addr, a) {
			return nil
		}
	}
	return it.Error()
}

// ApplyChanges writes a change set as one database batch. The cache is only
// updated once the batch has been committed.
func (s *Store) ApplyChanges(changes []tx.Change) error {
	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		if c.Account == nil {
			ops = append(ops, database.Del(accountKey(c.Key)))
			continue
		}
		raw, err := s.encode(c.Account)
		if err != nil {
			return fmt.Errorf("encode account %s: %w", c.Key, err)
		}
		ops = append(ops, database.Put(accountKey(c.Key), raw))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Batch(context.Background(), ops); err != nil {
		log.Logger.Error().Err(err).Int("changes", len(changes)).Msg("state batch failed")
		return fmt.Errorf("commit %d changes: %w", len(changes), err)
	}
	for _, c := range changes {
		if c.Account == nil {
			s.cache.Remove(c.Key)
			continue
		}
		s.cache.Add(c.Key, c.Account.Clone())
	}
	return nil
}

// Stats reports cache effectiveness.
type Stats struct {
	Cached int
	Hits   uint64
	Misses uint64
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Cached: s.cache.Len(), Hits: s.hits, Misses: s.misses}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return s.db.Close()
}
