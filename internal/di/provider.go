package di

import (
	"context"

	"github.com/LeJamon/goOCR2/internal/config"
	"github.com/LeJamon/goOCR2/internal/core/ledger/genesis"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/indexer"
	"github.com/LeJamon/goOCR2/internal/log"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb"
	"github.com/LeJamon/goOCR2/internal/storage/statestore"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
	clock     tx.Clock
}

// NewProvider creates a new service provider. A nil clock uses the system
// clock.
func NewProvider(container *Container, cfg *config.Config, clock tx.Clock) *Provider {
	if clock == nil {
		clock = tx.SystemClock()
	}
	return &Provider{
		container: container,
		config:    cfg,
		clock:     clock,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)

	p.registerStorageBuilders()
	p.registerEngineBuilders()
	return nil
}

// registerStorageBuilders registers storage service builders.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceStateStore, func(c *Container) (interface{}, error) {
		db := p.config.Database
		store, err := statestore.Open(db.Backend, db.Path, statestore.Config{
			CacheSize:   db.CacheSize,
			Compression: db.Compression,
		})
		if err != nil {
			return nil, err
		}

		accounts, err := p.config.GenesisAccounts()
		if err == nil {
			var created int
			created, err = genesis.Apply(store, accounts)
			if created > 0 {
				logger := log.Component("di")
				logger.Info().Int("accounts", created).Msg("genesis accounts created")
			}
		}
		if err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	})

	if !p.config.Index.Enabled() {
		return
	}
	p.container.RegisterBuilder(ServiceRoundIndex, func(c *Container) (interface{}, error) {
		return relationaldb.Open(context.Background(), p.config.Index.Relational())
	})
	p.container.RegisterBuilder(ServiceIndexer, func(c *Container) (interface{}, error) {
		repo, err := Resolve[relationaldb.RoundRepository](c, ServiceRoundIndex)
		if err != nil {
			return nil, err
		}
		return indexer.New(repo), nil
	})
}

// registerEngineBuilders registers the transaction engine builder.
func (p *Provider) registerEngineBuilders() {
	p.container.RegisterBuilder(ServiceTxEngine, func(c *Container) (interface{}, error) {
		store, err := Resolve[*statestore.Store](c, ServiceStateStore)
		if err != nil {
			return nil, err
		}
		return tx.NewEngine(store, p.config.Engine.Tx(), p.clock), nil
	})
}

// GetEngine returns the transaction engine, opening the state store first.
func (p *Provider) GetEngine() (*tx.Engine, error) {
	return Resolve[*tx.Engine](p.container, ServiceTxEngine)
}

// GetRoundIndex returns the round repository, or nil when indexing is
// disabled.
func (p *Provider) GetRoundIndex() (relationaldb.RoundRepository, error) {
	if !p.container.Has(ServiceRoundIndex) {
		return nil, nil
	}
	return Resolve[relationaldb.RoundRepository](p.container, ServiceRoundIndex)
}

// GetIndexer returns the round indexer, or nil when indexing is disabled.
func (p *Provider) GetIndexer() (*indexer.Indexer, error) {
	if !p.container.Has(ServiceIndexer) {
		return nil, nil
	}
	return Resolve[*indexer.Indexer](p.container, ServiceIndexer)
}

// GetConfig returns the configuration the provider was created with.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}
