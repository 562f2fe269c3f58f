package config

import (
	"fmt"

	"github.com/LeJamon/goOCR2/internal/core/ledger/genesis"
	"github.com/LeJamon/goOCR2/internal/log"
	"github.com/LeJamon/goOCR2/internal/storage/compression"
	"github.com/LeJamon/goOCR2/internal/storage/relationaldb"
	"github.com/LeJamon/goOCR2/internal/storage/statestore"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}
	if err := validateIndexConfig(&config.Index); err != nil {
		return fmt.Errorf("index config validation failed: %w", err)
	}
	if err := validateEngineConfig(&config.Engine); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	accounts, err := config.GenesisAccounts()
	if err != nil {
		return fmt.Errorf("genesis config validation failed: %w", err)
	}
	if err := genesis.Validate(accounts); err != nil {
		return fmt.Errorf("genesis config validation failed: %w", err)
	}

	if _, err := log.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", config.LogLevel, err)
	}
	switch config.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q (must be console or json)", config.LogFormat)
	}
	return nil
}

func validateServerConfig(s *ServerConfig) error {
	if s.HTTPAddr == "" && s.WSAddr == "" && s.GRPCAddr == "" {
		return fmt.Errorf("at least one of http_addr, ws_addr, grpc_addr must be set")
	}
	if s.HTTPAddr != "" && s.HTTPAddr == s.WSAddr {
		return fmt.Errorf("http_addr and ws_addr must differ")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if s.MaxRequestBytes <= 0 {
		return fmt.Errorf("max_request_bytes must be positive")
	}
	return nil
}

func validateDatabaseConfig(d *DatabaseConfig) error {
	known := false
	for _, b := range statestore.Backends {
		if d.Backend == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown backend %q (must be one of %v)", d.Backend, statestore.Backends)
	}
	if d.Backend != statestore.BackendMemory && d.Path == "" {
		return fmt.Errorf("backend %s requires a path", d.Backend)
	}
	if d.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative")
	}
	if _, err := compression.Get(d.Compression); err != nil {
		return fmt.Errorf("compression must be one of %v: %w", compression.Available(), err)
	}
	return nil
}

func validateIndexConfig(c *IndexConfig) error {
	if !c.Enabled() {
		return nil
	}
	return c.Relational().Validate()
}

// Relational converts the index section to a relational database config.
func (c IndexConfig) Relational() *relationaldb.Config {
	rc := relationaldb.NewConfig()
	rc.Driver = c.Driver
	rc.DSN = c.DSN
	if c.MaxOpenConns > 0 {
		rc.MaxOpenConns = c.MaxOpenConns
		if rc.MaxIdleConns > rc.MaxOpenConns {
			rc.MaxIdleConns = rc.MaxOpenConns
		}
	}
	if c.Timeout > 0 {
		rc.DefaultTimeout = c.Timeout
	}
	return rc
}

func validateEngineConfig(e *EngineConfig) error {
	if e.MaxInstructions <= 0 {
		return fmt.Errorf("max_instructions must be positive")
	}
	return nil
}
