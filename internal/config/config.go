// Package config loads the ocr2d node configuration.
package config

import (
	"fmt"
	"time"

	"github.com/LeJamon/goOCR2/internal/core/ledger/genesis"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Config represents the complete ocr2d configuration
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Index    IndexConfig    `toml:"index" mapstructure:"index"`
	Engine   EngineConfig   `toml:"engine" mapstructure:"engine"`

	Genesis []GenesisAccount `toml:"genesis" mapstructure:"genesis"`

	LogLevel  string `toml:"log_level" mapstructure:"log_level"`
	LogFormat string `toml:"log_format" mapstructure:"log_format"`

	configPath string
}

// ServerConfig holds listener settings. An empty address disables the listener.
type ServerConfig struct {
	HTTPAddr        string        `toml:"http_addr" mapstructure:"http_addr"`
	WSAddr          string        `toml:"ws_addr" mapstructure:"ws_addr"`
	GRPCAddr        string        `toml:"grpc_addr" mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxRequestBytes int64         `toml:"max_request_bytes" mapstructure:"max_request_bytes"`
}

// DatabaseConfig selects the account state backend.
type DatabaseConfig struct {
	Backend     string `toml:"backend" mapstructure:"backend"`
	Path        string `toml:"path" mapstructure:"path"`
	CacheSize   int    `toml:"cache_size" mapstructure:"cache_size"`
	Compression string `toml:"compression" mapstructure:"compression"`
}

// IndexConfig selects the relational round index. Driver "none" disables it.
type IndexConfig struct {
	Driver       string        `toml:"driver" mapstructure:"driver"`
	DSN          string        `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	Timeout      time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Enabled reports whether rounds should be indexed.
func (c IndexConfig) Enabled() bool {
	return c.Driver != "" && c.Driver != IndexDriverNone
}

// EngineConfig holds transaction engine parameters.
type EngineConfig struct {
	LamportsPerSignature      uint64 `toml:"lamports_per_signature" mapstructure:"lamports_per_signature"`
	RentPerByte               uint64 `toml:"rent_per_byte" mapstructure:"rent_per_byte"`
	MaxInstructions           int    `toml:"max_instructions" mapstructure:"max_instructions"`
	SkipSignatureVerification bool   `toml:"skip_signature_verification" mapstructure:"skip_signature_verification"`
}

// GenesisAccount funds a base58 address when the ledger is first opened.
type GenesisAccount struct {
	Address  string `toml:"address" mapstructure:"address"`
	Lamports uint64 `toml:"lamports" mapstructure:"lamports"`
}

// GenesisAccounts parses the [[genesis]] entries.
func (c *Config) GenesisAccounts() ([]genesis.Account, error) {
	out := make([]genesis.Account, 0, len(c.Genesis))
	for i, g := range c.Genesis {
		addr, err := types.ParseAddress(g.Address)
		if err != nil {
			return nil, fmt.Errorf("genesis[%d]: %w", i, err)
		}
		out = append(out, genesis.Account{Address: addr, Lamports: g.Lamports})
	}
	return out, nil
}

// ConfigPath returns the file the configuration was read from, if any.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// Tx converts the engine section to the engine's own configuration.
func (e EngineConfig) Tx() tx.EngineConfig {
	return tx.EngineConfig{
		LamportsPerSignature:      e.LamportsPerSignature,
		RentPerByte:               e.RentPerByte,
		MaxInstructions:           e.MaxInstructions,
		SkipSignatureVerification: e.SkipSignatureVerification,
	}
}
