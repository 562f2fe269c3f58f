package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocr2d.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[server]
http_addr = "0.0.0.0:9000"
ws_addr = ""
read_timeout = "3s"

[database]
backend = "pebble"
path = "/tmp/ocr2d/state"
cache_size = 128
compression = "none"

[index]
driver = "sqlite"
dsn = "file:/tmp/ocr2d/rounds.db"

[engine]
lamports_per_signature = 10
skip_signature_verification = true
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, config.ConfigPath())
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", config.Server.HTTPAddr)
	assert.Empty(t, config.Server.WSAddr)
	assert.Equal(t, "127.0.0.1:8901", config.Server.GRPCAddr)
	assert.Equal(t, 3*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, config.Server.WriteTimeout)

	assert.Equal(t, "pebble", config.Database.Backend)
	assert.Equal(t, "/tmp/ocr2d/state", config.Database.Path)
	assert.Equal(t, 128, config.Database.CacheSize)
	assert.Equal(t, "none", config.Database.Compression)

	assert.True(t, config.Index.Enabled())
	assert.Equal(t, "sqlite", config.Index.Relational().Driver)

	assert.Equal(t, uint64(10), config.Engine.LamportsPerSignature)
	assert.Equal(t, uint64(tx.DefaultRentPerByte), config.Engine.RentPerByte)
	assert.True(t, config.Engine.SkipSignatureVerification)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, Default(), config)
	assert.Equal(t, "memory", config.Database.Backend)
	assert.Equal(t, "lz4", config.Database.Compression)
	assert.False(t, config.Index.Enabled())
	assert.Equal(t, uint64(tx.DefaultLamportsPerSignature), config.Engine.LamportsPerSignature)
	assert.Equal(t, tx.DefaultMaxInstructions, config.Engine.MaxInstructions)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("OCR2D_DATABASE_BACKEND", "bbolt")
	t.Setenv("OCR2D_DATABASE_PATH", "/tmp/ocr2d/state.db")
	t.Setenv("OCR2D_LOG_LEVEL", "warn")

	config, err := LoadConfig(writeConfig(t, "[database]\nbackend = \"pebble\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "bbolt", config.Database.Backend)
	assert.Equal(t, "/tmp/ocr2d/state.db", config.Database.Path)
	assert.Equal(t, "warn", config.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidateConfig(t *testing.T) {
	tt := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"no listeners", func(c *Config) {
			c.Server.HTTPAddr, c.Server.WSAddr, c.Server.GRPCAddr = "", "", ""
		}, "at least one"},
		{"shared http and ws", func(c *Config) { c.Server.WSAddr = c.Server.HTTPAddr }, "must differ"},
		{"negative timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "non-negative"},
		{"unknown backend", func(c *Config) { c.Database.Backend = "nudb" }, "unknown backend"},
		{"persistent without path", func(c *Config) {
			c.Database.Backend = "leveldb"
			c.Database.Path = ""
		}, "requires a path"},
		{"unknown compression", func(c *Config) { c.Database.Compression = "zstd" }, "compression"},
		{"index without dsn", func(c *Config) { c.Index.Driver = "postgres" }, "dsn"},
		{"index bad driver", func(c *Config) {
			c.Index.Driver = "mysql"
			c.Index.DSN = "x"
		}, "driver"},
		{"zero instructions", func(c *Config) { c.Engine.MaxInstructions = 0 }, "max_instructions"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"genesis bad address", func(c *Config) {
			c.Genesis = []GenesisAccount{{Address: "not-base58!", Lamports: 1}}
		}, "genesis"},
		{"genesis zero balance", func(c *Config) {
			c.Genesis = []GenesisAccount{{Address: types.Address{1}.String()}}
		}, "no lamports"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := ValidateConfig(c)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadConfigGenesis(t *testing.T) {
	funded := types.Address{7}
	path := writeConfig(t, `
[[genesis]]
address = "`+funded.String()+`"
lamports = 1000000000
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	accounts, err := config.GenesisAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, funded, accounts[0].Address)
	assert.Equal(t, uint64(1000000000), accounts[0].Lamports)
}
