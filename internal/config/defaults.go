package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/LeJamon/goOCR2/internal/core/tx"
)

// IndexDriverNone disables the round index.
const IndexDriverNone = "none"

// setDefaults sets every default value
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", "127.0.0.1:8899")
	v.SetDefault("server.ws_addr", "127.0.0.1:8900")
	v.SetDefault("server.grpc_addr", "127.0.0.1:8901")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_request_bytes", 1<<20)

	v.SetDefault("database.backend", "memory")
	v.SetDefault("database.path", "data/state")
	v.SetDefault("database.cache_size", 4096)
	v.SetDefault("database.compression", "lz4")

	v.SetDefault("index.driver", IndexDriverNone)
	v.SetDefault("index.max_open_conns", 10)
	v.SetDefault("index.timeout", 10*time.Second)

	v.SetDefault("engine.lamports_per_signature", tx.DefaultLamportsPerSignature)
	v.SetDefault("engine.rent_per_byte", tx.DefaultRentPerByte)
	v.SetDefault("engine.max_instructions", tx.DefaultMaxInstructions)
	v.SetDefault("engine.skip_signature_verification", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}
