// Package grpc serves the feed read API over gRPC.
package grpc

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ServerConfig configures the feed service listener.
type ServerConfig struct {
	// Address is the host:port to bind, e.g. "127.0.0.1:8901".
	Address string

	// MaxMessageBytes caps request and response sizes. Feed reads are small.
	MaxMessageBytes int

	// MaxConcurrentStreams limits in-flight calls per client connection.
	MaxConcurrentStreams uint32

	// CallTimeout bounds every call; zero leaves the client deadline alone.
	CallTimeout time.Duration
}

// DefaultServerConfig returns the configuration used by the node.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:              "127.0.0.1:8901",
		MaxMessageBytes:      64 * 1024,
		MaxConcurrentStreams: 256,
		CallTimeout:          5 * time.Second,
	}
}

// Validate checks the address form and limits.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("grpc: address is required")
	}
	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("grpc: address %q: %w", c.Address, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("grpc: address %q needs both host and port", c.Address)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("grpc: max message bytes must be positive, got %d", c.MaxMessageBytes)
	}
	if c.MaxConcurrentStreams == 0 {
		return errors.New("grpc: max concurrent streams must be positive")
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("grpc: negative call timeout %s", c.CallTimeout)
	}
	return nil
}
