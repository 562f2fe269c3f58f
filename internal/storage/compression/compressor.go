// Package compression frames account blobs with an optional block codec.
package compression

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Codec ids written as the first byte of a sealed blob.
const (
	IDNone byte = 0
	IDLZ4  byte = 1
)

// ErrUnknownCodec is returned by Open for a blob whose codec id is not registered.
var ErrUnknownCodec = errors.New("unknown codec id")

// Compressor defines the interface for compression algorithms.
type Compressor interface {
	// Name returns the name of the compression algorithm.
	Name() string

	// ID is the tag Seal writes in front of the compressed payload.
	ID() byte

	// Compress returns the encoded form of data. The output carries enough
	// framing for Decompress to restore the input exactly.
	Compress(data []byte) ([]byte, error)

	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)
}

// Factory is a function that creates a new compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
	byID        = make(map[byte]Factory)
)

// Register registers a compressor factory under its name and id.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	compressors[name] = factory
	byID[factory().ID()] = factory
}

// Get returns a new compressor instance for the given name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return factory(), nil
}

// ByID returns a new compressor instance for the given id.
func ByID(id byte) (Compressor, error) {
	mu.RLock()
	factory, ok := byID[id]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, id)
	}
	return factory(), nil
}

// Seal compresses data with c and prefixes the codec id.
func Seal(c Compressor, data []byte) ([]byte, error) {
	body, err := c.Compress(data)
	if err != nil {
		return nil, err
	}
	return append([]byte{c.ID()}, body...), nil
}

// Open reverses Seal. The codec is taken from the blob, not from the caller,
// so stores written with one compressor stay readable under another.
func Open(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrCorrupt
	}
	c, err := ByID(raw[0])
	if err != nil {
		return nil, err
	}
	return c.Decompress(raw[1:])
}

// Available returns the registered compressor names in sorted order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("none", func() Compressor { return NoCompressor{} })
	Register("lz4", func() Compressor { return LZ4Compressor{} })
}
