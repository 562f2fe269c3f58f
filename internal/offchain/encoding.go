package offchain

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
)

// EncodingVersion prefixes every encoded config.
const EncodingVersion byte = 1

var (
	ErrTooLarge       = errors.New("encoded offchain config too large")
	ErrUnknownVersion = errors.New("unknown offchain config encoding version")
)

var msgpack = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.Canonical = true
	return h
}()

// Encode validates c and returns version || msgpack(c). The result must fit
// the aggregator's off-chain config buffer.
func Encode(c *Config) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var body []byte
	if err := codec.NewEncoderBytes(&body, msgpack).Encode(c); err != nil {
		return nil, fmt.Errorf("encode offchain config: %w", err)
	}
	out := append([]byte{EncodingVersion}, body...)
	if len(out) >= ocr2.MaxOffchainConfigLen {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(out), ocr2.MaxOffchainConfigLen)
	}
	return out, nil
}

// Decode parses the output of Encode.
func Decode(raw []byte) (*Config, error) {
	if len(raw) == 0 || raw[0] != EncodingVersion {
		return nil, ErrUnknownVersion
	}
	c := &Config{}
	if err := codec.NewDecoderBytes(raw[1:], msgpack).Decode(c); err != nil {
		return nil, fmt.Errorf("decode offchain config: %w", err)
	}
	return c, nil
}
