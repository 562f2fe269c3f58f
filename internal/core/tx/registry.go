package tx

import (
	"encoding"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goOCR2/internal/core/types"
)

// ErrUnknownInstruction is returned when no handler is registered for an instruction.
var ErrUnknownInstruction = errors.New("unknown instruction")

// Handler is a decoded program instruction. Validate performs stateless
// checks on the payload; Apply runs it against ledger state.
//
// Payloads are msgpack-encoded unless the handler implements
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler, in which case its
// own binary layout is used on the wire.
type Handler interface {
	Program() types.Address
	Kind() string
	Validate() error
	Apply(ctx *ApplyContext) Result
}

type registryKey struct {
	program types.Address
	kind    string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[registryKey]func() Handler)
)

// Register makes an instruction kind of a program decodable. Programs call it
// from init.
func Register(program types.Address, kind string, factory func() Handler) {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := registryKey{program: program, kind: kind}
	if _, dup := registry[key]; dup {
		panic(fmt.Sprintf("instruction %s registered twice", kind))
	}
	registry[key] = factory
}

// Registered returns the registered instruction kinds of a program, sorted.
func Registered(program types.Address) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var kinds []string
	for k := range registry {
		if k.program == program {
			kinds = append(kinds, k.kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// EncodeInstruction converts a handler into its wire form.
func EncodeInstruction(h Handler) (Instruction, error) {
	ins := Instruction{Program: h.Program(), Kind: h.Kind()}
	if m, ok := h.(encoding.BinaryMarshaler); ok {
		data, err := m.MarshalBinary()
		if err != nil {
			return Instruction{}, fmt.Errorf("encode %s: %w", h.Kind(), err)
		}
		ins.Data = data
		return ins, nil
	}
	if err := codec.NewEncoderBytes(&ins.Data, msgpack).Encode(h); err != nil {
		return Instruction{}, fmt.Errorf("encode %s: %w", h.Kind(), err)
	}
	return ins, nil
}

// DecodeInstruction resolves the handler for an instruction and decodes its payload.
func DecodeInstruction(ins Instruction) (Handler, error) {
	registryMu.RLock()
	factory, ok := registry[registryKey{program: ins.Program, kind: ins.Kind}]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstruction, ins.Kind)
	}

	h := factory()
	if u, ok := h.(encoding.BinaryUnmarshaler); ok {
		if err := u.UnmarshalBinary(ins.Data); err != nil {
			return nil, Malformed("decode %s: %v", ins.Kind, err)
		}
		return h, nil
	}
	if err := codec.NewDecoderBytes(ins.Data, msgpack).Decode(h); err != nil {
		return nil, Malformed("decode %s: %v", ins.Kind, err)
	}
	return h, nil
}
