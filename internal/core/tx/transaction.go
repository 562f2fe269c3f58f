package tx

import (
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/ed25519"
	crypto "github.com/LeJamon/goOCR2/internal/crypto/common"
)

var msgpack = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.Canonical = true
	h.WriteExt = true
	return h
}()

// Instruction is the wire form of a single program call.
type Instruction struct {
	Program types.Address `codec:"program" json:"program"`
	Kind    string        `codec:"kind" json:"kind"`
	Data    []byte        `codec:"data" json:"data"`
}

// Signature authorizes a transaction on behalf of Signer.
type Signature struct {
	Signer    types.Address `codec:"signer" json:"signer"`
	Signature []byte        `codec:"signature" json:"signature"`
}

// Transaction is an ordered list of instructions applied atomically. The fee
// payer must be among the signers.
type Transaction struct {
	FeePayer     types.Address `codec:"fee_payer" json:"fee_payer"`
	Nonce        uint64        `codec:"nonce" json:"nonce"`
	Instructions []Instruction `codec:"instructions" json:"instructions"`
	Signatures   []Signature   `codec:"signatures" json:"signatures"`
}

type signingPayload struct {
	FeePayer     types.Address `codec:"fee_payer"`
	Nonce        uint64        `codec:"nonce"`
	Instructions []Instruction `codec:"instructions"`
}

// Signer is anything able to sign a transaction message.
type Signer interface {
	Address() types.Address
	Sign(message []byte) []byte
}

// NewTransaction encodes the handlers into a transaction paid by feePayer.
func NewTransaction(feePayer types.Address, nonce uint64, handlers ...Handler) (*Transaction, error) {
	t := &Transaction{FeePayer: feePayer, Nonce: nonce}
	for _, h := range handlers {
		ins, err := EncodeInstruction(h)
		if err != nil {
			return nil, err
		}
		t.Instructions = append(t.Instructions, ins)
	}
	return t, nil
}

// Message returns the canonical bytes covered by signatures.
func (t *Transaction) Message() ([]byte, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, msgpack)
	if err := enc.Encode(signingPayload{
		FeePayer:     t.FeePayer,
		Nonce:        t.Nonce,
		Instructions: t.Instructions,
	}); err != nil {
		return nil, fmt.Errorf("encode transaction message: %w", err)
	}
	return out, nil
}

// Sign appends a signature for each signer, replacing any previous one by the same key.
func (t *Transaction) Sign(signers ...Signer) error {
	msg, err := t.Message()
	if err != nil {
		return err
	}
	for _, s := range signers {
		sig := Signature{Signer: s.Address(), Signature: s.Sign(msg)}
		replaced := false
		for i := range t.Signatures {
			if t.Signatures[i].Signer == sig.Signer {
				t.Signatures[i] = sig
				replaced = true
			}
		}
		if !replaced {
			t.Signatures = append(t.Signatures, sig)
		}
	}
	return nil
}

// VerifySignatures checks every signature and returns the set of signers.
func (t *Transaction) VerifySignatures() (map[types.Address]bool, error) {
	msg, err := t.Message()
	if err != nil {
		return nil, err
	}
	signers := make(map[types.Address]bool, len(t.Signatures))
	for _, sig := range t.Signatures {
		if !ed25519.Verify(sig.Signer, msg, sig.Signature) {
			return nil, fmt.Errorf("bad signature from %s", sig.Signer)
		}
		signers[sig.Signer] = true
	}
	return signers, nil
}

// Hash returns the transaction id.
func (t *Transaction) Hash() ([32]byte, error) {
	raw, err := EncodeTransaction(t)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha512Half([]byte("TXN\x00"), raw), nil
}

// EncodeTransaction serializes a signed transaction for submission.
func EncodeTransaction(t *Transaction) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, msgpack).Encode(t); err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return out, nil
}

// DecodeTransaction parses the output of EncodeTransaction.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	var t Transaction
	if err := codec.NewDecoderBytes(raw, msgpack).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &t, nil
}
