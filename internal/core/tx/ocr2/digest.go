package ocr2

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
)

// DigestOracle is the part of an oracle committed to by a config digest.
type DigestOracle struct {
	Signer      secp256k1.SignerAddress
	Transmitter types.Address
	Payee       types.Address
}

// ConfigDigest hashes a configuration the way AcceptProposal checks it:
// u8 n, then signer, transmitter and payee of each oracle in order, u8 f,
// the token mint, the off-chain config version and length big-endian, and
// the off-chain config bytes.
func ConfigDigest(oracles []DigestOracle, f uint8, tokenMint types.Address, offchainVersion uint64, offchainConfig []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{uint8(len(oracles))})
	for _, o := range oracles {
		h.Write(o.Signer[:])
		h.Write(o.Transmitter[:])
		h.Write(o.Payee[:])
	}
	h.Write([]byte{f})
	h.Write(tokenMint[:])

	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], offchainVersion)
	binary.BigEndian.PutUint32(buf[8:], uint32(len(offchainConfig)))
	h.Write(buf[:])
	h.Write(offchainConfig)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
