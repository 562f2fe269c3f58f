package offchain

import (
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// DefaultChunkSize keeps a single write well inside a transaction.
const DefaultChunkSize = 1000

// Chunks splits data into pieces of at most size bytes. Concatenating the
// result in order yields data.
func Chunks(data []byte, size int) [][]byte {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for len(data) > size {
		chunks = append(chunks, data[:size:size])
		data = data[size:]
	}
	if len(data) > 0 {
		chunks = append(chunks, data)
	}
	return chunks
}

// WriteInstructions returns the writeOffchainConfig calls that stage data on
// a proposal, one per chunk.
func WriteInstructions(proposal types.Address, data []byte, size int) []*ocr2.WriteOffchainConfig {
	chunks := Chunks(data, size)
	out := make([]*ocr2.WriteOffchainConfig, len(chunks))
	for i, c := range chunks {
		out[i] = &ocr2.WriteOffchainConfig{Proposal: proposal, Data: append([]byte(nil), c...)}
	}
	return out
}
