package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/offchain"
)

var (
	chunkFile     string
	chunkProposal string
	chunkSize     int
	chunkRaw      bool
)

// ChunkOutput lists the writeOffchainConfig instructions staging one config.
type ChunkOutput struct {
	Proposal     types.Address    `json:"proposal"`
	Length       int              `json:"length"`
	Instructions []tx.Instruction `json:"instructions"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Off-chain configuration helpers",
}

var configChunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split an off-chain config into writeOffchainConfig instructions",
	Long: `Encode an off-chain config and split it into writeOffchainConfig
instructions for a proposal. The input is a JSON off-chain config, or raw
bytes with --raw. Submit the instructions in order; the proposal concatenates
them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proposal, err := types.ParseAddress(chunkProposal)
		if err != nil {
			return fmt.Errorf("--proposal: %w", err)
		}
		raw, err := readInput(cmd, chunkFile)
		if err != nil {
			return err
		}
		out, err := ChunkConfig(proposal, raw, chunkRaw, chunkSize)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configChunkCmd)

	configChunkCmd.Flags().StringVarP(&chunkFile, "file", "f", "-", "input file, - for stdin")
	configChunkCmd.Flags().StringVar(&chunkProposal, "proposal", "", "proposal account address")
	configChunkCmd.Flags().IntVar(&chunkSize, "size", offchain.DefaultChunkSize, "maximum bytes per instruction")
	configChunkCmd.Flags().BoolVar(&chunkRaw, "raw", false, "treat the input as already encoded bytes")
	configChunkCmd.MarkFlagRequired("proposal")
}

// ChunkConfig encodes input unless raw is set and returns the instructions
// writing it to proposal.
func ChunkConfig(proposal types.Address, input []byte, raw bool, size int) (*ChunkOutput, error) {
	data := input
	if !raw {
		var c offchain.Config
		if err := json.Unmarshal(input, &c); err != nil {
			return nil, fmt.Errorf("parse offchain config: %w", err)
		}
		encoded, err := offchain.Encode(&c)
		if err != nil {
			return nil, err
		}
		data = encoded
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("offchain config is empty")
	}
	if len(data) > ocr2.MaxOffchainConfigLen {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", offchain.ErrTooLarge, len(data), ocr2.MaxOffchainConfigLen)
	}

	writes := offchain.WriteInstructions(proposal, data, size)
	out := &ChunkOutput{Proposal: proposal, Length: len(data), Instructions: make([]tx.Instruction, len(writes))}
	for i, w := range writes {
		ins, err := tx.EncodeInstruction(w)
		if err != nil {
			return nil, err
		}
		out.Instructions[i] = ins
	}
	return out, nil
}
