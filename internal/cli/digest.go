package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/types"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
	"github.com/LeJamon/goOCR2/internal/offchain"
)

var digestFile string

// DigestOracle is one oracle of a digest input file.
type DigestOracle struct {
	Signer      secp256k1.SignerAddress `json:"signer"`
	Transmitter types.Address           `json:"transmitter"`
	Payee       types.Address           `json:"payee"`
}

// DigestInput describes a proposed configuration. The off-chain config is
// given either as hex bytes or as a structured config that is encoded first.
type DigestInput struct {
	Oracles         []DigestOracle   `json:"oracles"`
	F               uint8            `json:"f"`
	TokenMint       types.Address    `json:"token_mint"`
	OffchainVersion uint64           `json:"offchain_version"`
	OffchainConfig  string           `json:"offchain_config,omitempty"`
	Offchain        *offchain.Config `json:"offchain,omitempty"`
}

// DigestOutput is printed by the digest command.
type DigestOutput struct {
	ConfigDigest      string `json:"config_digest"`
	OffchainConfigLen int    `json:"offchain_config_len"`
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Compute the config digest of a proposed configuration",
	Long: `Compute the digest an aggregator assigns to a configuration when a proposal
is accepted. Owners compare it with the digest of a finalized proposal before
calling acceptProposal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, digestFile)
		if err != nil {
			return err
		}
		var in DigestInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("parse digest input: %w", err)
		}
		out, err := ComputeDigest(&in)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.Flags().StringVarP(&digestFile, "file", "f", "-", "JSON input file, - for stdin")
}

// ComputeDigest hashes in with the aggregator's digest function.
func ComputeDigest(in *DigestInput) (*DigestOutput, error) {
	if len(in.Oracles) == 0 || len(in.Oracles) > ocr2.MaxOracles {
		return nil, fmt.Errorf("oracle count must be between 1 and %d, got %d", ocr2.MaxOracles, len(in.Oracles))
	}

	var offchainConfig []byte
	switch {
	case in.Offchain != nil && in.OffchainConfig != "":
		return nil, fmt.Errorf("set only one of offchain and offchain_config")
	case in.Offchain != nil:
		encoded, err := offchain.Encode(in.Offchain)
		if err != nil {
			return nil, err
		}
		offchainConfig = encoded
	default:
		decoded, err := hex.DecodeString(in.OffchainConfig)
		if err != nil {
			return nil, fmt.Errorf("offchain_config: %w", err)
		}
		offchainConfig = decoded
	}

	oracles := make([]ocr2.DigestOracle, len(in.Oracles))
	for i, o := range in.Oracles {
		oracles[i] = ocr2.DigestOracle{Signer: o.Signer, Transmitter: o.Transmitter, Payee: o.Payee}
	}
	digest := ocr2.ConfigDigest(oracles, in.F, in.TokenMint, in.OffchainVersion, offchainConfig)
	return &DigestOutput{
		ConfigDigest:      hex.EncodeToString(digest[:]),
		OffchainConfigLen: len(offchainConfig),
	}, nil
}

// readInput reads path, or the command's input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
