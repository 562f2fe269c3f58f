package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goOCR2/internal/config"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/di"
	"github.com/LeJamon/goOCR2/internal/rpc"
)

var (
	simulateTx      string
	simulateFile    string
	simulateNode    string
	simulateTimeout time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a transaction without committing it",
	Long: `Run a base64 msgpack transaction without committing it and print the
engine result, logs and return data. With --node the transaction is sent to a
running node's simulate method; otherwise it runs against the configured state
database, which must not be open by a running node.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		encoded := simulateTx
		if encoded == "" {
			raw, err := readInput(cmd, simulateFile)
			if err != nil {
				return err
			}
			encoded = strings.TrimSpace(string(raw))
		}

		var (
			result interface{}
			err    error
		)
		if simulateNode != "" {
			ctx, cancel := context.WithTimeout(commandContext(cmd), simulateTimeout)
			defer cancel()
			result, err = SimulateRemote(ctx, simulateNode, encoded)
		} else {
			result, err = SimulateLocal(loadedConfig, encoded)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateTx, "tx", "", "base64 transaction")
	simulateCmd.Flags().StringVarP(&simulateFile, "file", "f", "-", "file holding the base64 transaction, - for stdin")
	simulateCmd.Flags().StringVar(&simulateNode, "node", "", "JSON-RPC URL of a running node")
	simulateCmd.Flags().DurationVar(&simulateTimeout, "timeout", 10*time.Second, "request timeout with --node")
}

// SimulateLocal opens the state described by cfg and simulates encoded.
func SimulateLocal(cfg *config.Config, encoded string) (*rpc.Result, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("transaction is not valid base64: %w", err)
	}
	t, err := tx.DecodeTransaction(raw)
	if err != nil {
		return nil, err
	}

	container := di.New()
	defer container.Close()
	provider := di.NewProvider(container, cfg, nil)
	if err := provider.RegisterAll(); err != nil {
		return nil, err
	}
	engine, err := provider.GetEngine()
	if err != nil {
		return nil, err
	}
	res := rpc.NewResult(engine.Simulate(t))
	return &res, nil
}

// SimulateRemote calls the simulate method of the node at url and returns
// its result object.
func SimulateRemote(ctx context.Context, url, encoded string) (map[string]interface{}, error) {
	return callRemote(ctx, url, "simulate", rpc.TxParams{Tx: encoded})
}
