package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goOCR2/internal/config"
	"github.com/LeJamon/goOCR2/internal/log"
	"github.com/LeJamon/goOCR2/internal/node"
)

var (
	// Server flags
	httpAddr string
	wsAddr   string
	grpcAddr string
	backend  string
	dataPath string
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the ocr2d node",
	Long: `Start the ocr2d node which provides:
- HTTP JSON-RPC API endpoints
- WebSocket server for transmission subscriptions
- gRPC feed service
- Health check endpoint

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = runServer

	serverCmd.Flags().StringVar(&httpAddr, "http", "", "JSON-RPC listen address (overrides server.http_addr)")
	serverCmd.Flags().StringVar(&wsAddr, "ws", "", "WebSocket listen address (overrides server.ws_addr)")
	serverCmd.Flags().StringVar(&grpcAddr, "grpc", "", "gRPC listen address (overrides server.grpc_addr)")
	serverCmd.Flags().StringVar(&backend, "backend", "", "state backend: memory, pebble, bbolt or leveldb")
	serverCmd.Flags().StringVar(&dataPath, "path", "", "state database directory")
}

// applyServerFlags copies the flags that were set onto cfg. Commands without
// these flags leave cfg unchanged.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("http") {
		cfg.Server.HTTPAddr = httpAddr
	}
	if flags.Changed("ws") {
		cfg.Server.WSAddr = wsAddr
	}
	if flags.Changed("grpc") {
		cfg.Server.GRPCAddr = grpcAddr
	}
	if flags.Changed("backend") {
		cfg.Database.Backend = backend
	}
	if flags.Changed("path") {
		cfg.Database.Path = dataPath
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig
	applyServerFlags(cmd, cfg)

	n, err := node.New(cfg, nil)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := n.Listen(); err != nil {
		return err
	}

	if !quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting ocr2d - OCR2 price feed node")
		fmt.Fprintln(out, "=====================================")
		fmt.Fprintln(out, "Server Configuration:")
		if addr := n.Addr(node.ListenerHTTP); addr != "" {
			fmt.Fprintf(out, "  - HTTP JSON-RPC: http://%s/\n", addr)
			fmt.Fprintf(out, "  - WebSocket:     ws://%s/ws\n", addr)
			fmt.Fprintf(out, "  - Health Check:  http://%s/health\n", addr)
		}
		if addr := n.Addr(node.ListenerWS); addr != "" {
			fmt.Fprintf(out, "  - WebSocket:     ws://%s/\n", addr)
		}
		if addr := n.Addr(node.ListenerGRPC); addr != "" {
			fmt.Fprintf(out, "  - gRPC:          %s\n", addr)
		}
		fmt.Fprintf(out, "  - State backend: %s\n", cfg.Database.Backend)
		fmt.Fprintln(out)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := n.Run(ctx); err != nil {
		return err
	}
	log.Logger.Info().Msg("ocr2d stopped")
	return nil
}

// commandContext returns the command context or a background context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
