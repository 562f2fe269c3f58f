package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goOCR2/internal/config"
	"github.com/LeJamon/goOCR2/internal/log"
	"github.com/LeJamon/goOCR2/internal/node"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool

	// loadedConfig is filled before any subcommand runs
	loadedConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ocr2d",
	Short: "ocr2d - OCR2 price feed ledger node",
	Long: `ocr2d runs a single-node ledger hosting OCR2 aggregators and their
price feeds. Oracle transmissions, configuration proposals and feed reads are
served over JSON-RPC, WebSocket and gRPC.`,
	Version:           node.Version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// initConfig loads the configuration file and environment, then applies the
// logging flags on top of the configured level.
func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	loadedConfig = cfg

	level, err := logLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(cmd.ErrOrStderr(), cfg.LogFormat == "json")
	return nil
}

func logLevel(configured string) (zerolog.Level, error) {
	switch {
	case debug:
		return zerolog.TraceLevel, nil
	case verbose:
		return zerolog.DebugLevel, nil
	case quiet:
		return zerolog.WarnLevel, nil
	}
	return log.ParseLevel(configured)
}

// printJSON writes v indented to w.
func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
