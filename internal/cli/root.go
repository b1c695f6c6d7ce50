// Package cli implements the despesify command-line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"despesify/internal/config"
	"despesify/internal/logger"
)

var version = "1.0.0"

const (
	defaultCLILogLevel = "warn"
	logLevelEnv        = "DESPESIFY_LOG_LEVEL"
)

type state struct {
	cfg *config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "despesify",
		Short: "Extract expense data from Portuguese receipts and invoice QR codes",
		Long: `despesify turns receipt text, scanned receipts and AT invoice QR codes
into expense drafts, and resolves NIFs to company names through the
local cache and the configured lookup providers.

Configuration is read from DESPESIFY_* environment variables and an
optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			level := cliLogLevel(cmd, cfg)
			if err := logger.Setup(logger.Config{Level: level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()}); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			st.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().String("log-level", defaultCLILogLevel, "Log level (trace, debug, info, warn, error); overrides "+logLevelEnv)

	root.AddCommand(newExtractCommand(st), newQRCommand(st), newNIFCommand(st), newTokenCommand(st))
	return root
}

// cliLogLevel keeps the CLI quiet unless asked otherwise. An explicit
// --log-level wins over DESPESIFY_LOG_LEVEL, which wins over warn.
func cliLogLevel(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		return level
	}
	if _, ok := os.LookupEnv(logLevelEnv); ok {
		return cfg.Log.Level
	}
	return defaultCLILogLevel
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		l := logger.WithComponent("cmd")
		l.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// readInput returns the named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
