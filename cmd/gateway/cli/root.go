package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "JSON-RPC gateway for an Obsidian vault",
	Long: `gateway bridges AI assistants to an Obsidian vault through the
Obsidian Local REST API. It exposes vault notes as tools and resources over
a JSON-RPC 2.0 endpoint with SSE streaming for large results.

Set OBSIDIAN_API_KEY (and optionally OBSIDIAN_API_URL and
OBSIDIAN_VAULT_PATH) before starting the server.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger builds the process logger on stderr.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
