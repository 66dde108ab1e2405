package cli

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"obsidian-remote-mcp/internal/config"
	"obsidian-remote-mcp/internal/obsidian"
	"obsidian-remote-mcp/internal/resources"
	mcpserver "obsidian-remote-mcp/internal/server"
	"obsidian-remote-mcp/internal/tools"
	"obsidian-remote-mcp/internal/vault"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long: `Start the JSON-RPC gateway so AI assistants can interact with the
vault. Connects to the Obsidian Local REST API configured via
OBSIDIAN_API_URL and OBSIDIAN_API_KEY.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.FromEnv()
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			host, port, err := splitHostPort(addr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid --listen address: %v\n", err)
				os.Exit(1)
			}
			cfg.Host, cfg.Port = host, port
		}
		if prefix, _ := cmd.Flags().GetString("tool-prefix"); prefix != "" {
			cfg.ToolPrefix = prefix
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		logger := newLogger()
		client := obsidian.NewClient(cfg.APIURL, cfg.APIKey)
		svc := vault.NewService(client, cfg, logger)
		registry := tools.NewCatalog(svc, cfg)
		router := resources.NewRouter(svc)
		srv := mcpserver.New(registry, router, logger)

		if cfg.VaultPath != "" {
			watcher, err := vault.NewWatcher(cfg.VaultPath, svc.InvalidateCaches, logger)
			if err != nil {
				logger.Warn("vault watcher disabled", "error", err)
			} else {
				defer watcher.Close()
				logger.Info("watching vault for external changes", "path", cfg.VaultPath)
			}
		}

		fmt.Fprintf(os.Stderr, "Starting Obsidian MCP gateway...\n")
		fmt.Fprintf(os.Stderr, "Upstream: %s\n", cfg.APIURL)
		fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.Addr())

		httpSrv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 30 * time.Second,
		}
		if err := httpSrv.ListenAndServe(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Listen address (e.g., 127.0.0.1:8888); overrides MCP_HOST/MCP_PORT")
	serveCmd.Flags().String("tool-prefix", "", "Prefix applied to every obs_* tool name")
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("bad port in %q", addr)
	}
	return host, port, nil
}
