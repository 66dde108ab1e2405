package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"obsidian-remote-mcp/internal/config"
	"obsidian-remote-mcp/internal/obsidian"
	"obsidian-remote-mcp/internal/vault"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the Obsidian API and the vault",
	Long: `Probe the Obsidian Local REST API with the configured credentials and,
when a local vault path is set, verify it is readable.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.FromEnv()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		logger := newLogger()
		client := obsidian.NewClient(cfg.APIURL, cfg.APIKey)
		svc := vault.NewService(client, cfg, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		fmt.Println("Running gateway health checks...")
		fmt.Printf("Upstream: %s\n\n", cfg.APIURL)

		hasIssues := false

		fmt.Println("--- Obsidian API ---")
		if err := client.Health(ctx); err != nil {
			fmt.Printf("Unreachable: %v\n", err)
			hasIssues = true
		} else {
			fmt.Println("Reachable and authenticated")
		}

		if cfg.VaultPath != "" {
			fmt.Println("\n--- Local vault ---")
			notes, err := svc.ListNotes(ctx, "", false)
			if err != nil {
				fmt.Printf("Scan failed: %v\n", err)
				hasIssues = true
			} else {
				fmt.Printf("Found %d notes under %s\n", len(notes), cfg.VaultPath)
			}
		}

		failOnIssues, _ := cmd.Flags().GetBool("fail")
		if failOnIssues && hasIssues {
			fmt.Println("\nDoctor found issues. Exiting with failure code.")
			os.Exit(1)
		} else if hasIssues {
			fmt.Println("\nDoctor found issues. Use --fail to exit with an error code.")
		} else {
			fmt.Println("\nGateway looks healthy!")
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().Bool("fail", false, "Exit with non-zero status if issues are found")
}
