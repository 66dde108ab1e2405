package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for tunables that rarely need changing.
const (
	DefaultAPIURL        = "http://localhost:27123"
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8888
	DefaultStructureTTL  = 300 * time.Second
	DefaultNotesTTL      = 180 * time.Second
	DefaultBatchSize     = 15
	DefaultSnippetRadius = 80
)

// Config holds everything the gateway needs at runtime. The API key is kept
// in memory only; it must never be logged or written to disk.
type Config struct {
	// Upstream Obsidian Local REST API.
	APIURL string
	APIKey string

	// Local filesystem root of the vault, used for discovery scans and the
	// change watcher. Optional; discovery degrades to upstream listing only.
	VaultPath string

	// HTTP listen address for the JSON-RPC endpoint.
	Host string
	Port int

	// Optional prefix prepended to every obs_* tool name.
	ToolPrefix string

	StructureTTL  time.Duration
	NotesTTL      time.Duration
	BatchSize     int
	SnippetRadius int
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything unset.
func FromEnv() *Config {
	return &Config{
		APIURL:        envOr("OBSIDIAN_API_URL", DefaultAPIURL),
		APIKey:        os.Getenv("OBSIDIAN_API_KEY"),
		VaultPath:     os.Getenv("OBSIDIAN_VAULT_PATH"),
		Host:          envOr("MCP_HOST", DefaultHost),
		Port:          envInt("MCP_PORT", DefaultPort),
		ToolPrefix:    os.Getenv("MCP_TOOL_PREFIX"),
		StructureTTL:  DefaultStructureTTL,
		NotesTTL:      DefaultNotesTTL,
		BatchSize:     DefaultBatchSize,
		SnippetRadius: DefaultSnippetRadius,
	}
}

// Validate checks that the config is usable for serving.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing Obsidian API key: set OBSIDIAN_API_KEY")
	}
	if c.APIURL == "" {
		return fmt.Errorf("missing Obsidian API URL")
	}
	if c.VaultPath != "" {
		if _, err := os.Stat(c.VaultPath); err != nil {
			return fmt.Errorf("vault path not accessible: %v", err)
		}
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
