package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings, resolved once at startup and threaded
// into the components that need them.
type Config struct {
	// DataDir is the base directory under which every project store lives.
	DataDir string `env:"GRAPHMEM_DATA_DIR"`
	// Transport selects how the MCP server is exposed: stdio or http.
	Transport string `env:"GRAPHMEM_TRANSPORT" envDefault:"stdio"`
	// Port is the listen port for the http transport.
	Port string `env:"GRAPHMEM_PORT" envDefault:"8081"`
}

// Load reads configuration from the environment. When no data directory is
// configured it defaults to ~/.graphmem.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".graphmem")
	}
	return cfg, nil
}
