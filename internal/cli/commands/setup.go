// Package commands implements the datavault CLI commands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/config"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/engine"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/adapter"

	// Register execution adapters.
	_ "github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/adapters/duckdb"
	_ "github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/adapters/postgres"
)

// loadConfig resolves the project configuration for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.Load(explicit, cmd.Root().PersistentFlags())
}

// newLogger builds the CLI logger. Verbose enables debug output; otherwise
// only warnings and errors reach the terminal.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newEngine builds an engine from the configuration and imports the vault
// definition file when it exists. withState opens the run-history store;
// read-only commands pass false to avoid creating state directories.
func newEngine(cfg *config.Config, withState bool) (*engine.Engine, error) {
	var adapterCfg *adapter.Config
	if cfg.Target != nil {
		if err := cfg.Target.Validate(); err != nil {
			return nil, err
		}
		ac := cfg.Target.ToAdapterConfig()
		adapterCfg = &ac
	}

	statePath := ""
	if withState {
		statePath = cfg.StatePath
		if dir := filepath.Dir(statePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	eng, err := engine.New(engine.Config{
		Dialect:           cfg.Dialect,
		AdapterConfig:     adapterCfg,
		StatePath:         statePath,
		DefaultLoadColumn: cfg.DefaultLoadColumn,
		Logger:            newLogger(cfg.Verbose),
	})
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.VaultFile); err == nil {
		if err := eng.FromConfig(cfg.VaultFile); err != nil {
			_ = eng.Close()
			return nil, err
		}
	}
	return eng, nil
}
