// Package config loads project configuration for the datavault CLI.
// Precedence, lowest to highest: built-in defaults, datavault.yaml,
// DATAVAULT_* environment variables, command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/adapter"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/dialect"
)

// ConfigFileName is the default config file name.
const ConfigFileName = "datavault.yaml"

// ConfigFileNameAlt is the alternate config file name.
const ConfigFileNameAlt = "datavault.yml"

// TargetConfig holds warehouse target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres

	// File-based databases.
	Path string `koanf:"path"`

	// Network databases.
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	Schema string `koanf:"schema"`

	Options map[string]string `koanf:"options"`
}

// Validate checks the target against the adapter registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.List()}
	}
	return nil
}

// ToAdapterConfig converts the target into an adapter configuration.
func (t *TargetConfig) ToAdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     strings.ToLower(t.Type),
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Database: t.Database,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// Config is the full project configuration.
type Config struct {
	// VaultFile is the vault interchange document the CLI operates on.
	VaultFile string `koanf:"vault_file"`

	// Dialect names the SQL dialect for dry-run generation. Execution
	// uses the target adapter's dialect.
	Dialect string `koanf:"dialect"`

	// StatePath is the run-history SQLite database.
	StatePath string `koanf:"state_path"`

	// DefaultLoadColumn overrides the graph-level ingestion-timestamp
	// column for imported graphs that don't set one.
	DefaultLoadColumn string `koanf:"default_load_column"`

	Target *TargetConfig `koanf:"target"`

	Verbose bool `koanf:"verbose"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.VaultFile == "" {
		c.VaultFile = "vault.yaml"
	}
	if c.Dialect == "" {
		c.Dialect = "fabric"
	}
	if c.StatePath == "" {
		c.StatePath = ".datavault/state.db"
	}
	if c.Target != nil && c.Target.Schema == "" {
		if d, ok := dialect.Get(strings.ToLower(c.Target.Type)); ok {
			c.Target.Schema = d.DefaultSchema
		}
	}
}
