package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Load builds the configuration. explicitPath forces a config file; empty
// looks for datavault.yaml/datavault.yml in the working directory. flags
// may be nil.
func Load(explicitPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Defaults.
	if err := k.Load(confmap.Provider(map[string]any{
		"vault_file": "vault.yaml",
		"dialect":    "fabric",
		"state_path": ".datavault/state.db",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Config file.
	path := findConfigFile(explicitPath)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	} else if explicitPath != "" {
		return nil, fmt.Errorf("config file %s not found", explicitPath)
	}

	// Environment: double underscore nests, e.g. DATAVAULT_TARGET__TYPE
	// -> target.type, DATAVAULT_VAULT_FILE -> vault_file.
	if err := k.Load(env.Provider("DATAVAULT_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "DATAVAULT_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Flags override everything. Flag names use dashes; config keys use
	// underscores.
	if flags != nil {
		p := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// findConfigFile resolves the config file path. Priority: explicit path,
// then datavault.yaml, then datavault.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to find a directory containing a
// datavault config file. Returns empty when not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
