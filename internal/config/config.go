// Package config loads the optional TOML configuration used by the
// command-line and MCP adapters.
//
// Example config.toml:
//
//	root = "/home/me/.local/share/pawn-vaults"
//	log_level = "info"
//
//	[generator]
//	min_length = 16
//	max_length = 24
//
//	[mcp]
//	audit = true
//
// The storage root is resolved in order from an explicit flag, the
// PAWNVAULT_ROOT environment variable, the config file, and finally
// os.UserConfigDir()/pawn-vaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/forest6511/pawnvault/pkg/password"
)

// Environment variables
const (
	EnvRoot      = "PAWNVAULT_ROOT"
	EnvConfig    = "PAWNVAULT_CONFIG"
	EnvMasterKey = "PAWNVAULT_MASTER_KEY"
)

// Default locations
const (
	DefaultRootDirName = "pawn-vaults"
	configDirName      = "pawnvault"
	configFileName     = "config.toml"
)

// Config is the adapter configuration.
type Config struct {
	Root      string          `toml:"root"`
	LogLevel  string          `toml:"log_level"`
	Generator GeneratorConfig `toml:"generator"`
	MCP       MCPConfig       `toml:"mcp"`
}

// GeneratorConfig bounds the length of generated secrets.
type GeneratorConfig struct {
	MinLength int `toml:"min_length"`
	MaxLength int `toml:"max_length"`
}

// MCPConfig controls the MCP server.
type MCPConfig struct {
	// Audit records every tool call under <root>/.audit.
	Audit bool `toml:"audit"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			MinLength: password.DefaultMinLength,
			MaxLength: password.DefaultMaxLength,
		},
		MCP: MCPConfig{Audit: true},
	}
}

// DefaultPath returns the config file path, honouring PAWNVAULT_CONFIG.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(cfg)
}

// Validate checks the generator bounds.
func (c *Config) Validate() error {
	_, err := password.NewGenerator(c.PasswordOptions())
	return err
}

// PasswordOptions returns generator options for entries added without a secret.
func (c *Config) PasswordOptions() password.Options {
	opts := password.DefaultOptions()
	if c.Generator.MinLength > 0 {
		opts.MinLength = c.Generator.MinLength
	}
	if c.Generator.MaxLength > 0 {
		opts.MaxLength = c.Generator.MaxLength
	}
	return opts
}

// ResolveRoot returns the storage root: flagValue, then PAWNVAULT_ROOT,
// then the configured root, then the per-user default.
func (c *Config) ResolveRoot(flagValue string) (string, error) {
	for _, candidate := range []string{flagValue, os.Getenv(EnvRoot), c.Root} {
		if candidate != "" {
			return expandHome(candidate)
		}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, DefaultRootDirName), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
