// Package config loads and saves the packsim configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/boosterlab/packsim/internal/pack"
)

// Config represents the application configuration.
type Config struct {
	// Catalog source configuration
	Catalog CatalogConfig `toml:"catalog"`

	// Pack template configuration
	Packs PacksConfig `toml:"packs"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// CatalogConfig selects where the card catalog is loaded from.
type CatalogConfig struct {
	Source string `toml:"source"` // File path or http(s) URL to the catalog JSON
	Watch  bool   `toml:"watch"`  // Reload a file-backed catalog on change
}

// PacksConfig selects the pack template used when opening packs.
type PacksConfig struct {
	Template    string      `toml:"template"`     // Built-in template name ("classic", "modern")
	UniquePulls *bool       `toml:"unique_pulls"` // Override the template's uniqueness policy
	Seed        int64       `toml:"seed"`         // Random seed (0 = time-seeded)
	Custom      []pack.Slot `toml:"custom"`       // Custom slot list; overrides Template when set
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"` // Path to the SQLite database
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source: "",
			Watch:  false,
		},
		Packs: PacksConfig{
			Template: "modern",
			Seed:     0,
		},
		Storage: StorageConfig{
			DBPath: "",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".packsim")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultDBPath returns the default database location under ~/.packsim.
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".packsim", "packsim.db"), nil
}

// Load loads the configuration from disk. Returns default config if the
// file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	return LoadFile(path)
}

// LoadFile loads the configuration from an explicit path. Unlike Load, a
// missing file is an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML configuration document over the defaults.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Template resolves the configured pack template: the custom slot list when
// present, otherwise the named built-in, with the uniqueness override
// applied on top.
func (c *Config) Template() (pack.Template, error) {
	var tmpl pack.Template
	if len(c.Packs.Custom) > 0 {
		tmpl = pack.Template{Name: "custom", Slots: c.Packs.Custom}
	} else {
		var err error
		tmpl, err = pack.Lookup(c.Packs.Template)
		if err != nil {
			return pack.Template{}, err
		}
	}
	if c.Packs.UniquePulls != nil {
		tmpl.UniquePulls = *c.Packs.UniquePulls
	}
	if err := tmpl.Validate(); err != nil {
		return pack.Template{}, err
	}
	return tmpl, nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := c.Template(); err != nil {
		return fmt.Errorf("invalid pack configuration: %w", err)
	}
	return nil
}
