package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/harrison/hexpipe/internal/paths"
)

// WorkingDataFolderKey is the key of the working data root.
const WorkingDataFolderKey = "working_data_folder"

// ErrMissingKey is returned by Require when a key is absent from the file.
var ErrMissingKey = errors.New("missing configuration key")

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run into the history database
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// DBPath is the path to the history database (default <root>/.hexpipe/history.db)
	DBPath string `yaml:"db_path" toml:"db_path"`
}

// Config is the key→path store read once at startup.
type Config struct {
	// WorkingDataFolder is the root of the shared data tree
	WorkingDataFolder string

	// LogLevel sets the console verbosity (trace, debug, info, warn, error)
	LogLevel string

	// History contains run history configuration
	History HistoryConfig

	// Tools maps tool keys (genomesh, salome, ...) to their locations
	Tools map[string]string

	// Path is the file the configuration was loaded from, "" for defaults
	Path string
}

// fileConfig mirrors the on-disk layout shared by paths.yaml and paths.toml.
type fileConfig struct {
	WorkingDataFolder string            `yaml:"working_data_folder" toml:"working_data_folder"`
	LogLevel          string            `yaml:"log_level" toml:"log_level"`
	History           fileHistory       `yaml:"history" toml:"history"`
	Tools             map[string]string `yaml:"tools" toml:"tools"`
}

type fileHistory struct {
	Enabled *bool  `yaml:"enabled" toml:"enabled"`
	DBPath  string `yaml:"db_path" toml:"db_path"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		History: HistoryConfig{
			Enabled: true,
		},
		Tools: make(map[string]string),
	}
}

// Load reads a paths.yaml or paths.toml file (chosen by extension).
// Path values are expanded ("~"), resolved against the directory of the file
// when relative, and normalized.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown key %q in config file %s", undecoded[0].String(), path)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format %q (use .yaml or .toml)", filepath.Ext(path))
	}

	cfg := DefaultConfig()
	cfg.Path = paths.Normalize(path)
	base := filepath.Dir(cfg.Path)

	if raw.WorkingDataFolder != "" {
		cfg.WorkingDataFolder = resolvePath(base, raw.WorkingDataFolder)
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	if raw.History.Enabled != nil {
		cfg.History.Enabled = *raw.History.Enabled
	}
	if raw.History.DBPath != "" {
		cfg.History.DBPath = resolvePath(base, raw.History.DBPath)
	}
	for key, value := range raw.Tools {
		if strings.TrimSpace(value) == "" {
			cfg.Tools[key] = ""
			continue
		}
		cfg.Tools[key] = resolvePath(base, value)
	}

	return cfg, nil
}

// resolvePath expands "~" and anchors relative values at base.
func resolvePath(base, value string) string {
	value = paths.ExpandHome(strings.TrimSpace(value))
	if !filepath.IsAbs(value) {
		value = filepath.Join(base, value)
	}
	return paths.Normalize(value)
}

// Require returns the location stored under key: working_data_folder or a
// tool key. A missing key is an ErrMissingKey error naming the file.
func (c *Config) Require(key string) (string, error) {
	var value string
	if key == WorkingDataFolderKey {
		value = c.WorkingDataFolder
	} else {
		value = c.Tools[key]
	}
	if value == "" {
		source := c.Path
		if source == "" {
			source = "the default configuration"
		}
		return "", fmt.Errorf("%w %q in %s", ErrMissingKey, key, source)
	}
	return value, nil
}

// RequireAll resolves every key, failing on the first missing one. Keys are
// checked in sorted order so the error is deterministic.
func (c *Config) RequireAll(keys ...string) (map[string]string, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	out := make(map[string]string, len(keys))
	for _, key := range sorted {
		value, err := c.Require(key)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// RequireDir is Require for keys whose location must be an existing directory.
func (c *Config) RequireDir(key string) (string, error) {
	value, err := c.Require(key)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(value)
	if err != nil {
		return "", fmt.Errorf("%s (%s): %w", key, value, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s (%s) is not a directory", key, value)
	}
	return value, nil
}

// WorkingDataRoot returns the working data folder, which must exist.
func (c *Config) WorkingDataRoot() (string, error) {
	return c.RequireDir(WorkingDataFolderKey)
}

// HistoryDBPath returns the configured database path or the default one
// under the working data root.
func (c *Config) HistoryDBPath() string {
	if c.History.DBPath != "" {
		return c.History.DBPath
	}
	return filepath.Join(c.WorkingDataFolder, ".hexpipe", "history.db")
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, historyEnabled *bool) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.WorkingDataFolder == "" {
		_, err := c.Require(WorkingDataFolderKey)
		return err
	}

	for key, value := range c.Tools {
		if value == "" {
			return fmt.Errorf("tools.%s cannot be empty", key)
		}
	}

	return nil
}
