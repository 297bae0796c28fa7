package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfig names the environment variable pointing at a configuration file.
const EnvConfig = "HEXPIPE_CONFIG"

// FileNames are the configuration file names searched for, in order.
var FileNames = []string{"paths.yaml", "paths.yml", "paths.toml"}

// ErrConfigNotFound is returned by Locate when no configuration file exists.
var ErrConfigNotFound = errors.New("no configuration file found")

// Locate returns the configuration file to load.
// Priority order:
//  1. explicit path (the --config flag), if non-empty
//  2. HEXPIPE_CONFIG environment variable, if set
//  3. the first paths.yaml / paths.yml / paths.toml found walking up from the
//     current working directory
func Locate(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return FindUpwards(cwd)
}

// FindUpwards looks for a configuration file in dir and each of its parents.
func FindUpwards(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(current, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return "", fmt.Errorf("%w (looked for %v from %s upwards; set --config or %s)", ErrConfigNotFound, FileNames, dir, EnvConfig)
}

// LoadDefault locates and loads the configuration file.
func LoadDefault(explicit string) (*Config, error) {
	path, err := Locate(explicit)
	if err != nil {
		return nil, err
	}
	return Load(path)
}
