package config

import (
	"os"
	"path/filepath"
)

// FileName is the configuration file name searched for.
const FileName = "tgpost.yaml"

// ResolvePath searches for a config file in standard locations and
// returns "" when none exists.
// Search order: $XDG_CONFIG_HOME/tgpost/tgpost.yaml → ~/.config/tgpost/tgpost.yaml → ./tgpost.yaml
func ResolvePath() string {
	for _, path := range Candidates() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Candidates lists the config paths ResolvePath checks, in order.
func Candidates() []string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "tgpost", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "tgpost", FileName))
	}

	return append(candidates, FileName)
}

// DefaultDataDir returns $XDG_DATA_HOME/tgpost or ~/.config/tgpost/data.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "tgpost")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tgpost", "data")
}

// SecretsPath is the secrets database inside DataDir.
func (c *Config) SecretsPath() string {
	return filepath.Join(c.DataDir, "secrets.db")
}
