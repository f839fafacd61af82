// Package config resolves where the corpus lives and how to reach it.
//
// Precedence, highest first: explicit flag, OALEX_* environment variable,
// config file entry, discovered default path. Resolution happens once at
// startup; nothing re-reads the environment afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Mode selects the client implementation.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config is the resolved runtime configuration.
type Config struct {
	Mode         string `yaml:"mode"`
	DatabasePath string `yaml:"database_path"`
	RemoteURL    string `yaml:"remote_url"`
	SnapshotDir  string `yaml:"snapshot_dir"`
	Window       int    `yaml:"impact_window"`
	ListenAddr   string `yaml:"listen_addr"`
}

// Flags carries the explicit command-line overrides into Load.
type Flags struct {
	ConfigPath   string
	Mode         string
	DatabasePath string
	RemoteURL    string
	SnapshotDir  string
	Window       int
}

// defaultPaths are probed, in order, for an existing corpus database when
// nothing explicit names one.
func defaultPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"oalex.db"}
	}
	return []string{
		filepath.Join(home, ".oalex", "oalex.db"),
		filepath.Join(home, "data", "openalex", "oalex.db"),
		"oalex.db",
	}
}

// defaultConfigPath is where Load looks for a config file when --config is
// not given.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".oalex", "config.yaml")
}

// Load resolves the configuration. A .env in the working directory is folded
// into the environment first (never overriding real env vars), then each
// field takes the first value present in flag, env, file, default order.
func Load(flags Flags) (*Config, error) {
	godotenv.Load()

	var file Config
	path := flags.ConfigPath
	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case flags.ConfigPath != "":
			// An explicitly named config must exist.
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Mode:         pick(flags.Mode, os.Getenv("OALEX_MODE"), file.Mode, ModeLocal),
		DatabasePath: pick(flags.DatabasePath, os.Getenv("OALEX_DB"), file.DatabasePath, ""),
		RemoteURL:    pick(flags.RemoteURL, os.Getenv("OALEX_REMOTE_URL"), file.RemoteURL, ""),
		SnapshotDir:  pick(flags.SnapshotDir, os.Getenv("OALEX_SNAPSHOT_DIR"), file.SnapshotDir, ""),
		ListenAddr:   pick("", os.Getenv("OALEX_LISTEN_ADDR"), file.ListenAddr, ":8765"),
		Window:       2,
	}
	if flags.Window != 0 {
		cfg.Window = flags.Window
	} else if file.Window != 0 {
		cfg.Window = file.Window
	}

	switch cfg.Mode {
	case ModeLocal, ModeRemote:
	default:
		return nil, fmt.Errorf("invalid mode %q (want %s or %s)", cfg.Mode, ModeLocal, ModeRemote)
	}

	if cfg.Mode == ModeRemote && cfg.RemoteURL == "" {
		return nil, fmt.Errorf("mode is remote but no remote URL configured (set OALEX_REMOTE_URL)")
	}
	return cfg, nil
}

// ResolveDatabase returns the database path, probing the default locations
// when none was configured. mustExist distinguishes readers (which need a
// built corpus) from builders (which may create one).
func (c *Config) ResolveDatabase(mustExist bool) (string, error) {
	if c.DatabasePath != "" {
		if mustExist {
			if _, err := os.Stat(c.DatabasePath); err != nil {
				return "", fmt.Errorf("corpus database not found at %s: %w", c.DatabasePath, err)
			}
		}
		return c.DatabasePath, nil
	}

	for _, p := range defaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if !mustExist {
		return defaultPaths()[0], nil
	}
	return "", fmt.Errorf("no corpus database found; set --db or OALEX_DB")
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
