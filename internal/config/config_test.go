package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Flags{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeLocal {
		t.Errorf("mode = %q, want local default", cfg.Mode)
	}
	if cfg.Window != 2 {
		t.Errorf("window = %d, want 2", cfg.Window)
	}
	if cfg.ListenAddr != ":8765" {
		t.Errorf("listen = %q", cfg.ListenAddr)
	}
}

func TestPrecedenceFlagOverEnvOverFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := "mode: local\ndatabase_path: /from/file.db\nimpact_window: 5\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OALEX_DB", "/from/env.db")

	// Env beats file.
	cfg, err := Load(Flags{ConfigPath: file})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabasePath != "/from/env.db" {
		t.Errorf("database = %q, want env to beat file", cfg.DatabasePath)
	}
	if cfg.Window != 5 {
		t.Errorf("window = %d, want file value when no flag", cfg.Window)
	}

	// Flag beats env.
	cfg, err = Load(Flags{ConfigPath: file, DatabasePath: "/from/flag.db", Window: 2})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabasePath != "/from/flag.db" {
		t.Errorf("database = %q, want flag to beat env", cfg.DatabasePath)
	}
	if cfg.Window != 2 {
		t.Errorf("window = %d, want flag value", cfg.Window)
	}
}

func TestExplicitConfigMustExist(t *testing.T) {
	if _, err := Load(Flags{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestRemoteModeRequiresURL(t *testing.T) {
	if _, err := Load(Flags{Mode: ModeRemote}); err == nil {
		t.Error("expected error for remote mode without URL")
	}
	cfg, err := Load(Flags{Mode: ModeRemote, RemoteURL: "http://corpus:8765"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RemoteURL != "http://corpus:8765" {
		t.Errorf("remote url = %q", cfg.RemoteURL)
	}
}

func TestInvalidMode(t *testing.T) {
	if _, err := Load(Flags{Mode: "both"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestResolveDatabase(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "corpus.db")
	if err := os.WriteFile(existing, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{DatabasePath: existing}
	path, err := cfg.ResolveDatabase(true)
	if err != nil || path != existing {
		t.Errorf("got %q, %v", path, err)
	}

	cfg = &Config{DatabasePath: filepath.Join(dir, "missing.db")}
	if _, err := cfg.ResolveDatabase(true); err == nil {
		t.Error("expected error when reader needs a missing database")
	}
	// A builder may create it.
	path, err = cfg.ResolveDatabase(false)
	if err != nil || path == "" {
		t.Errorf("builder resolve: %q, %v", path, err)
	}
}
