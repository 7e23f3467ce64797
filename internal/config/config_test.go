package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pricing.Rounding != "cent" {
		t.Errorf("rounding = %q, want cent", cfg.Pricing.Rounding)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.CollaboratorTimeout().Seconds() != 20 {
		t.Errorf("collaborator timeout = %s", cfg.Server.CollaboratorTimeout())
	}
	if cfg.Proposals.CompanyName == "" || filepath.Base(cfg.Proposals.OutputDir) != "proposals" {
		t.Errorf("proposal defaults = %+v", cfg.Proposals)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://quotes@localhost/roofquote")
	t.Setenv(EnvStorageBackend, "")

	path := filepath.Join(t.TempDir(), "roofquote.yaml")
	content := []byte(`
pricing:
  rounding: whole
  catalog_path: ./catalog.hcl
storage:
  backend: sqlite
  dsn: ./quotes.db
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pricing.Rounding != "whole" {
		t.Errorf("rounding = %q, want whole", cfg.Pricing.Rounding)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Storage.DSN != "postgres://quotes@localhost/roofquote" {
		t.Errorf("dsn = %q, env override not applied", cfg.Storage.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	// untouched sections keep defaults
	if cfg.Delivery.RetryCount != 3 {
		t.Errorf("retry count = %d, want 3", cfg.Delivery.RetryCount)
	}
}

func TestSaveRoundTripJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roofquote.json")
	cfg := Default()
	cfg.Delivery.Endpoint = "https://hooks.example.com/proposals"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Delivery.Endpoint != cfg.Delivery.Endpoint {
		t.Errorf("endpoint = %q, want %q", loaded.Delivery.Endpoint, cfg.Delivery.Endpoint)
	}
}
