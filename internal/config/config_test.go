package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/voterpower-map/internal/config"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("MAP_CONFIG", "")
	t.Setenv("MAP_SOURCE", "")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Source != config.SourceFiles || cfg.Port != "5050" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.CacheEnabled() {
		t.Error("cache should be off without REDIS_ADDR")
	}
}

func TestLoadFromEnv_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.yaml")
	yml := `port: "6060"
results_url: https://example.org/results.json
strict_unique: true
fetch_retries: 5
allowed_origins:
  - https://a.example
  - https://b.example
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAP_CONFIG", path)
	t.Setenv("PORT", "7070")
	t.Setenv("FETCH_RETRIES", "")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("env should override file, got port %q", cfg.Port)
	}
	if cfg.ResultsURL != "https://example.org/results.json" || !cfg.StrictUnique || cfg.FetchRetries != 5 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.StateSummaryURL != "data/state_summary.csv" {
		t.Errorf("unset file keys should keep defaults, got %q", cfg.StateSummaryURL)
	}
}

func TestLoadFromEnv_BadValue(t *testing.T) {
	t.Setenv("MAP_CONFIG", "")
	t.Setenv("FETCH_RETRIES", "lots")

	_, err := config.LoadFromEnv()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Defaults()
	cfg.Source = config.SourceDatabase
	if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("db source without DATABASE_URL should fail, got %v", err)
	}
	cfg.DatabaseURL = "postgres://localhost/map"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = config.Defaults()
	cfg.Source = "s3"
	if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("unknown source should fail, got %v", err)
	}
}
