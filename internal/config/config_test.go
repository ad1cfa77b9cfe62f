package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Fetch.ParseCooldown() != time.Hour {
		t.Fatalf("expected 1h cooldown, got %s", cfg.Fetch.ParseCooldown())
	}
	if cfg.Fetch.ParseAutoInterval() != 5*time.Minute {
		t.Fatalf("expected 5m interval, got %s", cfg.Fetch.ParseAutoInterval())
	}
	if cfg.Fetch.PageLimit != 100 {
		t.Fatalf("expected page limit 100, got %d", cfg.Fetch.PageLimit)
	}
	if cfg.Trending.MinEngagement != 1000 {
		t.Fatalf("expected min engagement 1000, got %d", cfg.Trending.MinEngagement)
	}
}

func TestParseCooldownFallsBackOnGarbage(t *testing.T) {
	f := FetchConfig{Cooldown: "not a duration", AutoInterval: ""}
	if f.ParseCooldown() != time.Hour {
		t.Fatalf("expected fallback to 1h, got %s", f.ParseCooldown())
	}
	if f.ParseAutoInterval() != 5*time.Minute {
		t.Fatalf("expected fallback to 5m, got %s", f.ParseAutoInterval())
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
database:
  path: /data/custom.db
fetch:
  cooldown: 2h
alerts:
  viral_min_engagement: 5000
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("TWEETWATCH_DB_PATH", "/data/env.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Fetch.ParseCooldown() != 2*time.Hour {
		t.Fatalf("expected file cooldown 2h, got %s", cfg.Fetch.ParseCooldown())
	}
	if cfg.Alerts.ViralMinEngagement != 5000 {
		t.Fatalf("expected viral threshold 5000, got %d", cfg.Alerts.ViralMinEngagement)
	}
	// Env wins over file.
	if cfg.Database.Path != "/data/env.db" {
		t.Fatalf("expected env override for db path, got %q", cfg.Database.Path)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected env api key, got %q", cfg.LLM.APIKey)
	}
	// Untouched values keep defaults.
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
