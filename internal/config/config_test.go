package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
reports:
  merge_radius_m: 25
  nearby_radius_m: 500
reaper:
  interval: 30m
  removed_retention: 96h
limits:
  submit_per_minute: 12
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Reports.MergeRadiusMeters != 25 {
		t.Fatalf("unexpected merge radius: %v", cfg.Reports.MergeRadiusMeters)
	}
	if cfg.Reports.NearbyRadiusMeters != 500 {
		t.Fatalf("unexpected nearby radius: %v", cfg.Reports.NearbyRadiusMeters)
	}
	if cfg.Reaper.Interval != 30*time.Minute {
		t.Fatalf("unexpected reaper interval: %v", cfg.Reaper.Interval)
	}
	if cfg.Reaper.RemovedRetention != 96*time.Hour {
		t.Fatalf("unexpected removed retention: %v", cfg.Reaper.RemovedRetention)
	}
	if cfg.Limits.SubmitPerMinute != 12 {
		t.Fatalf("unexpected submit/min limit: %d", cfg.Limits.SubmitPerMinute)
	}

	// untouched sections keep their defaults
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Limits.SubmitPer10Sec != 10 {
		t.Fatalf("unexpected submit/10s limit: %d", cfg.Limits.SubmitPer10Sec)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("POSTGRES_DSN", "postgres://override@localhost:5432/db")
	t.Setenv("REAPER_INTERVAL", "15m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Postgres.DSN != "postgres://override@localhost:5432/db" {
		t.Fatalf("unexpected dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.Reaper.Interval != 15*time.Minute {
		t.Fatalf("unexpected reaper interval: %v", cfg.Reaper.Interval)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("REAPER_INTERVAL", "not-a-duration")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid duration override")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		"APP_ENV", "HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL", "POSTGRES_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
		"JWT_SECRET", "JWT_TOKEN_TTL", "REAPER_INTERVAL", "REAPER_REMOVED_RETENTION",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
