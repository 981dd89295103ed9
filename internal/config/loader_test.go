package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventpulse.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewLoader_Defaults(t *testing.T) {
	path := writeConfig(t, "version: v1\nsource:\n  org_id: 17881\n")

	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Engine.Workers != 8 || cfg.Engine.QueueDepth != 256 || cfg.Engine.BulkLimit != 5 {
		t.Errorf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if cfg.Engine.Timeout() != 5*time.Second {
		t.Errorf("timeout: want 5s, got %v", cfg.Engine.Timeout())
	}
	if cfg.Source.Kind != config.SourceCSV || cfg.Source.DataDir != "data" {
		t.Errorf("unexpected source defaults: %+v", cfg.Source)
	}
	if cfg.Source.RefreshInterval() != 20*time.Minute {
		t.Errorf("refresh: want 20m, got %v", cfg.Source.RefreshInterval())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level: want info, got %q", cfg.Log.Level)
	}
}

func TestNewLoader_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvDatabaseURL, "postgres://bi@db:5432/events")
	t.Setenv(config.EnvOrgID, "42")
	t.Setenv(config.EnvLogLevel, "debug")
	path := writeConfig(t, "version: v1\nsource:\n  kind: postgres\n  org_id: 1\n")

	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if cfg.Source.DatabaseURL != "postgres://bi@db:5432/events" {
		t.Errorf("database url not taken from env: %q", cfg.Source.DatabaseURL)
	}
	if cfg.Source.OrgID != 42 {
		t.Errorf("org id: want 42, got %d", cfg.Source.OrgID)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: want debug, got %q", cfg.Log.Level)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("should validate: %v", err)
	}
}

func TestNewLoader_BadEnvOrgID(t *testing.T) {
	t.Setenv(config.EnvOrgID, "dunamis")
	path := writeConfig(t, "version: v1\n")
	if _, err := config.NewLoader(path); err == nil {
		t.Fatal("expected error for non-numeric org id")
	}
}

func TestNewLoader_Errors(t *testing.T) {
	if _, err := config.NewLoader(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := config.NewLoader(writeConfig(t, "version: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.ServiceConfig{
		Version: "v1",
		Log:     config.LogConf{Level: "loud"},
		Engine:  config.EngineConf{Workers: 0, QueueDepth: 1, TimeoutMs: 1, BulkLimit: 1},
		Source:  config.SourceConf{Kind: "mysql"},
	}
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"log.level", "engine.workers", "source.kind", "source.org_id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}

	if err := config.Validate(&config.ServiceConfig{}); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("missing version should be reported, got %v", err)
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "version: v1\nsource:\n  org_id: 1\nengine:\n  bulk_limit: 3\n")
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	var seen []int
	l.OnChange(func(c *config.ServiceConfig) { seen = append(seen, c.Engine.BulkLimit) })

	if err := os.WriteFile(path, []byte("version: v1\nsource:\n  org_id: 1\nengine:\n  bulk_limit: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := l.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cfg.Engine.BulkLimit != 9 || l.Config().Engine.BulkLimit != 9 {
		t.Errorf("reload did not apply new bulk limit")
	}
	if len(seen) != 1 || seen[0] != 9 {
		t.Errorf("callback should see the new config once, got %v", seen)
	}

	// An invalid file must not replace the running config.
	if err := os.WriteFile(path, []byte("version: v1\nsource:\n  kind: mysql\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected reload of invalid config to fail")
	}
	if l.Config().Engine.BulkLimit != 9 || len(seen) != 1 {
		t.Errorf("invalid reload must keep the previous config")
	}
}
