package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/baralga/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8080" || cfg.Filter.Timespan != model.TimespanMonth {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("BARALGA_TEST_HOST", "baralga.example.com")
	path := writeConfig(t, `
api:
  base_url: https://${BARALGA_TEST_HOST}
  timeout: 5s
storage:
  path: /tmp/baralga.db
export:
  dir: /tmp/exports
  backup_file: backup.xml
log:
  level: debug
  file: /tmp/baralga.log
filter:
  timespan: week
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://baralga.example.com" {
		t.Fatalf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Storage.Path != "/tmp/baralga.db" || cfg.Export.BackupFile != "backup.xml" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Filter.Timespan != model.TimespanWeek {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("level = %q", cfg.Log.Level)
	}
	if cfg.API.Timeout != 30*time.Second || cfg.Export.Dir != "." {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BARALGA_API_BASE_URL", "http://backend:9000")
	t.Setenv("BARALGA_API_TIMEOUT", "2s")
	t.Setenv("BARALGA_FILTER_TIMESPAN", "quarter")

	path := writeConfig(t, "api:\n  base_url: http://from-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://backend:9000" {
		t.Fatalf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 2*time.Second {
		t.Fatalf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Filter.Timespan != model.TimespanQuarter {
		t.Fatalf("timespan = %q", cfg.Filter.Timespan)
	}
}

func TestUnprefixedEnvironmentIgnored(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("FILE", "/etc/passwd")
	t.Setenv("LEVEL", "trace")

	want := Default()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != want.Storage.Path {
		t.Fatalf("storage.path = %q, want %q", cfg.Storage.Path, want.Storage.Path)
	}
	if cfg.Log.File != want.Log.File || cfg.Log.Level != want.Log.Level {
		t.Fatalf("log = %+v, want %+v", cfg.Log, want.Log)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad url", "api:\n  base_url: localhost\n", "api"},
		{"short timeout", "api:\n  timeout: 10ms\n", "api"},
		{"bad level", "log:\n  level: loud\n", "log"},
		{"bad timespan", "filter:\n  timespan: day\n", "filter"},
		{"empty backup file", "export:\n  backup_file: \"\"\n", "export"},
	}

	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.content))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.want)
		}
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "api: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefaultPath(t *testing.T) {
	if filepath.Base(DefaultPath()) != "config.yaml" {
		t.Fatalf("DefaultPath = %q", DefaultPath())
	}
}
