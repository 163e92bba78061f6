package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"internboard/internal/engine"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Dashboard.TopK != engine.DefaultTopK {
		t.Fatalf("top_k = %d", cfg.Dashboard.TopK)
	}
	if cfg.Reload.MinInterval != 10*time.Second {
		t.Fatalf("min_interval = %s", cfg.Reload.MinInterval)
	}
	if got, want := cfg.EngineSchema(), engine.DefaultSchema(); got != want {
		t.Fatalf("schema = %+v, want %+v", got, want)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	yaml := `
server:
  addr: ":9090"
data:
  path: postings.xlsx
  sheet: Data
schema:
  position: title
  delimiter: ";"
dashboard:
  top_k: 5
reload:
  min_interval: 2m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INTERNBOARD_DASHBOARD_TOP_K", "7")
	t.Setenv("INTERNBOARD_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Dashboard.TopK != 7 {
		t.Fatalf("env should win over file, top_k = %d", cfg.Dashboard.TopK)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log.level = %q", cfg.Log.Level)
	}
	if cfg.Reload.MinInterval != 2*time.Minute {
		t.Fatalf("min_interval = %s", cfg.Reload.MinInterval)
	}

	s := cfg.EngineSchema()
	if s.Position != "title" || s.Delimiter != ";" {
		t.Fatalf("schema = %+v", s)
	}
	// Untouched roles keep their defaults.
	if s.City != engine.DefaultSchema().City {
		t.Fatalf("city = %q", s.City)
	}

	src := cfg.Source()
	if src.Path != "postings.xlsx" || src.Sheet != "Data" || src.Table != engine.DefaultTable {
		t.Fatalf("source = %+v", src)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func validConfig(t *testing.T) Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := validConfig(t)
	if res := Validate(cfg); !res.OK() {
		t.Fatalf("defaults should validate, got %v", res.Errors)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no path", func(c *Config) { c.Data.Path = "" }, "data.path is required"},
		{"bad ext", func(c *Config) { c.Data.Path = "x.parquet" }, "unsupported extension"},
		{"no position column", func(c *Config) { c.Schema.Position = "" }, "schema:"},
		{"zero top_k", func(c *Config) { c.Dashboard.TopK = 0 }, "dashboard.top_k"},
		{"zero page", func(c *Config) { c.Dashboard.PageSize = 0 }, "dashboard.page_size"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			tt.mutate(&c)
			res := Validate(c)
			if res.OK() {
				t.Fatal("expected errors")
			}
			if !strings.Contains(strings.Join(res.Errors, "\n"), tt.want) {
				t.Fatalf("errors %v do not mention %q", res.Errors, tt.want)
			}
			if res.Err() == nil {
				t.Fatal("Err() should be non-nil")
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := validConfig(t)
	cfg.Dashboard.TopK = 100
	cfg.Reload.MinInterval = 0

	res := Validate(cfg)
	if !res.OK() {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}
