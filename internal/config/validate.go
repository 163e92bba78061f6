package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"internboard/internal/logging"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one error, nil when OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(v.Errors, "; "))
}

// Validate reports problems that would stop the server and ones worth a look.
func Validate(cfg Config) Validation {
	var res Validation

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		res.addErr("server.addr is required")
	}

	if strings.TrimSpace(cfg.Data.Path) == "" {
		res.addErr("data.path is required")
	} else {
		switch ext := strings.ToLower(filepath.Ext(cfg.Data.Path)); ext {
		case ".csv", ".xlsx", ".db", ".sqlite", ".sqlite3":
		default:
			res.addErr("data.path has unsupported extension %q (want .csv, .xlsx or a sqlite file)", ext)
		}
	}
	if cfg.Data.ChunkRows < 0 {
		res.addErr("data.chunk_rows must be >= 0")
	}

	if err := cfg.EngineSchema().Validate(); err != nil {
		res.addErr("schema: %v", err)
	}
	if cfg.Schema.Delimiter == "" {
		res.addWarn("schema.delimiter is empty; %q will be used", ", ")
	}

	if cfg.Dashboard.TopK <= 0 {
		res.addErr("dashboard.top_k must be > 0")
	} else if cfg.Dashboard.TopK > 50 {
		res.addWarn("dashboard.top_k is %d; charts get hard to read past a few dozen bars", cfg.Dashboard.TopK)
	}
	if cfg.Dashboard.PageSize <= 0 {
		res.addErr("dashboard.page_size must be > 0")
	}

	if cfg.Reload.MinInterval < 0 {
		res.addErr("reload.min_interval must be >= 0")
	} else if cfg.Reload.MinInterval < time.Second {
		res.addWarn("reload.min_interval is %s; repeated reloads re-read the whole dataset", cfg.Reload.MinInterval)
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		res.addErr("log.level: %v", err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		res.addErr("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return res
}
