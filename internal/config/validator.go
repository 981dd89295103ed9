package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks required fields and value ranges, reporting every problem at once.
func Validate(cfg *ServiceConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if !logLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q", cfg.Log.Level))
	}

	e := cfg.Engine
	if e.Workers < 1 {
		errs = append(errs, "engine.workers must be positive")
	}
	if e.QueueDepth < 1 {
		errs = append(errs, "engine.queue_depth must be positive")
	}
	if e.TimeoutMs < 1 {
		errs = append(errs, "engine.timeout_ms must be positive")
	}
	if e.BulkLimit < 1 {
		errs = append(errs, "engine.bulk_limit must be positive")
	}

	s := cfg.Source
	switch s.Kind {
	case SourceCSV:
		if s.DataDir == "" {
			errs = append(errs, "source.data_dir is required for csv sources")
		}
	case SourcePostgres:
		if s.DatabaseURL == "" {
			errs = append(errs, fmt.Sprintf("source.database_url (or %s) is required for postgres sources", EnvDatabaseURL))
		}
	default:
		errs = append(errs, fmt.Sprintf("source.kind: unknown kind %q (want %s or %s)", s.Kind, SourceCSV, SourcePostgres))
	}
	if s.OrgID <= 0 {
		errs = append(errs, "source.org_id must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
