package config

import "time"

// ServiceConfig is the top-level YAML structure.
type ServiceConfig struct {
	Version string     `yaml:"version"`
	Log     LogConf    `yaml:"log"`
	Engine  EngineConf `yaml:"engine"`
	Source  SourceConf `yaml:"source"`
}

// LogConf selects the slog level: debug, info, warn or error.
type LogConf struct {
	Level string `yaml:"level"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers    int `yaml:"workers" json:"workers"`
	QueueDepth int `yaml:"queue_depth" json:"queue_depth"`
	TimeoutMs  int `yaml:"timeout_ms" json:"timeout_ms"`
	BulkLimit  int `yaml:"bulk_limit" json:"bulk_limit"`
}

// Timeout is TimeoutMs as a duration.
func (c EngineConf) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// SourceConf tells where raw records are loaded from.
type SourceConf struct {
	Kind           string `yaml:"kind"`
	DataDir        string `yaml:"data_dir"`     // csv
	DatabaseURL    string `yaml:"database_url"` // postgres
	OrgID          int64  `yaml:"org_id"`
	RefreshMinutes int    `yaml:"refresh_minutes"`
}

// RefreshInterval is RefreshMinutes as a duration. A negative value disables
// periodic refresh.
func (c SourceConf) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMinutes) * time.Minute
}
