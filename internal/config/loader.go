package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is parsed.
const (
	EnvDatabaseURL = "EVENTPULSE_DATABASE_URL"
	EnvDataDir     = "EVENTPULSE_DATA_DIR"
	EnvOrgID       = "EVENTPULSE_ORG_ID"
	EnvLogLevel    = "EVENTPULSE_LOG_LEVEL"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *ServiceConfig
	onChange []func(*ServiceConfig)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *ServiceConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*ServiceConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Invalid files are logged and the previous config stays in effect.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file. The new config only
// replaces the current one if it validates.
func (l *Loader) Reload() (*ServiceConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*ServiceConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*ServiceConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *ServiceConfig) error {
	cfg.Source.DatabaseURL = getEnv(EnvDatabaseURL, cfg.Source.DatabaseURL)
	cfg.Source.DataDir = getEnv(EnvDataDir, cfg.Source.DataDir)
	cfg.Log.Level = getEnv(EnvLogLevel, cfg.Log.Level)
	if raw := os.Getenv(EnvOrgID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOrgID, err)
		}
		cfg.Source.OrgID = id
	}
	return nil
}

func applyDefaults(cfg *ServiceConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 8
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 256
	}
	if cfg.Engine.TimeoutMs == 0 {
		cfg.Engine.TimeoutMs = 5000
	}
	if cfg.Engine.BulkLimit == 0 {
		cfg.Engine.BulkLimit = 5
	}
	if cfg.Source.RefreshMinutes == 0 {
		cfg.Source.RefreshMinutes = 20
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceCSV
	}
	if cfg.Source.Kind == SourceCSV && cfg.Source.DataDir == "" {
		cfg.Source.DataDir = "data"
	}
}

// getEnv retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
