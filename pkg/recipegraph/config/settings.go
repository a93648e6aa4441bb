// Package config loads recipegraph settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph/snapshot"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Settings configures graphs built by the CLI and examples.
type Settings struct {
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	// RepeatInterval suppresses identical link diagnostics for this long.
	RepeatInterval time.Duration `validate:"gte=0"`

	Metrics bool
	Tracing bool

	// CatalogPath names a YAML declarations file. Empty means the standard catalog only.
	CatalogPath string

	Store StoreSettings
}

// StoreSettings selects the snapshot store.
type StoreSettings struct {
	Driver  string `validate:"oneof=memory sqlite"`
	Path    string `validate:"required_if=Driver sqlite"`
	Project string `validate:"required"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		LogLevel:       "info",
		LogFormat:      "text",
		RepeatInterval: recipegraph.DefaultRepeatInterval,
		Store: StoreSettings{
			Driver:  "sqlite",
			Path:    "recipegraph.db",
			Project: "default",
		},
	}
}

// FromValues overlays v onto Default and validates the result.
func FromValues(v Values) (Settings, error) {
	s := Default()
	s.LogLevel = strings.ToLower(v.String("log_level", s.LogLevel))
	s.LogFormat = strings.ToLower(v.String("log_format", s.LogFormat))
	s.RepeatInterval = v.Duration("repeat_interval", s.RepeatInterval)
	s.Metrics = v.Bool("metrics", s.Metrics)
	s.Tracing = v.Bool("tracing", s.Tracing)
	s.CatalogPath = v.String("catalog", s.CatalogPath)

	store := v.Section("store")
	s.Store.Driver = strings.ToLower(store.String("driver", s.Store.Driver))
	s.Store.Path = store.String("path", s.Store.Path)
	s.Store.Project = store.String("project", s.Store.Project)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks field constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// FromFile loads settings from a file, choosing the format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML settings.
func FromYAML(data []byte) (Settings, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return FromValues(NewValues(m))
}

// FromJSON parses JSON settings.
func FromJSON(data []byte) (Settings, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return FromValues(NewValues(m))
}

// GraphOptions returns the graph options these settings describe.
func (s Settings) GraphOptions(logger *slog.Logger) []recipegraph.Option {
	return []recipegraph.Option{
		recipegraph.WithLogger(logger),
		recipegraph.WithRepeatInterval(s.RepeatInterval),
		recipegraph.WithMetrics(s.Metrics),
		recipegraph.WithTracing(s.Tracing),
	}
}

// OpenStore opens the configured snapshot store.
func (s Settings) OpenStore() (snapshot.Store, error) {
	switch s.Store.Driver {
	case "memory":
		return snapshot.NewMemoryStore(), nil
	case "sqlite":
		return snapshot.NewSQLiteStore(s.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", s.Store.Driver)
	}
}
