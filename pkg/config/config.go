// Package config loads layered configuration with koanf: built-in defaults, an optional
// YAML file, FABRICSCAN_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"

	"github.com/vulntor/fabricscan/pkg/cursor"
	"github.com/vulntor/fabricscan/pkg/paths"
	"github.com/vulntor/fabricscan/pkg/section"
)

// ErrInvalidConfig indicates a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Manager loads and holds the effective configuration.
type Manager struct {
	k       *koanf.Koanf
	current Config
	mu      sync.RWMutex
}

// NewManager returns a manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{k: koanf.New(".")}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Parse: ParseConfig{
			Profile:     "brocade_supportshow",
			Charset:     "windows-1252",
			MaxLineSize: cursor.DefaultMaxLineSize,
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for the confmap provider.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"log.level":           def.Log.Level,
		"log.format":          def.Log.Format,
		"parse.profile":       def.Parse.Profile,
		"parse.workers":       def.Parse.Workers,
		"parse.charset":       def.Parse.Charset,
		"parse.max_line_size": def.Parse.MaxLineSize,
		"parse.trace_file":    def.Parse.TraceFile,
		"catalog.patterns":    def.Catalog.Patterns,
		"catalog.signatures":  def.Catalog.Signatures,
	}
}

// DefaultConfigPath returns the per-user config file location, or "" when the platform
// has none.
func DefaultConfigPath() string {
	return paths.ConfigFile()
}

// Load applies sources in priority order and validates the result. On error the
// previous configuration is kept.
func (m *Manager) Load(sources ...Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := append([]Source(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority() < ordered[j].Priority() })

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	if raw := k.Get("sections"); raw != nil {
		list, err := cast.ToSliceE(raw)
		if err != nil {
			return fmt.Errorf("%w: sections must be a list: %v", ErrInvalidConfig, err)
		}
		if cfg.Sections, err = section.SpecsFromConfig(list); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.k = k
	m.current = cfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.current
	cfg.Sections = append([]section.Spec(nil), m.current.Sections...)
	return cfg
}

// All returns the flattened effective key/value map, for display.
func (m *Manager) All() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.k.All()
}
