package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by EnvSource.
const EnvPrefix = "FABRICSCAN_"

// Source loads configuration values into a koanf instance. Sources are applied in
// ascending priority; later sources override earlier ones.
//
// Built-in priorities:
//   - DefaultSource (10)
//   - FileSource (20)
//   - EnvSource (30)
//   - FlagSource (40)
type Source interface {
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// DefaultSource provides the built-in defaults.
type DefaultSource struct{}

func (s *DefaultSource) Name() string  { return "defaults" }
func (s *DefaultSource) Priority() int { return 10 }

func (s *DefaultSource) Load(k *koanf.Koanf) error {
	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading defaults: %w", err)
	}
	return nil
}

// FileSource loads a YAML file. A missing file is skipped unless Required is set.
type FileSource struct {
	Path     string
	Required bool
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return 20 }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) && !s.Required {
			return nil
		}
		return fmt.Errorf("error checking config file %s: %w", s.Path, err)
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("error loading config file %s: %w", s.Path, err)
	}
	return nil
}

// EnvSource maps FABRICSCAN_<GROUP>_<KEY> to group.key; the first underscore after the
// prefix separates the group:
//
//	FABRICSCAN_LOG_LEVEL          -> log.level
//	FABRICSCAN_PARSE_MAX_LINE_SIZE -> parse.max_line_size
type EnvSource struct {
	Prefix string
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return 30 }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	if err := k.Load(env.Provider(prefix, ".", func(key string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(key, prefix)), "_", ".", 1)
	}), nil); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	return nil
}

// flagKeys maps command-line flag names to config keys. Flags not listed are not
// configuration.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"profile":       "parse.profile",
	"workers":       "parse.workers",
	"charset":       "parse.charset",
	"max-line-size": "parse.max_line_size",
	"trace-file":    "parse.trace_file",
	"patterns":      "catalog.patterns",
	"signatures":    "catalog.signatures",
}

// FlagSource loads command-line flags. Unchanged flags only fill keys no other source
// has set.
type FlagSource struct {
	Flags *pflag.FlagSet
	Debug bool // forces log.level=debug
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return 40 }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		provider := posflag.ProviderWithFlag(s.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(s.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}
	}
	if s.Debug {
		_ = k.Set("log.level", "debug")
	}
	return nil
}

// DefaultSources returns defaults, file, env and flags.
func DefaultSources(configPath string, explicit bool, flags *pflag.FlagSet, debug bool) []Source {
	return []Source{
		&DefaultSource{},
		&FileSource{Path: configPath, Required: explicit},
		&EnvSource{Prefix: EnvPrefix},
		&FlagSource{Flags: flags, Debug: debug},
	}
}
