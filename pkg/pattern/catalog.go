package pattern

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/patterns.yaml
var embeddedCatalog []byte

var validate = validator.New()

// Catalog is the on-disk form of a pattern set.
type Catalog struct {
	Version  string       `yaml:"version" validate:"required"`
	Patterns []Definition `yaml:"patterns" validate:"required,min=1,dive"`
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse pattern catalog: %w", err)
	}
	if err := validate.Struct(cat); err != nil {
		return nil, fmt.Errorf("%w: catalog validation: %v", ErrInvalidPattern, err)
	}
	if _, err := semver.NewVersion(cat.Version); err != nil {
		return nil, fmt.Errorf("%w: catalog version %q: %v", ErrInvalidPattern, cat.Version, err)
	}
	return &cat, nil
}

// LoadCatalog parses data and loads the resulting definitions.
func LoadCatalog(data []byte) (*Registry, error) {
	cat, err := Parse(data)
	if err != nil {
		return nil, err
	}
	reg, err := Load(cat.Patterns)
	if err != nil {
		return nil, err
	}
	reg.version = cat.Version
	return reg, nil
}

// LoadFile loads a catalog from path. The result replaces the built-in catalog entirely.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern catalog: %w", err)
	}
	reg, err := LoadCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("load pattern catalog %s: %w", path, err)
	}
	return reg, nil
}

var (
	builtinOnce sync.Once
	builtinReg  *Registry
	builtinErr  error
)

// Builtin returns the shared registry compiled from the embedded catalog.
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtinReg, builtinErr = LoadCatalog(embeddedCatalog)
	})
	return builtinReg, builtinErr
}
