// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package classify

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/signatures.yaml
var embeddedCatalog []byte

var validate = validator.New()

// Target selects which symbolic name a rule is tried against.
type Target string

const (
	TargetPort Target = "port"
	TargetNode Target = "node"
	TargetBoth Target = "both"
)

func (t Target) node() bool { return t == TargetNode || t == TargetBoth }
func (t Target) port() bool { return t == TargetPort || t == TargetBoth }

// FieldMap copies capture group Group (1-based) into an output field.
type FieldMap struct {
	Group int      `yaml:"group" validate:"min=1"`
	Field string   `yaml:"field" validate:"required"`
	Post  []string `yaml:"post,omitempty"`
}

// Rule is one device signature. Lower priority values are tried first.
type Rule struct {
	ID          int               `yaml:"id" validate:"required,min=1"`
	Priority    int               `yaml:"priority" validate:"required,min=1"`
	AppliesTo   Target            `yaml:"applies_to" validate:"required,oneof=port node both"`
	Pattern     string            `yaml:"pattern" validate:"required"`
	Fields      []FieldMap        `yaml:"fields,omitempty" validate:"dive"`
	Set         map[string]string `yaml:"set,omitempty"`
	Companion   int               `yaml:"companion,omitempty" validate:"min=0"`
	Description string            `yaml:"description,omitempty"`
}

// Catalog is the on-disk form of a rule set.
type Catalog struct {
	Version string `yaml:"version" validate:"required"`
	Rules   []Rule `yaml:"rules" validate:"required,min=1,dive"`
}

// ParseCatalog decodes and validates a YAML rule catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse signature catalog: %w", err)
	}
	if err := validate.Struct(cat); err != nil {
		return nil, fmt.Errorf("%w: catalog validation: %v", ErrInvalidRule, err)
	}
	if _, err := semver.NewVersion(cat.Version); err != nil {
		return nil, fmt.Errorf("%w: catalog version %q: %v", ErrInvalidRule, cat.Version, err)
	}
	return &cat, nil
}

// BuiltinRules returns the rules of the embedded catalog.
func BuiltinRules() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// ReadCatalog loads a rule catalog from path.
func ReadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature catalog: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("load signature catalog %s: %w", path, err)
	}
	return cat, nil
}
