package commands

import (
	"github.com/rs/zerolog/log"

	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/config"
	"github.com/vulntor/fabricscan/pkg/pattern"
)

// loadRegistry returns the pattern registry named by catalog.patterns, or the built-in
// one.
func loadRegistry(cfg config.Config) (*pattern.Registry, error) {
	if cfg.Catalog.Patterns == "" {
		return pattern.Builtin()
	}
	reg, err := pattern.LoadFile(cfg.Catalog.Patterns)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.Catalog.Patterns).Str("version", reg.Version()).Int("patterns", reg.Len()).Msg("pattern catalog loaded")
	return reg, nil
}

// loadCascade compiles the rules named by catalog.signatures, or the built-in ones,
// against reg.
func loadCascade(cfg config.Config, reg *pattern.Registry) (*classify.Cascade, error) {
	if cfg.Catalog.Signatures == "" {
		return classify.Builtin(reg)
	}
	cat, err := classify.ReadCatalog(cfg.Catalog.Signatures)
	if err != nil {
		return nil, err
	}
	c, err := classify.FromCatalog(reg, cat)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.Catalog.Signatures).Str("version", c.Version()).Int("rules", len(c.Rules())).Msg("signature catalog loaded")
	return c, nil
}

func loadCatalogs(cfg config.Config) (*pattern.Registry, *classify.Cascade, error) {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := loadCascade(cfg, reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, c, nil
}
