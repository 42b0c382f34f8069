package section

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"

	"github.com/vulntor/fabricscan/pkg/extract"
)

// Kind selects the extractor used for a section body.
type Kind string

const (
	KindKeyValue Kind = "key_value"
	KindSingle   Kind = "single"
	KindList     Kind = "list"
	// KindBlock hands the section body to a registered Handler.
	KindBlock Kind = "block"
)

// ErrInvalidSpec indicates a section declaration the scanner cannot honour.
var ErrInvalidSpec = errors.New("invalid section spec")

// Spec declares one section of a dump by pattern name.
type Spec struct {
	Name    string         `yaml:"name"`
	Start   string         `yaml:"start"`
	Stop    string         `yaml:"stop,omitempty"`
	Extract string         `yaml:"extract,omitempty"`
	Kind    Kind           `yaml:"kind"`
	Policy  extract.Policy `yaml:"policy,omitempty"`
	Handler string         `yaml:"handler,omitempty"`
}

func (s Spec) policy() extract.Policy {
	if s.Policy == "" {
		return extract.SkipFirst
	}
	return s.Policy
}

// SpecFromMap decodes a loosely typed section declaration, as produced by config loaders.
func SpecFromMap(raw map[string]any) (Spec, error) {
	spec := Spec{
		Name:    cast.ToString(raw["name"]),
		Start:   cast.ToString(raw["start"]),
		Stop:    cast.ToString(raw["stop"]),
		Extract: cast.ToString(raw["extract"]),
		Kind:    Kind(cast.ToString(raw["kind"])),
		Policy:  extract.Policy(cast.ToString(raw["policy"])),
		Handler: cast.ToString(raw["handler"]),
	}
	// skip_header is accepted as a boolean shorthand for the policy.
	if v, ok := raw["skip_header"]; ok && spec.Policy == "" {
		if cast.ToBool(v) {
			spec.Policy = extract.SkipFirst
		} else {
			spec.Policy = extract.SkipLast
		}
	}
	if spec.Name == "" || spec.Start == "" {
		return Spec{}, fmt.Errorf("%w: name and start are required", ErrInvalidSpec)
	}
	return spec, nil
}

// SpecsFromConfig decodes a list of section declarations.
func SpecsFromConfig(raw []any) ([]Spec, error) {
	specs := make([]Spec, 0, len(raw))
	for i, item := range raw {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("%w: sections[%d]: %v", ErrInvalidSpec, i, err)
		}
		spec, err := SpecFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("sections[%d]: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
