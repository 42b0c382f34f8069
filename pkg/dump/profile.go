package dump

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vulntor/fabricscan/pkg/section"
)

//go:embed data/profiles.yaml
var embeddedProfiles []byte

var validate = validator.New()

// Key names the key/value field holding a dump's business key.
type Key struct {
	Section string `yaml:"section" validate:"required"`
	Field   string `yaml:"field" validate:"required"`
}

// Profile describes one dump format.
type Profile struct {
	Name        string         `yaml:"name" validate:"required"`
	Description string         `yaml:"description,omitempty"`
	Key         *Key           `yaml:"key,omitempty"`
	Sections    []section.Spec `yaml:"sections" validate:"required,min=1"`
}

type profileSet struct {
	Version  string    `yaml:"version" validate:"required"`
	Profiles []Profile `yaml:"profiles" validate:"required,min=1,dive"`
}

var (
	profilesOnce sync.Once
	profiles     map[string]Profile
	profilesErr  error
)

func parseProfiles(data []byte) (map[string]Profile, error) {
	var set profileSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if err := validate.Struct(set); err != nil {
		return nil, fmt.Errorf("profile validation: %w", err)
	}
	if _, err := semver.NewVersion(set.Version); err != nil {
		return nil, fmt.Errorf("profiles version %q: %w", set.Version, err)
	}
	out := make(map[string]Profile, len(set.Profiles))
	for _, p := range set.Profiles {
		if _, dup := out[p.Name]; dup {
			return nil, fmt.Errorf("profile %q declared twice", p.Name)
		}
		out[p.Name] = p
	}
	return out, nil
}

func builtinProfiles() (map[string]Profile, error) {
	profilesOnce.Do(func() {
		profiles, profilesErr = parseProfiles(embeddedProfiles)
	})
	return profiles, profilesErr
}

// Profiles returns the built-in profile names, sorted. An error means the embedded
// profile catalog is broken.
func Profiles() ([]string, error) {
	set, err := builtinProfiles()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LookupProfile returns a built-in profile by name.
func LookupProfile(name string) (Profile, error) {
	set, err := builtinProfiles()
	if err != nil {
		return Profile{}, err
	}
	p, ok := set[name]
	if !ok {
		return Profile{}, &UnknownProfileError{Name: name}
	}
	return p, nil
}
