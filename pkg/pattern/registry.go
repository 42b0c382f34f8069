package pattern

import (
	"fmt"
	"sort"
)

// Registry maps pattern names to compiled entries. It is never mutated after Load.
type Registry struct {
	version string
	entries map[string]*Entry
}

// Load compiles every definition into a new Registry. It fails on the first definition
// that does not compile, has an unknown role or a mismatching arity, and on any name
// collision.
func Load(defs []Definition) (*Registry, error) {
	reg := &Registry{entries: make(map[string]*Entry, len(defs))}
	for _, def := range defs {
		def.Name = trimName(def.Name)
		if def.Name == "" {
			return nil, &InvalidPatternError{Name: def.Name, Reason: "empty name"}
		}
		if _, exists := reg.entries[def.Name]; exists {
			return nil, &DuplicateNameError{Name: def.Name}
		}
		entry, err := compile(def)
		if err != nil {
			return nil, err
		}
		reg.entries[def.Name] = entry
	}
	return reg, nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (*Entry, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, &UnknownPatternError{Name: name}
	}
	return entry, nil
}

// Lookup resolves names in order and checks that each entry carries the given role.
func (r *Registry) Lookup(role Role, names ...string) ([]*Entry, error) {
	out := make([]*Entry, 0, len(names))
	for _, name := range names {
		entry, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		if entry.role != role {
			return nil, &InvalidPatternError{
				Name:   name,
				Reason: fmt.Sprintf("role %s, want %s", entry.role, role),
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// Require resolves a single name with the given role.
func (r *Registry) Require(role Role, name string) (*Entry, error) {
	entries, err := r.Lookup(role, name)
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int { return len(r.entries) }

// Version returns the catalog version the registry was loaded from, if any.
func (r *Registry) Version() string { return r.version }
