// Package pattern holds the named, compiled line patterns that drive section scanning and
// device classification.
//
// A Registry is built once from declarative definitions and is read-only afterwards, so a
// single instance can be shared by any number of concurrent scanners without locking.
// Consumers resolve the names they depend on when they are constructed; a typo in a pattern
// name is a configuration error reported at startup, never a silently skipped branch.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Role describes how a pattern is used by the scanner or classifier.
type Role string

const (
	RoleSectionStart    Role = "section_start"
	RoleSectionStop     Role = "section_stop"
	RoleFieldExtract    Role = "field_extract"
	RoleListExtract     Role = "list_extract"
	RoleDeviceSignature Role = "device_signature"
)

// AllRoles returns every known role in declaration order.
func AllRoles() []Role {
	return []Role{RoleSectionStart, RoleSectionStop, RoleFieldExtract, RoleListExtract, RoleDeviceSignature}
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// Definition is the declarative form of a pattern as found in a catalog file.
type Definition struct {
	Name        string `yaml:"name" validate:"required"`
	Role        Role   `yaml:"role" validate:"required"`
	Pattern     string `yaml:"pattern" validate:"required"`
	Arity       int    `yaml:"arity" validate:"min=0"` // 0 infers the arity from the expression
	Description string `yaml:"description,omitempty"`
}

// Entry is a compiled, immutable pattern.
type Entry struct {
	name  string
	role  Role
	arity int
	re    *regexp.Regexp
}

func compile(def Definition) (*Entry, error) {
	if !def.Role.IsValid() {
		return nil, &InvalidPatternError{Name: def.Name, Reason: fmt.Sprintf("unknown role %q", def.Role)}
	}
	re, err := regexp.Compile(def.Pattern)
	if err != nil {
		return nil, &InvalidPatternError{Name: def.Name, Reason: "compile", Err: err}
	}
	groups := re.NumSubexp()
	if def.Arity > 0 && def.Arity != groups {
		return nil, &InvalidPatternError{
			Name:   def.Name,
			Reason: fmt.Sprintf("declared arity %d but expression has %d capture groups", def.Arity, groups),
		}
	}
	return &Entry{name: def.Name, role: def.Role, arity: groups, re: re}, nil
}

// Name returns the symbolic name of the pattern.
func (e *Entry) Name() string { return e.name }

// Role returns the role the pattern was declared with.
func (e *Entry) Role() Role { return e.role }

// Arity returns the number of capture groups.
func (e *Entry) Arity() int { return e.arity }

// Match reports whether line matches the pattern.
func (e *Entry) Match(line string) bool {
	return e.re.MatchString(line)
}

// Submatch returns the capture groups of the first match (without the full match),
// or nil when line does not match. Groups that did not participate are "".
func (e *Entry) Submatch(line string) []string {
	m := e.re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return m[1:]
}

func (e *Entry) String() string {
	return e.name + "(" + string(e.role) + "): " + e.re.String()
}

func trimName(name string) string {
	return strings.TrimSpace(name)
}
