// Package section implements the scanner that walks a dump line by line, recognises
// section headers and hands each section body to an extractor.
//
// The scanner is a small state machine:
//
//	SEEKING --start matches--> IN_SECTION(name) --stop matches / body done--> SEEKING
//	any state --end of input or every section collected--> DONE
//
// Each declared section is collected at most once per pass; a repeated header for a
// section that was already collected is ignored.
package section

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/fabricscan/pkg/cursor"
	"github.com/vulntor/fabricscan/pkg/extract"
	"github.com/vulntor/fabricscan/pkg/pattern"
)

// Handler extracts the body of a block section. It starts on the header line and must
// follow the same contract as the extract package: stop on (and leave current) the stop
// line, report truncation instead of failing.
type Handler interface {
	Extract(cur cursor.Cursor, stop *pattern.Entry, ctx *Context) extract.Outcome
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(cur cursor.Cursor, stop *pattern.Entry, ctx *Context) extract.Outcome

func (f HandlerFunc) Extract(cur cursor.Cursor, stop *pattern.Entry, ctx *Context) extract.Outcome {
	return f(cur, stop, ctx)
}

// Context is the data collected for one section.
type Context struct {
	Name      string             `json:"name"`
	StartLine int                `json:"start_line"`
	Fields    map[string]*string `json:"fields,omitempty"`  // key_value sections
	Values    []string           `json:"values,omitempty"`  // single sections
	Records   []extract.Record   `json:"records,omitempty"` // list sections
	Data      any                `json:"data,omitempty"`    // block sections, owned by the handler
	Matched   int                `json:"matched"`
	Truncated bool               `json:"truncated"`
}

// Result is the output of one scan pass.
type Result struct {
	Sections map[string]*Context
	Order    []string // section names in the order they were found
}

// Get returns the context collected for name.
func (r *Result) Get(name string) (*Context, bool) {
	ctx, ok := r.Sections[name]
	return ctx, ok
}

// Collected reports whether the section was found.
func (r *Result) Collected(name string) bool {
	_, ok := r.Sections[name]
	return ok
}

// Truncated lists the sections that hit end of input before their stop pattern.
func (r *Result) Truncated() []string {
	var out []string
	for _, name := range r.Order {
		if r.Sections[name].Truncated {
			out = append(out, name)
		}
	}
	return out
}

type compiled struct {
	spec    Spec
	start   *pattern.Entry
	body    extract.Spec
	handler Handler
}

// Scanner is safe for concurrent use; every Scan call keeps its own state.
type Scanner struct {
	sections []compiled
}

// Option configures New.
type Option func(map[string]Handler)

// WithHandler registers the handler used by block sections that name it.
func WithHandler(name string, h Handler) Option {
	return func(handlers map[string]Handler) {
		handlers[name] = h
	}
}

// New resolves every pattern referenced by specs. All configuration problems are
// reported here, before any input is read.
func New(reg *pattern.Registry, specs []Spec, opts ...Option) (*Scanner, error) {
	handlers := make(map[string]Handler)
	for _, opt := range opts {
		opt(handlers)
	}

	s := &Scanner{sections: make([]compiled, 0, len(specs))}
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: empty section name", ErrInvalidSpec)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: section %q declared twice", ErrInvalidSpec, spec.Name)
		}
		seen[spec.Name] = true

		c, err := compile(reg, spec, handlers)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", spec.Name, err)
		}
		s.sections = append(s.sections, c)
	}
	return s, nil
}

func compile(reg *pattern.Registry, spec Spec, handlers map[string]Handler) (compiled, error) {
	c := compiled{spec: spec}
	var err error

	if c.start, err = reg.Require(pattern.RoleSectionStart, spec.Start); err != nil {
		return c, err
	}
	if spec.Stop != "" {
		if c.body.Stop, err = reg.Require(pattern.RoleSectionStop, spec.Stop); err != nil {
			return c, err
		}
	}
	c.body.Policy = spec.policy()
	if !c.body.Policy.IsValid() {
		return c, fmt.Errorf("%w: unknown policy %q", ErrInvalidSpec, spec.Policy)
	}

	switch spec.Kind {
	case KindKeyValue:
		c.body.Match, err = requireArity(reg, pattern.RoleFieldExtract, spec.Extract, func(n int) bool { return n == 2 })
	case KindSingle:
		c.body.Match, err = requireArity(reg, pattern.RoleFieldExtract, spec.Extract, func(n int) bool { return n == 1 })
	case KindList:
		c.body.Match, err = requireArity(reg, pattern.RoleListExtract, spec.Extract, func(n int) bool { return n >= 1 })
	case KindBlock:
		h, ok := handlers[spec.Handler]
		if !ok {
			err = fmt.Errorf("%w: no handler registered as %q", ErrInvalidSpec, spec.Handler)
		}
		c.handler = h
	default:
		err = fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, spec.Kind)
	}
	return c, err
}

func requireArity(reg *pattern.Registry, role pattern.Role, name string, ok func(int) bool) (*pattern.Entry, error) {
	entry, err := reg.Require(role, name)
	if err != nil {
		return nil, err
	}
	if !ok(entry.Arity()) {
		return nil, fmt.Errorf("%w: pattern %q has %d capture groups", ErrInvalidSpec, name, entry.Arity())
	}
	return entry, nil
}

// Names returns the declared section names in declaration order.
func (s *Scanner) Names() []string {
	names := make([]string, len(s.sections))
	for i, c := range s.sections {
		names[i] = c.spec.Name
	}
	return names
}

// ScanOption configures a single Scan call.
type ScanOption func(*scanConfig)

type scanConfig struct {
	prefix []string
}

// WithPrefix prepends constant values (typically the source name) to every record of
// list sections.
func WithPrefix(values ...string) ScanOption {
	return func(c *scanConfig) {
		c.prefix = append(c.prefix, values...)
	}
}

type state int

const (
	stateSeeking state = iota
	stateInSection
	stateDone
)

func (st state) String() string {
	switch st {
	case stateSeeking:
		return "SEEKING"
	case stateInSection:
		return "IN_SECTION"
	default:
		return "DONE"
	}
}

// Scan walks cur to the end (or until every section is collected) and returns what was
// found. Truncated sections are included with their Truncated flag set.
func (s *Scanner) Scan(cur cursor.Cursor, opts ...ScanOption) *Result {
	var cfg scanConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	res := &Result{Sections: make(map[string]*Context, len(s.sections))}
	collected := make([]bool, len(s.sections))
	remaining := len(s.sections)
	active := -1

	st := stateSeeking
	if remaining == 0 {
		st = stateDone
	}
	line, ok := cur.Current()

	for st != stateDone {
		switch st {
		case stateSeeking:
			if !ok {
				st = s.transition(st, stateDone, "", cur.LineNo())
				continue
			}
			if active = s.startOf(line, collected); active < 0 {
				line, ok = cur.Advance()
				continue
			}
			st = s.transition(st, stateInSection, s.sections[active].spec.Name, cur.LineNo())

		case stateInSection:
			c := s.sections[active]
			ctx := s.run(c, cur, cfg)
			collected[active] = true
			remaining--
			res.Sections[ctx.Name] = ctx
			res.Order = append(res.Order, ctx.Name)
			if ctx.Truncated {
				log.Warn().Str("section", ctx.Name).Int("start_line", ctx.StartLine).Msg("section truncated by end of input")
			}

			if remaining == 0 {
				st = s.transition(st, stateDone, ctx.Name, cur.LineNo())
				continue
			}
			// The stop line may open the next section.
			line, ok = cur.Current()
			st = s.transition(st, stateSeeking, ctx.Name, cur.LineNo())
		}
	}
	return res
}

func (s *Scanner) transition(from, to state, section string, lineNo int) state {
	log.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("section", section).
		Int("line", lineNo).
		Msg("scanner transition")
	return to
}

func (s *Scanner) startOf(line string, collected []bool) int {
	for i, c := range s.sections {
		if !collected[i] && c.start.Match(line) {
			return i
		}
	}
	return -1
}

func (s *Scanner) run(c compiled, cur cursor.Cursor, cfg scanConfig) *Context {
	ctx := &Context{Name: c.spec.Name, StartLine: cur.LineNo()}
	var out extract.Outcome

	switch c.spec.Kind {
	case KindKeyValue:
		ctx.Fields = make(map[string]*string)
		out = c.body.KeyValue(cur, ctx.Fields)
	case KindSingle:
		ctx.Values, out = c.body.Single(cur)
	case KindList:
		ctx.Records, out = c.body.List(cur, cfg.prefix...)
	case KindBlock:
		out = c.handler.Extract(cur, c.body.Stop, ctx)
	}

	ctx.Matched = out.Matched
	ctx.Truncated = out.Truncated
	return ctx
}
