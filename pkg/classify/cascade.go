// Package classify turns the free-text symbolic names that devices register with the
// fabric into vendor, model, serial and firmware fields.
//
// A Cascade holds an ordered list of signature rules. Node names are tried first because
// they usually carry richer identity; a matching node rule may name a companion port rule
// to recover the port label. Port rules are the second chance, and when nothing matches the
// raw strings are kept as device name and port so no information is lost.
package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/fabricscan/pkg/pattern"
)

type fieldPlan struct {
	group int
	field string
	post  []postFunc
}

type compiledRule struct {
	Rule
	entry     *pattern.Entry
	fields    []fieldPlan
	companion *compiledRule
}

// Cascade is immutable after New and safe for concurrent use.
type Cascade struct {
	version string
	rules   []*compiledRule // priority order
	node    []*compiledRule
	port    []*compiledRule
}

// New resolves and validates every rule against reg. Any problem is returned here; a
// Cascade that was built never fails at classification time.
func New(reg *pattern.Registry, rules []Rule) (*Cascade, error) {
	c := &Cascade{}
	byID := make(map[int]*compiledRule, len(rules))
	priorities := make(map[int]int, len(rules))

	for _, r := range rules {
		if _, dup := byID[r.ID]; dup {
			return nil, &RuleError{ID: r.ID, Reason: "id declared twice", Err: ErrDuplicateRule}
		}
		if other, dup := priorities[r.Priority]; dup {
			return nil, &RuleError{ID: r.ID, Reason: fmt.Sprintf("priority %d already used by rule %d", r.Priority, other), Err: ErrDuplicateRule}
		}
		cr, err := compileRule(reg, r)
		if err != nil {
			return nil, err
		}
		byID[r.ID] = cr
		priorities[r.Priority] = r.ID
		c.rules = append(c.rules, cr)
	}

	for _, cr := range c.rules {
		if cr.Companion == 0 {
			continue
		}
		comp, ok := byID[cr.Companion]
		if !ok {
			return nil, invalid(cr.ID, "companion rule %d does not exist", cr.Companion)
		}
		if !comp.AppliesTo.port() {
			return nil, invalid(cr.ID, "companion rule %d does not apply to port names", cr.Companion)
		}
		if !cr.AppliesTo.node() {
			return nil, invalid(cr.ID, "only node rules may declare a companion")
		}
		cr.companion = comp
	}

	sort.Slice(c.rules, func(i, j int) bool { return c.rules[i].Priority < c.rules[j].Priority })
	for _, cr := range c.rules {
		if cr.AppliesTo.node() {
			c.node = append(c.node, cr)
		}
		if cr.AppliesTo.port() {
			c.port = append(c.port, cr)
		}
	}
	return c, nil
}

func compileRule(reg *pattern.Registry, r Rule) (*compiledRule, error) {
	if r.AppliesTo != TargetPort && r.AppliesTo != TargetNode && r.AppliesTo != TargetBoth {
		return nil, invalid(r.ID, "unknown target %q", r.AppliesTo)
	}
	entry, err := reg.Require(pattern.RoleDeviceSignature, r.Pattern)
	if err != nil {
		return nil, &RuleError{ID: r.ID, Reason: "pattern", Err: err}
	}

	cr := &compiledRule{Rule: r, entry: entry}
	for _, fm := range r.Fields {
		if fm.Group < 1 || fm.Group > entry.Arity() {
			return nil, invalid(r.ID, "group %d out of range for %s (%d groups)", fm.Group, entry.Name(), entry.Arity())
		}
		if !isKnownField(fm.Field) {
			return nil, invalid(r.ID, "unknown field %q", fm.Field)
		}
		plan := fieldPlan{group: fm.Group, field: fm.Field}
		for _, name := range fm.Post {
			fn, ok := postProcessors[name]
			if !ok {
				return nil, invalid(r.ID, "unknown post-processor %q", name)
			}
			plan.post = append(plan.post, fn)
		}
		cr.fields = append(cr.fields, plan)
	}
	for field := range r.Set {
		if !isKnownField(field) {
			return nil, invalid(r.ID, "unknown field %q in set", field)
		}
	}
	return cr, nil
}

// Builtin builds a cascade from the embedded signature catalog.
func Builtin(reg *pattern.Registry) (*Cascade, error) {
	cat, err := BuiltinRules()
	if err != nil {
		return nil, err
	}
	return FromCatalog(reg, cat)
}

// FromCatalog builds a cascade from a parsed catalog and keeps its version.
func FromCatalog(reg *pattern.Registry, cat *Catalog) (*Cascade, error) {
	c, err := New(reg, cat.Rules)
	if err != nil {
		return nil, err
	}
	c.version = cat.Version
	return c, nil
}

// Version returns the catalog version, or "" when built from a bare rule list.
func (c *Cascade) Version() string { return c.version }

// Rules returns the rules in priority order.
func (c *Cascade) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, cr := range c.rules {
		out[i] = cr.Rule
	}
	return out
}

// Classify runs the cascade for one (port, node) pair. Nil and blank strings are absent.
//
//  1. node rules in priority order; the first match wins and only its companion, if any,
//     is then tried against the port name;
//  2. otherwise port rules in priority order, first match wins;
//  3. otherwise the raw node name becomes device_name and the raw port name device_port.
func (c *Cascade) Classify(port, node *string) Result {
	var res Result
	portName, hasPort := present(port)
	nodeName, hasNode := present(node)

	if hasNode {
		for _, r := range c.node {
			groups := r.entry.Submatch(nodeName)
			if groups == nil {
				continue
			}
			r.apply(&res, groups)
			res.NodeSymbUsed = true
			res.NodeSymbRuleID = ptr(r.ID)
			log.Debug().Int("rule", r.ID).Str("node_symb", nodeName).Msg("node rule matched")

			if r.companion != nil && hasPort {
				if pg := r.companion.entry.Submatch(portName); pg != nil {
					r.companion.apply(&res, pg)
					res.PortSymbUsed = true
					res.PortSymbRuleID = ptr(r.companion.ID)
					log.Debug().Int("rule", r.companion.ID).Str("port_symb", portName).Msg("companion rule matched")
				}
			}
			return res
		}
	}

	if hasPort {
		for _, r := range c.port {
			groups := r.entry.Submatch(portName)
			if groups == nil {
				continue
			}
			r.apply(&res, groups)
			res.PortSymbUsed = true
			res.PortSymbRuleID = ptr(r.ID)
			log.Debug().Int("rule", r.ID).Str("port_symb", portName).Msg("port rule matched")
			return res
		}
	}

	if hasNode {
		res.DeviceName = ptr(nodeName)
	}
	if hasPort {
		res.DevicePort = ptr(portName)
	}
	if hasNode || hasPort {
		log.Debug().Str("port_symb", portName).Str("node_symb", nodeName).Msg("no rule matched, keeping raw names")
	}
	return res
}

// apply copies groups and constants into fields that are still unset.
func (r *compiledRule) apply(res *Result, groups []string) {
	for _, fp := range r.fields {
		slot := res.slot(fp.field)
		if *slot != nil {
			continue
		}
		if v, ok := applyPost(groups[fp.group-1], fp.post); ok {
			*slot = ptr(v)
		}
	}
	for field, v := range r.Set {
		slot := res.slot(field)
		if *slot == nil && v != "" {
			*slot = ptr(v)
		}
	}
}

func present(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

func ptr[T any](v T) *T { return &v }
