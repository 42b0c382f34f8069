// Package nameserver parses the Brocade nsshow listing, where every logged-in device is a
// multi-line block: a row with the port identifiers followed by indented attributes such
// as the port and node symbolic names.
package nameserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/cursor"
	"github.com/vulntor/fabricscan/pkg/extract"
	"github.com/vulntor/fabricscan/pkg/pattern"
	"github.com/vulntor/fabricscan/pkg/section"
)

// Pattern names the parser depends on.
const (
	PatternStart    = "nsshow_start"
	PatternStop     = "nsshow_end"
	PatternRow      = "ns_row"
	PatternAttr     = "ns_attr"
	PatternSymbolic = "ns_symbolic"
)

// Attribute keys carrying symbolic names.
const (
	AttrPortSymb = "PortSymb"
	AttrNodeSymb = "NodeSymb"
)

// Row is one Name Server entry.
type Row struct {
	Line     int                `json:"line"`
	Type     string             `json:"type"`
	PID      string             `json:"pid"`
	COS      *string            `json:"cos,omitempty"`
	PortWWN  string             `json:"port_wwn"`
	NodeWWN  string             `json:"node_wwn"`
	TTL      *string            `json:"ttl,omitempty"`
	PortSymb *string            `json:"port_symb,omitempty"`
	NodeSymb *string            `json:"node_symb,omitempty"`
	Attrs    map[string]*string `json:"attrs,omitempty"`
}

// Parser is immutable and safe for concurrent use.
type Parser struct {
	start    *pattern.Entry
	stop     *pattern.Entry
	row      *pattern.Entry
	attr     *pattern.Entry
	symbolic *pattern.Entry
}

// New resolves the nsshow patterns from reg.
func New(reg *pattern.Registry) (*Parser, error) {
	var (
		p   Parser
		err error
	)
	if p.start, err = reg.Require(pattern.RoleSectionStart, PatternStart); err != nil {
		return nil, fmt.Errorf("nameserver: %w", err)
	}
	if p.stop, err = reg.Require(pattern.RoleSectionStop, PatternStop); err != nil {
		return nil, fmt.Errorf("nameserver: %w", err)
	}
	if p.row, err = reg.Require(pattern.RoleListExtract, PatternRow); err != nil {
		return nil, fmt.Errorf("nameserver: %w", err)
	}
	if p.attr, err = reg.Require(pattern.RoleFieldExtract, PatternAttr); err != nil {
		return nil, fmt.Errorf("nameserver: %w", err)
	}
	if p.symbolic, err = reg.Require(pattern.RoleFieldExtract, PatternSymbolic); err != nil {
		return nil, fmt.Errorf("nameserver: %w", err)
	}
	if p.row.Arity() < 5 || p.attr.Arity() != 2 || p.symbolic.Arity() != 1 {
		return nil, fmt.Errorf("nameserver: %w: unexpected capture groups in nsshow patterns", pattern.ErrInvalidPattern)
	}
	return &p, nil
}

// Parse seeks the nsshow header in cur and returns the rows of that block. Input without
// a header yields no rows and a zero outcome.
func (p *Parser) Parse(cur cursor.Cursor) ([]Row, extract.Outcome) {
	line, ok := cur.Current()
	for ok && !p.start.Match(line) {
		line, ok = cur.Advance()
	}
	if !ok {
		return nil, extract.Outcome{}
	}
	return p.body(cur, p.stop)
}

// Extract implements section.Handler so the parser can serve a block section.
func (p *Parser) Extract(cur cursor.Cursor, stop *pattern.Entry, ctx *section.Context) extract.Outcome {
	if stop == nil {
		stop = p.stop
	}
	rows, out := p.body(cur, stop)
	ctx.Data = rows
	return out
}

// body reads from the line after the header up to the stop line, which stays current.
func (p *Parser) body(cur cursor.Cursor, stop *pattern.Entry) ([]Row, extract.Outcome) {
	var (
		rows []Row
		out  extract.Outcome
	)
	for {
		line, ok := cur.Advance()
		if !ok {
			out.Truncated = true
			return rows, out
		}
		if stop.Match(line) {
			return rows, out
		}
		if groups := p.row.Submatch(line); groups != nil {
			rows = append(rows, newRow(cur.LineNo(), groups))
			out.Matched++
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if groups := p.attr.Submatch(line); groups != nil {
			p.addAttr(&rows[len(rows)-1], groups[0], groups[1])
		}
	}
}

func newRow(lineNo int, groups []string) Row {
	r := Row{
		Line:    lineNo,
		Type:    groups[0],
		PID:     strings.ToLower(groups[1]),
		COS:     extract.Value(groups[2]),
		PortWWN: strings.ToLower(groups[3]),
		NodeWWN: strings.ToLower(groups[4]),
		Attrs:   make(map[string]*string),
	}
	if len(groups) > 5 {
		r.TTL = extract.Value(groups[5])
	}
	return r
}

func (p *Parser) addAttr(r *Row, key, value string) {
	key = strings.TrimSpace(key)
	v := extract.Value(value)
	r.Attrs[key] = v

	switch key {
	case AttrPortSymb:
		r.PortSymb = p.unwrap(v)
	case AttrNodeSymb:
		r.NodeSymb = p.unwrap(v)
	}
}

// unwrap strips the '[len] "text"' envelope. Values printed without it are kept as is.
func (p *Parser) unwrap(v *string) *string {
	if v == nil {
		return nil
	}
	if groups := p.symbolic.Submatch(*v); groups != nil {
		return extract.Value(groups[0])
	}
	return v
}

// Entry pairs a Name Server row with its device classification.
type Entry struct {
	Row    Row             `json:"row"`
	Device classify.Result `json:"device"`
}

// Pairs returns the symbolic-name inputs of rows, positionally aligned.
func Pairs(rows []Row) []classify.Pair {
	pairs := make([]classify.Pair, len(rows))
	for i, r := range rows {
		pairs[i] = classify.Pair{PortSymb: r.PortSymb, NodeSymb: r.NodeSymb}
	}
	return pairs
}

// Classify runs the cascade over rows with at most workers goroutines.
func Classify(ctx context.Context, cascade *classify.Cascade, rows []Row, workers int) ([]Entry, error) {
	results, err := cascade.ClassifyAll(ctx, Pairs(rows), workers)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(rows))
	for i := range rows {
		entries[i] = Entry{Row: rows[i], Device: results[i]}
	}
	return entries, nil
}
