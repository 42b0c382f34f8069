// Package dump ties the scanner, the Name Server parser and the classifier together into
// a per-file pipeline driven by a dump profile.
package dump

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/cursor"
	"github.com/vulntor/fabricscan/pkg/nameserver"
	"github.com/vulntor/fabricscan/pkg/pattern"
	"github.com/vulntor/fabricscan/pkg/section"
)

// HandlerNameServer is the block handler name bound to the Name Server parser.
const HandlerNameServer = "nsshow"

// Report is everything extracted from one dump.
type Report struct {
	Source     string                      `json:"source"`
	Profile    string                      `json:"profile"`
	Key        *string                     `json:"key,omitempty"`
	Sections   map[string]*section.Context `json:"sections"`
	Order      []string                    `json:"order"`
	NameServer []nameserver.Entry          `json:"name_server,omitempty"`
	Coverage   *classify.Coverage          `json:"coverage,omitempty"`
	Truncated  []string                    `json:"truncated,omitempty"`
	Lines      int                         `json:"lines"`
	Duration   time.Duration               `json:"duration"`
}

// Option configures NewParser.
type Option func(*Parser)

// WithSections appends user-defined sections to the profile.
func WithSections(specs ...section.Spec) Option {
	return func(p *Parser) {
		p.extra = append(p.extra, specs...)
	}
}

// WithWorkers bounds the goroutines used to classify Name Server rows.
func WithWorkers(n int) Option {
	return func(p *Parser) {
		p.workers = n
	}
}

// WithCursorOptions forwards options to every cursor the parser opens.
func WithCursorOptions(opts ...cursor.Option) Option {
	return func(p *Parser) {
		p.cursorOpts = append(p.cursorOpts, opts...)
	}
}

// WithTrace records every classification outcome.
func WithTrace(w *classify.TraceWriter) Option {
	return func(p *Parser) {
		p.trace = w
	}
}

// Parser parses dumps of one profile. It is safe for concurrent use; every Parse call
// owns its cursor.
type Parser struct {
	profile    Profile
	scanner    *section.Scanner
	cascade    *classify.Cascade
	extra      []section.Spec
	workers    int
	cursorOpts []cursor.Option
	trace      *classify.TraceWriter
}

// NewParser resolves profile against reg. A nil cascade leaves Name Server rows
// unclassified.
func NewParser(reg *pattern.Registry, cascade *classify.Cascade, profile string, opts ...Option) (*Parser, error) {
	prof, err := LookupProfile(profile)
	if err != nil {
		return nil, err
	}
	p := &Parser{profile: prof, cascade: cascade}
	for _, opt := range opts {
		opt(p)
	}

	ns, err := nameserver.New(reg)
	if err != nil {
		return nil, err
	}
	specs := append(append([]section.Spec{}, prof.Sections...), p.extra...)
	p.scanner, err = section.New(reg, specs, section.WithHandler(HandlerNameServer, ns))
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile, err)
	}
	return p, nil
}

// Profile returns the profile name.
func (p *Parser) Profile() string { return p.profile.Name }

// ParseFile opens path and parses it.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer f.Close()
	return p.Parse(ctx, filepath.Base(path), f)
}

// Parse runs one pass over r. Sections cut off by the end of input are listed in
// Report.Truncated and do not fail the parse; a read error does.
func (p *Parser) Parse(ctx context.Context, name string, r io.Reader) (*Report, error) {
	started := time.Now()
	logger := log.With().Str("source", name).Str("profile", p.profile.Name).Logger()

	cur := cursor.NewReader(r, p.cursorOpts...)
	res := p.scanner.Scan(cur, section.WithPrefix(name))
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s line %d: %v", ErrRead, name, cur.LineNo()+1, err)
	}

	rep := &Report{
		Source:    name,
		Profile:   p.profile.Name,
		Sections:  res.Sections,
		Order:     res.Order,
		Truncated: res.Truncated(),
		Lines:     cur.LineNo(),
	}
	rep.Key = p.key(res)

	rows := nameServerRows(res)
	if p.cascade != nil && len(rows) > 0 {
		entries, err := nameserver.Classify(ctx, p.cascade, rows, p.workers)
		if err != nil {
			return nil, err
		}
		rep.NameServer = entries
		cov := summarize(entries)
		rep.Coverage = &cov
		for _, e := range entries {
			pair := classify.Pair{PortSymb: e.Row.PortSymb, NodeSymb: e.Row.NodeSymb}
			if err := p.trace.Record(name, pair, e.Device); err != nil {
				logger.Warn().Err(err).Msg("trace write failed")
				break
			}
		}
	} else {
		for _, row := range rows {
			rep.NameServer = append(rep.NameServer, nameserver.Entry{Row: row})
		}
	}

	rep.Duration = time.Since(started)
	logger.Debug().
		Int("sections", len(rep.Order)).
		Int("ns_rows", len(rows)).
		Strs("truncated", rep.Truncated).
		Dur("duration", rep.Duration).
		Msg("dump parsed")
	return rep, nil
}

func (p *Parser) key(res *section.Result) *string {
	if p.profile.Key == nil {
		return nil
	}
	ctx, ok := res.Get(p.profile.Key.Section)
	if !ok || ctx.Fields == nil {
		return nil
	}
	return ctx.Fields[p.profile.Key.Field]
}

// nameServerRows gathers the rows of every block section served by the Name Server
// handler.
func nameServerRows(res *section.Result) []nameserver.Row {
	var rows []nameserver.Row
	for _, name := range res.Order {
		if data, ok := res.Sections[name].Data.([]nameserver.Row); ok {
			rows = append(rows, data...)
		}
	}
	return rows
}

func summarize(entries []nameserver.Entry) classify.Coverage {
	results := make([]classify.Result, len(entries))
	for i, e := range entries {
		results[i] = e.Device
	}
	return classify.Summarize(results)
}
