// Package extract implements the line-level extraction strategies used inside a section:
// key/value pairs, bare single values and multi-column records.
//
// Every extractor starts with the cursor on the section header line and stops on the
// first line matching the stop pattern, leaving that line current so the caller can
// examine it again. Reaching end of input first is reported as a truncated outcome with
// whatever was collected; it is never an error.
package extract

import (
	"strings"

	"github.com/vulntor/fabricscan/pkg/cursor"
	"github.com/vulntor/fabricscan/pkg/pattern"
)

// Policy selects whether the header line is scanned for data.
type Policy string

const (
	// SkipFirst advances past the header before matching. Used when the header carries
	// no data.
	SkipFirst Policy = "skip_first"
	// SkipLast matches the current line before advancing, so an inline value on the
	// header line is captured.
	SkipLast Policy = "skip_last"
)

// IsValid reports whether p is a known policy.
func (p Policy) IsValid() bool {
	return p == SkipFirst || p == SkipLast
}

// Record is one extracted row. A nil element is an absent value.
type Record []*string

// Strings renders the record with absent values as "".
func (r Record) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// Outcome summarises an extraction run.
type Outcome struct {
	Matched   int  // lines that matched the extraction pattern
	Truncated bool // input ended before the stop pattern was seen
}

// Spec binds an extraction pattern to a stop pattern and a skip policy. A nil Stop runs
// to the end of input, which then counts as a normal end.
type Spec struct {
	Match  *pattern.Entry
	Stop   *pattern.Entry
	Policy Policy
}

// Value trims s and returns nil when nothing is left. Absent and empty are different
// signals downstream, so an empty capture is never stored as "".
func Value(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Row matches line against entry and returns prefix values followed by the captured
// groups. Empty captures become nil.
func Row(entry *pattern.Entry, line string, prefix ...string) (Record, bool) {
	groups := entry.Submatch(line)
	if groups == nil {
		return nil, false
	}
	rec := make(Record, 0, len(prefix)+len(groups))
	for _, p := range prefix {
		rec = append(rec, &p)
	}
	for _, g := range groups {
		rec = append(rec, Value(g))
	}
	return rec, true
}

// walk drives the cursor according to the policy and calls visit for each candidate data
// line. The stop pattern is never tested against the header line and the stop line is
// never visited.
func (s Spec) walk(cur cursor.Cursor, visit func(line string)) Outcome {
	var out Outcome
	line, ok := cur.Current()
	if !ok {
		out.Truncated = s.Stop != nil
		return out
	}

	if s.Policy == SkipLast {
		for {
			if s.Match.Match(line) {
				out.Matched++
				visit(line)
			}
			if line, ok = cur.Advance(); !ok {
				out.Truncated = s.Stop != nil
				return out
			}
			if s.Stop != nil && s.Stop.Match(line) {
				return out
			}
		}
	}

	for {
		if line, ok = cur.Advance(); !ok {
			out.Truncated = s.Stop != nil
			return out
		}
		if s.Stop != nil && s.Stop.Match(line) {
			return out
		}
		if s.Match.Match(line) {
			out.Matched++
			visit(line)
		}
	}
}

// KeyValue collects key/value pairs into fields. The pattern must capture the key and
// the value. Keys are trimmed; a value empty after trimming is stored as nil. A repeated
// key keeps the last value.
func (s Spec) KeyValue(cur cursor.Cursor, fields map[string]*string) Outcome {
	return s.walk(cur, func(line string) {
		groups := s.Match.Submatch(line)
		if len(groups) < 2 {
			return
		}
		key := strings.TrimSpace(groups[0])
		if key == "" {
			return
		}
		fields[key] = Value(groups[1])
	})
}

// Single collects the first capture group of every matching line. Empty captures are
// skipped.
func (s Spec) Single(cur cursor.Cursor) ([]string, Outcome) {
	var values []string
	out := s.walk(cur, func(line string) {
		groups := s.Match.Submatch(line)
		if len(groups) == 0 {
			return
		}
		if v := Value(groups[0]); v != nil {
			values = append(values, *v)
		}
	})
	return values, out
}

// List collects one record per matching line, each starting with the prefix values.
func (s Spec) List(cur cursor.Cursor, prefix ...string) ([]Record, Outcome) {
	var records []Record
	out := s.walk(cur, func(line string) {
		if rec, ok := Row(s.Match, line, prefix...); ok {
			records = append(records, rec)
		}
	})
	return records, out
}
