package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// TraceEvent records one classification outcome.
type TraceEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
	PortSymb  string    `json:"port_symb,omitempty"`
	NodeSymb  string    `json:"node_symb,omitempty"`
	MatchType string    `json:"match_type"` // "node", "port" or "fallback"
	RuleID    int       `json:"rule_id,omitempty"`
	Companion int       `json:"companion_rule_id,omitempty"`
}

// TraceWriter appends classification events to a JSONL file so rule gaps can be found
// from real dumps. A writer created with an empty path discards everything.
type TraceWriter struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
	enabled bool
}

// NewTraceWriter opens path for appending.
func NewTraceWriter(path string) (*TraceWriter, error) {
	if path == "" {
		return &TraceWriter{}, nil
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &TraceWriter{file: file, encoder: json.NewEncoder(file), enabled: true}, nil
}

// Record writes the outcome of classifying pair. Safe for concurrent use.
func (w *TraceWriter) Record(source string, pair Pair, res Result) error {
	if w == nil || !w.enabled {
		return nil
	}
	ev := TraceEvent{Timestamp: time.Now(), Source: source, MatchType: "fallback"}
	ev.PortSymb, _ = present(pair.PortSymb)
	ev.NodeSymb, _ = present(pair.NodeSymb)
	switch {
	case res.NodeSymbUsed:
		ev.MatchType = "node"
		ev.RuleID = *res.NodeSymbRuleID
		if res.PortSymbRuleID != nil {
			ev.Companion = *res.PortSymbRuleID
		}
	case res.PortSymbUsed:
		ev.MatchType = "port"
		ev.RuleID = *res.PortSymbRuleID
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.encoder.Encode(ev); err != nil {
		return fmt.Errorf("failed to write trace event: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *TraceWriter) Close() error {
	if w == nil || !w.enabled {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = false
	return w.file.Close()
}
