// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vulntor/fabricscan/pkg/classify"
)

// topRules is how many rules the coverage box lists.
const topRules = 5

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type coverageJSON struct {
	Title             string      `json:"title"`
	Total             int         `json:"total"`
	NodeClassified    int         `json:"node_classified"`
	PortClassified    int         `json:"port_classified"`
	Unclassified      int         `json:"unclassified"`
	Empty             int         `json:"empty"`
	UnclassifiedRatio float64     `json:"unclassified_ratio"`
	RuleHits          map[int]int `json:"rule_hits,omitempty"`
}

func (f *formatter) PrintCoverage(title string, cov classify.Coverage) error {
	if f.mode == ModeJSON {
		return f.PrintJSON(coverageJSON{
			Title:             title,
			Total:             cov.Total,
			NodeClassified:    cov.NodeClassified,
			PortClassified:    cov.PortClassified,
			Unclassified:      cov.Unclassified,
			Empty:             cov.Empty,
			UnclassifiedRatio: cov.UnclassifiedRatio(),
			RuleHits:          cov.RuleHits,
		})
	}
	if f.quiet {
		return nil
	}
	_, err := fmt.Fprintln(f.stdout, f.renderCoverage(title, cov))
	return err
}

func (f *formatter) renderCoverage(title string, cov classify.Coverage) string {
	paint := func(st lipgloss.Style, s string) string {
		if !f.color {
			return s
		}
		return st.Render(s)
	}

	var b strings.Builder
	b.WriteString(paint(titleStyle, title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Rows          %d\n", cov.Total)
	fmt.Fprintf(&b, "%s Node symbol  %d\n", paint(okStyle, "✓"), cov.NodeClassified)
	fmt.Fprintf(&b, "%s Port symbol  %d\n", paint(okStyle, "✓"), cov.PortClassified)
	mark := paint(okStyle, "✓")
	if cov.Unclassified > 0 {
		mark = paint(warnStyle, "⚠")
	}
	fmt.Fprintf(&b, "%s Raw copy     %d (%.1f%%)\n", mark, cov.Unclassified, cov.UnclassifiedRatio()*100)
	fmt.Fprintf(&b, "  Empty        %d", cov.Empty)

	if ids := cov.TopRules(topRules); len(ids) > 0 {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = "#" + strconv.Itoa(id) + "×" + strconv.Itoa(cov.RuleHits[id])
		}
		b.WriteString("\n  Top rules    " + strings.Join(parts, " "))
	}

	if !f.color {
		return b.String()
	}
	return boxStyle.Render(b.String())
}
