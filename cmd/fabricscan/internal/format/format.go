// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/dump"
)

// OutputMode selects how commands render their results.
type OutputMode string

const (
	ModeJSON  OutputMode = "json"
	ModeTable OutputMode = "table"
)

// Formatter renders command output. Data goes to stdout, diagnostics to stderr.
type Formatter interface {
	// PrintJSON writes data as indented JSON to stdout.
	PrintJSON(data any) error

	// PrintTable writes rows under headers. In JSON mode rows become objects keyed by
	// header.
	PrintTable(headers []string, rows [][]string) error

	// PrintSummary writes a one-line summary unless quiet.
	PrintSummary(message string) error

	// PrintCoverage renders classification coverage for a run.
	PrintCoverage(title string, cov classify.Coverage) error

	// PrintError writes err with its code and hints.
	PrintError(err error) error

	Mode() OutputMode
}

type formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	quiet  bool
	color  bool
}

// New returns a Formatter writing to stdout and stderr.
func New(stdout, stderr io.Writer, mode OutputMode, quiet, color bool) Formatter {
	return &formatter{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		quiet:  quiet,
		color:  color,
	}
}

func (f *formatter) Mode() OutputMode { return f.mode }

func (f *formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *formatter) PrintTable(headers []string, rows [][]string) error {
	if f.mode == ModeJSON {
		items := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					item[h] = row[i]
				}
			}
			items = append(items, item)
		}
		return f.PrintJSON(items)
	}

	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)
	head := make([]string, len(headers))
	for i, h := range headers {
		head[i] = strings.ToUpper(h)
		if f.color {
			head[i] = color.New(color.Bold).Sprint(head[i])
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(head, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (f *formatter) PrintSummary(message string) error {
	if f.quiet {
		return nil
	}
	// Keep stdout parseable in JSON mode.
	if f.mode == ModeJSON {
		_, err := fmt.Fprintln(f.stderr, message)
		return err
	}
	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}
	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

func (f *formatter) PrintError(err error) error {
	if err == nil {
		return nil
	}
	code := dump.ErrorCode(err)
	hints := dump.Suggestions(err)

	if f.mode == ModeJSON {
		out := map[string]any{
			"success": false,
			"error":   err.Error(),
		}
		if code != "" {
			out["code"] = code
		}
		if len(hints) > 0 {
			out["suggestions"] = hints
		}
		return f.PrintJSON(out)
	}

	msg := "Error: " + err.Error()
	if code != "" {
		msg = fmt.Sprintf("Error [%s]: %v", code, err)
	}
	var writeErr error
	if f.color {
		_, writeErr = color.New(color.FgRed).Fprintln(f.stderr, msg)
	} else {
		_, writeErr = fmt.Fprintln(f.stderr, msg)
	}
	if writeErr != nil {
		return writeErr
	}
	for _, h := range hints {
		if _, err := fmt.Fprintf(f.stderr, "  → %s\n", h); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMode rejects unknown output modes.
func ValidateMode(mode string) error {
	switch OutputMode(strings.ToLower(mode)) {
	case ModeJSON, ModeTable:
		return nil
	default:
		return fmt.Errorf("invalid output mode: %s (must be 'json' or 'table')", mode)
	}
}

// ParseMode converts mode to an OutputMode, defaulting to table.
func ParseMode(mode string) OutputMode {
	if strings.EqualFold(mode, string(ModeJSON)) {
		return ModeJSON
	}
	return ModeTable
}
