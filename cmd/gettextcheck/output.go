// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/gettextcheck/services/gettext"
	"github.com/AleutianAI/gettextcheck/services/gettext/lint"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
)

// styles used for coloured terminal output.
type styles struct {
	location lipgloss.Style
	code     lipgloss.Style
	exempt   lipgloss.Style
	failed   lipgloss.Style
	ok       lipgloss.Style
	bad      lipgloss.Style
	header   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		location: lipgloss.NewStyle().Faint(true),
		code:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		exempt:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		failed:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		ok:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		bad:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		header:   lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// renderer writes reports in the selected format.
type renderer struct {
	w      io.Writer
	format string
	color  bool
	styles styles
}

// newRenderer validates format and enables colour when w is a terminal.
func newRenderer(w io.Writer, format string) (*renderer, error) {
	switch format {
	case formatText, formatJSON:
	default:
		return nil, fmt.Errorf("unknown --format %q (want text or json)", format)
	}
	return &renderer{
		w:      w,
		format: format,
		color:  format == formatText && isTerminal(w),
		styles: defaultStyles(),
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// paint applies style only when colour is enabled.
func (r *renderer) paint(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

func (r *renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// report writes a check report. Exemptions are printed only when explain
// is set and the checker collected them.
func (r *renderer) report(report *lint.Report, explain bool) error {
	if r.format == formatJSON {
		return r.writeJSON(report)
	}

	for _, file := range report.Files {
		if file.Error != "" {
			fmt.Fprintf(r.w, "%s: %s\n", r.paint(r.styles.location, file.Path), r.paint(r.styles.failed, "error: "+file.Error))
		}
	}
	for _, f := range report.Findings {
		fmt.Fprintf(r.w, "%s: %s %s\n",
			r.paint(r.styles.location, f.Location.String()),
			r.paint(r.styles.code, fmt.Sprintf("%s (%s)", f.MessageID, f.Symbol)),
			f.Message,
		)
	}
	if explain {
		for _, file := range report.Files {
			for _, e := range file.Exemptions {
				fmt.Fprintf(r.w, "%s: %s %s\n",
					r.paint(r.styles.location, e.Location.String()),
					r.paint(r.styles.exempt, e.Decision.String()),
					lint.PythonRepr(e.Text),
				)
			}
		}
	}

	summary := fmt.Sprintf("%d %s in %d %s (%d %s checked",
		len(report.Findings), plural(len(report.Findings), "finding", "findings"),
		report.FilesChecked, plural(report.FilesChecked, "file", "files"),
		report.LiteralsChecked, plural(report.LiteralsChecked, "literal", "literals"),
	)
	if report.FilesFailed > 0 {
		summary += fmt.Sprintf(", %d failed", report.FilesFailed)
	}
	summary += ")"

	style := r.styles.ok
	if len(report.Findings) > 0 || report.FilesFailed > 0 {
		style = r.styles.bad
	}
	_, err := fmt.Fprintln(r.w, r.paint(style, summary))
	return err
}

// rules writes the classification pipeline in evaluation order.
func (r *renderer) rules(desc gettext.RulesResponse) error {
	if r.format == formatJSON {
		return r.writeJSON(desc)
	}

	fmt.Fprintln(r.w, r.paint(r.styles.header, "Translation wrappers"))
	for _, w := range desc.TranslationWrappers {
		fmt.Fprintf(r.w, "  %s\n", w)
	}
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, r.paint(r.styles.header, "Content predicates"))
	for i, p := range desc.ContentPredicates {
		fmt.Fprintf(r.w, "  %2d. %s\n", i+1, p)
	}
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, r.paint(r.styles.header, "Structural rules"))
	for i, rule := range desc.Rules {
		fmt.Fprintf(r.w, "  %2d. %-22s %s\n", i+1, rule.Name, r.paint(r.styles.exempt, rule.Kind))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
