// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
	"github.com/AleutianAI/gettextcheck/services/gettext/classify"
)

const (
	// MessageID identifies missing-translation findings in reports.
	MessageID = "W9903"

	// Symbol is the human-readable name of MessageID.
	Symbol = "missing-gettext"

	// MessageDescription is the long help text for MessageID.
	MessageDescription = "There is a raw string that's not passed through gettext"
)

// Finding is one literal that needs translation.
type Finding struct {
	MessageID string       `json:"message_id"`
	Symbol    string       `json:"symbol"`
	Message   string       `json:"message"`
	Text      string       `json:"text"`
	Location  ast.Location `json:"location"`
}

// newFinding builds the finding for a literal.
func newFinding(lit *ast.Node) Finding {
	return Finding{
		MessageID: MessageID,
		Symbol:    Symbol,
		Message:   fmt.Sprintf("non-gettext-ed string %s", PythonRepr(lit.Value)),
		Text:      lit.Value,
		Location:  lit.Location,
	}
}

// String renders the finding as "path:line:col: W9903 (missing-gettext) message".
func (f Finding) String() string {
	return fmt.Sprintf("%s: %s (%s) %s", f.Location, f.MessageID, f.Symbol, f.Message)
}

// Exemption records why a literal was not reported. Only collected when
// the checker explains its decisions.
type Exemption struct {
	Text     string            `json:"text"`
	Location ast.Location      `json:"location"`
	Decision classify.Decision `json:"decision"`
}

// sortFindings orders findings by file, line, column, then text.
func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i].Location, findings[j].Location
		if a.FilePath == b.FilePath {
			if a.StartLine == b.StartLine {
				if a.StartCol == b.StartCol {
					return findings[i].Text < findings[j].Text
				}
				return a.StartCol < b.StartCol
			}
			return a.StartLine < b.StartLine
		}
		return a.FilePath < b.FilePath
	})
}

// PythonRepr quotes s the way Python's repr() quotes a str.
//
// Description:
//
//	Single quotes are used unless s contains a single quote and no double
//	quote. Backslashes, the chosen quote, tabs, newlines and carriage
//	returns are escaped; other non-printable runes use \x, \u or \U.
func PythonRepr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for i, w := 0, 0; i < len(s); i += w {
		r, width := utf8.DecodeRuneInString(s[i:])
		w = width
		switch {
		case r == utf8.RuneError && width == 1:
			fmt.Fprintf(&b, `\x%02x`, s[i])
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < utf8.RuneSelf || unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
