// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"strconv"
	"strings"
)

// pythonStringValue decodes the source text of one Python string token.
//
// Description:
//
//	Strips the prefix letters and quotes, then resolves backslash escapes
//	unless the prefix marks a raw string. Bytes and f-string tokens are not
//	text: their body is returned undecoded with isText false.
//
// Outputs:
//
//	string - The decoded value.
//	bool - False for bytes, f-strings and tokens that are not quoted strings.
func pythonStringValue(raw string) (string, bool) {
	i := 0
	for i < len(raw) && isStringPrefixByte(raw[i]) {
		i++
	}
	prefix := strings.ToLower(raw[:i])
	body := raw[i:]

	quote := ""
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			quote = q
			break
		}
	}
	if quote == "" {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	if strings.ContainsAny(prefix, "bf") {
		return body, false
	}
	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescapePython(body), true
}

func isStringPrefixByte(c byte) bool {
	switch c {
	case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
		return true
	}
	return false
}

// unescapePython resolves the escape sequences of a non-raw str literal.
// Unknown escapes keep their backslash, as Python does. \N{...} is kept
// verbatim since resolving it needs the Unicode name table.
func unescapePython(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		next := s[i+1]
		switch next {
		case '\n':
			i += 2
		case '\r':
			i += 2
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(next)
			i += 2
		case 'a':
			b.WriteByte('\a')
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'v':
			b.WriteByte('\v')
			i += 2
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[next]
			if r, ok := parseHexRune(s, i+2, width); ok {
				b.WriteRune(r)
				i += 2 + width
			} else {
				b.WriteByte('\\')
				i++
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			end := i + 1
			for end < len(s) && end < i+4 && s[end] >= '0' && s[end] <= '7' {
				end++
			}
			v, _ := strconv.ParseUint(s[i+1:end], 8, 32)
			b.WriteRune(rune(v))
			i = end
		default:
			b.WriteByte('\\')
			i++
		}
	}
	return b.String()
}

func parseHexRune(s string, start, width int) (rune, bool) {
	if start+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+width], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
