// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"errors"
	"net/url"
	"os"
	"os/user"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/gettextcheck/services/gettext/config"
)

// Content predicate names, in evaluation order.
const (
	PredicateEmpty       = "empty"
	PredicateAllowList   = "allow-list"
	PredicateAllCaps     = "all-caps"
	PredicateNumber      = "number"
	PredicateURL         = "url"
	PredicatePath        = "path"
	PredicateRegex       = "regex"
	PredicateURLFragment = "url-fragment"
	PredicateFormatOnly  = "format-only"
	PredicateHeaderValue = "header-value"
)

// ContentPredicate is one named test over a literal's text.
type ContentPredicate struct {
	Name  string
	Match func(text string) bool
}

// HomeDirFunc resolves the home directory of a user. An empty username
// means the current user.
type HomeDirFunc func(username string) (string, bool)

// ContentClassifier decides exemptions from a literal's text alone.
//
// Description:
//
//	Holds the ordered predicate list built from configuration. The first
//	predicate that matches exempts the literal; when none does the content
//	stage is inconclusive and the structure of the tree decides.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type ContentClassifier struct {
	predicates []ContentPredicate
}

// ContentOption configures a ContentClassifier.
type ContentOption func(*contentOptions)

type contentOptions struct {
	homeDir HomeDirFunc
}

// WithHomeDir replaces the home directory lookup used by the path predicate.
func WithHomeDir(fn HomeDirFunc) ContentOption {
	return func(o *contentOptions) {
		if fn != nil {
			o.homeDir = fn
		}
	}
}

// NewContentClassifier builds the content predicates from configuration.
//
// Inputs:
//
//	cfg - The content section of the configuration.
//	opts - Optional overrides, mainly for tests.
//
// Outputs:
//
//	*ContentClassifier - Ready for use. Never nil.
func NewContentClassifier(cfg config.ContentConfig, opts ...ContentOption) *ContentClassifier {
	options := contentOptions{homeDir: systemHomeDir}
	for _, opt := range opts {
		opt(&options)
	}

	allow := newNameSet(cfg.AllowList)
	urlMatch := heuristicURLMatcher(cfg.URLProtocols, cfg.URLExtensions)
	if cfg.StructuredURLParsing {
		urlMatch = isStructuredURL
	}
	headers := append([]string(nil), cfg.HeaderPrefixes...)
	homeDir := options.homeDir

	return &ContentClassifier{predicates: []ContentPredicate{
		{PredicateEmpty, func(t string) bool { return t == "" }},
		{PredicateAllowList, allow.has},
		{PredicateAllCaps, isAllCaps},
		{PredicateNumber, isNumber},
		{PredicateURL, urlMatch},
		{PredicatePath, func(t string) bool { return isPath(t, homeDir) }},
		{PredicateRegex, func(t string) bool { return strings.HasPrefix(t, "^") && strings.HasSuffix(t, "$") }},
		{PredicateURLFragment, func(t string) bool { return strings.HasPrefix(t, "/") && strings.HasSuffix(t, "/") }},
		{PredicateFormatOnly, isFormatOnly},
		{PredicateHeaderValue, func(t string) bool { return hasAnyPrefix(t, headers) }},
	}}
}

// Match returns the name of the first predicate that exempts text.
func (c *ContentClassifier) Match(text string) (string, bool) {
	for _, p := range c.predicates {
		if p.Match(text) {
			return p.Name, true
		}
	}
	return "", false
}

// ClassifyContent reports whether text is exempt on content alone.
func (c *ContentClassifier) ClassifyContent(text string) bool {
	_, ok := c.Match(text)
	return ok
}

// Predicates returns the predicate names in evaluation order.
func (c *ContentClassifier) Predicates() []string {
	names := make([]string, len(c.predicates))
	for i, p := range c.predicates {
		names[i] = p.Name
	}
	return names
}

// isAllCaps matches constant-like keys such as "DEBUG" or "USER_ID".
// Strings of three runes or fewer are left to the other predicates.
func isAllCaps(text string) bool {
	return utf8.RuneCountInString(text) > 3 && strings.ToUpper(text) == text
}

// isNumber reports whether text parses as a floating point number the way a
// Python float() call would: surrounding whitespace is ignored, inf and nan
// are accepted in any case and with a sign, overflow still counts, and hex
// forms are rejected.
func isNumber(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}

	unsigned := strings.TrimLeft(s, "+-")
	if len(s)-len(unsigned) > 1 {
		return false
	}
	lower := strings.ToLower(unsigned)
	if strings.HasPrefix(lower, "0x") {
		return false
	}
	if lower == "nan" {
		return true
	}

	_, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return true
	}
	return errors.Is(err, strconv.ErrRange)
}

// isStructuredURL requires a scheme plus a host or a path. "file://" alone
// has neither and is not a URL. Text that url.Parse rejects, such as
// "http://%s/login/" or a host with a space, is split leniently instead.
func isStructuredURL(text string) bool {
	u, err := url.Parse(text)
	if err != nil {
		scheme, netloc, path := splitURL(text)
		return scheme != "" && (netloc != "" || path != "")
	}
	if u.Scheme == "" {
		return false
	}
	hasNetloc := u.Host != "" || u.User != nil
	hasPath := u.Path != "" || u.Opaque != ""
	return hasNetloc || hasPath
}

// splitURL splits text into scheme, netloc and path without validating any
// of them. The scheme is a letter followed by letters, digits, "+", "-" or
// "." before the first ":". The netloc follows "//" up to the first "/",
// "?" or "#". The path runs up to the query or fragment.
func splitURL(text string) (scheme, netloc, path string) {
	rest := text
	if i := strings.IndexByte(rest, ':'); i > 0 && isSchemeName(rest[:i]) {
		scheme, rest = strings.ToLower(rest[:i]), rest[i+1:]
	}
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		netloc, rest = rest[:end], rest[end:]
	}
	if end := strings.IndexAny(rest, "?#"); end >= 0 {
		rest = rest[:end]
	}
	return scheme, netloc, rest
}

func isSchemeName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// heuristicURLMatcher recognizes URLs without a parser.
//
// Description:
//
//	A text is a URL when it strictly starts with "<protocol>://", or when it
//	strictly starts with ".<extension>". The second test is a prefix test,
//	not a suffix test; see DESIGN.md for why it is kept that way.
func heuristicURLMatcher(protocols, extensions []string) func(string) bool {
	prefixes := make([]string, 0, len(protocols)+len(extensions))
	for _, p := range protocols {
		prefixes = append(prefixes, p+"://")
	}
	for _, ext := range extensions {
		prefixes = append(prefixes, "."+ext)
	}
	return func(text string) bool {
		for _, prefix := range prefixes {
			if strictlyStartsWith(text, prefix) {
				return true
			}
		}
		return false
	}
}

func strictlyStartsWith(text, prefix string) bool {
	return len(text) > len(prefix) && strings.HasPrefix(text, prefix)
}

// isPath matches home-relative paths that resolve, and anything containing
// "./" or "/." (which covers "../" and "/..").
func isPath(text string, homeDir HomeDirFunc) bool {
	if expandsHome(text, homeDir) {
		return true
	}
	return strings.Contains(text, "./") || strings.Contains(text, "/.")
}

// expandsHome reports whether a leading "~" or "~user" would be replaced by
// a home directory.
func expandsHome(text string, homeDir HomeDirFunc) bool {
	if !strings.HasPrefix(text, "~") {
		return false
	}
	name, _, _ := strings.Cut(text[1:], "/")
	_, ok := homeDir(name)
	return ok
}

func systemHomeDir(username string) (string, bool) {
	if username == "" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return home, true
		}
		u, err := user.Current()
		if err != nil || u.HomeDir == "" {
			return "", false
		}
		return u.HomeDir, true
	}

	u, err := user.Lookup(username)
	if err != nil || u.HomeDir == "" {
		return "", false
	}
	return u.HomeDir, true
}

// isFormatOnly matches texts made only of %s, %d and non-letters.
func isFormatOnly(text string) bool {
	stripped := strings.ReplaceAll(strings.ReplaceAll(text, "%s", ""), "%d", "")
	for i := 0; i < len(stripped); i++ {
		c := stripped[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

func hasAnyPrefix(text string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// nameSet is a read-only set of configured names.
type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s nameSet) has(name string) bool {
	_, ok := s[name]
	return ok
}
