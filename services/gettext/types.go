// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gettext

import (
	"github.com/AleutianAI/gettextcheck/services/gettext/lint"
)

// CheckRequest is the body of POST /v1/gettext/check.
type CheckRequest struct {
	// FilePath is recorded in finding locations. Defaults to "<input>".
	FilePath string `json:"file_path"`

	// Content is the Python source to check.
	Content string `json:"content"`

	// Explain includes exempt decisions in the response.
	Explain bool `json:"explain,omitempty"`
}

// CheckResponse is the result of checking one source blob.
type CheckResponse struct {
	FilePath        string           `json:"file_path"`
	Findings        []lint.Finding   `json:"findings"`
	Exemptions      []lint.Exemption `json:"exemptions,omitempty"`
	LiteralsChecked int              `json:"literals_checked"`
	SyntaxErrors    bool             `json:"syntax_errors"`
	DurationMs      int64            `json:"duration_ms"`
}

// RuleInfo describes one registered structural rule.
type RuleInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// RulesResponse lists the active classification pipeline in evaluation order.
type RulesResponse struct {
	TranslationWrappers []string   `json:"translation_wrappers"`
	ContentPredicates   []string   `json:"content_predicates"`
	Rules               []RuleInfo `json:"rules"`
}

// HealthResponse is returned by GET /v1/gettext/health.
type HealthResponse struct {
	Status string `json:"status"`
	Rules  int    `json:"rules"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// RequestID correlates the response with server logs.
	RequestID string `json:"request_id,omitempty"`
}
