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
	"fmt"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
)

// Verdict is the outcome of classifying one string literal.
type Verdict int

const (
	// VerdictNeedsTranslation marks user-facing text that never reached a
	// translation wrapper and matched no exemption.
	VerdictNeedsTranslation Verdict = iota

	// VerdictExempt marks a literal that is translated or not user-facing.
	VerdictExempt
)

// String returns the wire name of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictNeedsTranslation:
		return "needs_translation"
	case VerdictExempt:
		return "exempt"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Stage identifies which part of the engine produced a decision.
type Stage int

const (
	// StageNone means no stage exempted the literal; the walk reached the root.
	StageNone Stage = iota

	// StageContent means a content predicate fired.
	StageContent

	// StageWrapper means an ancestor is a translation wrapper call.
	StageWrapper

	// StageStructure means a structural rule fired on an ancestor.
	StageStructure
)

// String returns the wire name of the stage.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageContent:
		return "content"
	case StageWrapper:
		return "wrapper"
	case StageStructure:
		return "structure"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Decision is a verdict together with the reason it was reached.
//
// Description:
//
//	Reason is the content predicate name for StageContent, the wrapper
//	callee name for StageWrapper and the rule name for StageStructure. It
//	is empty for StageNone. Ancestor is the node at which the walker
//	stopped, nil for content decisions and for NeedsTranslation.
type Decision struct {
	Verdict  Verdict   `json:"verdict"`
	Stage    Stage     `json:"stage"`
	Reason   string    `json:"reason,omitempty"`
	Ancestor *ast.Node `json:"-"`
}

// Exempt reports whether the decision exempts the literal.
func (d Decision) Exempt() bool {
	return d.Verdict == VerdictExempt
}

// String renders the decision for logs and --explain output.
func (d Decision) String() string {
	if d.Stage == StageNone {
		return d.Verdict.String()
	}
	return fmt.Sprintf("%s (%s: %s)", d.Verdict, d.Stage, d.Reason)
}
