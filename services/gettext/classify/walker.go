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
	"log/slog"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
)

// Walker climbs from a literal to the root looking for an exemption.
//
// Description:
//
//	At each ancestor the translation wrapper check runs first, then every
//	rule registered for the ancestor's kind, in order. The first success
//	exempts the literal. The climb is an iterative loop so arbitrarily deep
//	trees are fine; a chain longer than maxDepth is reported as
//	ErrMalformedTree.
//
// Thread Safety: Safe for concurrent use once the registry is frozen.
type Walker struct {
	wrappers nameSet
	registry *Registry
	maxDepth int
}

// NewWalker creates a walker over registry.
//
// Inputs:
//
//	wrappers - Bare callee names of translation calls.
//	registry - The structural rules. Should be frozen.
//	maxDepth - Maximum ancestor steps before the tree is rejected.
func NewWalker(wrappers []string, registry *Registry, maxDepth int) *Walker {
	return &Walker{
		wrappers: newNameSet(wrappers),
		registry: registry,
		maxDepth: maxDepth,
	}
}

// Walk classifies lit by its ancestry.
//
// Outputs:
//
//	Decision - VerdictExempt with StageWrapper or StageStructure, or
//	  VerdictNeedsTranslation with StageNone when the root is reached.
//	error - Wraps ErrMalformedTree when the chain exceeds maxDepth.
func (w *Walker) Walk(lit *ast.Node) (Decision, error) {
	steps := 0
	for cur := lit.Parent; cur != nil; cur = cur.Parent {
		steps++
		if steps > w.maxDepth {
			malformedTreesTotal.Inc()
			return Decision{}, fmt.Errorf("literal %q at %s: ancestor chain exceeds %d steps: %w",
				lit.Value, lit.Location, w.maxDepth, ErrMalformedTree)
		}

		if name, ok := cur.CalleeName(); ok && w.wrappers.has(name) {
			return Decision{Verdict: VerdictExempt, Stage: StageWrapper, Reason: name, Ancestor: cur}, nil
		}

		for _, rule := range w.registry.RulesFor(cur.Kind) {
			if safeMatch(rule, cur, lit) {
				return Decision{Verdict: VerdictExempt, Stage: StageStructure, Reason: rule.Name, Ancestor: cur}, nil
			}
		}
	}
	return Decision{Verdict: VerdictNeedsTranslation, Stage: StageNone}, nil
}

// safeMatch runs one rule, treating a panic as no match.
func safeMatch(rule Rule, ancestor, lit *ast.Node) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("structural rule panicked",
				slog.String("rule", rule.Name),
				slog.String("ancestor", ancestor.Kind.String()),
				slog.String("location", lit.Location.String()),
				slog.Any("panic", r),
			)
			rulePanicsTotal.WithLabelValues(rule.Name).Inc()
			matched = false
		}
	}()
	return rule.Match(ancestor, lit)
}
