// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify decides whether a string literal needs translation.
//
// Classification has two stages. The content stage looks only at the
// literal's text. When it is inconclusive, the walker climbs the literal's
// ancestors, stopping at a translation wrapper call or at the first
// structural rule that matches. A literal that reaches the root unmatched
// needs translation.
package classify

import (
	"fmt"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
	"github.com/AleutianAI/gettextcheck/services/gettext/config"
)

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	registry    *Registry
	extraRules  []Rule
	contentOpts []ContentOption
}

// WithRegistry supplies a pre-populated registry instead of the default
// rules. The engine freezes it.
func WithRegistry(r *Registry) EngineOption {
	return func(o *engineOptions) {
		o.registry = r
	}
}

// WithExtraRules registers additional rules after the default ones.
func WithExtraRules(rules ...Rule) EngineOption {
	return func(o *engineOptions) {
		o.extraRules = append(o.extraRules, rules...)
	}
}

// WithContentOptions passes options to the content classifier.
func WithContentOptions(opts ...ContentOption) EngineOption {
	return func(o *engineOptions) {
		o.contentOpts = append(o.contentOpts, opts...)
	}
}

// Engine is the single entry point for classifying literals.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
// Classification reads the tree and never modifies it.
type Engine struct {
	content  *ContentClassifier
	walker   *Walker
	registry *Registry
}

// NewEngine builds an engine from configuration.
//
// Description:
//
//	Builds the content classifier and, unless WithRegistry is given, a
//	registry holding DefaultRules followed by any WithExtraRules. The
//	registry is frozen before NewEngine returns.
//
// Inputs:
//
//	cfg - Validated configuration. Must not be nil.
//	opts - Optional overrides.
//
// Outputs:
//
//	*Engine - Ready for use.
//	error - Non-nil if cfg is invalid or a rule cannot be registered.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}

	var options engineOptions
	for _, opt := range opts {
		opt(&options)
	}

	registry := options.registry
	if registry == nil {
		registry = NewRegistry()
		if err := RegisterDefaults(registry, cfg.Structure, cfg.Limits.MaxAncestorDepth); err != nil {
			return nil, fmt.Errorf("NewEngine: %w", err)
		}
	}
	for _, rule := range options.extraRules {
		if err := registry.Register(rule); err != nil {
			return nil, fmt.Errorf("NewEngine: %w", err)
		}
	}
	registry.Freeze()

	return &Engine{
		content:  NewContentClassifier(cfg.Content, options.contentOpts...),
		walker:   NewWalker(cfg.TranslationWrappers, registry, cfg.Limits.MaxAncestorDepth),
		registry: registry,
	}, nil
}

// Classify decides whether lit needs translation.
//
// Inputs:
//
//	lit - A literal node inside a parent-linked tree.
//
// Outputs:
//
//	Decision - The verdict and the stage and reason that produced it.
//	bool - False when lit is not a text literal; the decision is then
//	  meaningless and the literal should be skipped.
//	error - ErrNilLiteral, or a wrapped ErrMalformedTree from the walker.
func (e *Engine) Classify(lit *ast.Node) (Decision, bool, error) {
	if lit == nil {
		return Decision{}, false, ErrNilLiteral
	}
	if !lit.IsTextLiteral() {
		return Decision{}, false, nil
	}

	if name, ok := e.content.Match(lit.Value); ok {
		d := Decision{Verdict: VerdictExempt, Stage: StageContent, Reason: name}
		recordDecision(d)
		return d, true, nil
	}

	d, err := e.walker.Walk(lit)
	if err != nil {
		return Decision{}, true, err
	}
	recordDecision(d)
	return d, true, nil
}

// Rules returns the structural rules in evaluation order.
func (e *Engine) Rules() []Rule {
	return e.registry.Rules()
}

// ContentPredicates returns the content predicate names in evaluation order.
func (e *Engine) ContentPredicates() []string {
	return e.content.Predicates()
}
