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
	"sync"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
	"github.com/AleutianAI/gettextcheck/services/gettext/config"
)

// Rule is one structural exemption.
//
// Description:
//
//	Match is called with an ancestor of kind Kind and the literal being
//	classified. It must not modify either node. Returning true exempts the
//	literal.
type Rule struct {
	Name  string
	Kind  ast.NodeKind
	Match func(ancestor, literal *ast.Node) bool
}

// Registry is the ordered table of structural rules.
//
// Description:
//
//	Rules are evaluated per ancestor kind in registration order. The
//	registry accepts new rules until Freeze is called; the engine freezes
//	it on construction.
//
// Thread Safety: Safe for concurrent use. After Freeze the table is
// read-only.
type Registry struct {
	mu     sync.RWMutex
	rules  []Rule
	byKind map[ast.NodeKind][]Rule
	names  map[string]struct{}
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKind: make(map[ast.NodeKind][]Rule),
		names:  make(map[string]struct{}),
	}
}

// Register appends a rule.
//
// Outputs:
//
//	error - ErrRegistryFrozen after Freeze; ErrInvalidRule for a rule with
//	  an empty name, a nil matcher or a duplicate name.
func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("registering %q: %w", rule.Name, ErrRegistryFrozen)
	}
	if rule.Name == "" || rule.Match == nil {
		return fmt.Errorf("%w: rule needs a name and a matcher", ErrInvalidRule)
	}
	if _, dup := r.names[rule.Name]; dup {
		return fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRule, rule.Name)
	}

	r.names[rule.Name] = struct{}{}
	r.rules = append(r.rules, rule)
	r.byKind[rule.Kind] = append(r.byKind[rule.Kind], rule)
	return nil
}

// Freeze stops further registration. Calling it twice is harmless.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// RulesFor returns the rules registered for kind, in registration order.
// The returned slice must not be modified.
func (r *Registry) RulesFor(kind ast.NodeKind) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKind[kind]
}

// Rules returns every rule in registration order.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules...)
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Structural rule names, in default registration order.
const (
	RuleDictKey             = "dict-key"
	RuleSubscriptIndex      = "subscript-index"
	RuleConfigAssignment    = "config-assignment"
	RuleBareExpression      = "bare-expression"
	RuleHTMLAttrs           = "html-attrs"
	RuleAttrsFactory        = "attrs-factory"
	RuleFieldOption         = "field-option"
	RuleSingleElementOption = "single-element-option"
	RuleMemberOption        = "member-option"
	RuleComparison          = "comparison"
	RuleRawSQLArgs          = "raw-sql-args"
	RuleQuerysetMethod      = "queryset-method"
	RuleLoggingCall         = "logging-call"
	RuleAttributeProbe      = "attribute-probe"
	RuleHTTPResponse        = "http-response"
	RuleCookieName          = "cookie-name"
	RuleRelationTarget      = "relation-target"
)

// DefaultRules builds the standard structural rules from configuration.
//
// Description:
//
//	The order matters only for which rule is reported as the reason; any
//	match exempts. maxDepth bounds the containment check of raw-sql-args.
//
// Inputs:
//
//	cfg - The structure section of the configuration.
//	maxDepth - Upper bound on parent steps for containment checks.
//
// Outputs:
//
//	[]Rule - The rules in evaluation order.
func DefaultRules(cfg config.StructureConfig, maxDepth int) []Rule {
	configNames := newNameSet(cfg.ConfigAttributeNames)
	htmlAttrs := newNameSet(cfg.HTMLAttributeNames)
	attrsFactories := newNameSet(cfg.AttrsFactoryNames)
	fieldOptions := newNameSet(cfg.FieldOptionKeywords)
	singleElement := newNameSet(cfg.SingleElementKeywords)
	members := newNameSet(cfg.MemberKeywords)
	rawSQL := newNameSet(cfg.RawSQLMethods)
	queryset := newNameSet(cfg.QuerysetMethods)
	logging := newNameSet(cfg.LoggingModules)
	probes := newNameSet(cfg.AttributeProbeFunctions)
	responses := newNameSet(cfg.HTTPResponseClasses)
	cookies := newNameSet(cfg.CookieSetters)
	relations := newNameSet(cfg.RelationFields)
	attrsKeyword := cfg.AttrsKeyword

	return []Rule{
		// {'shouldignore': 1}
		{RuleDictKey, ast.KindDict, func(dict, lit *ast.Node) bool {
			return dict.IsDictKey(lit)
		}},

		// d['shouldignore']
		{RuleSubscriptIndex, ast.KindSubscript, func(sub, lit *ast.Node) bool {
			return sub.Index == lit
		}},

		// list_display = [...]
		{RuleConfigAssignment, ast.KindAssignment, func(assign, _ *ast.Node) bool {
			name, ok := assign.SingleTargetName()
			return ok && configNames.has(name)
		}},

		// A docstring-like statement.
		{RuleBareExpression, ast.KindExpressionStatement, func(stmt, lit *ast.Node) bool {
			return stmt.Expr == lit
		}},

		// X(attrs={'class': 'wide', 'maxlength': '20'})
		{RuleHTMLAttrs, ast.KindKeywordArgument, func(kw, lit *ast.Node) bool {
			if kw.Name != attrsKeyword || !kw.Expr.Is(ast.KindDict) {
				return false
			}
			for _, pair := range kw.Expr.Pairs {
				if !pair.Key.Is(ast.KindLiteral) {
					return false
				}
			}
			for _, v := range kw.Expr.DictValuesFor(htmlAttrs.has) {
				if v == lit {
					return true
				}
			}
			return false
		}},

		// X(attrs=dict(...))
		{RuleAttrsFactory, ast.KindKeywordArgument, func(kw, _ *ast.Node) bool {
			if kw.Name != attrsKeyword {
				return false
			}
			name, ok := kw.Expr.CalleeName()
			return ok && attrsFactories.has(name)
		}},

		// CharField(default='x', related_name='tickets')
		{RuleFieldOption, ast.KindKeywordArgument, func(kw, lit *ast.Node) bool {
			return fieldOptions.has(kw.Name) && kw.Expr == lit
		}},

		// DateField(input_formats=['%Y-%m-%d'])
		{RuleSingleElementOption, ast.KindKeywordArgument, func(kw, lit *ast.Node) bool {
			if !singleElement.has(kw.Name) || !kw.Expr.Is(ast.KindSequence) {
				return false
			}
			return len(kw.Expr.Elements) == 1 && kw.Expr.Elements[0] == lit
		}},

		// Form(fields=['name', 'email'])
		{RuleMemberOption, ast.KindKeywordArgument, func(kw, lit *ast.Node) bool {
			return members.has(kw.Name) && kw.Expr.HasElement(lit)
		}},

		// x() == 'value', 'value' == x()
		{RuleComparison, ast.KindComparison, func(cmp, lit *ast.Node) bool {
			if cmp.Left == lit {
				return true
			}
			return len(cmp.Operands) > 0 && cmp.Operands[0] == lit
		}},

		// qs.extra(where=[...]) with SQL in a positional argument.
		{RuleRawSQLArgs, ast.KindCall, func(call, lit *ast.Node) bool {
			attr, ok := call.CalleeAttr()
			if !ok || !rawSQL.has(attr) {
				return false
			}
			for _, arg := range call.Args {
				if arg.Contains(lit, maxDepth) {
					return true
				}
			}
			return false
		}},

		// qs.order_by('name')
		{RuleQuerysetMethod, ast.KindCall, func(call, _ *ast.Node) bool {
			attr, ok := call.CalleeAttr()
			return ok && queryset.has(attr)
		}},

		// logging.info('message')
		{RuleLoggingCall, ast.KindCall, func(call, _ *ast.Node) bool {
			base, ok := call.CalleeBase()
			return ok && logging.has(base)
		}},

		// hasattr(obj, 'name')
		{RuleAttributeProbe, ast.KindCall, func(call, lit *ast.Node) bool {
			name, ok := call.CalleeName()
			if !ok || !probes.has(name) {
				return false
			}
			arg, ok := call.PositionalArg(1)
			return ok && arg == lit
		}},

		// HttpResponseRedirect('/some/url/')
		{RuleHTTPResponse, ast.KindCall, func(call, _ *ast.Node) bool {
			name, ok := call.CalleeName()
			return ok && responses.has(name)
		}},

		// set_cookie('session', value)
		{RuleCookieName, ast.KindCall, firstArgOf(cookies)},

		// ForeignKey('auth.User')
		{RuleRelationTarget, ast.KindCall, firstArgOf(relations)},
	}
}

// firstArgOf matches a call to a bare name in names whose first positional
// argument is the literal.
func firstArgOf(names nameSet) func(call, lit *ast.Node) bool {
	return func(call, lit *ast.Node) bool {
		name, ok := call.CalleeName()
		if !ok || !names.has(name) {
			return false
		}
		arg, ok := call.PositionalArg(0)
		return ok && arg == lit
	}
}

// RegisterDefaults registers DefaultRules on r.
func RegisterDefaults(r *Registry, cfg config.StructureConfig, maxDepth int) error {
	for _, rule := range DefaultRules(cfg, maxDepth) {
		if err := r.Register(rule); err != nil {
			return err
		}
	}
	return nil
}
