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
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/gettextcheck/services/gettext/ast"
	"github.com/AleutianAI/gettextcheck/services/gettext/config"
)

func never(_, _ *ast.Node) bool { return false }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Rule{Name: "a", Kind: ast.KindCall, Match: never}))
	require.NoError(t, r.Register(Rule{Name: "b", Kind: ast.KindDict, Match: never}))
	require.NoError(t, r.Register(Rule{Name: "c", Kind: ast.KindCall, Match: never}))

	assert.ErrorIs(t, r.Register(Rule{Name: "a", Kind: ast.KindDict, Match: never}), ErrInvalidRule)
	assert.ErrorIs(t, r.Register(Rule{Name: "", Kind: ast.KindDict, Match: never}), ErrInvalidRule)
	assert.ErrorIs(t, r.Register(Rule{Name: "d", Kind: ast.KindDict}), ErrInvalidRule)

	calls := r.RulesFor(ast.KindCall)
	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].Name)
	assert.Equal(t, "c", calls[1].Name)
	assert.Empty(t, r.RulesFor(ast.KindSubscript))
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Rule{Name: "a", Kind: ast.KindCall, Match: never}))
	assert.False(t, r.Frozen())

	r.Freeze()
	r.Freeze()
	assert.True(t, r.Frozen())

	err := r.Register(Rule{Name: "late", Kind: ast.KindCall, Match: never})
	assert.ErrorIs(t, err, ErrRegistryFrozen)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RulesReturnsCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Rule{Name: "a", Kind: ast.KindCall, Match: never}))

	rules := r.Rules()
	rules[0].Name = "changed"
	assert.Equal(t, "a", r.Rules()[0].Name)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	cfg, err := config.Default(context.Background())
	require.NoError(t, err)
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r, cfg.Structure, cfg.Limits.MaxAncestorDepth))
	r.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.RulesFor(ast.KindKeywordArgument)
				_ = r.Rules()
			}
		}()
	}
	wg.Wait()
}

func TestDefaultRules_Order(t *testing.T) {
	cfg, err := config.Default(context.Background())
	require.NoError(t, err)

	rules := DefaultRules(cfg.Structure, cfg.Limits.MaxAncestorDepth)
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name
		assert.NotNil(t, rule.Match, rule.Name)
	}

	assert.Equal(t, []string{
		RuleDictKey, RuleSubscriptIndex, RuleConfigAssignment, RuleBareExpression,
		RuleHTMLAttrs, RuleAttrsFactory, RuleFieldOption, RuleSingleElementOption, RuleMemberOption,
		RuleComparison, RuleRawSQLArgs, RuleQuerysetMethod, RuleLoggingCall, RuleAttributeProbe,
		RuleHTTPResponse, RuleCookieName, RuleRelationTarget,
	}, names)

	kinds := map[string]ast.NodeKind{
		RuleDictKey:          ast.KindDict,
		RuleSubscriptIndex:   ast.KindSubscript,
		RuleConfigAssignment: ast.KindAssignment,
		RuleBareExpression:   ast.KindExpressionStatement,
		RuleFieldOption:      ast.KindKeywordArgument,
		RuleComparison:       ast.KindComparison,
		RuleRelationTarget:   ast.KindCall,
	}
	for _, rule := range rules {
		if want, ok := kinds[rule.Name]; ok {
			assert.Equal(t, want, rule.Kind, rule.Name)
		}
	}
}

func TestDefaultRules_UseConfiguredNames(t *testing.T) {
	cfg, err := config.Default(context.Background())
	require.NoError(t, err)
	cfg.Structure.LoggingModules = []string{"logger"}
	cfg.Structure.ConfigAttributeNames = []string{"readonly_fields"}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	d := classifySource(t, engine, `logger.warning("some text")`, "some text")
	assert.Equal(t, RuleLoggingCall, d.Reason)

	d = classifySource(t, engine, `logging.warning("some text")`, "some text")
	assert.Equal(t, VerdictNeedsTranslation, d.Verdict)

	d = classifySource(t, engine, `readonly_fields = ("some text",)`, "some text")
	assert.Equal(t, RuleConfigAssignment, d.Reason)
}
