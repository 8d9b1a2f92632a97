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

import "testing"

func TestNodeKind_String(t *testing.T) {
	if got := KindDict.String(); got != "dict" {
		t.Errorf("expected 'dict', got %q", got)
	}
	if got := NodeKind(99).String(); got != "NodeKind(99)" {
		t.Errorf("unexpected fallback name %q", got)
	}
}

func TestNode_AccessorsOnWrongKind(t *testing.T) {
	lit := &Node{Kind: KindLiteral, Value: "x", IsText: true}

	if _, ok := lit.CalleeName(); ok {
		t.Error("literal has no callee name")
	}
	if _, ok := lit.CalleeAttr(); ok {
		t.Error("literal has no callee attribute")
	}
	if _, ok := lit.CalleeBase(); ok {
		t.Error("literal has no callee base")
	}
	if _, ok := lit.PositionalArg(0); ok {
		t.Error("literal has no arguments")
	}
	if _, ok := lit.SingleTargetName(); ok {
		t.Error("literal has no assignment target")
	}
	if lit.IsDictKey(lit) || lit.HasElement(lit) {
		t.Error("literal is neither dict nor sequence")
	}

	var nilNode *Node
	if nilNode.Is(KindLiteral) || nilNode.IsTextLiteral() {
		t.Error("nil node has no kind")
	}
}

func TestNode_CallAccessors(t *testing.T) {
	base := &Node{Kind: KindName, Identifier: "qs"}
	callee := &Node{Kind: KindAttribute, Object: base, Attr: "filter"}
	callee.Adopt(base)
	arg := &Node{Kind: KindLiteral, Value: "name", IsText: true}
	call := &Node{Kind: KindCall, Callee: callee, Args: []*Node{arg}}
	call.Adopt(callee, arg)

	if attr, ok := call.CalleeAttr(); !ok || attr != "filter" {
		t.Errorf("expected 'filter', got %q", attr)
	}
	if name, ok := call.CalleeBase(); !ok || name != "qs" {
		t.Errorf("expected 'qs', got %q", name)
	}
	if _, ok := call.PositionalArg(1); ok {
		t.Error("out-of-range argument must report false")
	}
	if _, ok := call.PositionalArg(-1); ok {
		t.Error("negative argument index must report false")
	}
	if arg.Parent != call || callee.Parent != call {
		t.Error("Adopt must set parents")
	}
}

func TestNode_DictValuesFor(t *testing.T) {
	classKey := &Node{Kind: KindLiteral, Value: "class", IsText: true}
	classValue := &Node{Kind: KindLiteral, Value: "wide", IsText: true}
	idKey := &Node{Kind: KindLiteral, Value: "id", IsText: true}
	idValue := &Node{Kind: KindLiteral, Value: "main", IsText: true}
	dict := &Node{Kind: KindDict, Pairs: []Pair{{classKey, classValue}, {idKey, idValue}}}
	dict.Adopt(classKey, classValue, idKey, idValue)

	values := dict.DictValuesFor(func(key string) bool { return key == "class" })
	if len(values) != 1 || values[0] != classValue {
		t.Errorf("expected only the class value, got %d values", len(values))
	}
}

func TestNode_Contains(t *testing.T) {
	leaf := &Node{Kind: KindLiteral, Value: "x", IsText: true}
	mid := &Node{Kind: KindSequence, Elements: []*Node{leaf}}
	mid.Adopt(leaf)
	root := &Node{Kind: KindModule}
	root.Adopt(mid)
	other := &Node{Kind: KindOther}

	if !root.Contains(leaf, 100) || !mid.Contains(leaf, 100) || !leaf.Contains(leaf, 100) {
		t.Error("expected containment along the parent chain")
	}
	if other.Contains(leaf, 100) {
		t.Error("unrelated node must not contain leaf")
	}

	// A cycle must terminate and report false.
	a := &Node{Kind: KindOther}
	b := &Node{Kind: KindOther, Parent: a}
	a.Parent = b
	if other.Contains(a, 10) {
		t.Error("cyclic chain must not report containment")
	}
}

func TestInspect_DepthFirstSourceOrder(t *testing.T) {
	first := &Node{Kind: KindLiteral, Value: "first", IsText: true}
	second := &Node{Kind: KindLiteral, Value: "second", IsText: true}
	call := &Node{Kind: KindCall, Args: []*Node{first}}
	call.Adopt(first)
	root := &Node{Kind: KindModule}
	root.Adopt(call, second)

	var order []NodeKind
	Inspect(root, func(n *Node) bool {
		order = append(order, n.Kind)
		return true
	})
	want := []NodeKind{KindModule, KindCall, KindLiteral, KindLiteral}
	if len(order) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}

	literals := TextLiterals(root)
	if len(literals) != 2 || literals[0] != first || literals[1] != second {
		t.Error("expected literals in source order")
	}

	visited := 0
	Inspect(root, func(n *Node) bool {
		visited++
		return n.Kind != KindCall
	})
	if visited != 3 {
		t.Errorf("expected call children to be skipped, visited %d", visited)
	}
}

func TestLocation_String(t *testing.T) {
	loc := Location{FilePath: "app/views.py", StartLine: 12, StartCol: 4}
	if got := loc.String(); got != "app/views.py:12:4" {
		t.Errorf("unexpected location string %q", got)
	}
}
