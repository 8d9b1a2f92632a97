// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast holds the read-only syntax model consumed by the gettext
// classifier, and the tree-sitter adapter that builds it from Python source.
package ast

import (
	"fmt"
)

// NodeKind identifies the syntactic shape of a Node.
//
// The set is closed: every construct the classifier does not reason about
// maps to KindOther.
type NodeKind int

const (
	// KindOther is any node the classifier has no rules for.
	KindOther NodeKind = iota

	// KindModule is the root of a file.
	KindModule

	// KindLiteral is a constant written directly in source (string, number,
	// boolean, None, bytes, f-string).
	KindLiteral

	// KindDict is a dictionary display: {k: v, ...}.
	KindDict

	// KindSubscript is an index or key access: obj[index].
	KindSubscript

	// KindAssignment is a plain or annotated assignment statement.
	KindAssignment

	// KindExpressionStatement is a statement that is only an expression.
	KindExpressionStatement

	// KindKeywordArgument is name=value inside a call's argument list.
	KindKeywordArgument

	// KindComparison is a comparison chain: a == b, a in b, ...
	KindComparison

	// KindCall is a call expression.
	KindCall

	// KindName is a bare identifier reference.
	KindName

	// KindAttribute is an attribute reference: obj.attr.
	KindAttribute

	// KindSequence is a list, tuple or set display, or a bare tuple.
	KindSequence
)

var nodeKindNames = map[NodeKind]string{
	KindOther:               "other",
	KindModule:              "module",
	KindLiteral:             "literal",
	KindDict:                "dict",
	KindSubscript:           "subscript",
	KindAssignment:          "assignment",
	KindExpressionStatement: "expression_statement",
	KindKeywordArgument:     "keyword_argument",
	KindComparison:          "comparison",
	KindCall:                "call",
	KindName:                "name",
	KindAttribute:           "attribute",
	KindSequence:            "sequence",
}

// String returns the lower-case name of the kind.
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Location is a source span. Lines are 1-based, columns 0-based.
type Location struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartCol  int    `json:"start_col"`
	EndCol    int    `json:"end_col"`
}

// String formats the location as path:line:col.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartCol)
}

// Pair is one key/value entry of a dict display.
type Pair struct {
	Key   *Node
	Value *Node
}

// Node is one node of an immutable, parent-linked syntax tree.
//
// Description:
//
//	Which payload fields are populated depends on Kind; the remaining fields
//	are zero. Children always lists every direct child in source order, so a
//	depth-first traversal over Children reaches every node, including the ones
//	referenced from payload fields.
//
// Thread Safety:
//
//	A Node is never mutated after its tree is built and is safe for
//	concurrent reads.
type Node struct {
	Kind     NodeKind
	Parent   *Node
	Children []*Node
	Location Location

	// KindLiteral
	Value  string
	IsText bool

	// KindDict
	Pairs []Pair

	// KindSubscript (Object, Index), KindAttribute (Object, Attr)
	Object *Node
	Index  *Node
	Attr   string

	// KindAssignment
	Targets []*Node

	// KindAssignment, KindExpressionStatement, KindKeywordArgument
	Expr *Node

	// KindKeywordArgument
	Name string

	// KindComparison
	Left      *Node
	Operands  []*Node
	Operators []string

	// KindCall
	Callee   *Node
	Args     []*Node
	Keywords []*Node

	// KindName
	Identifier string

	// KindSequence
	Elements []*Node
}

// IsTextLiteral reports whether n is a string literal whose value is text.
func (n *Node) IsTextLiteral() bool {
	return n != nil && n.Kind == KindLiteral && n.IsText
}

// Is reports whether n has kind k. A nil node has no kind.
func (n *Node) Is(k NodeKind) bool {
	return n != nil && n.Kind == k
}

// CalleeName returns the identifier a call invokes when the callee is a bare
// name, as in _("text").
func (n *Node) CalleeName() (string, bool) {
	if !n.Is(KindCall) || !n.Callee.Is(KindName) {
		return "", false
	}
	return n.Callee.Identifier, true
}

// CalleeAttr returns the attribute name a call invokes when the callee is an
// attribute reference, as in qs.filter(...).
func (n *Node) CalleeAttr() (string, bool) {
	if !n.Is(KindCall) || !n.Callee.Is(KindAttribute) {
		return "", false
	}
	return n.Callee.Attr, true
}

// CalleeBase returns the bare name an attribute callee is looked up on, as
// "logging" in logging.info(...).
func (n *Node) CalleeBase() (string, bool) {
	if !n.Is(KindCall) || !n.Callee.Is(KindAttribute) || !n.Callee.Object.Is(KindName) {
		return "", false
	}
	return n.Callee.Object.Identifier, true
}

// PositionalArg returns the i-th positional argument of a call.
func (n *Node) PositionalArg(i int) (*Node, bool) {
	if !n.Is(KindCall) || i < 0 || i >= len(n.Args) {
		return nil, false
	}
	return n.Args[i], true
}

// SingleTargetName returns the assigned name when an assignment has exactly
// one target and that target is a bare name.
func (n *Node) SingleTargetName() (string, bool) {
	if !n.Is(KindAssignment) || len(n.Targets) != 1 || !n.Targets[0].Is(KindName) {
		return "", false
	}
	return n.Targets[0].Identifier, true
}

// IsDictKey reports whether child is one of the keys of a dict display.
func (n *Node) IsDictKey(child *Node) bool {
	if !n.Is(KindDict) || child == nil {
		return false
	}
	for _, pair := range n.Pairs {
		if pair.Key == child {
			return true
		}
	}
	return false
}

// DictValuesFor returns the values stored under string-literal keys whose
// text satisfies match, in source order.
func (n *Node) DictValuesFor(match func(key string) bool) []*Node {
	if !n.Is(KindDict) {
		return nil
	}
	var values []*Node
	for _, pair := range n.Pairs {
		if pair.Key.IsTextLiteral() && match(pair.Key.Value) {
			values = append(values, pair.Value)
		}
	}
	return values
}

// HasElement reports whether child is a direct element of a sequence.
func (n *Node) HasElement(child *Node) bool {
	if !n.Is(KindSequence) || child == nil {
		return false
	}
	for _, el := range n.Elements {
		if el == child {
			return true
		}
	}
	return false
}

// Contains reports whether descendant is n itself or lies below n.
//
// The ascent is bounded by maxDepth steps so a malformed, cyclic tree
// cannot hang the caller; exceeding the bound reports false.
func (n *Node) Contains(descendant *Node, maxDepth int) bool {
	if n == nil {
		return false
	}
	steps := 0
	for cur := descendant; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
		steps++
		if steps > maxDepth {
			return false
		}
	}
	return false
}

// Inspect traverses the tree rooted at root depth-first in source order,
// calling fn for every node. When fn returns false the node's children are
// skipped.
//
// The traversal uses an explicit stack, so arbitrarily deep trees do not
// grow the goroutine stack.
func Inspect(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	stack := make([]*Node, 0, 64)
	stack = append(stack, root)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil || !fn(node) {
			continue
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}

// TextLiterals returns every string literal under root in depth-first order.
func TextLiterals(root *Node) []*Node {
	literals := make([]*Node, 0, 32)
	Inspect(root, func(n *Node) bool {
		if n.IsTextLiteral() {
			literals = append(literals, n)
		}
		return true
	})
	return literals
}

// Adopt appends children to n and points their Parent back at n. It is meant
// for tree builders; nil children are ignored.
func (n *Node) Adopt(children ...*Node) {
	for _, child := range children {
		if child == nil {
			continue
		}
		child.Parent = n
		n.Children = append(n.Children, child)
	}
}
