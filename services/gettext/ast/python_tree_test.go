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
	"context"
	"errors"
	"strings"
	"testing"
)

func parsePython(t *testing.T, source string) *Tree {
	t.Helper()
	tree, err := NewPythonParser().Parse(context.Background(), []byte(source), "test.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root == nil {
		t.Fatal("expected non-nil root")
	}
	return tree
}

// findLiteral returns the first string literal with the given value.
func findLiteral(t *testing.T, root *Node, value string) *Node {
	t.Helper()
	var found *Node
	Inspect(root, func(n *Node) bool {
		if found == nil && n.Kind == KindLiteral && n.Value == value {
			found = n
		}
		return found == nil
	})
	if found == nil {
		t.Fatalf("literal %q not found", value)
	}
	return found
}

func TestPythonParser_Parse_EmptyFile(t *testing.T) {
	tree := parsePython(t, "")

	if tree.Root.Kind != KindModule {
		t.Errorf("expected module root, got %s", tree.Root.Kind)
	}
	if len(tree.Root.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Root.Children))
	}
	if tree.Language != "python" {
		t.Errorf("expected language 'python', got %q", tree.Language)
	}
	if tree.Hash == "" {
		t.Error("expected content hash")
	}
}

func TestPythonParser_Parse_DictKeysAreDirectChildren(t *testing.T) {
	tree := parsePython(t, `config = {"key": "value"}`)

	key := findLiteral(t, tree.Root, "key")
	dict := key.Parent
	if dict.Kind != KindDict {
		t.Fatalf("expected dict parent, got %s", dict.Kind)
	}
	if !dict.IsDictKey(key) {
		t.Error("expected literal to be a dict key")
	}

	value := findLiteral(t, tree.Root, "value")
	if dict.IsDictKey(value) {
		t.Error("dict value reported as key")
	}

	assign := dict.Parent
	if assign.Kind != KindAssignment {
		t.Fatalf("expected assignment above dict, got %s", assign.Kind)
	}
	if assign.Expr != dict {
		t.Error("assignment value should be the dict")
	}
	name, ok := assign.SingleTargetName()
	if !ok || name != "config" {
		t.Errorf("expected single target 'config', got %q (%v)", name, ok)
	}
	if assign.Parent != tree.Root {
		t.Errorf("assignment should hang off the module, got %s", assign.Parent.Kind)
	}
}

func TestPythonParser_Parse_ChainedAssignment(t *testing.T) {
	tree := parsePython(t, `a = b = "x"`)

	lit := findLiteral(t, tree.Root, "x")
	assign := lit.Parent
	if assign.Kind != KindAssignment {
		t.Fatalf("expected assignment, got %s", assign.Kind)
	}
	if len(assign.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(assign.Targets))
	}
	if _, ok := assign.SingleTargetName(); ok {
		t.Error("chained assignment must not report a single target")
	}
}

func TestPythonParser_Parse_AnnotatedAssignment(t *testing.T) {
	tree := parsePython(t, `ordering: str = "x"`)

	lit := findLiteral(t, tree.Root, "x")
	assign := lit.Parent
	if assign.Kind != KindAssignment {
		t.Fatalf("expected assignment, got %s", assign.Kind)
	}
	if assign.Expr != lit {
		t.Error("literal should be the assigned value")
	}
	if name, ok := assign.SingleTargetName(); !ok || name != "ordering" {
		t.Errorf("expected single target ordering, got %q (%v)", name, ok)
	}
}

func TestPythonParser_Parse_TranslationCall(t *testing.T) {
	tree := parsePython(t, `print(_("Hello"))`)

	lit := findLiteral(t, tree.Root, "Hello")
	call := lit.Parent
	if name, ok := call.CalleeName(); !ok || name != "_" {
		t.Fatalf("expected call to _, got %q (%v)", name, ok)
	}
	if arg, ok := call.PositionalArg(0); !ok || arg != lit {
		t.Error("literal should be the first positional argument")
	}

	outer := call.Parent
	if name, _ := outer.CalleeName(); name != "print" {
		t.Errorf("expected outer call to print, got %q", name)
	}
	if outer.Parent.Kind != KindExpressionStatement {
		t.Errorf("expected expression statement, got %s", outer.Parent.Kind)
	}
}

func TestPythonParser_Parse_AttributeCallee(t *testing.T) {
	tree := parsePython(t, `logging.info("started", extra=1)`)

	lit := findLiteral(t, tree.Root, "started")
	call := lit.Parent
	if attr, ok := call.CalleeAttr(); !ok || attr != "info" {
		t.Errorf("expected attribute callee 'info', got %q (%v)", attr, ok)
	}
	if base, ok := call.CalleeBase(); !ok || base != "logging" {
		t.Errorf("expected callee base 'logging', got %q (%v)", base, ok)
	}
	if _, ok := call.CalleeName(); ok {
		t.Error("attribute callee must not report a bare name")
	}
	if len(call.Keywords) != 1 || call.Keywords[0].Name != "extra" {
		t.Errorf("expected one keyword 'extra', got %d", len(call.Keywords))
	}
}

func TestPythonParser_Parse_KeywordsAndSplats(t *testing.T) {
	tree := parsePython(t, `f("a", *rest, name="v", **opts)`)

	lit := findLiteral(t, tree.Root, "v")
	kw := lit.Parent
	if kw.Kind != KindKeywordArgument || kw.Name != "name" || kw.Expr != lit {
		t.Fatalf("unexpected keyword node: kind=%s name=%q", kw.Kind, kw.Name)
	}

	call := kw.Parent
	if len(call.Args) != 2 {
		t.Errorf("expected 2 positional args (literal and *rest), got %d", len(call.Args))
	}
	if len(call.Keywords) != 1 {
		t.Errorf("expected 1 keyword, got %d", len(call.Keywords))
	}
}

func TestPythonParser_Parse_Subscript(t *testing.T) {
	tree := parsePython(t, `value = data["key"]`)

	lit := findLiteral(t, tree.Root, "key")
	sub := lit.Parent
	if sub.Kind != KindSubscript {
		t.Fatalf("expected subscript, got %s", sub.Kind)
	}
	if sub.Index != lit {
		t.Error("literal should be the subscript index")
	}
	if !sub.Object.Is(KindName) || sub.Object.Identifier != "data" {
		t.Error("expected subscript object 'data'")
	}
}

func TestPythonParser_Parse_ComparisonIgnoresParentheses(t *testing.T) {
	tree := parsePython(t, "if kind() == (\"s\"):\n    pass\n")

	lit := findLiteral(t, tree.Root, "s")
	cmp := lit.Parent
	if cmp.Kind != KindComparison {
		t.Fatalf("expected comparison, got %s", cmp.Kind)
	}
	if len(cmp.Operands) != 1 || cmp.Operands[0] != lit {
		t.Error("literal should be the first right-hand operand")
	}
	if !cmp.Left.Is(KindCall) {
		t.Errorf("expected call on the left, got %s", cmp.Left.Kind)
	}
	if len(cmp.Operators) != 1 || cmp.Operators[0] != "==" {
		t.Errorf("unexpected operators %v", cmp.Operators)
	}
}

func TestPythonParser_Parse_Sequences(t *testing.T) {
	tree := parsePython(t, `f(fields=["name", "email"], input_formats=("%Y",))`)

	name := findLiteral(t, tree.Root, "name")
	list := name.Parent
	if list.Kind != KindSequence || len(list.Elements) != 2 || !list.HasElement(name) {
		t.Fatalf("expected two-element sequence, got %s with %d elements", list.Kind, len(list.Elements))
	}

	format := findLiteral(t, tree.Root, "%Y")
	tuple := format.Parent
	if tuple.Kind != KindSequence || len(tuple.Elements) != 1 {
		t.Fatalf("expected one-element tuple, got %s", tuple.Kind)
	}
	if tuple.Parent.Kind != KindKeywordArgument || tuple.Parent.Name != "input_formats" {
		t.Error("expected tuple under input_formats keyword")
	}
}

func TestPythonParser_Parse_Literals(t *testing.T) {
	source := strings.Join([]string{
		`a = "a" "b"`,
		`b = b"raw bytes"`,
		`c = 42`,
		`d = "line\nbreak"`,
		`e = r"keep\nescape"`,
		`f = f"hi {g('inner')}"`,
		`h = None`,
	}, "\n")
	tree := parsePython(t, source)

	joined := findLiteral(t, tree.Root, "ab")
	if !joined.IsText {
		t.Error("implicit concatenation should be text")
	}

	escaped := findLiteral(t, tree.Root, "line\nbreak")
	if !escaped.IsText {
		t.Error("escaped string should be text")
	}

	raw := findLiteral(t, tree.Root, `keep\nescape`)
	if !raw.IsText {
		t.Error("raw string should be text")
	}

	inner := findLiteral(t, tree.Root, "inner")
	if !inner.IsText {
		t.Error("literal inside an f-string interpolation should be text")
	}
	if inner.Parent.Kind != KindCall {
		t.Errorf("expected call parent, got %s", inner.Parent.Kind)
	}
	if fstring := inner.Parent.Parent; fstring.Kind != KindLiteral || fstring.IsText {
		t.Error("f-string itself should be a non-text literal")
	}

	texts := make(map[string]bool)
	for _, lit := range TextLiterals(tree.Root) {
		texts[lit.Value] = true
	}
	for _, notText := range []string{"raw bytes", "42", "None"} {
		if texts[notText] {
			t.Errorf("%q must not be a text literal", notText)
		}
	}
}

func TestPythonParser_Parse_Locations(t *testing.T) {
	tree := parsePython(t, "x = 1\nlabel = \"Hello\"\n")

	lit := findLiteral(t, tree.Root, "Hello")
	if lit.Location.StartLine != 2 {
		t.Errorf("expected line 2, got %d", lit.Location.StartLine)
	}
	if lit.Location.StartCol != 8 {
		t.Errorf("expected column 8, got %d", lit.Location.StartCol)
	}
	if lit.Location.FilePath != "test.py" {
		t.Errorf("expected file path test.py, got %q", lit.Location.FilePath)
	}
}

func TestPythonParser_Parse_SyntaxErrorIsTolerated(t *testing.T) {
	tree := parsePython(t, "def broken(:\n    return \"text\"\n")

	if len(tree.Errors) == 0 {
		t.Error("expected a syntax error note")
	}
}

func TestPythonParser_Parse_Errors(t *testing.T) {
	t.Run("invalid utf8", func(t *testing.T) {
		_, err := NewPythonParser().Parse(context.Background(), []byte{0xff, 0xfe}, "bad.py")
		if !errors.Is(err, ErrInvalidContent) {
			t.Errorf("expected ErrInvalidContent, got %v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		parser := NewPythonParser(WithPythonMaxFileSize(4))
		_, err := parser.Parse(context.Background(), []byte(`x = "long"`), "big.py")
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("too deep", func(t *testing.T) {
		parser := NewPythonParser(WithPythonMaxDepth(3))
		_, err := parser.Parse(context.Background(), []byte(`x = f(g(h(i("deep"))))`), "deep.py")
		if !errors.Is(err, ErrTreeTooDeep) {
			t.Errorf("expected ErrTreeTooDeep, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewPythonParser().Parse(ctx, []byte(`x = 1`), "c.py")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPythonParser_Parse_ConcurrentUse(t *testing.T) {
	parser := NewPythonParser()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			tree, err := parser.Parse(context.Background(), []byte(`x = {"a": _("b")}`), "c.py")
			if err == nil && len(TextLiterals(tree.Root)) != 2 {
				err = errors.New("unexpected literal count")
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent parse failed: %v", err)
		}
	}
}
