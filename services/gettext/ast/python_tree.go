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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var pythonTracer = otel.Tracer("gettextcheck.ast.python")

// contextCheckInterval is how many converted nodes pass between context checks.
const contextCheckInterval = 500

// PythonParserOption configures a PythonParser instance.
type PythonParserOption func(*PythonParser)

// WithPythonMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Must be positive.
func WithPythonMaxFileSize(bytes int64) PythonParserOption {
	return func(p *PythonParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithPythonMaxDepth sets the deepest nesting the tree builder follows.
func WithPythonMaxDepth(depth int) PythonParserOption {
	return func(p *PythonParser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// Tree is the syntax model of one parsed source file.
type Tree struct {
	// FilePath is the path the source was parsed under.
	FilePath string

	// Language is always "python" for trees built by PythonParser.
	Language string

	// Hash is the hex SHA-256 of the source bytes.
	Hash string

	// Root is the module node. Never nil on a successful parse.
	Root *Node

	// Errors lists non-fatal problems, such as syntax errors tree-sitter
	// recovered from.
	Errors []string
}

// PythonParser builds the syntax model from Python source using tree-sitter.
//
// Description:
//
//	Each Parse call creates its own tree-sitter parser, converts the concrete
//	tree into Node values and releases the tree-sitter tree before returning.
//	The result holds no reference to tree-sitter memory.
//
// Thread Safety:
//
//	PythonParser instances are safe for concurrent use.
//
// Example:
//
//	parser := NewPythonParser()
//	tree, err := parser.Parse(ctx, []byte(`print("hi")`), "main.py")
//	if err != nil {
//	    return err
//	}
//	for _, lit := range TextLiterals(tree.Root) {
//	    fmt.Println(lit.Value)
//	}
type PythonParser struct {
	maxFileSize int64
	maxDepth    int
}

// NewPythonParser creates a new PythonParser with the given options.
func NewPythonParser(opts ...PythonParserOption) *PythonParser {
	p := &PythonParser{
		maxFileSize: DefaultMaxFileSize,
		maxDepth:    MaxTreeDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the syntax tree of Python source code.
//
// Description:
//
//	The parser is error-tolerant: syntactically invalid code still yields a
//	tree, with a note in Tree.Errors.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing and
//     periodically while converting.
//   - content: Raw Python source bytes. Must be valid UTF-8.
//   - filePath: Path recorded in every node's Location.
//
// Outputs:
//   - *Tree: The converted tree. Never nil on success.
//   - error: ErrFileTooLarge, ErrInvalidContent, ErrTreeTooDeep or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *PythonParser) Parse(ctx context.Context, content []byte, filePath string) (*Tree, error) {
	ctx, span := pythonTracer.Start(ctx, "ast.PythonParser.Parse")
	defer span.End()
	span.SetAttributes(
		attribute.String("file", filePath),
		attribute.Int("size_bytes", len(content)),
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tsTree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tsTree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	tree := &Tree{
		FilePath: filePath,
		Language: "python",
		Hash:     hex.EncodeToString(hash[:]),
		Errors:   make([]string, 0),
	}

	rootNode := tsTree.RootNode()
	if rootNode == nil {
		tree.Errors = append(tree.Errors, "tree-sitter returned nil root node")
		tree.Root = &Node{Kind: KindModule, Location: Location{FilePath: filePath}}
		return tree, nil
	}
	if rootNode.HasError() {
		tree.Errors = append(tree.Errors, "source contains syntax errors")
	}

	b := &treeBuilder{
		ctx:      ctx,
		content:  content,
		filePath: filePath,
		maxDepth: p.maxDepth,
	}
	root, err := b.convert(rootNode, 0)
	if err != nil {
		return nil, err
	}
	tree.Root = root

	span.SetAttributes(
		attribute.Int("nodes_converted", b.count),
		attribute.Int("errors", len(tree.Errors)),
	)
	return tree, nil
}

// Language returns the canonical language name for this parser.
func (p *PythonParser) Language() string {
	return "python"
}

// Extensions returns the file extensions this parser handles.
func (p *PythonParser) Extensions() []string {
	return []string{".py", ".pyi"}
}

// treeBuilder converts one tree-sitter tree. Not safe for concurrent use.
type treeBuilder struct {
	ctx      context.Context
	content  []byte
	filePath string
	maxDepth int
	count    int
}

// convert maps a tree-sitter node and its subtree onto Node values.
//
// Parentheses are transparent and an expression statement that wraps an
// assignment collapses into the assignment, so literal parents match the
// statement structure Python itself reports.
func (b *treeBuilder) convert(sn *sitter.Node, depth int) (*Node, error) {
	if depth > b.maxDepth {
		return nil, fmt.Errorf("%w: limit %d exceeded at %s:%d", ErrTreeTooDeep, b.maxDepth, b.filePath, int(sn.StartPoint().Row)+1)
	}

	b.count++
	if b.count%contextCheckInterval == 0 {
		if err := b.ctx.Err(); err != nil {
			return nil, fmt.Errorf("tree conversion canceled: %w", err)
		}
	}

	named := namedChildren(sn)

	switch sn.Type() {
	case pyNodeParenthesized:
		if len(named) == 1 {
			return b.convert(named[0], depth+1)
		}
	case pyNodeExpressionStatement:
		if len(named) == 1 && (named[0].Type() == pyNodeAssignment || named[0].Type() == pyNodeAugmentedAssignment) {
			return b.convert(named[0], depth+1)
		}
	}

	node := &Node{Location: b.location(sn)}

	switch sn.Type() {
	case pyNodeModule:
		node.Kind = KindModule
		return node, b.adoptAll(node, named, depth)

	case pyNodeString:
		node.Kind = KindLiteral
		node.Value, node.IsText = pythonStringValue(b.text(sn))
		return node, b.adoptInterpolations(node, sn, depth)

	case pyNodeConcatenatedString:
		node.Kind = KindLiteral
		node.IsText = true
		for _, part := range named {
			if part.Type() != pyNodeString {
				continue
			}
			value, isText := pythonStringValue(b.text(part))
			node.Value += value
			node.IsText = node.IsText && isText
			if err := b.adoptInterpolations(node, part, depth); err != nil {
				return nil, err
			}
		}
		return node, nil

	case pyNodeInteger, pyNodeFloat, pyNodeTrue, pyNodeFalse, pyNodeNone, pyNodeEllipsis:
		node.Kind = KindLiteral
		node.Value = b.text(sn)
		return node, nil

	case pyNodeIdentifier:
		node.Kind = KindName
		node.Identifier = b.text(sn)
		return node, nil

	case pyNodeAttribute:
		node.Kind = KindAttribute
		if attr := sn.ChildByFieldName(pyFieldAttribute); attr != nil {
			node.Attr = b.text(attr)
		}
		object, err := b.convertField(sn, pyFieldObject, depth)
		if err != nil {
			return nil, err
		}
		node.Object = object
		node.Adopt(object)
		return node, nil

	case pyNodeCall:
		return b.convertCall(node, sn, depth)

	case pyNodeKeywordArg:
		node.Kind = KindKeywordArgument
		if name := sn.ChildByFieldName(pyFieldName); name != nil {
			node.Name = b.text(name)
		}
		value, err := b.convertField(sn, pyFieldValue, depth)
		if err != nil {
			return nil, err
		}
		node.Expr = value
		node.Adopt(value)
		return node, nil

	case pyNodeDictionary:
		return b.convertDict(node, named, depth)

	case pyNodeSubscript:
		return b.convertSubscript(node, named, depth)

	case pyNodeAssignment:
		return b.convertAssignment(node, sn, depth)

	case pyNodeExpressionStatement:
		node.Kind = KindExpressionStatement
		if err := b.adoptAll(node, named, depth); err != nil {
			return nil, err
		}
		if len(node.Children) == 1 {
			node.Expr = node.Children[0]
		}
		return node, nil

	case pyNodeComparison:
		node.Kind = KindComparison
		for i := 0; i < int(sn.ChildCount()); i++ {
			child := sn.Child(i)
			if child != nil && !child.IsNamed() {
				node.Operators = append(node.Operators, b.text(child))
			}
		}
		if err := b.adoptAll(node, named, depth); err != nil {
			return nil, err
		}
		if len(node.Children) > 0 {
			node.Left = node.Children[0]
			node.Operands = node.Children[1:]
		}
		return node, nil

	case pyNodeList, pyNodeTuple, pyNodeSet, pyNodeExprList, pyNodePatternList, pyNodeTuplePattern, pyNodeListPattern:
		node.Kind = KindSequence
		if err := b.adoptAll(node, named, depth); err != nil {
			return nil, err
		}
		node.Elements = node.Children
		return node, nil
	}

	node.Kind = KindOther
	return node, b.adoptAll(node, named, depth)
}

// convertCall fills a KindCall node. Keyword arguments go to Keywords,
// everything else in the argument list (including *args) to Args.
func (b *treeBuilder) convertCall(node *Node, sn *sitter.Node, depth int) (*Node, error) {
	node.Kind = KindCall

	callee, err := b.convertField(sn, pyFieldFunction, depth)
	if err != nil {
		return nil, err
	}
	node.Callee = callee
	node.Adopt(callee)

	args := sn.ChildByFieldName(pyFieldArguments)
	if args == nil {
		return node, nil
	}

	if args.Type() != pyNodeArgumentList {
		// f(x for x in y)
		arg, err := b.convert(args, depth+1)
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, arg)
		node.Adopt(arg)
		return node, nil
	}

	for _, child := range namedChildren(args) {
		arg, err := b.convert(child, depth+1)
		if err != nil {
			return nil, err
		}
		switch arg.Kind {
		case KindKeywordArgument:
			node.Keywords = append(node.Keywords, arg)
		default:
			if child.Type() != pyNodeDictSplat {
				node.Args = append(node.Args, arg)
			}
		}
		node.Adopt(arg)
	}
	return node, nil
}

// convertDict fills a KindDict node. Keys and values become direct children
// of the dict; pair nodes do not appear in the model.
func (b *treeBuilder) convertDict(node *Node, named []*sitter.Node, depth int) (*Node, error) {
	node.Kind = KindDict
	for _, child := range named {
		if child.Type() != pyNodePair {
			other, err := b.convert(child, depth+1)
			if err != nil {
				return nil, err
			}
			node.Adopt(other)
			continue
		}
		key, err := b.convertField(child, pyFieldKey, depth)
		if err != nil {
			return nil, err
		}
		value, err := b.convertField(child, pyFieldValue, depth)
		if err != nil {
			return nil, err
		}
		node.Pairs = append(node.Pairs, Pair{Key: key, Value: value})
		node.Adopt(key, value)
	}
	return node, nil
}

// convertSubscript fills a KindSubscript node. obj[a, b] gets a synthetic
// tuple as its index.
func (b *treeBuilder) convertSubscript(node *Node, named []*sitter.Node, depth int) (*Node, error) {
	node.Kind = KindSubscript
	if len(named) == 0 {
		return node, nil
	}

	object, err := b.convert(named[0], depth+1)
	if err != nil {
		return nil, err
	}
	node.Object = object
	node.Adopt(object)

	subscripts := named[1:]
	switch len(subscripts) {
	case 0:
	case 1:
		index, err := b.convert(subscripts[0], depth+1)
		if err != nil {
			return nil, err
		}
		node.Index = index
		node.Adopt(index)
	default:
		tuple := &Node{Kind: KindSequence, Location: b.location(subscripts[0])}
		tuple.Location.EndLine = int(subscripts[len(subscripts)-1].EndPoint().Row) + 1
		tuple.Location.EndCol = int(subscripts[len(subscripts)-1].EndPoint().Column)
		if err := b.adoptAll(tuple, subscripts, depth+1); err != nil {
			return nil, err
		}
		tuple.Elements = tuple.Children
		node.Index = tuple
		node.Adopt(tuple)
	}
	return node, nil
}

// convertAssignment fills a KindAssignment node, flattening a = b = value
// into one node with two targets. Annotated assignments such as
// "ordering: list = [...]" also become KindAssignment, with the annotation
// adopted as a child, so rules keyed on assignment targets (for example
// config-assignment) apply to them as they do to plain assignments.
func (b *treeBuilder) convertAssignment(node *Node, sn *sitter.Node, depth int) (*Node, error) {
	node.Kind = KindAssignment
	cur := sn
	for {
		target, err := b.convertField(cur, pyFieldLeft, depth)
		if err != nil {
			return nil, err
		}
		if target != nil {
			node.Targets = append(node.Targets, target)
			node.Adopt(target)
		}

		annotation, err := b.convertField(cur, pyFieldType, depth)
		if err != nil {
			return nil, err
		}
		node.Adopt(annotation)

		right := cur.ChildByFieldName(pyFieldRight)
		if right == nil {
			return node, nil
		}
		if right.Type() == pyNodeAssignment {
			cur = right
			continue
		}

		value, err := b.convert(right, depth+1)
		if err != nil {
			return nil, err
		}
		node.Expr = value
		node.Adopt(value)
		return node, nil
	}
}

// adoptInterpolations converts the expressions embedded in an f-string token.
func (b *treeBuilder) adoptInterpolations(node *Node, sn *sitter.Node, depth int) error {
	for _, child := range namedChildren(sn) {
		if child.Type() != pyNodeInterpolation {
			continue
		}
		inner := namedChildren(child)
		if len(inner) == 0 {
			continue
		}
		expr, err := b.convert(inner[0], depth+1)
		if err != nil {
			return err
		}
		node.Adopt(expr)
	}
	return nil
}

func (b *treeBuilder) adoptAll(node *Node, children []*sitter.Node, depth int) error {
	for _, child := range children {
		converted, err := b.convert(child, depth+1)
		if err != nil {
			return err
		}
		node.Adopt(converted)
	}
	return nil
}

func (b *treeBuilder) convertField(sn *sitter.Node, field string, depth int) (*Node, error) {
	child := sn.ChildByFieldName(field)
	if child == nil {
		return nil, nil
	}
	return b.convert(child, depth+1)
}

func (b *treeBuilder) text(sn *sitter.Node) string {
	return string(b.content[sn.StartByte():sn.EndByte()])
}

func (b *treeBuilder) location(sn *sitter.Node) Location {
	return Location{
		FilePath:  b.filePath,
		StartLine: int(sn.StartPoint().Row) + 1,
		EndLine:   int(sn.EndPoint().Row) + 1,
		StartCol:  int(sn.StartPoint().Column),
		EndCol:    int(sn.EndPoint().Column),
	}
}

// namedChildren returns the named children of sn in order, without comments.
func namedChildren(sn *sitter.Node) []*sitter.Node {
	count := int(sn.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := sn.NamedChild(i)
		if child == nil || child.Type() == pyNodeComment {
			continue
		}
		children = append(children, child)
	}
	return children
}
