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

// Python Tree-sitter Node Types
//
// The tree-sitter node types PythonParser maps onto NodeKind. Anything not
// listed becomes KindOther with its named children preserved.
//
// Reference: https://github.com/tree-sitter/tree-sitter-python/blob/master/src/grammar.json
const (
	pyNodeModule  = "module"
	pyNodeComment = "comment"

	// Statements
	pyNodeExpressionStatement = "expression_statement"
	pyNodeAssignment          = "assignment"
	pyNodeAugmentedAssignment = "augmented_assignment"

	// Literals
	pyNodeString             = "string"
	pyNodeConcatenatedString = "concatenated_string"
	pyNodeInterpolation      = "interpolation"
	pyNodeInteger            = "integer"
	pyNodeFloat              = "float"
	pyNodeTrue               = "true"
	pyNodeFalse              = "false"
	pyNodeNone               = "none"
	pyNodeEllipsis           = "ellipsis"

	// Containers
	pyNodeDictionary   = "dictionary"
	pyNodePair         = "pair"
	pyNodeList         = "list"
	pyNodeTuple        = "tuple"
	pyNodeSet          = "set"
	pyNodeExprList     = "expression_list"
	pyNodePatternList  = "pattern_list"
	pyNodeTuplePattern = "tuple_pattern"
	pyNodeListPattern  = "list_pattern"

	// Expressions
	pyNodeIdentifier    = "identifier"
	pyNodeAttribute     = "attribute"
	pyNodeSubscript     = "subscript"
	pyNodeCall          = "call"
	pyNodeArgumentList  = "argument_list"
	pyNodeKeywordArg    = "keyword_argument"
	pyNodeDictSplat     = "dictionary_splat"
	pyNodeComparison    = "comparison_operator"
	pyNodeParenthesized = "parenthesized_expression"
)

// Field names used with ChildByFieldName.
const (
	pyFieldLeft      = "left"
	pyFieldRight     = "right"
	pyFieldType      = "type"
	pyFieldKey       = "key"
	pyFieldValue     = "value"
	pyFieldName      = "name"
	pyFieldObject    = "object"
	pyFieldAttribute = "attribute"
	pyFieldFunction  = "function"
	pyFieldArguments = "arguments"
)
