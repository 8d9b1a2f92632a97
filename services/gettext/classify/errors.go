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

import "errors"

var (
	// ErrMalformedTree is returned when the ancestor chain of a literal is
	// longer than the configured maximum, which only a cyclic tree produces.
	ErrMalformedTree = errors.New("malformed syntax tree")

	// ErrRegistryFrozen is returned by Register after the registry is frozen.
	ErrRegistryFrozen = errors.New("rule registry is frozen")

	// ErrInvalidRule is returned by Register for a rule without a name or
	// matcher, or with a name already registered.
	ErrInvalidRule = errors.New("invalid structural rule")

	// ErrNilLiteral is returned when Classify is called with a nil node.
	ErrNilLiteral = errors.New("literal must not be nil")
)
