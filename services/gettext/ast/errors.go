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

import "errors"

// Sentinel errors returned by the Python tree builder.
var (
	// ErrFileTooLarge is returned when the source exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent is returned when the source is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrTreeTooDeep is returned when the syntax tree nests deeper than MaxTreeDepth.
	ErrTreeTooDeep = errors.New("syntax tree too deep")
)

const (
	// DefaultMaxFileSize is the largest source accepted by default (10MB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// WarnFileSize is the size above which parsing logs a warning (1MB).
	WarnFileSize = 1024 * 1024

	// MaxTreeDepth bounds the nesting the tree builder will follow.
	MaxTreeDepth = 5000
)
