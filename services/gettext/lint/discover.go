// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"site-packages": true,
	"venv":          true,
}

// Discover expands roots into the source files to check.
//
// Description:
//
//	A root that names a file is returned as is, whatever its extension. A
//	directory root is walked for files with one of the given extensions,
//	skipping hidden directories, virtualenvs and caches, and any path whose
//	slash-separated form relative to the root starts with an exclude
//	prefix. The result is sorted and free of duplicates.
//
// Inputs:
//
//	roots - Files or directories. Must not be empty.
//	extensions - Extensions including the dot, e.g. ".py".
//	exclude - Path prefixes relative to each directory root.
//
// Outputs:
//
//	[]string - The files, sorted.
//	error - Non-nil if a root does not exist or a directory cannot be read.
func Discover(roots, extensions, exclude []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, errors.New("no paths to check")
	}

	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(root))
			continue
		}

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path == root {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)

			if entry.IsDir() {
				if IgnoredDir(entry.Name()) || excluded(rel+"/", exclude) {
					return filepath.SkipDir
				}
				return nil
			}

			if excluded(rel, exclude) || !slices.Contains(extensions, filepath.Ext(path)) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// IgnoredDir reports whether a directory with this base name is never
// searched for sources: hidden directories, virtualenvs and caches.
func IgnoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || skippedDirs[name]
}

func excluded(rel string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}
