// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultLocalNamespace prefixes local group titles.
const DefaultLocalNamespace = "Clarity"

// Local enumerates groups from the immediate subdirectories of Root.
type Local struct {
	// Root is the source directory.
	Root string

	// Namespace prefixes every group title.
	Namespace string

	// Extension selects icon files, compared case-insensitively.
	// Default: ".svg"
	Extension string
}

// NewLocal returns a Local enumerator with default extension.
func NewLocal(root, namespace string) *Local {
	return &Local{Root: root, Namespace: namespace, Extension: ".svg"}
}

// Groups lists one group per subdirectory of Root, ordered
// case-insensitively. Members are the directory's icon files, also
// ordered case-insensitively. Nested directories are not descended.
func (l *Local) Groups(ctx context.Context) ([]Group, error) {
	dirs, err := listDir(l.Root, func(e os.DirEntry) bool { return e.IsDir() })
	if err != nil {
		return nil, fmt.Errorf("list source root: %w", err)
	}

	ext := l.Extension
	if ext == "" {
		ext = ".svg"
	}

	groups := make([]Group, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dirPath := filepath.Join(l.Root, dir)
		files, err := listDir(dirPath, func(e os.DirEntry) bool {
			return !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext)
		})
		if err != nil {
			return nil, fmt.Errorf("list group %s: %w", dir, err)
		}

		icons := make([]Source, 0, len(files))
		for _, file := range files {
			path := filepath.Join(dirPath, file)
			icons = append(icons, NewSource(
				strings.TrimSuffix(file, filepath.Ext(file)),
				"",
				path,
				func(context.Context) (io.ReadCloser, error) { return os.Open(path) },
			))
		}

		groups = append(groups, Group{
			Key:   strings.ToLower(dir),
			Title: GroupTitle(l.Namespace, dir),
			Icons: icons,
		})
	}
	return groups, nil
}

func listDir(dir string, keep func(os.DirEntry) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if keep(e) {
			names = append(names, e.Name())
		}
	}
	slices.SortFunc(names, compareFold)
	return names, nil
}
