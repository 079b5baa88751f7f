// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog enumerates icon groups from a local directory tree or a
// remote icon catalog.
//
// A Group maps 1:1 to one output library. Its Sources are opened lazily,
// so a remote catalog issues one request per icon only when the pipeline
// reaches it.
package catalog

import (
	"cmp"
	"context"
	"io"
	"strings"

	"github.com/AleutianAI/iconlib/pkg/svgicon"
)

// Enumerator lists icon groups.
type Enumerator interface {
	Groups(ctx context.Context) ([]Group, error)
}

// Group is a named collection of icons that share a category.
type Group struct {
	// Key is the case-folded grouping key (directory or category name).
	Key string

	// Title is the display title, "<Namespace> - <Name>".
	Title string

	// Icons lists the group's members in output order.
	Icons []Source
}

// Source is one icon document with its logical name.
type Source struct {
	// Name is the logical icon name, e.g. "home-line".
	Name string

	// Variant is the style variant label for remote icons ("" for the
	// default variant and for local files).
	Variant string

	// Location is the file path or URL the document is read from.
	Location string

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Open returns the icon document. The caller must close it.
func (s Source) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.open(ctx)
}

// NewSource builds a Source backed by an arbitrary opener.
func NewSource(name, variant, location string, open func(ctx context.Context) (io.ReadCloser, error)) Source {
	return Source{Name: name, Variant: variant, Location: location, open: open}
}

// GroupTitle builds "<namespace> - <Name>" with '-' and '_' in name
// replaced by spaces and the result title-cased. An empty namespace
// yields just the title-cased name.
func GroupTitle(namespace, name string) string {
	title := svgicon.TitleCase(strings.TrimSpace(separators.Replace(name)))
	if namespace == "" {
		return title
	}
	return namespace + " - " + title
}

var separators = strings.NewReplacer("-", " ", "_", " ")

// compareFold orders strings by their upper-case forms, so '_' sorts
// after letters, falling back to a byte-wise comparison so the order is
// total.
func compareFold(a, b string) int {
	if c := cmp.Compare(strings.ToUpper(a), strings.ToUpper(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}
