// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package svgicon normalizes SVG icon documents for embedding in draw.io
// libraries.
//
// Normalization strips presentational leftovers (title, description and
// the trailing background rect), flattens top-level <g> wrappers,
// collapses each top-level element's class list into one of a small set
// of style categories and injects a matching <style> block. It also
// derives the display title from the icon's logical name and resolves the
// icon's pixel size.
//
// # Basic Usage
//
//	icon, err := svgicon.Normalize(f, "home-badged-outline", svgicon.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(icon.Title, icon.Width, icon.Height) // Home 36 36
//
// All transforms are pure: the parsed input tree is never modified.
package svgicon

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Category is the style class assigned to a top-level element.
type Category string

const (
	// CategoryMain is the default style for icon body shapes.
	CategoryMain Category = "Main"

	// CategoryBadge marks notification badge shapes.
	CategoryBadge Category = "Badge"

	// CategoryAlert marks alert triangle shapes.
	CategoryAlert Category = "Alert"
)

// Options tunes normalization.
//
// A zero-value field falls back to the matching DefaultOptions value.
type Options struct {
	// BadgeMarker is the class token that selects CategoryBadge.
	// Default: "clr-i-badge"
	BadgeMarker string

	// AlertMarker is the class token that selects CategoryAlert.
	// Default: "clr-i-alert"
	AlertMarker string

	// Fill is the fill color written for every style category.
	// Default: "#000000"
	Fill string

	// SkipTokens are name tokens dropped from the end of a logical name
	// when deriving the title.
	// Default: line, outline, solid, alerted, badged
	SkipTokens []string
}

// DefaultOptions returns the Clarity icon set conventions.
func DefaultOptions() Options {
	return Options{
		BadgeMarker: "clr-i-badge",
		AlertMarker: "clr-i-alert",
		Fill:        "#000000",
		SkipTokens:  []string{"line", "outline", "solid", "alerted", "badged"},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BadgeMarker == "" {
		o.BadgeMarker = d.BadgeMarker
	}
	if o.AlertMarker == "" {
		o.AlertMarker = d.AlertMarker
	}
	if o.Fill == "" {
		o.Fill = d.Fill
	}
	if o.SkipTokens == nil {
		o.SkipTokens = d.SkipTokens
	}
	return o
}

// Icon is a normalized icon ready for encoding.
type Icon struct {
	// Root is the cleaned <svg> element.
	Root *Node

	// Title is the display title derived from the logical name.
	Title string

	// Width and Height are the icon's pixel dimensions.
	Width  int
	Height int

	// Categories lists the style categories used, in first-seen order.
	Categories []Category
}

// Normalize parses an SVG document and normalizes it.
//
// name is the icon's logical name, usually the file name without its
// extension. The error wraps ErrMalformed when the document is not
// well-formed or its root is not <svg>, and ErrNoSize when no pixel size
// can be resolved.
func Normalize(r io.Reader, name string, opts Options) (*Icon, error) {
	opts = opts.withDefaults()

	root, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if !root.Is("svg") {
		return nil, fmt.Errorf("%w: root element is <%s>, want <svg>", ErrMalformed, qualified(root.Name))
	}

	cleaned, categories := Clean(root, opts)
	width, height, err := Size(cleaned)
	if err != nil {
		return nil, err
	}

	return &Icon{
		Root:       cleaned,
		Title:      Title(name, opts.SkipTokens),
		Width:      width,
		Height:     height,
		Categories: categories,
	}, nil
}

// Clean returns a normalized copy of root and the style categories it
// uses. root is not modified.
func Clean(root *Node, opts Options) (*Node, []Category) {
	opts = opts.withDefaults()

	children := removeFirst(root.Children, "title")
	children = removeFirst(children, "desc")
	children = removeLast(children, "rect")
	children = Flatten(children)

	var used []Category
	out := make([]*Node, 0, len(children)+1)
	out = append(out, nil) // reserved for the style block
	for _, c := range children {
		if c.Kind != ElementNode {
			out = append(out, c)
			continue
		}
		cat := Classify(c, opts)
		if !slices.Contains(used, cat) {
			used = append(used, cat)
		}
		out = append(out, c.WithAttr("class", string(cat)))
	}
	out[0] = styleBlock(root.Name.Space, used, opts.Fill)

	return root.WithChildren(out), used
}

// Flatten replaces the first <g> among children with its own element
// children, repeating until no <g> remains at this level. The input slice is not
// modified.
func Flatten(children []*Node) []*Node {
	out := children
	for {
		i := slices.IndexFunc(out, func(n *Node) bool { return n.Is("g") })
		if i < 0 {
			return out
		}
		children := out[i].Elements()
		next := make([]*Node, 0, len(out)-1+len(children))
		next = append(next, out[:i]...)
		next = append(next, children...)
		next = append(next, out[i+1:]...)
		out = next
	}
}

// Classify picks the style category for one element from its class
// tokens. The badge marker wins over the alert marker.
func Classify(n *Node, opts Options) Category {
	opts = opts.withDefaults()
	class, _ := n.Get("class")
	tokens := strings.Fields(class)
	switch {
	case slices.Contains(tokens, opts.BadgeMarker):
		return CategoryBadge
	case slices.Contains(tokens, opts.AlertMarker):
		return CategoryAlert
	default:
		return CategoryMain
	}
}

func styleBlock(prefix string, used []Category, fill string) *Node {
	rules := make([]string, 0, len(used))
	for _, c := range used {
		rules = append(rules, fmt.Sprintf(".%s { fill: %s; }", c, fill))
	}
	style := &Node{
		Kind: ElementNode,
		Name: xml.Name{Space: prefix, Local: "style"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: "text/css"}},
	}
	if len(rules) > 0 {
		style.Children = []*Node{{Kind: TextNode, Text: strings.Join(rules, " ")}}
	}
	return style
}

func removeFirst(children []*Node, local string) []*Node {
	i := slices.IndexFunc(children, func(n *Node) bool { return n.Is(local) })
	if i < 0 {
		return children
	}
	return slices.Delete(slices.Clone(children), i, i+1)
}

func removeLast(children []*Node, local string) []*Node {
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Is(local) {
			return slices.Delete(slices.Clone(children), i, i+1)
		}
	}
	return children
}
