// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package svgicon

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is returned when an icon document is not well-formed markup.
var ErrMalformed = errors.New("malformed svg document")

// NodeKind distinguishes element nodes from character data.
type NodeKind int

const (
	// ElementNode is an XML element with attributes and children.
	ElementNode NodeKind = iota

	// TextNode holds character data. Only Text is meaningful.
	TextNode
)

// Node is one node of a parsed icon document.
//
// Names and attribute names keep their raw prefixes (Name.Space is the
// prefix as written, not a resolved namespace URI) so the document
// renders back the way it was authored.
//
// Nodes are treated as immutable once parsed. Functions in this package
// that change a document return new nodes and never write to their input.
type Node struct {
	Kind     NodeKind
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Node
	Text     string
}

// Is reports whether n is an element with the given local name in either
// the default or the "svg" prefixed namespace.
func (n *Node) Is(local string) bool {
	if n == nil || n.Kind != ElementNode {
		return false
	}
	return n.Name.Local == local && (n.Name.Space == "" || n.Name.Space == "svg")
}

// Get returns the value of the unprefixed attribute name.
func (n *Node) Get(name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// WithAttr returns a shallow copy of n whose attribute name is set to value.
// An existing attribute keeps its position; a new one is appended.
func (n *Node) WithAttr(name, value string) *Node {
	attrs := make([]xml.Attr, 0, len(n.Attr)+1)
	replaced := false
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			a.Value = value
			replaced = true
		}
		attrs = append(attrs, a)
	}
	if !replaced {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	}
	cp := *n
	cp.Attr = attrs
	return &cp
}

// WithChildren returns a shallow copy of n with its children replaced.
func (n *Node) WithChildren(children []*Node) *Node {
	cp := *n
	cp.Children = children
	return &cp
}

// Elements returns the element children of n in document order.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Parse reads a single XML document into a tree. A leading UTF-8 byte
// order mark is skipped.
//
// Comments, processing instructions, directives and whitespace-only
// character data are dropped. Any syntax error, unbalanced tag or missing
// root element yields an error wrapping ErrMalformed.
func Parse(r io.Reader) (*Node, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(byteOrderMark)); err == nil && bytes.Equal(head, byteOrderMark) {
		br.Discard(len(byteOrderMark))
	}
	dec := xml.NewDecoder(br)
	dec.Strict = true

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{
				Kind: ElementNode,
				Name: t.Name,
				Attr: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected </%s>", ErrMalformed, qualified(t.Name))
			}
			open := stack[len(stack)-1]
			if open.Name != t.Name {
				return nil, fmt.Errorf("%w: <%s> closed by </%s>",
					ErrMalformed, qualified(open.Name), qualified(t.Name))
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: character data outside root element", ErrMalformed)
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Kind: TextNode, Text: string(t)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed <%s>", ErrMalformed, qualified(stack[len(stack)-1].Name))
	}
	return root, nil
}

// Render serializes n compactly: no indentation and no whitespace beyond
// what the tree holds. Childless elements are self-closed.
func Render(n *Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n *Node) {
	if n.Kind == TextNode {
		b.WriteString(textEscaper.Replace(n.Text))
		return
	}
	name := qualified(n.Name)
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		b.WriteString(qualified(a.Name))
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Value))
		b.WriteByte('"')
	}
	if len(n.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, c := range n.Children {
		render(b, c)
	}
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

var (
	attrEscaper = strings.NewReplacer(
		`&`, "&amp;",
		`<`, "&lt;",
		`>`, "&gt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
	textEscaper = strings.NewReplacer(
		`&`, "&amp;",
		`<`, "&lt;",
		`>`, "&gt;",
		"\r", "&#xD;",
	)
)
