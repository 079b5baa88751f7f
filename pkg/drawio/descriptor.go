// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package drawio encodes normalized icons as draw.io library entries.
//
// Each icon becomes a Descriptor: an mxGraphModel holding a single image
// cell whose image is the icon's SVG as a base64 data URI. The model is
// percent-encoded, raw-deflated and base64-encoded, which is the form
// draw.io expects in the "xml" field of an mxlibrary entry.
//
//	desc, err := drawio.Encode(icon, drawio.DefaultFill)
//	lib := drawio.Library{Title: "Clarity - Core Shapes", Icons: []drawio.Descriptor{desc}}
//	err = lib.WriteFile("out/Clarity - Core Shapes.drawio")
package drawio

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/AleutianAI/iconlib/pkg/svgicon"
)

// AspectFixed is the only aspect mode emitted for icons.
const AspectFixed = "fixed"

// DefaultFill is the cell fill color.
const DefaultFill = "#000000"

// ErrPayload is returned when an encoded payload cannot be decoded.
var ErrPayload = errors.New("invalid library payload")

// Descriptor is one entry of an mxlibrary JSON array.
type Descriptor struct {
	XML    string `json:"xml"`
	W      int    `json:"w"`
	H      int    `json:"h"`
	Title  string `json:"title"`
	Aspect string `json:"aspect"`
}

type graphModel struct {
	XMLName xml.Name `xml:"mxGraphModel"`
	Root    struct {
		Cells []cell `xml:"mxCell"`
	} `xml:"root"`
}

type cell struct {
	ID       string    `xml:"id,attr"`
	Value    *string   `xml:"value,attr,omitempty"`
	Style    string    `xml:"style,attr,omitempty"`
	Vertex   string    `xml:"vertex,attr,omitempty"`
	Parent   string    `xml:"parent,attr,omitempty"`
	Geometry *geometry `xml:"mxGeometry,omitempty"`
}

type geometry struct {
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	As     string `xml:"as,attr"`
}

// imageStyle is the style of the image cell. %s slots are the base64 SVG
// and the fill color.
const imageStyle = "shape=image;editableCssRules=.*;verticalLabelPosition=bottom;" +
	"verticalAlign=top;imageAspect=0;aspect=fixed;image=data:image/svg+xml,%s;fillColor=%s;"

// GraphModel builds the compact mxGraphModel string for one image cell.
func GraphModel(svg string, width, height int, fill string) (string, error) {
	empty := ""
	var m graphModel
	m.Root.Cells = []cell{
		{ID: "0"},
		{ID: "1", Parent: "0"},
		{
			ID:     "2",
			Value:  &empty,
			Style:  fmt.Sprintf(imageStyle, base64.StdEncoding.EncodeToString([]byte(svg)), fill),
			Vertex: "1",
			Parent: "1",
			Geometry: &geometry{
				Width:  width,
				Height: height,
				As:     "geometry",
			},
		},
	}

	out, err := xml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal graph model: %w", err)
	}
	return string(out), nil
}

// Encode turns a normalized icon into a library descriptor.
func Encode(icon *svgicon.Icon, fill string) (Descriptor, error) {
	if fill == "" {
		fill = DefaultFill
	}
	model, err := GraphModel(svgicon.Render(icon.Root), icon.Width, icon.Height, fill)
	if err != nil {
		return Descriptor{}, err
	}
	payload, err := Compress(model)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		XML:    payload,
		W:      icon.Width,
		H:      icon.Height,
		Title:  icon.Title,
		Aspect: AspectFixed,
	}, nil
}

// Compress percent-encodes model, raw-deflates it and returns the
// base64 text of the compressed bytes.
func Compress(model string) (string, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("create deflate writer: %w", err)
	}
	if _, err := io.WriteString(zw, escapeDataString(model)); err != nil {
		return "", fmt.Errorf("deflate graph model: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("flush deflate writer: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Compress and returns the original model string.
func Decode(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrPayload, err)
	}
	zr := flate.NewReader(bytes.NewReader(raw))
	defer zr.Close()
	escaped, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: inflate: %v", ErrPayload, err)
	}
	model, err := url.PathUnescape(string(escaped))
	if err != nil {
		return "", fmt.Errorf("%w: percent-decode: %v", ErrPayload, err)
	}
	return model, nil
}

// escapeDataString percent-encodes everything outside the RFC 3986
// unreserved set, with spaces as %20.
func escapeDataString(s string) string {
	// QueryEscape already escapes a literal '+', so any '+' left is a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
