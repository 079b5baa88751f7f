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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoSize is returned when an icon has no usable width/height and no
// viewBox to fall back on.
var ErrNoSize = errors.New("icon size not resolvable")

// Size resolves the pixel width and height of an <svg> element.
//
// Each dimension comes from its explicit attribute when that holds a
// positive number (an optional "px" suffix is accepted). Otherwise it is
// the 3rd (width) or 4th (height) component of the viewBox attribute.
// Values are rounded to the nearest integer.
func Size(root *Node) (width, height int, err error) {
	var viewBox []float64
	var viewBoxErr error
	viewBoxLoaded := false

	resolve := func(attr string, index int) (int, error) {
		if raw, ok := root.Get(attr); ok {
			if v, ok := parseLength(raw); ok {
				return v, nil
			}
		}
		if !viewBoxLoaded {
			viewBox, viewBoxErr = parseViewBox(root)
			viewBoxLoaded = true
		}
		if viewBoxErr != nil {
			return 0, fmt.Errorf("%s: %w", attr, viewBoxErr)
		}
		v := int(math.Round(viewBox[index]))
		if v <= 0 {
			return 0, fmt.Errorf("%w: %s from viewBox is %d", ErrNoSize, attr, v)
		}
		return v, nil
	}

	if width, err = resolve("width", 2); err != nil {
		return 0, 0, err
	}
	if height, err = resolve("height", 3); err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

func parseLength(raw string) (int, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "px")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	v := int(math.Round(f))
	if v <= 0 {
		return 0, false
	}
	return v, true
}

func parseViewBox(root *Node) ([]float64, error) {
	raw, ok := root.Get("viewBox")
	if !ok {
		return nil, fmt.Errorf("%w: no width, height or viewBox attribute", ErrNoSize)
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: viewBox %q has %d components, want 4", ErrNoSize, raw, len(fields))
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: viewBox %q: %v", ErrNoSize, raw, err)
		}
		out[i] = v
	}
	return out, nil
}
