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
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title derives a display title from a logical icon name.
//
// The name is split on '-' and '_'. Trailing tokens found in skip are
// dropped, scanning from the end and stopping at the first token not in
// skip. The remaining tokens are title-cased and joined with spaces.
//
//	Title("home-line", skip)            // "Home"
//	Title("home-badged-outline", skip)  // "Home"
//	Title("line-chart", skip)           // "Line Chart"
func Title(name string, skip []string) string {
	tokens := strings.FieldsFunc(name, isNameSeparator)
	end := len(tokens)
	for end > 0 && slices.Contains(skip, tokens[end-1]) {
		end--
	}
	return TitleCase(strings.Join(tokens[:end], " "))
}

// TitleCase upper-cases the first letter of every word and lower-cases
// the rest.
func TitleCase(s string) string {
	// A Caser holds state, so each call gets its own.
	return cases.Title(language.Und).String(s)
}

func isNameSeparator(r rune) bool {
	return r == '-' || r == '_'
}
