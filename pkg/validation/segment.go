// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks untrusted values before they are substituted
// into URL paths.
//
// Icon names and family ids from a remote catalog end up inside asset
// URLs. A value containing '/', '..', '?' or '%' would change which
// resource is requested, so such values are rejected.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentPattern matches a single URL path segment.
// Allows: letters, digits, '_', '-', '.' (not leading)
// Max length: 128 characters
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]{0,127}$`)

// ValidateSegment validates a value used as one URL path segment. kind
// names the value in the error, e.g. "icon name".
//
// Example:
//
//	if err := validation.ValidateSegment("icon name", icon.Name); err != nil {
//	    return nil, fmt.Errorf("%w: %v", ErrIndex, err)
//	}
func ValidateSegment(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if !segmentPattern.MatchString(value) || strings.Contains(value, "..") {
		return fmt.Errorf("invalid %s: %q (must be 1-128 letters, digits, '_', '-' or '.')", kind, value)
	}
	return nil
}

// ValidateSegments validates every value, listing all invalid ones.
func ValidateSegments(kind string, values []string) error {
	var invalid []string
	for _, v := range values {
		if err := ValidateSegment(kind, v); err != nil {
			invalid = append(invalid, v)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid %ss: %q", kind, invalid)
	}
	return nil
}
