// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"
)

func TestValidateSegment(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		// Valid segments
		{"simple", "home", false},
		{"underscore", "play_arrow", false},
		{"leading digit", "3d_rotation", false},
		{"family id", "materialiconsoutlined", false},
		{"asset", "24px.svg", false},
		{"mixed case", "Home-Line", false},
		{"max length", strings.Repeat("a", 128), false},

		// Invalid segments
		{"empty", "", true},
		{"slash", "home/../../admin", true},
		{"dot dot", "a..b", true},
		{"leading dot", ".hidden", true},
		{"query", "home?x=1", true},
		{"percent", "home%2F", true},
		{"space", "play arrow", true},
		{"too long", strings.Repeat("a", 129), true},
		{"unicode", "hôme", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegment("icon name", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSegment(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSegment_ErrorNamesKind(t *testing.T) {
	err := ValidateSegment("family id", "a/b")
	if err == nil || !strings.Contains(err.Error(), "family id") {
		t.Errorf("error should name the kind, got: %v", err)
	}
}

func TestValidateSegments(t *testing.T) {
	if err := ValidateSegments("icon name", []string{"home", "search"}); err != nil {
		t.Errorf("ValidateSegments() unexpected error: %v", err)
	}

	err := ValidateSegments("icon name", []string{"home", "a/b", "c d"})
	if err == nil {
		t.Fatal("ValidateSegments() should fail")
	}
	if !strings.Contains(err.Error(), `"a/b"`) || !strings.Contains(err.Error(), `"c d"`) {
		t.Errorf("error should list all invalid values, got: %v", err)
	}
}
