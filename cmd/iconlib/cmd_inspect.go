// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/iconlib/pkg/drawio"
)

func (a *app) runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer f.Close()

	lib, err := drawio.ParseLibrary(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d icons)\n", lib.Title, len(lib.Icons))
	for i, icon := range lib.Icons {
		model, err := drawio.Decode(icon.XML)
		if err != nil {
			return fmt.Errorf("icon %d (%q): %w", i, icon.Title, err)
		}
		fmt.Fprintf(out, "%4d  %-32s %4dx%-4d %s\n", i+1, icon.Title, icon.W, icon.H, icon.Aspect)
		if a.showXML {
			fmt.Fprintf(out, "      %s\n", model)
		}
	}
	a.log.Debug("library inspected", "path", args[0], "icons", len(lib.Icons))
	return nil
}
