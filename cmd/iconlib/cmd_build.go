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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/iconlib/pkg/catalog"
	"github.com/AleutianAI/iconlib/pkg/pipeline"
	"github.com/AleutianAI/iconlib/pkg/ux"
)

func (a *app) runBuildLocal(cmd *cobra.Command, args []string) error {
	if err := a.cfg.ValidateLocal(); err != nil {
		return err
	}
	ux.Title(fmt.Sprintf("Building libraries from %s", a.cfg.Local.SourceDir))
	_, err := a.build(cmd.Context(), a.localSource())
	return err
}

func (a *app) runBuildRemote(cmd *cobra.Command, args []string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	opts, err := a.cfg.RemoteOptions()
	if err != nil {
		return err
	}
	ux.Title(fmt.Sprintf("Building libraries from %s", opts.IndexURL))
	_, err = a.build(cmd.Context(), catalog.NewRemote(a.remoteClient(), opts))
	return err
}

func (a *app) localSource() *catalog.Local {
	src := catalog.NewLocal(a.cfg.Local.SourceDir, a.cfg.Local.Namespace)
	if a.cfg.Local.Extension != "" {
		src.Extension = a.cfg.Local.Extension
	}
	return src
}

func (a *app) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		OutputDir:   a.cfg.Output.Dir,
		Extension:   a.cfg.Output.Extension,
		Normalize:   a.cfg.NormalizeOptions(),
		MetricsFile: a.cfg.Output.MetricsFile,
		Logger:      a.log,
	}
}

// build runs the pipeline once and reports every written library. Libraries
// written before a failure are still reported.
func (a *app) build(ctx context.Context, src catalog.Enumerator) (*pipeline.Report, error) {
	a.log.Info("build started", "output", a.cfg.Output.Dir)

	report, err := pipeline.Run(ctx, a.pipelineConfig(), src)
	if report != nil {
		for _, lib := range report.Libraries {
			ux.Library(lib.Title, lib.Icons, lib.Path)
		}
	}
	if err != nil {
		a.log.Error("build failed", "error", err)
		return report, err
	}

	ux.Summary(report.Groups, report.Icons, report.Bytes)
	a.log.Info("build finished",
		"groups", report.Groups,
		"icons", report.Icons,
		"bytes", report.Bytes,
		"duration", report.Duration)
	return report, nil
}
