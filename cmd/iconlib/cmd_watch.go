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

	"github.com/AleutianAI/iconlib/pkg/ux"
)

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	if err := a.cfg.ValidateLocal(); err != nil {
		return err
	}
	return a.watch(cmd.Context())
}

// watch builds once, then rebuilds after every quiet period until ctx is
// canceled. A failed rebuild is reported and the watch continues.
func (a *app) watch(ctx context.Context) error {
	src := a.localSource()

	if _, err := a.build(ctx, src); err != nil {
		ux.Error(err.Error())
	}

	rebuild := func(ctx context.Context, changed []string) {
		a.log.Info("source changed", "paths", len(changed))
		ux.Info(fmt.Sprintf("%d change(s), rebuilding", len(changed)))
		if _, err := a.build(ctx, src); err != nil && ctx.Err() == nil {
			ux.Error(err.Error())
		}
	}

	w, err := newSourceWatcher(src.Root, src.Extension, a.cfg.Watch.Debounce, rebuild, a.log)
	if err != nil {
		return err
	}
	ux.Info(fmt.Sprintf("Watching %s (Ctrl-C to stop)", src.Root))
	a.log.Info("watch started", "root", src.Root, "debounce", a.cfg.Watch.Debounce)
	return w.Run(ctx)
}
