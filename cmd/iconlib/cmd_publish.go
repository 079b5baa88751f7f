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

	"github.com/AleutianAI/iconlib/cmd/iconlib/gcs"
	"github.com/AleutianAI/iconlib/pkg/drawio"
	"github.com/AleutianAI/iconlib/pkg/ux"
)

// libraryPublisher uploads the libraries of a directory.
type libraryPublisher interface {
	PublishDir(ctx context.Context, dir, prefix, ext string) ([]string, error)
	Close() error
}

// newPublisher is replaced in tests.
var newPublisher = func(ctx context.Context, projectID, bucket, credentials string) (libraryPublisher, error) {
	return gcs.NewClient(ctx, projectID, bucket, credentials)
}

func (a *app) runPublish(cmd *cobra.Command, args []string) error {
	if err := a.cfg.ValidatePublish(); err != nil {
		return err
	}
	pub := a.cfg.Publish

	client, err := newPublisher(cmd.Context(), pub.ProjectID, pub.Bucket, pub.CredentialsFile)
	if err != nil {
		return err
	}
	defer client.Close()

	ext := a.cfg.Output.Extension
	if ext == "" {
		ext = drawio.Extension
	}

	ux.Title(fmt.Sprintf("Publishing %s to gs://%s", a.cfg.Output.Dir, pub.Bucket))
	urls, err := client.PublishDir(cmd.Context(), a.cfg.Output.Dir, pub.Prefix, ext)
	for _, u := range urls {
		ux.Success(u)
		a.log.Info("library published", "url", u)
	}
	if err != nil {
		a.log.Error("publish failed", "error", err)
		return err
	}
	if len(urls) == 0 {
		ux.Warning(fmt.Sprintf("No %s files found in %s", ext, a.cfg.Output.Dir))
	}
	return nil
}
