// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// LibraryContentType is set on every uploaded library object.
const LibraryContentType = "application/xml"

// objectOpener returns a writer for one object. Closing it commits the
// upload.
type objectOpener func(ctx context.Context, object, contentType string) io.WriteCloser

type Client struct {
	storageClient *storage.Client
	open          objectOpener
	ProjectId     string
	BucketName    string
}

// NewClient connects to GCS. An empty credentialsFile uses Application
// Default Credentials.
func NewClient(ctx context.Context, projectId, bucketName, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	c := &Client{
		storageClient: storageClient,
		ProjectId:     projectId,
		BucketName:    bucketName,
	}
	c.open = func(ctx context.Context, object, contentType string) io.WriteCloser {
		w := storageClient.Bucket(bucketName).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "no-cache, no-store, must-revalidate"
		return w
	}
	return c, nil
}

// Close releases the storage client.
func (c *Client) Close() error {
	if c.storageClient == nil {
		return nil
	}
	return c.storageClient.Close()
}

// UploadFile copies one local file to gs://BucketName/objectName.
func (c *Client) UploadFile(ctx context.Context, localPath, objectName string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open the local file: %s: %w", localPath, err)
	}
	defer localFile.Close()

	writer := c.open(ctx, objectName, LibraryContentType)
	if _, err := io.Copy(writer, localFile); err != nil {
		writer.Close()
		return fmt.Errorf("failed to copy local file %s to GCS object %s: %w", localPath, objectName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", objectName, err)
	}
	return nil
}

// PublishDir uploads every file directly under dir whose extension
// matches ext (case-insensitively) to prefix/<name>, in name order. It
// returns the gs:// URL of each uploaded object. The first failure stops
// the upload.
func (c *Client) PublishDir(ctx context.Context, dir, prefix, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var uploaded []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		object := ObjectName(prefix, e.Name())
		if err := c.UploadFile(ctx, filepath.Join(dir, e.Name()), object); err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, fmt.Sprintf("gs://%s/%s", c.BucketName, object))
	}
	return uploaded, nil
}

// ObjectName joins prefix and name with '/', ignoring an empty prefix and
// surrounding slashes.
func ObjectName(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
