// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline turns an icon catalog into draw.io library files.
//
// Run enumerates the groups of a catalog.Enumerator, normalizes and
// encodes every icon of a group, and writes one library file per group
// into the output directory. Processing is strictly sequential; the first
// failure aborts the run and files already written are left in place.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/iconlib/pkg/catalog"
	"github.com/AleutianAI/iconlib/pkg/drawio"
	"github.com/AleutianAI/iconlib/pkg/logging"
	"github.com/AleutianAI/iconlib/pkg/svgicon"
)

// ErrNoOutputDir is returned by Run when Config.OutputDir is empty.
var ErrNoOutputDir = errors.New("output directory not set")

// Config is the resolved configuration of one run.
type Config struct {
	// OutputDir receives one library file per group. It is created with
	// 0755 permissions when missing.
	OutputDir string

	// Extension of library files. Default: drawio.Extension
	Extension string

	// Normalize controls class markers, fill color and title skip tokens.
	// The fill color is also used for the shape fillColor.
	Normalize svgicon.Options

	// MetricsFile, when set, receives the run metrics in Prometheus text
	// format after the run, whether or not it succeeded.
	MetricsFile string

	// Logger receives progress. Nil means logging.Discard().
	Logger *logging.Logger
}

// LibraryResult describes one written library file.
type LibraryResult struct {
	Title string
	Path  string
	Icons int
	Bytes int64
}

// Report summarizes a run.
type Report struct {
	Groups    int
	Icons     int
	Files     int
	Bytes     int64
	Duration  time.Duration
	Libraries []LibraryResult
}

// IconError reports the icon a run failed on.
type IconError struct {
	Group string
	Icon  string
	Err   error
}

func (e *IconError) Error() string {
	return fmt.Sprintf("group %q, icon %q: %v", e.Group, e.Icon, e.Err)
}

func (e *IconError) Unwrap() error {
	return e.Err
}

// Run converts every group of src and writes the libraries to
// cfg.OutputDir.
func Run(ctx context.Context, cfg Config, src catalog.Enumerator) (report *Report, err error) {
	if cfg.OutputDir == "" {
		return nil, ErrNoOutputDir
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	start := time.Now()
	m := newMetrics()
	defer func() {
		m.finish(time.Since(start), err)
		if cfg.MetricsFile == "" {
			return
		}
		if werr := m.writeFile(cfg.MetricsFile); werr != nil {
			if err == nil {
				err = werr
			} else {
				log.Warn("metrics file not written", "path", cfg.MetricsFile, "error", werr)
			}
		}
	}()

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	groups, err := src.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate groups: %w", err)
	}
	log.Info("groups enumerated", "groups", len(groups))

	report = &Report{}
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log.Info("building library", "title", g.Title, "icons", len(g.Icons))

		lib, err := BuildGroup(ctx, g, cfg.Normalize, log)
		if err != nil {
			return report, err
		}
		for _, src := range g.Icons {
			m.icon(styleLabel(src.Variant))
		}

		path := filepath.Join(cfg.OutputDir, drawio.FileName(g.Title, cfg.Extension))
		n, err := lib.WriteFile(path)
		if err != nil {
			return report, err
		}
		m.library(n)

		report.Groups++
		report.Files++
		report.Icons += len(lib.Icons)
		report.Bytes += n
		report.Libraries = append(report.Libraries, LibraryResult{
			Title: g.Title,
			Path:  path,
			Icons: len(lib.Icons),
			Bytes: n,
		})
		log.Info("library written", "title", g.Title, "path", path, "bytes", n)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// BuildGroup converts every icon of g in order.
func BuildGroup(ctx context.Context, g catalog.Group, opts svgicon.Options, log *logging.Logger) (*drawio.Library, error) {
	if log == nil {
		log = logging.Discard()
	}
	out := &drawio.Library{Title: g.Title, Icons: make([]drawio.Descriptor, 0, len(g.Icons))}
	for _, src := range g.Icons {
		d, err := ConvertIcon(ctx, src, opts)
		if err != nil {
			return nil, &IconError{Group: g.Title, Icon: src.Name, Err: err}
		}
		log.Debug("icon converted", "group", g.Title, "icon", src.Name, "title", d.Title, "w", d.W, "h", d.H)
		out.Icons = append(out.Icons, d)
	}
	return out, nil
}

// ConvertIcon reads, normalizes and encodes one icon. A non-empty variant
// label is appended to the title as " (<label>)".
func ConvertIcon(ctx context.Context, src catalog.Source, opts svgicon.Options) (drawio.Descriptor, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return drawio.Descriptor{}, err
	}
	defer rc.Close()

	icon, err := svgicon.Normalize(rc, src.Name, opts)
	if err != nil {
		return drawio.Descriptor{}, fmt.Errorf("normalize %s: %w", src.Location, err)
	}
	if src.Variant != "" {
		icon.Title = VariantTitle(icon.Title, src.Variant)
	}
	return drawio.Encode(icon, opts.Fill)
}

// VariantTitle appends a style variant label to an icon title.
func VariantTitle(title, variant string) string {
	if title == "" {
		return "(" + variant + ")"
	}
	return title + " (" + variant + ")"
}

func styleLabel(variant string) string {
	if variant == "" {
		return "default"
	}
	return variant
}
