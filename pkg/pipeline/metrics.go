// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ==============================================================================
// Run Metrics
// ==============================================================================

// runMetrics holds the metrics of a single run in a private registry, so
// a textfile contains only that run.
type runMetrics struct {
	registry *prometheus.Registry

	// icons counts converted icons by style variant
	icons *prometheus.CounterVec

	// groups counts libraries written
	groups prometheus.Counter

	// libraryBytes tracks library file sizes
	libraryBytes prometheus.Histogram

	// duration is the wall time of the run
	duration prometheus.Gauge

	// success is 1 when the run finished without error
	success prometheus.Gauge

	// lastRun is the unix time the run finished
	lastRun prometheus.Gauge
}

func newMetrics() *runMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &runMetrics{
		registry: reg,
		icons: f.NewCounterVec(prometheus.CounterOpts{
			Name: "iconlib_icons_total",
			Help: "Icons converted by style variant",
		}, []string{"style"}),
		groups: f.NewCounter(prometheus.CounterOpts{
			Name: "iconlib_groups_total",
			Help: "Library files written",
		}),
		libraryBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "iconlib_library_bytes",
			Help:    "Size of written library files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to 16MiB
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Name: "iconlib_run_duration_seconds",
			Help: "Wall time of the last run in seconds",
		}),
		success: f.NewGauge(prometheus.GaugeOpts{
			Name: "iconlib_run_success",
			Help: "1 if the last run succeeded, 0 otherwise",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "iconlib_run_last_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

func (m *runMetrics) icon(style string) {
	m.icons.WithLabelValues(style).Inc()
}

func (m *runMetrics) library(bytes int64) {
	m.groups.Inc()
	m.libraryBytes.Observe(float64(bytes))
}

func (m *runMetrics) finish(d time.Duration, err error) {
	m.duration.Set(d.Seconds())
	if err == nil {
		m.success.Set(1)
	} else {
		m.success.Set(0)
	}
	m.lastRun.SetToCurrentTime()
}

// writeFile writes the registry in the node_exporter textfile format.
func (m *runMetrics) writeFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
