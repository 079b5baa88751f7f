// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/iconlib/pkg/catalog"
	"github.com/AleutianAI/iconlib/pkg/svgicon"
	"github.com/AleutianAI/iconlib/pkg/validation"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "iconlib.yaml"

type IconlibConfig struct {
	// Local: directory-per-group icon source
	Local LocalConfig `yaml:"local"`

	// Remote: Material-style metadata catalog
	Remote RemoteConfig `yaml:"remote"`

	// Output: where libraries and metrics are written
	Output OutputConfig `yaml:"output"`

	// Style: normalization conventions
	Style StyleConfig `yaml:"style"`

	// Logging: level and optional JSON log directory
	Logging LoggingConfig `yaml:"logging"`

	// Publish: optional GCS upload target
	Publish PublishConfig `yaml:"publish"`

	// Watch: rebuild-on-change settings
	Watch WatchConfig `yaml:"watch"`
}

type LocalConfig struct {
	// SourceDir holds one subdirectory per group, e.g. ./clarity/icons
	SourceDir string `yaml:"source_dir" env:"SOURCE_DIR"`
	Namespace string `yaml:"namespace" env:"LOCAL_NAMESPACE"`
	Extension string `yaml:"extension" env:"LOCAL_EXTENSION" validate:"omitempty,startswith=."`
}

type RemoteConfig struct {
	IndexURL  string `yaml:"index_url" env:"REMOTE_INDEX_URL" validate:"required,url"`
	Family    string `yaml:"family" env:"REMOTE_FAMILY"`       // e.g. Material Icons
	Namespace string `yaml:"namespace" env:"REMOTE_NAMESPACE"` // e.g. Material
	Asset     string `yaml:"asset" env:"REMOTE_ASSET"`         // e.g. 24px.svg

	// Variants are "id" or "id:Label", e.g. "materialiconsround:Round"
	Variants []string `yaml:"variants" env:"REMOTE_VARIANTS" envSeparator:"," validate:"dive,variant"`

	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REMOTE_RATE_LIMIT" validate:"gte=0"`
	Timeout           time.Duration `yaml:"timeout" env:"REMOTE_TIMEOUT" validate:"gte=0"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir" env:"OUTPUT_DIR" validate:"required"`
	Extension   string `yaml:"extension" env:"OUTPUT_EXTENSION" validate:"omitempty,startswith=."`
	MetricsFile string `yaml:"metrics_file,omitempty" env:"METRICS_FILE"`
}

type StyleConfig struct {
	Fill        string   `yaml:"fill" env:"STYLE_FILL" validate:"omitempty,hexcolor"`
	BadgeMarker string   `yaml:"badge_marker" env:"STYLE_BADGE_MARKER"`
	AlertMarker string   `yaml:"alert_marker" env:"STYLE_ALERT_MARKER"`
	SkipTokens  []string `yaml:"skip_tokens" env:"STYLE_SKIP_TOKENS" envSeparator:","`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Dir   string `yaml:"dir,omitempty" env:"LOG_DIR"`
	JSON  bool   `yaml:"json" env:"LOG_JSON"`
}

type PublishConfig struct {
	ProjectID       string `yaml:"project_id,omitempty" env:"GCS_PROJECT"`
	Bucket          string `yaml:"bucket,omitempty" env:"GCS_BUCKET"`
	Prefix          string `yaml:"prefix,omitempty" env:"GCS_PREFIX"`
	CredentialsFile string `yaml:"credentials_file,omitempty" env:"GCS_CREDENTIALS_FILE"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"WATCH_DEBOUNCE" validate:"gte=0"`
}

func DefaultConfig() IconlibConfig {
	defaults := svgicon.DefaultOptions()
	variants := make([]string, 0, 5)
	for _, v := range catalog.DefaultVariants() {
		variants = append(variants, FormatVariant(v))
	}
	return IconlibConfig{
		Local: LocalConfig{
			Namespace: catalog.DefaultLocalNamespace,
			Extension: ".svg",
		},
		Remote: RemoteConfig{
			IndexURL:  catalog.DefaultIndexURL,
			Family:    catalog.DefaultFamily,
			Namespace: catalog.DefaultRemoteNamespace,
			Asset:     catalog.DefaultAsset,
			Variants:  variants,
			Timeout:   30 * time.Second,
		},
		Output: OutputConfig{
			Dir:       "libraries",
			Extension: ".drawio",
		},
		Style: StyleConfig{
			Fill:        defaults.Fill,
			BadgeMarker: defaults.BadgeMarker,
			AlertMarker: defaults.AlertMarker,
			SkipTokens:  defaults.SkipTokens,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// NormalizeOptions maps the style section onto svgicon options.
func (c IconlibConfig) NormalizeOptions() svgicon.Options {
	return svgicon.Options{
		BadgeMarker: c.Style.BadgeMarker,
		AlertMarker: c.Style.AlertMarker,
		Fill:        c.Style.Fill,
		SkipTokens:  c.Style.SkipTokens,
	}
}

// RemoteOptions maps the remote section onto catalog options.
func (c IconlibConfig) RemoteOptions() (catalog.RemoteOptions, error) {
	variants, err := ParseVariants(c.Remote.Variants)
	if err != nil {
		return catalog.RemoteOptions{}, err
	}
	return catalog.RemoteOptions{
		IndexURL:          c.Remote.IndexURL,
		Family:            c.Remote.Family,
		Namespace:         c.Remote.Namespace,
		Asset:             c.Remote.Asset,
		Variants:          variants,
		RequestsPerSecond: c.Remote.RequestsPerSecond,
	}, nil
}

// ParseVariant parses "id" or "id:Label".
func ParseVariant(s string) (catalog.Variant, error) {
	id, label, _ := strings.Cut(strings.TrimSpace(s), ":")
	id = strings.TrimSpace(id)
	if err := validation.ValidateSegment("variant id", id); err != nil {
		return catalog.Variant{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return catalog.Variant{ID: id, Label: strings.TrimSpace(label)}, nil
}

// ParseVariants parses every entry; an empty list means the catalog
// defaults.
func ParseVariants(list []string) ([]catalog.Variant, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]catalog.Variant, 0, len(list))
	for _, s := range list {
		v, err := ParseVariant(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FormatVariant is the inverse of ParseVariant.
func FormatVariant(v catalog.Variant) string {
	if v.Label == "" {
		return v.ID
	}
	return v.ID + ":" + v.Label
}
