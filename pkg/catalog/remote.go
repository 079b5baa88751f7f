// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/iconlib/pkg/validation"
)

const (
	// DefaultIndexURL is the Material icon metadata endpoint.
	DefaultIndexURL = "https://fonts.google.com/metadata/icons"

	// DefaultFamily is the icon family whose unsupported entries are skipped.
	DefaultFamily = "Material Icons"

	// DefaultRemoteNamespace prefixes remote group titles.
	DefaultRemoteNamespace = "Material"

	// DefaultAsset is the per-icon file requested from the asset host.
	DefaultAsset = "24px.svg"

	// indexPrefix guards the metadata JSON against script inclusion.
	indexPrefix = ")]}'"

	fallbackAssetPattern = "/s/i/{family}/{icon}/v{version}/{asset}"
)

var (
	// ErrFetch is returned when an HTTP request fails or answers non-2xx.
	ErrFetch = errors.New("catalog fetch failed")

	// ErrIndex is returned when the metadata document cannot be parsed.
	ErrIndex = errors.New("invalid catalog index")
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Variant is one style variant of the icon family.
type Variant struct {
	// ID is the family id in asset URLs, e.g. "materialiconsoutlined".
	ID string

	// Label is appended to icon titles; empty for the default style.
	Label string
}

// DefaultVariants lists the Material Icons style variants.
func DefaultVariants() []Variant {
	return []Variant{
		{ID: "materialicons"},
		{ID: "materialiconsoutlined", Label: "Outlined"},
		{ID: "materialiconsround", Label: "Round"},
		{ID: "materialiconssharp", Label: "Sharp"},
		{ID: "materialiconstwotone", Label: "Two Tone"},
	}
}

// Index is the subset of the catalog metadata document in use.
type Index struct {
	Host            string      `json:"host"`
	AssetURLPattern string      `json:"asset_url_pattern"`
	Families        []string    `json:"families"`
	Icons           []IndexIcon `json:"icons"`
}

// IndexIcon is one catalog entry.
type IndexIcon struct {
	Name                string   `json:"name"`
	Version             int      `json:"version"`
	Categories          []string `json:"categories"`
	UnsupportedFamilies []string `json:"unsupported_families"`
	Tags                []string `json:"tags"`
}

// ParseIndex strips the guard prefix and decodes the metadata document.
func ParseIndex(data []byte) (*Index, error) {
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte(indexPrefix))

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}
	if idx.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrIndex)
	}
	return &idx, nil
}

// RemoteOptions configures a Remote enumerator.
type RemoteOptions struct {
	// IndexURL is the metadata endpoint. Default: DefaultIndexURL
	IndexURL string

	// Family is the icon family to build. Default: DefaultFamily
	Family string

	// Namespace prefixes group titles. Default: DefaultRemoteNamespace
	Namespace string

	// Asset is the file requested per icon. Default: DefaultAsset
	Asset string

	// Variants are fetched for every icon. Default: DefaultVariants()
	Variants []Variant

	// RequestsPerSecond throttles requests; 0 disables throttling.
	RequestsPerSecond float64
}

func (o RemoteOptions) withDefaults() RemoteOptions {
	if o.IndexURL == "" {
		o.IndexURL = DefaultIndexURL
	}
	if o.Family == "" {
		o.Family = DefaultFamily
	}
	if o.Namespace == "" {
		o.Namespace = DefaultRemoteNamespace
	}
	if o.Asset == "" {
		o.Asset = DefaultAsset
	}
	if len(o.Variants) == 0 {
		o.Variants = DefaultVariants()
	}
	return o
}

// Remote enumerates groups from an HTTP icon catalog.
//
// Requests are issued one at a time. Any failure aborts enumeration, and
// any failure opening an icon surfaces to the caller; nothing is retried.
type Remote struct {
	client  HTTPClient
	opts    RemoteOptions
	limiter *rate.Limiter
}

// NewRemote creates a Remote enumerator using client for every request.
func NewRemote(client HTTPClient, opts RemoteOptions) *Remote {
	opts = opts.withDefaults()
	r := &Remote{client: client, opts: opts}
	if opts.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return r
}

// Groups fetches the metadata index and groups supported icons by their
// first category, case-insensitively. Groups are ordered by category;
// icons keep catalog order and expand into one Source per variant.
func (r *Remote) Groups(ctx context.Context) ([]Group, error) {
	data, err := r.get(ctx, r.opts.IndexURL)
	if err != nil {
		return nil, err
	}
	idx, err := ParseIndex(data)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*Group)
	var keys []string
	for _, icon := range idx.Icons {
		if slices.Contains(icon.UnsupportedFamilies, r.opts.Family) {
			continue
		}
		if len(icon.Categories) == 0 || icon.Name == "" {
			continue
		}
		if err := validation.ValidateSegment("icon name", icon.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndex, err)
		}
		category := icon.Categories[0]
		key := strings.ToLower(category)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, Title: GroupTitle(r.opts.Namespace, category)}
			byKey[key] = g
			keys = append(keys, key)
		}
		for _, v := range r.opts.Variants {
			g.Icons = append(g.Icons, r.source(idx, icon, v))
		}
	}

	slices.SortFunc(keys, compareFold)
	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byKey[k])
	}
	return groups, nil
}

// IconURL expands the index's asset pattern for one icon and variant.
func (r *Remote) IconURL(idx *Index, icon IndexIcon, v Variant) string {
	pattern := idx.AssetURLPattern
	if pattern == "" {
		pattern = fallbackAssetPattern
	}
	path := strings.NewReplacer(
		"{family}", v.ID,
		"{icon}", icon.Name,
		"{version}", strconv.Itoa(icon.Version),
		"{asset}", r.opts.Asset,
	).Replace(pattern)

	host := strings.TrimSuffix(idx.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + path
}

func (r *Remote) source(idx *Index, icon IndexIcon, v Variant) Source {
	url := r.IconURL(idx, icon, v)
	return NewSource(icon.Name, v.Label, url, func(ctx context.Context) (io.ReadCloser, error) {
		data, err := r.get(ctx, url)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

func (r *Remote) get(ctx context.Context, url string) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %s: %v", ErrFetch, url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrFetch, url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFetch, url, err)
	}
	return data, nil
}
