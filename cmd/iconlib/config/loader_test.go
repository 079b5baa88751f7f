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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/iconlib/pkg/catalog"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "iconlib.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "iconlib.yaml"), true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iconlib.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
local:
  source_dir: ./icons
  namespace: Acme
remote:
  variants: ["materialiconssharp:Sharp"]
  timeout: 5s
output:
  dir: ./out
style:
  fill: "#FF0000"
`), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "./icons", cfg.Local.SourceDir)
	assert.Equal(t, "Acme", cfg.Local.Namespace)
	assert.Equal(t, ".svg", cfg.Local.Extension, "unset fields keep defaults")
	assert.Equal(t, []string{"materialiconssharp:Sharp"}, cfg.Remote.Variants)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "./out", cfg.Output.Dir)
	assert.Equal(t, "#FF0000", cfg.Style.Fill)
	assert.NoError(t, cfg.ValidateLocal())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iconlib.yaml")
	require.NoError(t, os.WriteFile(path, []byte("local: [unclosed"), 0644))

	_, err := Load(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse the config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iconlib.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  dir: ./from-file\n"), 0644))

	t.Setenv("ICONLIB_OUTPUT_DIR", "/from/env")
	t.Setenv("ICONLIB_SOURCE_DIR", "/icons")
	t.Setenv("ICONLIB_REMOTE_FAMILY", "Material Icons Round")
	t.Setenv("ICONLIB_REMOTE_VARIANTS", "a,b:Bee")
	t.Setenv("ICONLIB_REMOTE_RATE_LIMIT", "2.5")
	t.Setenv("ICONLIB_LOG_JSON", "true")

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Output.Dir)
	assert.Equal(t, "/icons", cfg.Local.SourceDir)
	assert.Equal(t, "Material Icons Round", cfg.Remote.Family)
	assert.Equal(t, []string{"a", "b:Bee"}, cfg.Remote.Variants)
	assert.InDelta(t, 2.5, cfg.Remote.RequestsPerSecond, 1e-9)
	assert.True(t, cfg.Logging.JSON)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("ICONLIB_REMOTE_RATE_LIMIT", "fast")

	_, err := Load("", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg IconlibConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, DefaultConfig(), cfg)

	assert.Error(t, WriteDefault(path), "existing file is not overwritten")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IconlibConfig)
		ok     bool
	}{
		{"defaults", func(*IconlibConfig) {}, true},
		{"no output dir", func(c *IconlibConfig) { c.Output.Dir = "" }, false},
		{"bad index url", func(c *IconlibConfig) { c.Remote.IndexURL = "not a url" }, false},
		{"negative rate", func(c *IconlibConfig) { c.Remote.RequestsPerSecond = -1 }, false},
		{"bad fill", func(c *IconlibConfig) { c.Style.Fill = "black" }, false},
		{"bad extension", func(c *IconlibConfig) { c.Output.Extension = "drawio" }, false},
		{"bad variant", func(c *IconlibConfig) { c.Remote.Variants = []string{":Label"} }, false},
		{"bad log level", func(c *IconlibConfig) { c.Logging.Level = "loud" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestValidateLocalAndPublish(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.ValidateLocal(), ErrInvalid)
	assert.ErrorIs(t, cfg.ValidatePublish(), ErrInvalid)

	cfg.Local.SourceDir = "icons"
	cfg.Publish.Bucket = "libs"
	assert.NoError(t, cfg.ValidateLocal())
	assert.NoError(t, cfg.ValidatePublish())
}

func TestRemoteOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.RemoteOptions()
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultVariants(), opts.Variants)
	assert.Equal(t, catalog.DefaultIndexURL, opts.IndexURL)

	cfg.Remote.Variants = nil
	opts, err = cfg.RemoteOptions()
	require.NoError(t, err)
	assert.Nil(t, opts.Variants)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" materialiconstwotone : Two Tone ")
	require.NoError(t, err)
	assert.Equal(t, catalog.Variant{ID: "materialiconstwotone", Label: "Two Tone"}, v)
	assert.Equal(t, "materialiconstwotone:Two Tone", FormatVariant(v))

	v, err = ParseVariant("materialicons")
	require.NoError(t, err)
	assert.Empty(t, v.Label)

	_, err = ParseVariant("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVariantValidation_Registered(t *testing.T) {
	assert.NoError(t, validate.Var("materialiconsround:Round", "variant"))
	assert.Error(t, validate.Var("../round", "variant"))
	assert.Error(t, validate.Var(":Label", "variant"))
}
