// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the iconlib configuration.
//
// Sources are applied in order, each overriding the previous one:
// DefaultConfig, the YAML file, then ICONLIB_* environment variables.
// Command-line flags are applied by the caller on the returned value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ICONLIB_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

var validate *validator.Validate

func init() {
	validate = validator.New()
	err := validate.RegisterValidation("variant", func(fl validator.FieldLevel) bool {
		_, err := ParseVariant(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(fmt.Sprintf("register variant validation: %v", err))
	}
}

// Load reads path over the defaults and overlays the environment. A
// missing file is an error only when required is set.
func Load(path string, required bool) (IconlibConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return cfg, fmt.Errorf("failed to read the config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes DefaultConfig to path, creating parent directories.
// An existing file is left untouched and reported as an error.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields every command needs.
func (c IconlibConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ValidateLocal additionally requires a source directory.
func (c IconlibConfig) ValidateLocal() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Local.SourceDir == "" {
		return fmt.Errorf("%w: local.source_dir is required", ErrInvalid)
	}
	return nil
}

// ValidatePublish additionally requires a bucket.
func (c IconlibConfig) ValidatePublish() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Publish.Bucket == "" {
		return fmt.Errorf("%w: publish.bucket is required", ErrInvalid)
	}
	return nil
}
