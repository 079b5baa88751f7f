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
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/iconlib/cmd/iconlib/config"
	"github.com/AleutianAI/iconlib/pkg/catalog"
	"github.com/AleutianAI/iconlib/pkg/logging"
	"github.com/AleutianAI/iconlib/pkg/ux"
)

// app carries the resolved state of one CLI invocation.
type app struct {
	// --- Global Flags ---
	configPath  string
	logLevel    string
	logDir      string
	personality string
	metricsFile string

	// --- Command Flags ---
	sourceDir   string
	outputDir   string
	namespace   string
	family      string
	indexURL    string
	rateLimit   float64
	debounce    time.Duration
	bucket      string
	prefix      string
	projectID   string
	credentials string
	showXML     bool

	cfg   config.IconlibConfig
	log   *logging.Logger
	runID string

	// httpClient overrides the remote catalog client; nil builds one from
	// the configured timeout.
	httpClient catalog.HTTPClient

	// logOutput receives a JSON copy of the log in tests.
	logOutput io.Writer
}

// execute runs cmd and closes the run logger afterwards. cobra skips
// post-run hooks when RunE fails, so the log file is closed here.
func (a *app) execute(ctx context.Context, cmd *cobra.Command) error {
	defer a.closeLog()
	return cmd.ExecuteContext(ctx)
}

func (a *app) closeLog() {
	if a.log == nil {
		return
	}
	if err := a.log.Close(); err != nil {
		ux.Warning(err.Error())
	}
	a.log = nil
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "iconlib",
		Short: "Convert SVG icon sets into draw.io shape libraries",
		Long: `iconlib reads a directory-per-group SVG icon set or a remote icon
catalog and writes one draw.io library file per group.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultFileName, "Path to the iconlib config file")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logDir, "log-dir", "", "Directory for JSON log files")
	pf.StringVar(&a.personality, "personality", "", "Output style: full, minimal, machine")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")

	// --- Build ---
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build draw.io libraries from an icon source",
	}
	buildLocalCmd := &cobra.Command{
		Use:   "local",
		Short: "Build one library per subdirectory of the source directory",
		Args:  cobra.NoArgs,
		RunE:  a.runBuildLocal, // Defined in cmd_build.go
	}
	buildLocalCmd.Flags().StringVar(&a.sourceDir, "source", "", "Icon source root (one subdirectory per group)")
	buildLocalCmd.Flags().StringVar(&a.outputDir, "output", "", "Output directory for libraries")
	buildLocalCmd.Flags().StringVar(&a.namespace, "namespace", "", "Group title namespace")

	buildRemoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Build one library per category of the remote icon catalog",
		Args:  cobra.NoArgs,
		RunE:  a.runBuildRemote, // Defined in cmd_build.go
	}
	buildRemoteCmd.Flags().StringVar(&a.family, "family", "", "Font family used to filter unsupported icons")
	buildRemoteCmd.Flags().StringVar(&a.outputDir, "output", "", "Output directory for libraries")
	buildRemoteCmd.Flags().StringVar(&a.namespace, "namespace", "", "Group title namespace")
	buildRemoteCmd.Flags().StringVar(&a.indexURL, "index-url", "", "Catalog metadata URL")
	buildRemoteCmd.Flags().Float64Var(&a.rateLimit, "rate-limit", 0, "Maximum requests per second (0 disables)")
	buildCmd.AddCommand(buildLocalCmd, buildRemoteCmd)

	// --- Watch ---
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild local libraries whenever the source directory changes",
		Args:  cobra.NoArgs,
		RunE:  a.runWatch, // Defined in cmd_watch.go
	}
	watchCmd.Flags().StringVar(&a.sourceDir, "source", "", "Icon source root (one subdirectory per group)")
	watchCmd.Flags().StringVar(&a.outputDir, "output", "", "Output directory for libraries")
	watchCmd.Flags().DurationVar(&a.debounce, "debounce", 0, "Quiet period before a rebuild")

	// --- Publish ---
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload generated libraries to a GCS bucket",
		Args:  cobra.NoArgs,
		RunE:  a.runPublish, // Defined in cmd_publish.go
	}
	publishCmd.Flags().StringVar(&a.outputDir, "output", "", "Directory holding the libraries to upload")
	publishCmd.Flags().StringVar(&a.bucket, "bucket", "", "Destination bucket")
	publishCmd.Flags().StringVar(&a.prefix, "prefix", "", "Object name prefix")
	publishCmd.Flags().StringVar(&a.projectID, "project", "", "GCP project id")
	publishCmd.Flags().StringVar(&a.credentials, "credentials", "", "Service account key file (default: application default credentials)")

	// --- Inspect ---
	inspectCmd := &cobra.Command{
		Use:   "inspect [library file]",
		Short: "List the icons of a library file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runInspect, // Defined in cmd_inspect.go
	}
	inspectCmd.Flags().BoolVar(&a.showXML, "xml", false, "Print the decoded graph model of every icon")

	// --- Config ---
	configCmd := &cobra.Command{
		Use:              "config",
		Short:            "Manage the iconlib config file",
		PersistentPreRun: a.setupOutputOnly,
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runConfigInit,
	}
	configCmd.AddCommand(configInitCmd)

	versionCmd := &cobra.Command{
		Use:              "version",
		Short:            "Print the iconlib version",
		Args:             cobra.NoArgs,
		PersistentPreRun: a.setupOutputOnly,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "iconlib", version)
		},
	}

	rootCmd.AddCommand(buildCmd, watchCmd, publishCmd, inspectCmd, configCmd, versionCmd)
	return rootCmd
}

// setupOutputOnly resolves the personality for commands that need no
// config file.
func (a *app) setupOutputOnly(cmd *cobra.Command, args []string) {
	a.setPersonality()
}

func (a *app) setPersonality() {
	if a.personality != "" {
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(a.personality))
	} else {
		ux.InitPersonality()
	}
}

// setup resolves personality, configuration and logging before every
// command.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.setPersonality()

	cfg, err := config.Load(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	a.cfg = a.applyFlags(cmd, cfg)

	level, err := logging.ParseLevel(a.cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	a.runID = uuid.NewString()
	a.log = logging.New(logging.Config{
		Level:   level,
		LogDir:  a.cfg.Logging.Dir,
		Service: "iconlib",
		JSON:    a.cfg.Logging.JSON,
		Output:  a.logOutput,
	}).With("run_id", a.runID, "command", cmd.Name())
	return nil
}

// applyFlags overlays explicitly set flags on the loaded config.
func (a *app) applyFlags(cmd *cobra.Command, cfg config.IconlibConfig) config.IconlibConfig {
	set := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if set("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if set("log-dir") {
		cfg.Logging.Dir = a.logDir
	}
	if set("metrics-file") {
		cfg.Output.MetricsFile = a.metricsFile
	}
	if set("source") {
		cfg.Local.SourceDir = a.sourceDir
	}
	if set("output") {
		cfg.Output.Dir = a.outputDir
	}
	if set("namespace") {
		if cmd.Name() == "remote" {
			cfg.Remote.Namespace = a.namespace
		} else {
			cfg.Local.Namespace = a.namespace
		}
	}
	if set("family") {
		cfg.Remote.Family = a.family
	}
	if set("index-url") {
		cfg.Remote.IndexURL = a.indexURL
	}
	if set("rate-limit") {
		cfg.Remote.RequestsPerSecond = a.rateLimit
	}
	if set("debounce") {
		cfg.Watch.Debounce = a.debounce
	}
	if set("bucket") {
		cfg.Publish.Bucket = a.bucket
	}
	if set("prefix") {
		cfg.Publish.Prefix = a.prefix
	}
	if set("project") {
		cfg.Publish.ProjectID = a.projectID
	}
	if set("credentials") {
		cfg.Publish.CredentialsFile = a.credentials
	}
	return cfg
}

func (a *app) remoteClient() catalog.HTTPClient {
	if a.httpClient != nil {
		return a.httpClient
	}
	return &http.Client{Timeout: a.cfg.Remote.Timeout}
}

func (a *app) runConfigInit(cmd *cobra.Command, args []string) error {
	path := a.configPath
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	ux.Success(fmt.Sprintf("Wrote default config to %s", path))
	return nil
}
