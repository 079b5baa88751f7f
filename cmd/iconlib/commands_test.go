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
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/iconlib/cmd/iconlib/config"
	"github.com/AleutianAI/iconlib/pkg/drawio"
	"github.com/AleutianAI/iconlib/pkg/svgicon"
	"github.com/AleutianAI/iconlib/pkg/ux"
)

const testIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 36 36"><title>x</title><path class="clr-i-outline" d="M1 1"/><rect width="36" height="36" fill-opacity="0"/></svg>`

type result struct {
	stdout string
	ux     string
	uxErr  string
	log    string
}

// execute runs the CLI with machine output captured.
func execute(t *testing.T, a *app, args ...string) (result, error) {
	t.Helper()
	var stdout, uxOut, uxErr, logOut bytes.Buffer
	ux.SetOutput(&uxOut, &uxErr)
	t.Cleanup(func() { ux.SetOutput(nil, nil) })
	a.logOutput = &logOut

	cmd := a.rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetArgs(append([]string{"--personality", "machine", "--log-level", "debug"}, args...))
	err := a.execute(context.Background(), cmd)
	return result{stdout: stdout.String(), ux: uxOut.String(), uxErr: uxErr.String(), log: logOut.String()}, err
}

func writeIconFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(testIcon), 0644))
}

func TestBuildLocal(t *testing.T) {
	src := t.TempDir()
	writeIconFile(t, filepath.Join(src, "core-shapes", "home-line.svg"))
	writeIconFile(t, filepath.Join(src, "media", "play-solid.svg"))
	out := filepath.Join(t.TempDir(), "out")

	res, err := execute(t, &app{}, "build", "local", "--source", src, "--output", out, "--namespace", "Acme")
	require.NoError(t, err)

	assert.Contains(t, res.ux, "LIBRARY\tAcme - Core Shapes\t1\t")
	assert.Contains(t, res.ux, "LIBRARY\tAcme - Media\t1\t")
	assert.Contains(t, res.ux, "SUMMARY: libraries=2 icons=2")
	assert.Contains(t, res.log, `"run_id"`)
	assert.Contains(t, res.log, `"msg":"build finished"`)

	f, err := os.Open(filepath.Join(out, "Acme - Media.drawio"))
	require.NoError(t, err)
	defer f.Close()
	lib, err := drawio.ParseLibrary(f)
	require.NoError(t, err)
	require.Len(t, lib.Icons, 1)
	assert.Equal(t, "Play", lib.Icons[0].Title)
}

func TestBuildLocal_RequiresSource(t *testing.T) {
	_, err := execute(t, &app{}, "build", "local", "--output", t.TempDir())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestBuildLocal_ConfigFileAndMetrics(t *testing.T) {
	src := t.TempDir()
	writeIconFile(t, filepath.Join(src, "misc", "alert-solid.svg"))
	out := t.TempDir()
	metrics := filepath.Join(t.TempDir(), "iconlib.prom")
	cfgPath := filepath.Join(t.TempDir(), "iconlib.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		"local:\n  source_dir: %q\n  namespace: Clarity\noutput:\n  dir: %q\n  extension: .xml\n", src, out)), 0644))

	_, err := execute(t, &app{}, "--config", cfgPath, "--metrics-file", metrics, "build", "local")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "Clarity - Misc.xml"))
	assert.NoError(t, err)
	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "iconlib_groups_total 1")
}

func TestBuildLocal_MissingExplicitConfig(t *testing.T) {
	_, err := execute(t, &app{}, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "build", "local")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildLocal_FailureReportsWrittenLibraries(t *testing.T) {
	src := t.TempDir()
	writeIconFile(t, filepath.Join(src, "a", "ok.svg"))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b", "bad.svg"), []byte("<svg>"), 0644))

	res, err := execute(t, &app{}, "build", "local", "--source", src, "--output", t.TempDir())
	assert.ErrorIs(t, err, svgicon.ErrMalformed)
	assert.Contains(t, res.ux, "LIBRARY\tClarity - A\t1\t")
	assert.Contains(t, res.log, `"msg":"build failed"`)
}

func TestBuildLocal_FailureClosesLogFile(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b", "bad.svg"), []byte("<svg>"), 0644))
	logDir := filepath.Join(t.TempDir(), "logs")

	a := &app{}
	_, err := execute(t, a, "--log-dir", logDir, "build", "local", "--source", src, "--output", t.TempDir())
	require.Error(t, err)
	assert.Nil(t, a.log, "run logger should be closed after a failed command")

	files, err := filepath.Glob(filepath.Join(logDir, "iconlib_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"build failed"`)
}

func TestBuildRemote(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metadata/icons" {
			fmt.Fprintf(w, `)]}'
{"host": %q, "icons": [
  {"name": "play_arrow", "version": 2, "categories": ["av"]},
  {"name": "home", "version": 1, "categories": ["action"], "unsupported_families": ["Material Icons"]}
]}`, srv.URL)
			return
		}
		fmt.Fprint(w, `<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24"><path d="M8 5v14l11-7z"/></svg>`)
	}))
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "iconlib.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("remote:\n  variants: [materialicons, \"materialiconsround:Round\"]\n"), 0644))
	out := t.TempDir()

	res, err := execute(t, &app{}, "--config", cfgPath, "build", "remote",
		"--index-url", srv.URL+"/metadata/icons", "--output", out)
	require.NoError(t, err)
	assert.Contains(t, res.ux, "LIBRARY\tMaterial - Av\t2\t")

	f, err := os.Open(filepath.Join(out, "Material - Av.drawio"))
	require.NoError(t, err)
	defer f.Close()
	lib, err := drawio.ParseLibrary(f)
	require.NoError(t, err)
	require.Len(t, lib.Icons, 2)
	assert.Equal(t, "Play Arrow", lib.Icons[0].Title)
	assert.Equal(t, "Play Arrow (Round)", lib.Icons[1].Title)

	_, err = os.Stat(filepath.Join(out, "Material - Action.drawio"))
	assert.True(t, os.IsNotExist(err), "unsupported icons are filtered")
}

func TestInspect(t *testing.T) {
	out := t.TempDir()
	src := t.TempDir()
	writeIconFile(t, filepath.Join(src, "shapes", "circle-line.svg"))
	_, err := execute(t, &app{}, "build", "local", "--source", src, "--output", out)
	require.NoError(t, err)

	res, err := execute(t, &app{}, "inspect", "--xml", filepath.Join(out, "Clarity - Shapes.drawio"))
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "Clarity - Shapes (1 icons)")
	assert.Contains(t, res.stdout, "Circle")
	assert.Contains(t, res.stdout, "36x36")
	assert.Contains(t, res.stdout, "<mxGraphModel>")
}

func TestInspect_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.drawio")
	require.NoError(t, os.WriteFile(path, []byte("<xml/>"), 0644))

	_, err := execute(t, &app{}, "inspect", path)
	assert.ErrorIs(t, err, drawio.ErrPayload)
}

func TestVersion(t *testing.T) {
	res, err := execute(t, &app{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "iconlib dev\n", res.stdout)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iconlib.yaml")
	res, err := execute(t, &app{}, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, res.ux, "OK: Wrote default config")

	cfg, err := config.Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Remote.Variants, cfg.Remote.Variants)
}

type fakePublisher struct {
	dir, prefix, ext string
	urls             []string
	err              error
	closed           bool
}

func (p *fakePublisher) PublishDir(_ context.Context, dir, prefix, ext string) ([]string, error) {
	p.dir, p.prefix, p.ext = dir, prefix, ext
	return p.urls, p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func withPublisher(t *testing.T, p *fakePublisher) *string {
	t.Helper()
	var bucket string
	prev := newPublisher
	newPublisher = func(_ context.Context, _, b, _ string) (libraryPublisher, error) {
		bucket = b
		return p, nil
	}
	t.Cleanup(func() { newPublisher = prev })
	return &bucket
}

func TestPublish(t *testing.T) {
	p := &fakePublisher{urls: []string{"gs://libs/icons/Clarity - A.drawio"}}
	bucket := withPublisher(t, p)
	out := t.TempDir()

	res, err := execute(t, &app{}, "publish", "--bucket", "libs", "--prefix", "icons", "--output", out)
	require.NoError(t, err)

	assert.Equal(t, "libs", *bucket)
	assert.Equal(t, out, p.dir)
	assert.Equal(t, "icons", p.prefix)
	assert.Equal(t, ".drawio", p.ext)
	assert.True(t, p.closed)
	assert.Contains(t, res.ux, "OK: gs://libs/icons/Clarity - A.drawio")
}

func TestPublish_RequiresBucket(t *testing.T) {
	withPublisher(t, &fakePublisher{})
	_, err := execute(t, &app{}, "publish", "--output", t.TempDir())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestPublish_Failure(t *testing.T) {
	p := &fakePublisher{err: errors.New("denied")}
	withPublisher(t, p)

	res, err := execute(t, &app{}, "publish", "--bucket", "libs", "--output", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, res.log, `"msg":"publish failed"`)
}

func TestPublish_NothingToUpload(t *testing.T) {
	withPublisher(t, &fakePublisher{})

	res, err := execute(t, &app{}, "publish", "--bucket", "libs", "--output", t.TempDir())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.uxErr, "WARN: No .drawio files"))
}
