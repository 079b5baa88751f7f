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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/iconlib/pkg/logging"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
	notify  chan struct{}
}

func newBatchRecorder() *batchRecorder {
	return &batchRecorder{notify: make(chan struct{}, 16)}
}

func (r *batchRecorder) handle(_ context.Context, changed []string) {
	r.mu.Lock()
	r.batches = append(r.batches, changed)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *batchRecorder) Batches() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func (r *batchRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a rebuild")
	}
}

func TestDebounceLoop_BatchesAndDeduplicates(t *testing.T) {
	in := make(chan string)
	rec := newBatchRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		debounceLoop(ctx, in, 50*time.Millisecond, rec.handle)
		close(done)
	}()

	in <- "b.svg"
	in <- "a.svg"
	in <- "b.svg"
	rec.wait(t)

	in <- "c.svg"
	rec.wait(t)

	close(in)
	<-done

	assert.Equal(t, [][]string{{"a.svg", "b.svg"}, {"c.svg"}}, rec.Batches())
}

func TestDebounceLoop_FlushesOnClose(t *testing.T) {
	in := make(chan string, 2)
	rec := newBatchRecorder()

	in <- "x.svg"
	close(in)
	debounceLoop(context.Background(), in, time.Hour, rec.handle)

	assert.Equal(t, [][]string{{"x.svg"}}, rec.Batches())
}

func TestDebounceLoop_CancelDropsPending(t *testing.T) {
	in := make(chan string, 1)
	rec := newBatchRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	in <- "x.svg"
	time.AfterFunc(20*time.Millisecond, cancel)
	debounceLoop(ctx, in, time.Hour, rec.handle)

	assert.Empty(t, rec.Batches())
}

func TestSourceWatcher_Relevant(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "group"), 0755))
	w := &sourceWatcher{root: root, ext: ".svg"}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"icon write", fsnotify.Event{Name: filepath.Join(root, "group", "a.svg"), Op: fsnotify.Write}, true},
		{"icon upper ext", fsnotify.Event{Name: filepath.Join(root, "group", "a.SVG"), Op: fsnotify.Create}, true},
		{"other file", fsnotify.Event{Name: filepath.Join(root, "group", "a.png"), Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: filepath.Join(root, "group", ".a.svg"), Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: filepath.Join(root, "group", "a.svg"), Op: fsnotify.Chmod}, false},
		{"group created", fsnotify.Event{Name: filepath.Join(root, "group"), Op: fsnotify.Create}, true},
		{"group removed", fsnotify.Event{Name: filepath.Join(root, "gone"), Op: fsnotify.Remove}, true},
		{"file under root", fsnotify.Event{Name: filepath.Join(root, "readme.svg"), Op: fsnotify.Write}, false},
		{"too deep", fsnotify.Event{Name: filepath.Join(root, "group", "sub", "a.svg"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestSourceWatcher_RebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	group := filepath.Join(root, "shapes")
	require.NoError(t, os.Mkdir(group, 0755))

	rec := newBatchRecorder()
	w, err := newSourceWatcher(root, ".svg", 20*time.Millisecond, rec.handle, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(group, "circle.svg"), []byte(testIcon), 0644))
	rec.wait(t)

	batches := rec.Batches()
	require.NotEmpty(t, batches)
	assert.Contains(t, batches[0], filepath.Join(group, "circle.svg"))

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewSourceWatcher_MissingRoot(t *testing.T) {
	_, err := newSourceWatcher(filepath.Join(t.TempDir(), "missing"), ".svg", time.Millisecond, func(context.Context, []string) {}, logging.Discard())
	assert.Error(t, err)
}
