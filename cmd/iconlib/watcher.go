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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/iconlib/pkg/logging"
)

// RebuildHandler is called with the deduplicated paths that changed
// during one quiet period.
type RebuildHandler func(ctx context.Context, changed []string)

// sourceWatcher watches a source root and its group directories. Group
// directories are one level deep, so deeper directories are not watched.
type sourceWatcher struct {
	root     string
	ext      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	handler  RebuildHandler
	log      *logging.Logger
}

func newSourceWatcher(root, ext string, debounce time.Duration, handler RebuildHandler, log *logging.Logger) (*sourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &sourceWatcher{
		root:     filepath.Clean(root),
		ext:      ext,
		debounce: debounce,
		watcher:  watcher,
		handler:  handler,
		log:      log,
	}
	if err := w.addGroups(); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

func (w *sourceWatcher) addGroups() error {
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := w.watcher.Add(filepath.Join(w.root, e.Name())); err != nil {
			return fmt.Errorf("watch %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Run blocks until ctx is canceled or the watcher fails.
func (w *sourceWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	changes := make(chan string, 256)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.forward(ctx, changes)
	})
	g.Go(func() error {
		debounceLoop(ctx, changes, w.debounce, w.handler)
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// forward filters raw fsnotify events down to paths that can change a
// library, and starts watching new group directories.
func (w *sourceWatcher) forward(ctx context.Context, out chan<- string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == w.root {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						w.log.Warn("cannot watch new group", "path", event.Name, "error", err)
					}
				}
			}
			select {
			case out <- event.Name:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Warn("watch events dropped", "error", err)
				continue
			}
			return fmt.Errorf("watch %s: %w", w.root, err)
		}
	}
}

// relevant reports whether event touches a group directory or an icon
// file of the watched extension. Chmod-only events are ignored.
func (w *sourceWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	dir := filepath.Dir(event.Name)
	if dir == w.root {
		// A group directory appeared, disappeared or was renamed. Files
		// directly under the root are not icons.
		return filepath.Ext(base) == "" || isDir(event.Name)
	}
	return filepath.Dir(dir) == w.root && strings.EqualFold(filepath.Ext(base), w.ext)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// debounceLoop batches paths from in and calls handle once no new path
// has arrived for window. Handling is serialized: paths arriving during a
// rebuild start the next batch. It returns when ctx is done or in closes.
func debounceLoop(ctx context.Context, in <-chan string, window time.Duration, handle RebuildHandler) {
	pending := map[string]struct{}{}
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		sort.Strings(changed)
		pending = map[string]struct{}{}
		handle(ctx, changed)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case p, ok := <-in:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				flush()
				return
			}
			pending[p] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(window)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(window)
			}
			timerC = timer.C
		case <-timerC:
			timer = nil
			timerC = nil
			flush()
		}
	}
}
