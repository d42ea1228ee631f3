// Package watch feeds the sync engine when no editor is driving it: file
// writes under managed directories become save events, and a periodic tick
// offers every repository a chance to pull (the engine's timing store
// decides whether anything actually happens).
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crmarques/autosync/engine"
	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

const DefaultPullCadence = 30 * time.Second

type Watcher struct {
	engine  *engine.Engine
	dirs    []string
	cadence time.Duration
	log     logr.Logger
}

func New(eng *engine.Engine, dirs []string, cadence time.Duration, log logr.Logger) *Watcher {
	if cadence <= 0 {
		cadence = DefaultPullCadence
	}
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Watcher{
		engine:  eng,
		dirs:    dirs,
		cadence: cadence,
		log:     log,
	}
}

// Run watches until ctx is cancelled. Save events are handed to the engine
// as they arrive; duplicate bursts from editors are harmless because the
// operation registry and the clean-tree check absorb them.
func (w *Watcher) Run(ctx context.Context) error {
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	defer func() { _ = notify.Close() }()

	for _, dir := range w.dirs {
		if err := addRecursive(notify, dir); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.cadence)
	defer ticker.Stop()

	w.engine.PullAllDue()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-notify.Events:
			if !ok {
				return nil
			}
			w.handleEvent(notify, event)

		case watchErr, ok := <-notify.Errors:
			if !ok {
				return nil
			}
			w.log.Error(watchErr, "filesystem watcher error")

		case <-ticker.C:
			w.engine.PullAllDue()
		}
	}
}

func (w *Watcher) handleEvent(notify *fsnotify.Watcher, event fsnotify.Event) {
	if ignorePath(event.Name) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(notify, event.Name); err != nil {
				w.log.Error(err, "failed to watch new directory", "dir", event.Name)
			}
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.log.V(1).Info("save event", "path", event.Name)
		w.engine.OnFileSave(event.Name)
	}
}

func addRecursive(notify *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if entry.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := notify.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// ignorePath filters the repository internals and autosync's own files so
// the daemon never reacts to its own writes.
func ignorePath(path string) bool {
	base := filepath.Base(path)
	switch base {
	case ".autosync-last-pull", ".last_pull_timestamp":
		return true
	}
	if strings.HasPrefix(base, ".autosync-tmp-") {
		return true
	}

	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".git" {
			return true
		}
	}
	return false
}
