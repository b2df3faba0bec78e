// Package watch re-runs an action whenever an eligible file under a root changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/codehealth/core/discover"
	"github.com/huangsam/codehealth/internal/contract"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the sorted relative paths that changed since the last call.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches every directory discovery would enter.
type Watcher struct {
	root     string
	opts     discover.Options
	debounce time.Duration
	notify   *fsnotify.Watcher
}

// New starts watching root. Directories created later are added as they appear.
func New(root string, opts discover.Options, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{root: root, opts: opts, debounce: debounce, notify: notify}
	if err := w.addTree(root, nil); err != nil {
		_ = notify.Close()
		return nil, err
	}
	return w, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.notify.Close()
}

// Run delivers debounced batches of changes to onChange until ctx is done.
// Errors from onChange are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.notify.Events:
			if !ok {
				return nil
			}
			if changed := w.handle(event); len(changed) > 0 {
				for _, rel := range changed {
					pending[rel] = struct{}{}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.notify.Errors:
			if !ok {
				return nil
			}
			contract.LogWarn("File watcher error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for rel := range pending {
				changed = append(changed, rel)
			}
			sort.Strings(changed)
			pending = map[string]struct{}{}
			if err := onChange(ctx, changed); err != nil {
				contract.LogWarn("Re-analysis failed", err)
			}
		}
	}
}

// handle returns the relative paths of the eligible files touched by event.
// A new directory is watched, and the eligible files already inside it count as changed.
func (w *Watcher) handle(event fsnotify.Event) []string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return nil
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.opts.SkipsDir(rel) {
				return nil
			}
			var found []string
			if err := w.addTree(event.Name, func(fileRel string) {
				found = append(found, fileRel)
			}); err != nil {
				contract.LogWarn("Cannot watch new directory", err)
			}
			return found
		}
	}
	if !w.opts.Accepts(rel) {
		return nil
	}
	return []string{rel}
}

// addTree watches dir and every directory below it that discovery would enter.
// When onFile is set it receives the relative path of every eligible file found.
func (w *Watcher) addTree(dir string, onFile func(rel string)) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == dir {
				return fmt.Errorf("cannot watch %s: %w", dir, walkErr)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !d.IsDir() {
			if onFile != nil && d.Type().IsRegular() && w.opts.Accepts(rel) {
				onFile(rel)
			}
			return nil
		}
		if rel != "." && w.opts.SkipsDir(rel) {
			return fs.SkipDir
		}
		if err := w.notify.Add(p); err != nil {
			return fmt.Errorf("cannot watch %s: %w", p, err)
		}
		return nil
	})
}
