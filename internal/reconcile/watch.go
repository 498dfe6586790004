package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch forwards filesystem events in the download directory to the
// reconciler until ctx is cancelled. It reconciles once after the watch is
// established so files that appeared before it are not missed.
func (r *Reconciler) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	r.logger.Debug("watching download directory", "dir", r.dir)
	r.Reconcile()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			r.handle(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)
		}
	}
}

func (r *Reconciler) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			return
		}
		r.OnLocalFileCreated(name)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		r.OnLocalFileDeleted(name)
	}
}
