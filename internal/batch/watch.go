package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch runs path once, then again each time it is written or recreated,
// handing every outcome to fn. It returns nil once ctx is done.
//
// The directory is watched rather than the file, so editors that save by
// renaming a new file into place are still seen.
func (me *Runner) Watch(ctx context.Context, path string, fn func([]Result, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	log := me.log().With(zap.String("file", path))
	log.Info("watching")

	settle := me.Settle
	if settle <= 0 {
		settle = 50 * time.Millisecond
	}
	rerun := func() bool {
		results, err := me.Run(ctx, []string{path})
		if ctx.Err() != nil {
			return false
		}
		fn(results, err)
		return true
	}
	if !rerun() {
		return nil
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug("file changed", zap.Stringer("op", ev.Op))
			pending = time.After(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			if !rerun() {
				return nil
			}
		}
	}
}
