package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must be quiet before it is imported.
const DefaultDebounce = 500 * time.Millisecond

// ImportEvent reports one watched import.
type ImportEvent struct {
	Path   string
	Result Result
	Err    error
}

// Watch imports output files in dir as they are created or rewritten, until
// ctx is cancelled. Rapid writes to one file are debounced; imports run one
// at a time on the watch goroutine. onImport may be nil.
func (im *Importer) Watch(ctx context.Context, dir string, debounce time.Duration, onImport func(ImportEvent)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	im.Logger.Info("watching for extraction output", zap.String("dir", dir))

	due := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isOutputFile(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(debounce, func() {
				select {
				case due <- path:
				case <-ctx.Done():
				}
			})

		case path := <-due:
			delete(timers, path)
			res, err := im.ImportFile(ctx, path)
			if err != nil {
				im.Logger.Warn("watched import failed", zap.String("path", path), zap.Error(err))
			}
			if onImport != nil {
				onImport(ImportEvent{Path: path, Result: res, Err: err})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.Logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
