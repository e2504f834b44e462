package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay is how long Watch waits after the last write before firing.
const DebounceDelay = 200 * time.Millisecond

// Watch calls onChange after the file at path is written, created or renamed
// into place. Bursts of events are collapsed into one call. The parent
// directory is watched so editors that replace the file are still seen.
// Watch returns once the watcher is running; it stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(DebounceDelay, onChange)

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
