package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/overlay"
)

// Watch reloads the file at path whenever it is written or replaced and
// passes each valid result to fn. Invalid files are logged and skipped.
// Watch blocks until ctx is done.
//
// The parent directory is watched so editors that save by renaming a
// temporary file are seen.
func Watch(ctx context.Context, path string, fn func(Config)) error {
	if _, err := FormatOf(path); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				overlay.Logger().Warn("config: reload failed", "path", abs, "err", err)
				continue
			}
			overlay.Logger().Info("config: reloaded", "path", abs)
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			overlay.Logger().Warn("config: watcher error", "err", err)
		}
	}
}
