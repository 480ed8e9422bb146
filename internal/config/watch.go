package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchWorkspace reloads .coda.yml when it changes and delivers the new
// config through onChange. Returns a stop function.
func WatchWorkspace(root string, onChange func(*WorkspaceConfig)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace files, which drops a file watch.
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Join(root, WorkspaceConfigName)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				wc, err := LoadWorkspace(root)
				if err != nil {
					slog.Warn("workspace config reload failed", "error", err)
					continue
				}
				slog.Info("workspace config reloaded", "file", WorkspaceConfigName)
				onChange(wc)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Debug("workspace config watcher", "error", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
