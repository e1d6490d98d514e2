package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/denkenote/internal/metrics"
	"github.com/starford/denkenote/internal/storage"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before asking for a rebuild.
const DefaultDebounce = 200 * time.Millisecond

// WatchConfig configures Watch.
type WatchConfig struct {
	// Root is the absolute content directory.
	Root string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Ignore reports paths whose events never trigger a rebuild and whose
	// directories are not watched. May be nil.
	Ignore func(abs string) bool
	// OnChange is called once per settled burst of relevant events.
	OnChange func()
	Recorder metrics.Recorder
}

// Watch starts an fsnotify watcher on the content root and calls
// cfg.OnChange after every settled burst of markdown changes, until ctx is
// cancelled.
//
// New directories created at runtime are added to the watch list. Removing
// or renaming a watched directory also counts as a change, since fsnotify
// reports no events for the files it contained.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) error {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	ignore := cfg.Ignore
	if ignore == nil {
		ignore = func(string) bool { return false }
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := map[string]struct{}{}
	if err := addDirsRecursive(w, cfg.Root, ignore, dirs); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", cfg.Root))

	// debounce is reset on every relevant event; it fires once the burst settles.
	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(cfg.Debounce)
			debounceCh = debounce.C
		} else {
			debounce.Reset(cfg.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			debounce = nil
			debounceCh = nil
			logger.Debug("watcher: change settled, requesting rebuild")
			if cfg.OnChange != nil {
				cfg.OnChange()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || ignore(ev.Name) {
				continue
			}
			cfg.Recorder.IncWatchEvent()

			if relevant(w, ev, ignore, dirs, logger) {
				logger.Debug("watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether ev can change the index, registering new
// directories with the watcher as a side effect.
func relevant(w *fsnotify.Watcher, ev fsnotify.Event, ignore func(string) bool, dirs map[string]struct{}, logger *slog.Logger) bool {
	absPath := ev.Name

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(w, absPath, ignore, dirs); addErr != nil {
				logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			} else {
				logger.Debug("watcher: watching new dir", slog.String("path", absPath))
			}
			// The directory may already hold markdown files.
			return true
		}
	}

	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if _, ok := dirs[absPath]; ok {
			forgetDir(dirs, absPath)
			return true
		}
	}

	return strings.HasSuffix(absPath, storage.MarkdownExt)
}

// addDirsRecursive adds root and all its non-ignored subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, ignore func(string) bool, dirs map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || ignore(path)) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return err
		}
		dirs[path] = struct{}{}
		return nil
	})
}

// forgetDir drops dir and everything below it from the watched set.
// fsnotify removes the watches itself when the directory goes away.
func forgetDir(dirs map[string]struct{}, dir string) {
	prefix := dir + string(filepath.Separator)
	for d := range dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(dirs, d)
		}
	}
}
