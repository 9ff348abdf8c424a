package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a burst of writes must settle before the
// scope is rendered again.
const watchDebounce = 250 * time.Millisecond

// fileWatcher reports writes to a fixed set of files.
//
// It watches their parent directories rather than the files, so editors
// that save by renaming a temp file over the original keep triggering.
type fileWatcher struct {
	w      *fsnotify.Watcher
	names  map[string]bool
	logger *log.Logger
}

func newFileWatcher(paths []string, logger *log.Logger) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	fw := &fileWatcher{w: w, names: make(map[string]bool, len(paths)), logger: logger}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.names[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return fw, nil
}

// run calls fn once per burst of changes until ctx is done, then closes
// the watcher.
func (fw *fileWatcher) run(ctx context.Context, debounce time.Duration, fn func()) error {
	defer fw.w.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if !fw.names[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fw.logger.Debug("input changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case <-timer.C:
			fn()
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("watch error", "err", err)
		}
	}
}
