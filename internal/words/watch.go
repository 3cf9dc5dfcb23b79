package words

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit per save.
const reloadDebounce = 200 * time.Millisecond

// Watcher hot-reloads the wordlist file into a List while the agent runs.
// The parent directory is watched rather than the file itself so
// rename-into-place saves keep working. A reload that fails or yields an
// empty list keeps the previous snapshot.
type Watcher struct {
	path string
	list *List
	fw   *fsnotify.Watcher
}

// NewWatcher sets up the directory watch for path, feeding reloads into
// list. Close the returned watcher by canceling the Run context.
func NewWatcher(path string, list *List) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("words: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("words: watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{path: path, list: list, fw: fw}, nil
}

// Run processes filesystem events until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	slog.Debug("wordlist watcher started", "path", w.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("wordlist watcher error", "error", err)
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	list, err := Load(w.path)
	if err != nil {
		slog.Warn("wordlist reload failed, keeping previous list", "path", w.path, "error", err)
		return
	}
	if err := w.list.Replace(list); err != nil {
		slog.Warn("wordlist reload rejected", "path", w.path, "error", err)
		return
	}
	slog.Info("wordlist reloaded", "path", w.path, "words", len(list))
}
