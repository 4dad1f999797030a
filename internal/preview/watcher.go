package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/rajesh1993/sitegen/internal/logfields"
)

// Watcher triggers a rebuild when anything under the source tree changes.
type Watcher struct {
	fs      *fsnotify.Watcher
	root    string
	ignore  []string
	trigger func()
}

// NewWatcher watches root recursively. Directories in ignore (typically
// the output directory) and hidden directories are not watched.
func NewWatcher(root string, ignore []string, trigger func()) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	abs := make([]string, 0, len(ignore))
	for _, dir := range ignore {
		if a, err := filepath.Abs(dir); err == nil {
			abs = append(abs, a)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{fs: fw, root: absRoot, ignore: abs, trigger: trigger}
	if err := w.addDirsRecursive(absRoot); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run dispatches filesystem events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) || shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && (strings.HasPrefix(d.Name(), ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for files whose changes never affect the site.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// hidden files include our own .sitegen-*.tmp output writes
	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}

	return base == "Thumbs.db"
}
