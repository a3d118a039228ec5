package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/danfragoso/termpod/logger"
)

// Change reports that the tree under a source directory changed.
type Change struct {
	Dir string
}

// Watcher observes source directories recursively and reports one Change
// per directory once its events have been quiet for the settle period.
type Watcher struct {
	fsw    *fsnotify.Watcher
	settle time.Duration

	mu    sync.Mutex
	roots []string

	changes chan Change
}

func New(settle time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	return &Watcher{
		fsw:     fsw,
		settle:  settle,
		changes: make(chan Change, 16),
	}, nil
}

func (w *Watcher) Changes() <-chan Change { return w.changes }

// SetRoots replaces the watched directories.
func (w *Watcher) SetRoots(dirs []string) error {
	for _, p := range w.fsw.WatchList() {
		_ = w.fsw.Remove(p)
	}

	w.mu.Lock()
	w.roots = append([]string(nil), dirs...)
	w.mu.Unlock()

	var firstErr error
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			logger.Warn("Failed to watch directory",
				logger.String("dir", dir),
				logger.ErrorField(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return w.fsw.Add(path)
			}
		}
		return nil
	})
}

// Run processes filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logger.Debug("Failed to watch new directory",
							logger.String("dir", event.Name),
							logger.ErrorField(err))
					}
				}
			}
			if root := w.rootOf(event.Name); root != "" {
				pending[root] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for root, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				select {
				case w.changes <- Change{Dir: root}:
					delete(pending, root)
					logger.Debug("Library directory changed", logger.String("dir", root))
				default:
				}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error", logger.ErrorField(err))
		}
	}
}

// rootOf returns the most specific watched root containing path.
func (w *Watcher) rootOf(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	best := ""
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			if len(root) > len(best) {
				best = root
			}
		}
	}
	return best
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
