package runner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the project watcher.
type WatcherConfig struct {
	// Root is the project directory to watch
	Root string

	// DebounceDelay is how long to wait for more changes before signalling
	DebounceDelay time.Duration

	// SkipDirs are directory names never descended into
	SkipDirs []string

	// Logger for watch events
	Logger *slog.Logger
}

// Watcher watches the project tree and coalesces bursts of relevant file
// changes into single re-run signals.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changed paths before signalling
	pendingMu sync.Mutex
	pending   map[string]struct{}

	triggers chan []string
}

// NewWatcher creates a project watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = 250 * time.Millisecond
	}

	return &Watcher{
		config:   config,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]struct{}),
		triggers: make(chan []string, 8),
	}, nil
}

// Triggers returns the channel of re-run signals. Each signal carries the
// changed paths, relative to the project root, in sorted order.
func (w *Watcher) Triggers() <-chan []string {
	return w.triggers
}

// Start begins watching the project for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Project watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher. The trigger channel is closed by the event
// loop once it drains.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addWatchesRecursive adds watches to all non-skipped directories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != root && (strings.HasPrefix(base, ".") || w.skipped(base)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()
	defer close(w.triggers)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent filters and accumulates a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}

	if !w.relevant(path) {
		return
	}

	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		rel = path
	}
	if w.skippedPath(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		"path", rel,
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || w.skipped(base) {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	}
}

// flushPending emits one trigger for the accumulated changes.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	sort.Strings(changed)

	select {
	case w.triggers <- changed:
		w.logger.Debug("Re-run triggered", "changed", len(changed))
	default:
		w.logger.Warn("Trigger channel full, dropping signal")
	}
}

// relevant reports whether a change to path can affect a check: Python
// sources, the layout's config/metadata files, and the docs file.
func (w *Watcher) relevant(path string) bool {
	switch filepath.Ext(path) {
	case ".py", ".yaml", ".toml", ".md":
		return true
	}
	return false
}

// skipped reports whether a directory name is excluded from watching.
func (w *Watcher) skipped(name string) bool {
	for _, skip := range w.config.SkipDirs {
		if name == skip {
			return true
		}
	}
	return name == "__pycache__" || name == "node_modules"
}

// skippedPath reports whether any component of rel is excluded.
func (w *Watcher) skippedPath(rel string) bool {
	for _, comp := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(comp, ".") || w.skipped(comp) {
			return true
		}
	}
	return false
}
