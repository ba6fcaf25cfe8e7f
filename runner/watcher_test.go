package runner

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := NewWatcher(WatcherConfig{
		Root:          root,
		DebounceDelay: 20 * time.Millisecond,
		SkipDirs:      []string{"venv", "env"},
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	return w
}

func TestWatcherRelevantFiles(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	defer func() { _ = w.watcher.Close() }()

	for path, want := range map[string]bool{
		"app/service.py":        true,
		"precheck.yaml":         true,
		"pyproject.toml":        true,
		"README.md":             true,
		"app/cache.sqlite":      false,
		"notes.txt":             false,
		"app/__pycache__/a.pyc": false,
		"demonstration/main.py": true,
	} {
		if got := w.relevant(path); got != want {
			t.Errorf("relevant(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherSkippedPaths(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	defer func() { _ = w.watcher.Close() }()

	for path, want := range map[string]bool{
		filepath.Join("venv", "lib", "mod.py"):    true,
		filepath.Join("app", "__pycache__", "x"):  true,
		filepath.Join(".git", "hooks", "pre.py"):  true,
		filepath.Join("app", "service.py"):        false,
		filepath.Join("demonstration", "main.py"): false,
	} {
		if got := w.skippedPath(path); got != want {
			t.Errorf("skippedPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherCoalescesBurstIntoOneTrigger(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/service.py", "")

	w := newTestWatcher(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = w.Stop() }()

	// A burst of writes within one debounce window.
	writeFile(t, root, "app/service.py", "X = 1\n")
	writeFile(t, root, "app/consts.py", "Y = 2\n")
	writeFile(t, root, "app/service.py", "X = 3\n")

	select {
	case changed := <-w.Triggers():
		if len(changed) == 0 {
			t.Fatal("expected changed paths in trigger")
		}
		for i := 1; i < len(changed); i++ {
			if changed[i-1] > changed[i] {
				t.Errorf("expected sorted paths, got %v", changed)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for trigger")
	}
}
