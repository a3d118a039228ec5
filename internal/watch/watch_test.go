package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, roots ...string) *Watcher {
	t.Helper()
	w, err := New(20 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.SetRoots(roots); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	return w
}

func expectChange(t *testing.T, w *Watcher, dir string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case c := <-w.Changes():
			if c.Dir == dir {
				return
			}
		case <-deadline:
			t.Fatalf("no change reported for %s", dir)
		}
	}
}

func TestReportsNewFile(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "new.mp3"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, w, root)
}

func TestReportsNestedChanges(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "album")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(sub, "track.flac"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, w, root)
}

func TestRootOfPrefersMostSpecific(t *testing.T) {
	w := &Watcher{roots: []string{"/music", "/music/live", "/music2"}}

	tests := map[string]string{
		"/music/a.mp3":        "/music",
		"/music/live/b.mp3":   "/music/live",
		"/music2/c.mp3":       "/music2",
		"/elsewhere/d.mp3":    "",
		"/music/live":         "/music/live",
		"/musicals/song.flac": "",
	}
	for path, want := range tests {
		if got := w.rootOf(path); got != want {
			t.Errorf("rootOf(%q) = %q, want %q", path, got, want)
		}
	}
}
