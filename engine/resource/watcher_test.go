package resource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
)

func TestWatcherReportsYAMLChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(10*time.Millisecond, dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "hero.yaml")
	if err := os.WriteFile(path, []byte("name: hero\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events:
		if got != path {
			t.Errorf("event for %q, want %q", got, path)
		}
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for the changed definition")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(0, t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want default", w.debounce)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Error("events channel must be closed")
	}
}

func TestNewWatcherMissingDirectory(t *testing.T) {
	if _, err := NewWatcher(0, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("watching a missing directory must fail")
	}
}

func TestReloadTreesRebuildsChangedDefinitions(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(10*time.Millisecond, dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	trees := make(chan animation.Tree, 4)
	go w.ReloadTrees(testLibrary(), func(path string, tr animation.Tree) {
		trees <- tr
	})

	// written aside and renamed in so the definition appears complete
	tmp := filepath.Join(dir, "hero.tmp")
	if err := os.WriteFile(tmp, []byte(heroDefinition), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, "hero.yaml")); err != nil {
		t.Fatal(err)
	}
	select {
	case tr := <-trees:
		if tr.Name() != "hero" || tr.Root() == nil {
			t.Errorf("reloaded tree %q incomplete", tr.Name())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree was not rebuilt")
	}
	w.Close()
}
