package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForChange(t *testing.T, ch <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for change to %s", want)
		}
	}
}

func TestWatcher_FileTarget(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "edges.txt")
	if err := os.WriteFile(dataset, []byte("1 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{dataset}); err != nil {
		t.Fatal(err)
	}

	// Sibling files in the same directory must not trigger.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Fatalf("Unexpected change for unrelated file: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(dataset, []byte("1 2\n2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changed, dataset, 2*time.Second)
}

func TestWatcher_RenameReplace(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "edges.txt")
	if err := os.WriteFile(dataset, []byte("1 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{dataset}); err != nil {
		t.Fatal(err)
	}

	tmp := filepath.Join(dir, "edges.txt.partial")
	if err := os.WriteFile(tmp, []byte("1 2\n2 3\n3 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, dataset); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changed, dataset, 2*time.Second)
}

func TestWatcher_DirectoryTargetHonoursIgnore(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, []string{"*.swp"}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".edges.txt.swp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Fatalf("Ignored file triggered change: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	dataset := filepath.Join(dir, "edges.txt")
	if err := os.WriteFile(dataset, []byte("1 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changed, dataset, 2*time.Second)
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "edges.txt")
	if err := os.WriteFile(dataset, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 16)
	w, err := NewWatcher(200*time.Millisecond, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{dataset}); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(dataset, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("1 2\n"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	f.Close()

	waitForChange(t, changed, dataset, 2*time.Second)
	select {
	case paths := <-changed:
		t.Errorf("Expected a single flush, got another: %v", paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, nil, nil); err == nil {
		t.Error("Expected error for nil callback")
	}
	if _, err := NewWatcher(time.Millisecond, []string{"[unclosed"}, func([]string) {}); err == nil {
		t.Error("Expected error for invalid ignore pattern")
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second Close returned %v", err)
	}
}
