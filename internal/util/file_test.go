package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsClipFile(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "walk.JSON")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{clip, other} {
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path string
		want bool
	}{
		{clip, true},
		{other, false},
		{dir, false},
		{filepath.Join(dir, "missing.json"), false},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			if got := IsClipFile(tt.path); got != tt.want {
				t.Errorf("IsClipFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetFileStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/clips/walk.json", "walk"},
		{"run.cycle.json", "run.cycle"},
		{"idle", "idle"},
	}

	for _, tt := range tests {
		if got := GetFileStem(tt.path); got != tt.want {
			t.Errorf("GetFileStem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEnsureParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "history.db")
	if err := EnsureParentDirectory(path); err != nil {
		t.Fatalf("EnsureParentDirectory() error = %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Error("expected parent directory to exist")
	}
	if FileExists(path) {
		t.Error("file should not be created")
	}
	if err := EnsureParentDirectory("history.db"); err != nil {
		t.Errorf("EnsureParentDirectory(relative) error = %v", err)
	}
}
