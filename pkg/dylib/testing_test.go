package dylib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// newProject writes a Cargo project with the given manifest and an empty
// src/main.rs into a temp dir and returns its layout.
func newProject(t *testing.T, cargoToml string) Layout {
	t.Helper()
	t.Setenv(EnvTargetDir, "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), cargoToml)
	writeFile(t, filepath.Join(root, "src", "main.rs"), "fn main() {}\n")

	// Backdate so a derived manifest written during the test is strictly newer.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(root, "Cargo.toml"), past, past); err != nil {
		t.Fatal(err)
	}

	layout, err := NewLayout(filepath.Join(root, "Cargo.toml"), "")
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}
	return layout
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func quietOptions() Options {
	return Options{Logger: log.New(&strings.Builder{})}
}
