package dylib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
)

func TestNewLayout(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "Cargo.toml")
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		targetDir string
		env       string
		wantOut   string
	}{
		{"default", "", "", filepath.Join(root, "target")},
		{"env", "", "/tmp/ct", "/tmp/ct"},
		{"flag wins over env", "/opt/out", "/tmp/ct", "/opt/out"},
		{"relative flag", "build", "", filepath.Join(cwd, "build")},
		{"relative env", "", "out/ct", filepath.Join(cwd, "out", "ct")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvTargetDir, tt.env)

			l, err := NewLayout(manifest, tt.targetDir)
			if err != nil {
				t.Fatalf("NewLayout() error: %v", err)
			}
			if l.ProjectRoot != root {
				t.Errorf("ProjectRoot = %q, want %q", l.ProjectRoot, root)
			}
			if l.OutputRoot != tt.wantOut {
				t.Errorf("OutputRoot = %q, want %q", l.OutputRoot, tt.wantOut)
			}
			if want := filepath.Join(tt.wantOut, "cargo-dylib"); l.DerivedDir != want {
				t.Errorf("DerivedDir = %q, want %q", l.DerivedDir, want)
			}
			if want := filepath.Join(tt.wantOut, "cargo-dylib", "Cargo.toml"); l.DerivedManifest != want {
				t.Errorf("DerivedManifest = %q, want %q", l.DerivedManifest, want)
			}
		})
	}
}

func TestNewLayoutEmpty(t *testing.T) {
	if _, err := NewLayout("", ""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("NewLayout(\"\") error = %v, want %s", err, errors.ErrCodeInvalidPath)
	}
}

func TestNewLayoutWrongFile(t *testing.T) {
	for _, path := range []string{"/p/Cargo.lock", "/p/.Cargo.toml"} {
		if _, err := NewLayout(path, ""); !errors.Is(err, errors.ErrCodeInvalidManifest) {
			t.Errorf("NewLayout(%q) error = %v, want %s", path, err, errors.ErrCodeInvalidManifest)
		}
	}
}

func TestLayoutClean(t *testing.T) {
	l := newProject(t, "[package]\nname = \"app\"\n")
	writeFile(t, filepath.Join(l.DerivedDir, "foo-dynamic", "Cargo.toml"), "")

	if err := l.Clean(); err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if _, err := os.Stat(l.DerivedDir); !os.IsNotExist(err) {
		t.Errorf("derived dir still exists")
	}
	if _, err := os.Stat(l.Manifest); err != nil {
		t.Errorf("real manifest removed: %v", err)
	}

	// Cleaning twice is fine.
	if err := l.Clean(); err != nil {
		t.Errorf("second Clean() error: %v", err)
	}
}
