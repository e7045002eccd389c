package dylib

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
)

const (
	// DirName is the directory under the target directory that holds the
	// derived manifest and the wrappers.
	DirName = "cargo-dylib"

	// DefaultTargetDir is cargo's default build output directory.
	DefaultTargetDir = "target"

	// EnvTargetDir overrides the target directory, as it does for cargo.
	EnvTargetDir = "CARGO_TARGET_DIR"
)

// Layout holds the resolved locations of one prepared project.
// All paths are absolute.
type Layout struct {
	Manifest        string // Real Cargo.toml
	ProjectRoot     string // Directory of Manifest
	OutputRoot      string // Cargo target directory
	DerivedDir      string // OutputRoot/cargo-dylib
	DerivedManifest string // DerivedDir/Cargo.toml
}

// NewLayout resolves a layout for the manifest at manifestPath.
//
// An empty targetDir means $CARGO_TARGET_DIR, else <project>/target. As with
// cargo, a relative targetDir or $CARGO_TARGET_DIR is taken relative to the
// working directory.
func NewLayout(manifestPath, targetDir string) (Layout, error) {
	if manifestPath == "" {
		return Layout{}, errors.New(errors.ErrCodeInvalidPath, "manifest path is empty")
	}
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", manifestPath)
	}

	if filepath.Base(abs) != manifest.FileName {
		return Layout{}, errors.New(errors.ErrCodeInvalidManifest, "manifest path must point to a %s file: %s", manifest.FileName, manifestPath)
	}

	root := filepath.Dir(abs)
	if targetDir == "" {
		targetDir = os.Getenv(EnvTargetDir)
	}
	var out string
	if targetDir == "" {
		out = filepath.Join(root, DefaultTargetDir)
	} else if out, err = filepath.Abs(targetDir); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", targetDir)
	}

	derived := filepath.Join(out, DirName)
	return Layout{
		Manifest:        abs,
		ProjectRoot:     root,
		OutputRoot:      out,
		DerivedDir:      derived,
		DerivedManifest: filepath.Join(derived, manifest.FileName),
	}, nil
}

// Clean removes the derived manifest and every wrapper.
func (l Layout) Clean() error {
	if l.DerivedDir == "" || l.DerivedDir == l.ProjectRoot {
		return errors.New(errors.ErrCodeInvalidPath, "refusing to remove %q", l.DerivedDir)
	}
	if err := os.RemoveAll(l.DerivedDir); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "remove %s", l.DerivedDir)
	}
	return nil
}
