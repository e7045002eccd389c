package dylib

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
)

// WriteManifest encodes m and replaces path with it atomically.
// The parent directory is created if needed.
func WriteManifest(path string, m *manifest.Manifest) error {
	data, err := m.Bytes()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", dir)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeIO, err, "rename %s", path)
	}
	return nil
}
