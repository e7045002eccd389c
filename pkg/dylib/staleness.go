package dylib

import (
	"os"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
)

// ShouldSkipRegeneration reports whether the derived manifest is newer than
// the real one. Equal modification times count as stale.
//
// A missing derived manifest is not an error; a missing real manifest is.
func ShouldSkipRegeneration(realManifest, derivedManifest string) (bool, error) {
	src, err := os.Stat(realManifest)
	if os.IsNotExist(err) {
		return false, errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", realManifest)
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "stat %s", realManifest)
	}

	dst, err := os.Stat(derivedManifest)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "stat %s", derivedManifest)
	}

	return dst.ModTime().After(src.ModTime()), nil
}
