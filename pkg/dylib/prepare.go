package dylib

import (
	"context"
	"time"

	"github.com/matzehuels/cargo-dylib/pkg/observability"
)

// Preparation reports what Prepare did.
type Preparation struct {
	Layout   Layout
	Skipped  bool    // Derived manifest was up to date; nothing was touched
	Result   *Result // nil when Skipped
	Duration time.Duration
}

// Prepare brings the derived manifest and its wrappers up to date.
//
// Unless opts.Force is set, nothing happens when the derived manifest is
// newer than the real one. Otherwise the manifest is synthesized and written.
// On error the previously written derived manifest, if any, is left in place.
func Prepare(ctx context.Context, layout Layout, opts Options) (_ *Preparation, err error) {
	opts = opts.withDefaults()
	start := time.Now()
	prep := &Preparation{Layout: layout}

	observability.Prepare().OnPrepareStart(ctx, layout.Manifest)
	defer func() {
		prep.Duration = time.Since(start)
		n := 0
		if prep.Result != nil {
			n = len(prep.Result.Wrappers)
		}
		observability.Prepare().OnPrepareComplete(ctx, layout.Manifest, prep.Skipped, n, prep.Duration, err)
	}()

	if !opts.Force {
		skip, err := ShouldSkipRegeneration(layout.Manifest, layout.DerivedManifest)
		if err != nil {
			return nil, err
		}
		if skip {
			opts.Logger.Debug("derived manifest is up to date", "path", layout.DerivedManifest)
			prep.Skipped = true
			return prep, nil
		}
	}

	res, err := NewSynthesizer(layout, opts).Synthesize(ctx)
	if err != nil {
		return nil, err
	}
	if err := WriteManifest(layout.DerivedManifest, res.Manifest); err != nil {
		return nil, err
	}
	prep.Result = res

	opts.Logger.Debug("wrote derived manifest", "path", layout.DerivedManifest, "wrappers", len(res.Wrappers))
	return prep, nil
}
