// Package dylib turns a Cargo project manifest into a derived manifest whose
// dependencies are all routed through dynamic-library wrapper crates.
//
// # Architecture
//
// Preparing a project runs three steps:
//
//  1. Staleness: [ShouldSkipRegeneration] compares the modification times of
//     the real and the derived manifest.
//  2. Synthesis: [Synthesizer.Synthesize] clones the real manifest, generates
//     one wrapper per dependency in parallel and redirects the build targets
//     so they resolve from the derived manifest's directory.
//  3. Persistence: [WriteManifest] replaces the derived manifest atomically.
//
// [Prepare] composes the three.
//
// # Usage
//
//	layout, err := dylib.NewLayout("Cargo.toml", "")
//	if err != nil {
//	    return err
//	}
//	prep, err := dylib.Prepare(ctx, layout, dylib.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	// cargo build --manifest-path layout.DerivedManifest
//
// # Layout
//
// Everything is written under <target-dir>/cargo-dylib:
//
//	target/cargo-dylib/
//	    Cargo.toml            # derived manifest
//	    serde-dynamic/        # one wrapper per dependency
//	    tokio-dynamic/
package dylib
