// Package wrapper materializes the "dynamic" wrapper crates that stand in
// for a project's dependencies.
//
// # Overview
//
// For a dependency named serde the [Generator] creates serde-dynamic/ under
// the wrapper root:
//
//	serde-dynamic/
//	    Cargo.toml           # [lib] crate-type = ["dylib"], depends on serde only
//	    src/lib.rs           # pub use serde::*;
//	    .cargo-dylib-stamp   # SHA-256 of the two files above
//
// and returns the reference the derived manifest should use in place of the
// original entry:
//
//	serde = { path = "serde-dynamic", package = "serde-dynamic" }
//
// # Cache Policy
//
// Wrappers are generated at most once and reused afterwards. [Policy]
// decides what "already generated" means:
//
//   - [PolicyChecksum] (default): the stamp must match the files that would
//     be written now. A changed dependency spec regenerates the wrapper, and
//     a directory without a stamp (interrupted write, manual edits) is
//     reported as corrupt and repaired.
//   - [PolicyExists]: the directory existing is enough. A wrapper is never
//     rewritten until the wrapper root is removed.
//
// # Concurrency
//
// [Generator.EnsureUnit] keeps no state between calls and only touches the
// directory named after its own dependency, so calls for distinct names may
// run in parallel.
package wrapper
