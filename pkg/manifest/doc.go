// Package manifest models Cargo.toml files.
//
// # Overview
//
// A [Manifest] carries the parts of a Cargo manifest that cargo-dylib
// rewrites (the package identity, the [dependencies] table and the [lib] and
// [[bin]] targets) and keeps every other top-level table verbatim in
// [Manifest.Rest], so that a derived manifest is a faithful copy of the real
// one apart from the rewritten sections.
//
// # Dependencies
//
// Cargo accepts two shapes for a dependency: a bare version requirement
// (serde = "1.0") or a detailed table (serde = { version = "1.0", features =
// ["derive"] }). [Dependency] is a tagged variant over both. [DepsSet] keeps
// dependencies in declaration order, which is recovered from the TOML
// decoder's key metadata.
//
// # Parsing and Encoding
//
//	m, err := manifest.Load("Cargo.toml")
//	derived := m.Clone()
//	derived.Dependencies = manifest.NewDepsSet()
//	err = derived.Encode(w)
//
// Encoding uses [github.com/BurntSushi/toml]. Map keys are written in sorted
// order, so output is canonical rather than a byte-for-byte echo of the input.
package manifest
