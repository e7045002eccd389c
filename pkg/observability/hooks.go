// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about manifest preparation, wrapper generation, and
// toolchain invocations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, plain counters)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetWrapperHooks(&myWrapperHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Prepare().OnPrepareStart(ctx, manifestPath)
//	// ... synthesize ...
//	observability.Prepare().OnPrepareComplete(ctx, manifestPath, skipped, n, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Prepare Hooks
// =============================================================================

// PrepareHooks receives events from derived manifest preparation.
type PrepareHooks interface {
	OnPrepareStart(ctx context.Context, manifestPath string)
	OnPrepareComplete(ctx context.Context, manifestPath string, skipped bool, wrappers int, duration time.Duration, err error)
}

// =============================================================================
// Wrapper Hooks
// =============================================================================

// WrapperHooks receives events from wrapper unit generation.
type WrapperHooks interface {
	// OnWrapperReused records a wrapper that was already up to date on disk.
	OnWrapperReused(ctx context.Context, name string)

	// OnWrapperWritten records a wrapper whose files were written.
	// status is "generated", "updated" or "repaired".
	OnWrapperWritten(ctx context.Context, name, status string, size int)

	// OnWrapperCorrupt records a partial or damaged wrapper directory.
	OnWrapperCorrupt(ctx context.Context, name string, err error)
}

// =============================================================================
// Toolchain Hooks
// =============================================================================

// ToolchainHooks receives events from external toolchain invocations.
type ToolchainHooks interface {
	// OnForward records the start of a forwarded cargo command.
	OnForward(ctx context.Context, subcommand string, args []string)

	// OnExit records the forwarded command's mapped exit code.
	OnExit(ctx context.Context, subcommand string, exitCode int, duration time.Duration)

	// OnError records a failure to start the toolchain.
	OnError(ctx context.Context, subcommand string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPrepareHooks is a no-op implementation of PrepareHooks.
type NoopPrepareHooks struct{}

func (NoopPrepareHooks) OnPrepareStart(context.Context, string) {}
func (NoopPrepareHooks) OnPrepareComplete(context.Context, string, bool, int, time.Duration, error) {
}

// NoopWrapperHooks is a no-op implementation of WrapperHooks.
type NoopWrapperHooks struct{}

func (NoopWrapperHooks) OnWrapperReused(context.Context, string)               {}
func (NoopWrapperHooks) OnWrapperWritten(context.Context, string, string, int) {}
func (NoopWrapperHooks) OnWrapperCorrupt(context.Context, string, error)       {}

// NoopToolchainHooks is a no-op implementation of ToolchainHooks.
type NoopToolchainHooks struct{}

func (NoopToolchainHooks) OnForward(context.Context, string, []string)        {}
func (NoopToolchainHooks) OnExit(context.Context, string, int, time.Duration) {}
func (NoopToolchainHooks) OnError(context.Context, string, error)             {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	prepareHooks   PrepareHooks   = NoopPrepareHooks{}
	wrapperHooks   WrapperHooks   = NoopWrapperHooks{}
	toolchainHooks ToolchainHooks = NoopToolchainHooks{}
	hooksMu        sync.RWMutex
)

// SetPrepareHooks registers custom prepare hooks.
// This should be called once at application startup.
func SetPrepareHooks(h PrepareHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		prepareHooks = h
	}
}

// SetWrapperHooks registers custom wrapper hooks.
// Implementations must be safe for concurrent use: wrappers are generated in
// parallel.
func SetWrapperHooks(h WrapperHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		wrapperHooks = h
	}
}

// SetToolchainHooks registers custom toolchain hooks.
func SetToolchainHooks(h ToolchainHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		toolchainHooks = h
	}
}

// Prepare returns the registered prepare hooks.
func Prepare() PrepareHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return prepareHooks
}

// Wrapper returns the registered wrapper hooks.
func Wrapper() WrapperHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return wrapperHooks
}

// Toolchain returns the registered toolchain hooks.
func Toolchain() ToolchainHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return toolchainHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	prepareHooks = NoopPrepareHooks{}
	wrapperHooks = NoopWrapperHooks{}
	toolchainHooks = NoopToolchainHooks{}
}
