package toolchain

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/observability"
)

const (
	// EnvCargo names the cargo binary, as set by cargo for its subcommands.
	EnvCargo = "CARGO"

	// DefaultCargo is used when neither a flag nor $CARGO names a binary.
	DefaultCargo = "cargo"

	// ExitFailure is reported when cargo ended without a usable exit code.
	ExitFailure = 1

	// DefaultWaitDelay bounds how long an interrupted cargo may take to exit
	// before it is killed.
	DefaultWaitDelay = 10 * time.Second
)

// ResolveCargo returns flag if set, else $CARGO, else "cargo".
func ResolveCargo(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvCargo); env != "" {
		return env
	}
	return DefaultCargo
}

// Forwarder runs cargo with inherited standard streams.
type Forwarder struct {
	Cargo     string    // Binary to run (default: ResolveCargo(""))
	Dir       string    // Working directory (default: current)
	Stdin     io.Reader // Default: os.Stdin
	Stdout    io.Writer // Default: os.Stdout
	Stderr    io.Writer // Default: os.Stderr
	WaitDelay time.Duration
	Logger    *log.Logger
}

// NewForwarder returns a Forwarder for the given cargo binary wired to the
// process's standard streams.
func NewForwarder(cargo string, logger *log.Logger) *Forwarder {
	if logger == nil {
		logger = log.Default()
	}
	return &Forwarder{
		Cargo:     ResolveCargo(cargo),
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: DefaultWaitDelay,
		Logger:    logger,
	}
}

// Args returns the argument list passed to cargo, excluding the binary.
func Args(action Action, args []string, manifestPath string) []string {
	out := make([]string, 0, len(args)+3)
	out = append(out, action.Subcommand, "--manifest-path", manifestPath)
	return append(out, args...)
}

// Forward runs the action against manifestPath and returns cargo's exit code.
//
// Codes 0-255 are passed through. A cargo killed by a signal maps to
// ExitFailure. An error is returned only when cargo could not be started.
// Cancelling ctx interrupts cargo and still reports its exit code.
func (f *Forwarder) Forward(ctx context.Context, action Action, args []string, manifestPath string) (int, error) {
	if !action.Spawns() {
		return 0, nil
	}

	cargo := f.Cargo
	if cargo == "" {
		cargo = ResolveCargo("")
	}
	logger := f.Logger
	if logger == nil {
		logger = log.Default()
	}

	argv := Args(action, args, manifestPath)
	cmd := exec.CommandContext(ctx, cargo, argv...)
	cmd.Dir = f.Dir
	cmd.Stdin = orReader(f.Stdin, os.Stdin)
	cmd.Stdout = orWriter(f.Stdout, os.Stdout)
	cmd.Stderr = orWriter(f.Stderr, os.Stderr)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = f.WaitDelay

	logger.Debug("running cargo", "bin", cargo, "args", argv)
	observability.Toolchain().OnForward(ctx, action.Subcommand, args)
	start := time.Now()

	err := cmd.Run()
	if cmd.ProcessState == nil {
		err = errors.Wrap(errors.ErrCodeToolchain, err, "run %s %s", cargo, action.Subcommand)
		observability.Toolchain().OnError(ctx, action.Subcommand, err)
		return ExitFailure, err
	}

	code := exitCode(cmd.ProcessState)
	if err != nil {
		logger.Debug("cargo exited", "code", code, "err", err)
	}
	observability.Toolchain().OnExit(ctx, action.Subcommand, code, time.Since(start))
	return code, nil
}

// exitCode maps a process state to a code in 0-255.
func exitCode(state *os.ProcessState) int {
	code := state.ExitCode()
	if code < 0 || code > 255 {
		return ExitFailure
	}
	return code
}

func orReader(r, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orWriter(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
