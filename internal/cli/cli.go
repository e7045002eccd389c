package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cargo-dylib/pkg/buildinfo"
	"github.com/matzehuels/cargo-dylib/pkg/dylib"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
	"github.com/matzehuels/cargo-dylib/pkg/toolchain"
	"github.com/matzehuels/cargo-dylib/pkg/wrapper"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the binary name; cargo finds it as the "dylib" subcommand.
	appName = "cargo-dylib"

	// cargoSubcommand is the first argument cargo passes to external subcommands.
	cargoSubcommand = "dylib"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Streams handed to cargo.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	flags globalFlags
}

// globalFlags holds the persistent flags shared by all commands.
type globalFlags struct {
	manifestPath string // real Cargo.toml (default: search upward from cwd)
	targetDir    string // cargo target directory (default: $CARGO_TARGET_DIR, else <project>/target)
	cargo        string // cargo binary (default: $CARGO, else cargo)
	jobs         int    // parallel wrapper generations
	cacheKey     string // wrapper reuse policy: checksum or exists
	rebasePaths  bool   // rebase relative path dependencies inside wrappers
}

// New creates a new CLI instance with a logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Build Rust projects against dynamically linked dependencies",
		Long: `cargo-dylib speeds up incremental builds by compiling every dependency of a
Cargo project once as a dynamic library. It writes a derived manifest under
<target-dir>/cargo-dylib and runs cargo against it.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	f := root.PersistentFlags()
	f.StringVar(&c.flags.manifestPath, "manifest-path", "", "path to Cargo.toml (default: search upward from the current directory)")
	f.StringVar(&c.flags.targetDir, "target-dir", "", "cargo target directory (default: $CARGO_TARGET_DIR or <project>/target)")
	f.StringVar(&c.flags.cargo, "cargo", "", "cargo binary (default: $CARGO or cargo)")
	f.IntVarP(&c.flags.jobs, "jobs", "j", 0, "parallel wrapper generations (default: number of CPUs)")
	f.StringVar(&c.flags.cacheKey, "cache-key", wrapper.PolicyNameChecksum, "wrapper reuse policy: checksum, exists")
	f.BoolVar(&c.flags.rebasePaths, "rebase-paths", false, "rebase relative path dependencies inside wrappers")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.forwardCommand(toolchain.ActionBuild, "Prepare the derived manifest and run cargo build"))
	root.AddCommand(c.forwardCommand(toolchain.ActionRun, "Prepare the derived manifest and run cargo run"))
	root.AddCommand(c.execCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cleanCommand())

	return root
}

// Args strips the subcommand name cargo passes when invoked as "cargo dylib".
func Args(argv []string) []string {
	if len(argv) > 0 && argv[0] == cargoSubcommand {
		return argv[1:]
	}
	return argv
}

// =============================================================================
// Exit Codes
// =============================================================================

// ExitError carries a non-zero exit code from cargo to main.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("cargo exited with status %d", e.Code)
}

// =============================================================================
// Configuration
// =============================================================================

// layout resolves the project layout from the global flags.
func (c *CLI) layout() (dylib.Layout, error) {
	path := c.flags.manifestPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return dylib.Layout{}, fmt.Errorf("get working directory: %w", err)
		}
		if path, err = manifest.Locate(cwd); err != nil {
			return dylib.Layout{}, err
		}
	}
	return dylib.NewLayout(path, c.flags.targetDir)
}

// options builds synthesis options from the global flags.
func (c *CLI) options(force bool) (dylib.Options, error) {
	policy, err := wrapper.ParsePolicy(c.flags.cacheKey)
	if err != nil {
		return dylib.Options{}, err
	}
	return dylib.Options{
		Jobs:        c.flags.jobs,
		Policy:      policy,
		RebasePaths: c.flags.rebasePaths,
		Force:       force,
		Logger:      c.Logger,
	}, nil
}

// forwarder returns a cargo forwarder wired to the CLI's streams.
func (c *CLI) forwarder() *toolchain.Forwarder {
	f := toolchain.NewForwarder(c.flags.cargo, c.Logger)
	f.Stdin, f.Stdout, f.Stderr = c.Stdin, c.Stdout, c.Stderr
	return f
}
