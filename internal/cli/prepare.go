package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cargo-dylib/pkg/dylib"
	"github.com/matzehuels/cargo-dylib/pkg/observability"
	"github.com/matzehuels/cargo-dylib/pkg/toolchain"
	"github.com/matzehuels/cargo-dylib/pkg/wrapper"
)

// initCommand creates the init command, which prepares without running cargo.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   toolchain.NameInit,
		Short: "Generate the derived manifest and dependency wrappers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prep, err := c.prepare(cmd.Context(), force)
			if err != nil {
				return err
			}
			if prep.Skipped {
				printInfo("Derived manifest is up to date")
			}
			printFile(prep.Layout.DerivedManifest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "regenerate even if the derived manifest is up to date")
	return cmd
}

// prepare brings the derived manifest up to date and reports what changed.
func (c *CLI) prepare(ctx context.Context, force bool) (*dylib.Preparation, error) {
	layout, err := c.layout()
	if err != nil {
		return nil, err
	}
	opts, err := c.options(force)
	if err != nil {
		return nil, err
	}

	stats := &wrapperStats{}
	observability.SetWrapperHooks(stats)
	defer observability.SetWrapperHooks(observability.NoopWrapperHooks{})

	c.Logger.Debug("preparing", "manifest", layout.Manifest, "out", layout.DerivedDir, "policy", opts.Policy)

	spin := newSpinnerWithContext(ctx, "Preparing dynamic dependencies...")
	if c.Logger.GetLevel() > LogDebug {
		spin.Start()
	}
	prep, err := dylib.Prepare(ctx, layout, opts)
	spin.Stop()
	if err != nil {
		return nil, err
	}

	if !prep.Skipped {
		printPreparation(prep, stats)
	}
	return prep, nil
}

// printPreparation prints a summary line for a completed synthesis.
func printPreparation(prep *dylib.Preparation, stats *wrapperStats) {
	res := prep.Result
	rel, err := filepath.Rel(prep.Layout.ProjectRoot, prep.Layout.DerivedManifest)
	if err != nil {
		rel = prep.Layout.DerivedManifest
	}
	printSuccess("Prepared %s %s %s", StyleHighlight.Render(res.Manifest.Package.Name), iconArrow, rel)

	var parts []string
	parts = appendCount(parts, len(res.Wrappers), "wrappers")
	parts = appendCount(parts, res.Count(wrapper.StatusGenerated), "generated")
	parts = appendCount(parts, res.Count(wrapper.StatusUpdated), "updated")
	parts = appendCount(parts, res.Count(wrapper.StatusRepaired), "repaired")
	parts = appendCount(parts, res.Count(wrapper.StatusReused), "reused")
	if stats.written.Load() > 0 {
		n := stats.bytes.Load()
		parts = append(parts, formatBytes(n)+" written")
	}
	parts = append(parts, prep.Duration.Round(time.Millisecond).String())
	printStats(parts...)

	if n := stats.corrupt.Load(); n > 0 {
		printWarning("Repaired %d incomplete wrapper(s)", n)
	}
}
