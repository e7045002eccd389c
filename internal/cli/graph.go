package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cargo-dylib/pkg/errors"
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
	"github.com/matzehuels/cargo-dylib/pkg/render/nodelink"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format   string // output format: "dot" or "svg"
	output   string // output file (default: stdout)
	detailed bool   // include dependency specs in labels
}

// graphCommand creates the graph command, which draws how every dependency is
// routed through its wrapper. Nothing is generated.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the project -> wrapper -> dependency graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (use %s or %s)", opts.format, formatDOT, formatSVG)
			}
			return c.runGraph(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show dependency specifications")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts graphOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	layout, err := c.layout()
	if err != nil {
		return err
	}
	m, err := manifest.Load(layout.Manifest)
	if err != nil {
		return err
	}

	g := nodelink.FromManifest(m)
	data := []byte(nodelink.ToDOT(g, nodelink.Options{Detailed: opts.detailed}))
	if opts.format == formatSVG {
		if data, err = nodelink.RenderSVG(ctx, string(data)); err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
	}

	if opts.output == "" {
		_, err := c.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", opts.output)
	}
	prog.done(fmt.Sprintf("Rendered %d dependencies", m.Dependencies.Len()))
	printFile(opts.output)
	return nil
}
