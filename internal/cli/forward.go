package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cargo-dylib/pkg/toolchain"
)

// forwardCommand creates a command that prepares and then runs a fixed cargo
// subcommand. Arguments after -- are passed to cargo verbatim.
func (c *CLI) forwardCommand(action toolchain.Action, short string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   action.String() + " [-- cargo args...]",
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.forward(cmd.Context(), action, args, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "regenerate even if the derived manifest is up to date")
	return cmd
}

// execCommand creates the exec command for any other cargo subcommand.
func (c *CLI) execCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "exec <subcommand> [-- cargo args...]",
		Short: "Prepare the derived manifest and run any cargo subcommand",
		Example: `  cargo dylib exec check
  cargo dylib exec test -- --release`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := toolchain.ActionExec(args[0])
			if err != nil {
				return err
			}
			return c.forward(cmd.Context(), action, args[1:], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "regenerate even if the derived manifest is up to date")
	return cmd
}

// forward prepares the derived manifest and hands the terminal to cargo.
// A non-zero cargo status is returned as *ExitError.
func (c *CLI) forward(ctx context.Context, action toolchain.Action, args []string, force bool) error {
	prep, err := c.prepare(ctx, force)
	if err != nil {
		return err
	}

	code, err := c.forwarder().Forward(ctx, action, args, prep.Layout.DerivedManifest)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
