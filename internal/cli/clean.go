package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// cleanCommand creates the clean command, which removes the derived manifest
// and all wrappers so the next run regenerates them.
func (c *CLI) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the derived manifest and all dependency wrappers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := c.layout()
			if err != nil {
				return err
			}

			if _, err := os.Stat(layout.DerivedDir); os.IsNotExist(err) {
				printInfo("Nothing to clean")
				return nil
			}
			if err := layout.Clean(); err != nil {
				return err
			}

			printSuccess("Removed dynamic dependencies")
			printDetail("Directory: %s", layout.DerivedDir)
			return nil
		},
	}
}
