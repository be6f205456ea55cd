package cmd

import (
	"fmt"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clean <name>",
		Short: "Remove a leftover state file",
		Long: `Remove the state file of a shared resource.

Only finished or failed resources are removed. Use --force to remove a
file that still has live participants or that is corrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir := cfg.Resource.ResolveDir()
			if err := sharedresource.Clean(dir, args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", sharedresource.Path(dir, args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove even if participants are still active")
	return cmd
}
