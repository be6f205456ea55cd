package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/SatelliteQE/rendezvous/internal/tui/styles"
	"github.com/SatelliteQE/rendezvous/internal/tui/watch"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "inspect <name>",
		Aliases: []string{"status"},
		Short:   "Show the state of a shared resource",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			name := args[0]
			st, err := sharedresource.Inspect(cfg.Resource.ResolveDir(), name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "    ")
				return enc.Encode(st)
			}

			fmt.Fprintln(out, styles.Title.Render(name))
			fmt.Fprintln(out, styles.Muted.Render(sharedresource.Path(cfg.Resource.ResolveDir(), name)))
			fmt.Fprintln(out)
			fmt.Fprint(out, watch.RenderState(st, ""))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw state document")
	return cmd
}
