package cmd

import (
	"fmt"
	"strings"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/SatelliteQE/rendezvous/internal/tui/styles"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List shared resources in the state directory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir := cfg.Resource.ResolveDir()
			summaries, err := sharedresource.List(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintf(out, "No shared resources in %s\n", dir)
				return nil
			}

			fmt.Fprintln(out, styles.TableHeader.Render(fmt.Sprintf("%-24s %-14s %-8s %s", "NAME", "STATUS", "WATCHERS", "PROGRESS")))
			for _, s := range summaries {
				if s.Err != nil {
					fmt.Fprintf(out, "%-24s %s\n", s.Name, styles.Error.Render("unreadable: "+s.Err.Error()))
					continue
				}
				fmt.Fprintf(out, "%-24s %-14s %-8d %s\n", s.Name, string(s.MainStatus), s.Watchers, progress(s))
			}
			return nil
		},
	}
}

func progress(s sharedresource.Summary) string {
	var parts []string
	for _, st := range []sharedresource.WatcherStatus{
		sharedresource.StatusPending,
		sharedresource.StatusReady,
		sharedresource.StatusDone,
		sharedresource.StatusError,
	} {
		if n := s.Counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	return strings.Join(parts, ", ")
}
