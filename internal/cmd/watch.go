package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/SatelliteQE/rendezvous/internal/errors"
	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/SatelliteQE/rendezvous/internal/tui/watch"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newWatchCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "watch <name>",
		Short: "Follow a shared resource live",
		Long: `Follow the state of a shared resource until its state file is removed.

On a terminal this opens a live view; press q to leave. Otherwise (or
with --plain) every change is printed as a line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir := cfg.Resource.ResolveDir()
			interval := cfg.Watch.RefreshInterval

			if plain || !isTerminal(cmd.OutOrStdout()) {
				return watchPlain(cmd.Context(), cmd.OutOrStdout(), dir, args[0], interval)
			}

			m, err := watch.Run(dir, args[0], interval)
			if err != nil {
				return err
			}
			if m.Gone() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print changes as lines instead of the live view")
	return cmd
}

// watchPlain prints one line per observed change until the state file
// disappears after having been seen.
func watchPlain(ctx context.Context, out io.Writer, dir, name string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	seen := false
	for {
		st, err := sharedresource.Inspect(dir, name)
		var notFound *errors.NotFoundError
		switch {
		case errors.As(err, &notFound):
			if seen {
				fmt.Fprintf(out, "%s finished\n", name)
				return nil
			}
		case err != nil:
			return err
		default:
			seen = true
			line := fmt.Sprintf("%s leader=%s status=%s %s", name, st.MainWatcher, st.MainStatus, progress(sharedresource.Summary{Counts: st.Counts()}))
			if line != last {
				fmt.Fprintf(out, "%s %s\n", time.Now().Format("15:04:05"), line)
				last = line
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
