package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/SatelliteQE/rendezvous/internal/errors"
	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Environment passed to the setup step and the action.
const (
	envName       = "RENDEZVOUS_NAME"
	envWatcherID  = "RENDEZVOUS_WATCHER_ID"
	envRecovering = "RENDEZVOUS_RECOVERING"
)

type joinOptions struct {
	setup string
	id    string
}

func newJoinCmd() *cobra.Command {
	opts := &joinOptions{}
	cmd := &cobra.Command{
		Use:   "join <name> [flags] -- <command> [args...]",
		Short: "Join a shared resource and run its action once across processes",
		Long: `Join the shared resource <name> and block until its action has run.

The first process to join becomes the leader. Once every participant is
ready the leader runs <command>; the others wait for the outcome. When
--setup is given, it runs through /bin/sh before this participant
signals ready.

The command and the setup step see these environment variables:
  RENDEZVOUS_NAME        - the resource name
  RENDEZVOUS_WATCHER_ID  - the id of the participant running it
  RENDEZVOUS_RECOVERING  - "true" when retrying after a failed run

Examples:
  # Start the shared server once for three test shards
  rendezvous join db -- ./start-db.sh

  # Let a follower retry when the leader's attempt fails
  rendezvous join db --recoverable -- ./start-db.sh`,
		Args: func(cmd *cobra.Command, args []string) error {
			if cmd.ArgsLenAtDash() != 1 || len(args) < 2 {
				return fmt.Errorf("usage: %s", cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd, opts, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&opts.setup, "setup", "", "shell command to run before signalling ready")
	cmd.Flags().StringVar(&opts.id, "id", "", "watcher id (default: random UUID)")
	cmd.Flags().Bool("recoverable", false, "let a follower retry the action after a failure")
	cmd.Flags().Duration("poll-interval", 0, "how often followers re-read the state file")
	_ = viper.BindPFlag("resource.recoverable", cmd.Flags().Lookup("recoverable"))
	_ = viper.BindPFlag("resource.poll_interval", cmd.Flags().Lookup("poll-interval"))
	return cmd
}

func runJoin(cmd *cobra.Command, opts *joinOptions, name string, argv []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	action := commandAction(cmd, argv)

	resOpts := []sharedresource.Option{
		sharedresource.WithDir(cfg.Resource.ResolveDir()),
		sharedresource.WithRecoverable(cfg.Resource.Recoverable),
		sharedresource.WithPollInterval(cfg.Resource.PollInterval),
		sharedresource.WithReadyPollInterval(cfg.Resource.ReadyPollInterval),
		sharedresource.WithFileEvents(cfg.Resource.FileEvents),
		sharedresource.WithLogger(logger),
		sharedresource.WithArgs(toAny(argv)...),
	}
	if opts.id != "" {
		resOpts = append(resOpts, sharedresource.WithID(opts.id))
	}

	err = sharedresource.Run(ctx, name, action, func(ctx context.Context, r *sharedresource.Resource) error {
		fmt.Fprintf(out, "joined %s as %s (%s)\n", name, roleOf(r), r.ID())

		if opts.setup != "" {
			setup := shellCommand(ctx, opts.setup)
			setup.Env = childEnv(name, r.ID(), false)
			setup.Stdout, setup.Stderr = out, cmd.ErrOrStderr()
			if err := setup.Run(); err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
		}

		if err := r.Ready(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s ready as %s\n", name, roleOf(r))
		return nil
	}, resOpts...)

	if err != nil {
		fmt.Fprintf(out, "%s failed: %v\n", name, err)
		return err
	}
	fmt.Fprintf(out, "%s done\n", name)
	return nil
}

// commandAction runs argv as the leader's action.
func commandAction(cmd *cobra.Command, argv []string) sharedresource.Action {
	return func(ctx context.Context, inv sharedresource.Invocation) error {
		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Env = childEnv(inv.Resource, inv.Watcher, inv.Recovering)
		c.Stdout, c.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
		if err := c.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return fmt.Errorf("%s exited with status %d", argv[0], exitErr.ExitCode())
			}
			return err
		}
		return nil
	}
}

func shellCommand(ctx context.Context, script string) *exec.Cmd {
	return exec.CommandContext(ctx, "/bin/sh", "-c", script)
}

func childEnv(name, id string, recovering bool) []string {
	return append(os.Environ(),
		envName+"="+name,
		envWatcherID+"="+id,
		envRecovering+"="+strconv.FormatBool(recovering),
	)
}

func roleOf(r *sharedresource.Resource) string {
	switch {
	case r.Recovering():
		return "recovering leader"
	case r.IsMain():
		return "leader"
	default:
		return "follower"
	}
}

func toAny(argv []string) []any {
	args := make([]any, len(argv))
	for i, a := range argv {
		args[i] = a
	}
	return args
}
