package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobeaver/fskit"
)

var lockFlags struct {
	wait bool
}

var lockCmd = &cobra.Command{
	Use:   "lock <path> [-- command [args...]]",
	Short: "Run a command while holding an exclusive file lock",
	Long: `Take the exclusive lock on path, run the command, and release the lock when
it exits. Without a command the lock is only probed: taken and released.

By default the wait is bounded by the configured lock timeout
(BEAVER_FSKIT_LOCK_TIMEOUT_MS, 1.5s); if the lock stays held the command
is not run and fskit exits with status 5. --wait blocks until the lock is
free.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pathArgs(args[:1])
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		var h fskit.SystemHandle
		if lockFlags.wait {
			h = a.fs.TakeExclusiveFileLock(paths[0])
		} else {
			var ok bool
			if h, ok = a.fs.TryTakeExclusiveFileLock(paths[0]); !ok {
				return fmt.Errorf("%w: %s", errLockBusy, paths[0].Generic())
			}
		}
		defer a.fs.UnlockFileLock(h)

		if len(args) == 1 {
			fmt.Fprintf(a.out, "acquired %s\n", paths[0].Generic())
			return nil
		}
		child := exec.CommandContext(cmd.Context(), args[1], args[2:]...)
		child.Stdin, child.Stdout, child.Stderr = cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()
		return child.Run()
	},
}

var watchFlags struct {
	pattern string
	count   int
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Print a line each time something below a directory changes",
	Long: `Watch dir and print a timestamped line for every change. --glob restricts
the changes reported to entries matching the pattern. --count exits after
that many changes; by default watch runs until interrupted.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pathArgs(args)
		if err != nil {
			return err
		}
		if watchFlags.count < 0 {
			return fmt.Errorf("%w: --count must not be negative", errUsage)
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		w, ok := a.raw.(fskit.Watcher)
		if !ok {
			return fmt.Errorf("driver %s: watch: %w", a.cfg.Driver, fskit.ErrNotSupported)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		dir := paths[0]
		for seen := 0; watchFlags.count == 0 || seen < watchFlags.count; seen++ {
			if err := waitForChange(ctx, w, dir, watchFlags.pattern); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			fmt.Fprintf(a.out, "%s changed %s\n", time.Now().Format(time.RFC3339), dir.Generic())
		}
		return nil
	},
}

// waitForChange arms one watch and blocks until it fires or ctx ends.
func waitForChange(ctx context.Context, w fskit.Watcher, dir fskit.Path, pattern string) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	token, err := w.Watch(watchCtx, dir, pattern)
	if err != nil {
		return err
	}
	fired := make(chan struct{})
	unregister := token.RegisterChangeCallback(func() { close(fired) })
	defer unregister()

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func init() {
	lockCmd.Flags().BoolVar(&lockFlags.wait, "wait", false, "Wait for the lock without a time limit")

	watchCmd.Flags().StringVar(&watchFlags.pattern, "glob", "", "Only report changes to entries matching this pattern")
	watchCmd.Flags().IntVarP(&watchFlags.count, "count", "n", 0, "Exit after this many changes (0: run until interrupted)")

	rootCmd.AddCommand(lockCmd, watchCmd)
}
