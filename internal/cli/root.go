package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobeaver/fskit"
	_ "github.com/gobeaver/fskit/driver/local"
	_ "github.com/gobeaver/fskit/driver/memory"
)

// Exit codes:
//   - 0: success
//   - 1: an operation failed
//   - 2: usage error (missing args, invalid flags)
//   - 3: internal panic
//   - 4: nothing found (find-up, which)
//   - 5: lock held by someone else
//
// A command run by "fskit lock" passes its own exit status through.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitPanic        = 3
	ExitNotFound     = 4
	ExitLockBusy     = 5
)

var (
	errUsage    = errors.New("usage error")
	errNotFound = errors.New("not found")
	errLockBusy = errors.New("lock is held")
)

// ExitCodeForError maps an error returned by Execute to a process exit code.
func ExitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errUsage):
		return ExitUsageError
	case errors.Is(err, errNotFound):
		return ExitNotFound
	case errors.Is(err, errLockBusy), fskit.IsLockTimeout(err):
		return ExitLockBusy
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() > 0 {
		return ee.ExitCode()
	}
	return ExitGeneralError
}

var rootFlags struct {
	driver   string
	readOnly bool
	noColor  bool
	mounts   []string
}

var rootCmd = &cobra.Command{
	Use:   "fskit",
	Short: "Inspect and change files through an fskit provider",
	Long: `fskit runs filesystem operations through the same provider a program would
use, so behavior such as cross-device rename fallback, lock timeouts and
status classification can be checked from the shell.

The provider and its settings come from BEAVER_FSKIT_* environment variables;
--driver and --read-only override them.

Each --mount VIRTUAL=DIR maps a directory of the provider to a virtual path.
With at least one mount, every path argument is a virtual path and renames
between mounts take the copy fallback.

Any failing operation prints a diagnostic naming the operation, the path and
the error kind, then exits with status 1.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if rootFlags.noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.driver, "driver", "", "Provider to use (local, memory); overrides BEAVER_FSKIT_DRIVER")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.readOnly, "read-only", false, "Reject every mutating operation")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringArrayVar(&rootFlags.mounts, "mount", nil, "Mount a provider directory at a virtual path (VIRTUAL=DIR, repeatable)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
}

// openFilesystem builds the provider for cfg. Tests replace it to share one
// in-memory provider across invocations.
var openFilesystem = func(cfg *fskit.Config) (fskit.Filesystem, error) {
	return fskit.New(cfg)
}

// exit is what the fatal adapter calls after logging a failure.
var exit = os.Exit

// app is the per-invocation state of a command.
type app struct {
	cfg *fskit.Config
	raw fskit.Filesystem
	fs  *fskit.FatalFS
	out io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := fskit.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootFlags.driver != "" {
		cfg.Driver = rootFlags.driver
	}
	if rootFlags.readOnly {
		cfg.ReadOnly = true
	}

	fsys, err := openFilesystem(cfg)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	if len(rootFlags.mounts) > 0 {
		if fsys, err = mountFilesystem(cfg, fsys, rootFlags.mounts, logger); err != nil {
			return nil, err
		}
	}
	return &app{
		cfg: cfg,
		raw: fsys,
		fs:  fskit.Fatal(fsys, fskit.WithFatalLogger(logger), fskit.WithExitFunc(exit)),
		out: cmd.OutOrStdout(),
	}, nil
}

// mountFilesystem places fsys behind a MountFS built from VIRTUAL=DIR specs.
func mountFilesystem(cfg *fskit.Config, fsys fskit.Filesystem, specs []string, logger *slog.Logger) (*fskit.MountFS, error) {
	m := fskit.NewMountFS(cfg.Options(logger)...)
	for _, spec := range specs {
		virt, dir, ok := strings.Cut(spec, "=")
		if !ok || virt == "" || dir == "" {
			return nil, fmt.Errorf("%w: --mount %q: want VIRTUAL=DIR", errUsage, spec)
		}
		root, err := fskit.FromUTF8([]byte(dir))
		if err != nil {
			return nil, fmt.Errorf("%w: --mount %q: %v", errUsage, spec, err)
		}
		if err := m.Mount(virt, fsys, root); err != nil {
			return nil, fmt.Errorf("%w: --mount %q: %v", errUsage, spec, err)
		}
	}
	return m, nil
}

// pathArgs validates command line arguments as paths.
func pathArgs(args []string) ([]fskit.Path, error) {
	paths := make([]fskit.Path, 0, len(args))
	for _, a := range args {
		p, err := fskit.FromUTF8([]byte(a))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// usageArgs wraps a cobra argument validator so its failures map to
// ExitUsageError.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

var (
	dirColor     = color.New(color.FgBlue, color.Bold)
	linkColor    = color.New(color.FgCyan)
	missingColor = color.New(color.FgRed)
	oddColor     = color.New(color.FgYellow)
)

// formatStatus renders st with its type colored.
func formatStatus(st fskit.FileStatus) string {
	name := st.Type().String()
	switch {
	case st.IsDirectory():
		name = dirColor.Sprint(name)
	case st.IsSymlink():
		name = linkColor.Sprint(name)
	case st.Type() == fskit.NotFound:
		name = missingColor.Sprint(name)
	case st.Exists() && !st.IsRegularFile():
		name = oddColor.Sprint(name)
	}
	if st.Permissions() == fskit.PermsUnknown {
		return name
	}
	return name + " " + st.Permissions().String()
}
