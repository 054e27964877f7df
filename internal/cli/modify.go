package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeaver/fskit"
)

var rmFlags struct {
	recursive bool
	inside    bool
	force     bool
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Remove files or directory trees",
	Long: `Remove each path. A directory must be empty unless --recursive is given.
Symlinks are removed, never followed.

--inside empties each directory but keeps it. When a recursive removal fails
the diagnostic names the first entry that could not be removed.

A missing path is an error unless --force is given.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pathArgs(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		for _, p := range paths {
			switch {
			case rmFlags.inside:
				a.fs.RemoveAllInside(p)
			case rmFlags.recursive:
				if !rmFlags.force && !a.fs.Exists(p) {
					return missing("rm", p)
				}
				a.fs.RemoveAll(p)
			default:
				if !a.fs.Remove(p) && !rmFlags.force {
					return missing("rm", p)
				}
			}
		}
		return nil
	},
}

func missing(op string, p fskit.Path) error {
	return &fskit.PathError{Op: op, Path: string(p), Kind: fskit.KindNotFound, Err: fskit.ErrNotExist}
}

var mvCmd = &cobra.Command{
	Use:   "mv <source> <destination>",
	Short: "Rename, copying across devices when needed",
	Long: `Rename source to destination, replacing a destination file. When the two
are on different devices the source is copied to destination plus the
configured temp suffix, verified, renamed into place and only then removed.`,
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pathArgs(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		a.fs.RenameOrCopy(paths[0], paths[1], a.cfg.TempSuffix)
		return nil
	},
}

var cpFlags struct {
	recursive bool
	overwrite string
	symlinks  bool
}

var overwritePolicies = map[string]fskit.OverwritePolicy{
	"none":      fskit.OverwriteNone,
	"skip":      fskit.OverwriteSkip,
	"overwrite": fskit.OverwriteExisting,
	"update":    fskit.OverwriteUpdate,
}

var cpCmd = &cobra.Command{
	Use:   "cp <source> <destination>",
	Short: "Copy a file or directory",
	Long: `Copy source to destination. Directories need --recursive to copy their
contents. --overwrite decides what happens to an existing destination file:
none (fail), skip, overwrite, or update (only if the source is newer).`,
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pathArgs(args)
		if err != nil {
			return err
		}
		policy, ok := overwritePolicies[cpFlags.overwrite]
		if !ok {
			return fmt.Errorf("%w: unknown overwrite policy %q", errUsage, cpFlags.overwrite)
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		opts := fskit.CopyOptions{
			Overwrite:    policy,
			Recursive:    cpFlags.recursive,
			CopySymlinks: cpFlags.symlinks,
		}
		src, dst := paths[0], paths[1]
		if a.fs.IsDirectory(src) {
			a.fs.Copy(src, dst, opts)
			return nil
		}
		if !a.fs.CopyFile(src, dst, opts) {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: destination kept\n", dst.Generic())
		}
		return nil
	},
}

var mkdirFlags struct {
	parents bool
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <dir>...",
	Short: "Create directories",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pathArgs(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if mkdirFlags.parents {
				a.fs.CreateDirectories(p)
				continue
			}
			if !a.fs.CreateDirectory(p) {
				return &fskit.PathError{Op: "mkdir", Path: string(p), Kind: fskit.KindAlreadyExists, Err: fskit.ErrExist}
			}
		}
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmFlags.recursive, "recursive", "r", false, "Remove directories and their contents")
	rmCmd.Flags().BoolVar(&rmFlags.inside, "inside", false, "Remove the contents of each directory but keep it")
	rmCmd.Flags().BoolVarP(&rmFlags.force, "force", "f", false, "Ignore missing paths")

	cpCmd.Flags().BoolVarP(&cpFlags.recursive, "recursive", "r", false, "Copy directory contents")
	cpCmd.Flags().StringVar(&cpFlags.overwrite, "overwrite", "none", "Existing destination policy (none, skip, overwrite, update)")
	cpCmd.Flags().BoolVarP(&cpFlags.symlinks, "no-dereference", "P", false, "Copy symlinks as links")

	mkdirCmd.Flags().BoolVarP(&mkdirFlags.parents, "parents", "p", false, "Create missing parents; an existing directory is not an error")

	rootCmd.AddCommand(rmCmd, mvCmd, cpCmd, mkdirCmd)
}
