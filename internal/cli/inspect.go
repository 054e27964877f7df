package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gobeaver/fskit"
)

var statFlags struct {
	follow bool
}

var statCmd = &cobra.Command{
	Use:   "stat <path>...",
	Short: "Print the type and permissions of each path",
	Long: `Print the type and permissions of each path without following a final
symlink. With --follow the link target is described instead.

A missing path is reported as not_found; that is not an error.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	paths, err := pathArgs(args)
	if err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	for _, p := range paths {
		var st fskit.FileStatus
		if statFlags.follow {
			st = a.fs.Status(p)
		} else {
			st = a.fs.SymlinkStatus(p)
		}
		fmt.Fprintf(a.out, "%s\t%s\n", p.Generic(), formatStatus(st))
	}
	return nil
}

var lsFlags struct {
	recursive bool
	pattern   string
	files     bool
	dirs      bool
}

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List the entries of a directory",
	Long: `List the entries of a directory, one path per line. The current directory
is listed when none is given.

--glob filters by a pattern matched against the path relative to dir: a
pattern without '/' matches the base name, '*' stops at '/' and '**' does not.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	paths, err := pathArgs(args)
	if err != nil {
		return err
	}
	if lsFlags.files && lsFlags.dirs {
		return fmt.Errorf("%w: --files and --dirs are mutually exclusive", errUsage)
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	dir := a.fs.CurrentPath()
	if len(paths) == 1 {
		dir = paths[0]
	}

	var sel []fskit.Selector
	if lsFlags.pattern != "" {
		g, err := fskit.Glob(lsFlags.pattern)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		sel = append(sel, g)
	}
	switch {
	case lsFlags.files:
		sel = append(sel, fskit.FilesOnly())
	case lsFlags.dirs:
		sel = append(sel, fskit.DirectoriesOnly())
	}

	entries, err := fskit.ListWithSelector(a.fs.Unwrap(), dir, fskit.And(sel...), lsFlags.recursive)
	if err != nil {
		return err
	}
	return fskit.PrintPaths(a.out, entries)
}

var catCmd = &cobra.Command{
	Use:   "cat <file>...",
	Short: "Print file contents",
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
			if _, err := io.WriteString(a.out, a.fs.ReadContents(p)); err != nil {
				return err
			}
		}
		return nil
	},
}

var findUpFlags struct {
	from string
}

var findUpCmd = &cobra.Command{
	Use:   "find-up <name>",
	Short: "Find a file in a directory or the nearest ancestor containing it",
	Long: `Look for name in --from (default: the current directory), then in each
parent up to the root, and print the first match.

Exits with status 4 when no directory contains the file.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("%w: %q must be a single file name", errUsage, name)
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		start := a.fs.CurrentPath()
		if findUpFlags.from != "" {
			from, err := pathArgs([]string{findUpFlags.from})
			if err != nil {
				return err
			}
			start = a.fs.Absolute(from[0])
		}
		found := a.fs.FindFileRecursivelyUp(start, name)
		if found == "" {
			return fmt.Errorf("%w: %s in %s or any parent", errNotFound, name, start.Generic())
		}
		fmt.Fprintln(a.out, found.Generic())
		return nil
	},
}

var whichFlags struct {
	all bool
}

var whichCmd = &cobra.Command{
	Use:   "which <name>",
	Short: "Locate an executable on PATH",
	Long: `Search the provider's executable search path for name and print the first
match, or every match with --all. On Windows the PATHEXT extensions are tried.

Exits with status 4 when nothing is found.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		found := a.fs.FindFromPath(args[0])
		if len(found) == 0 {
			return fmt.Errorf("%w: %s", errNotFound, args[0])
		}
		if !whichFlags.all {
			found = found[:1]
		}
		return fskit.PrintPaths(a.out, found)
	},
}

var sumFlags struct {
	algorithm string
}

var sumCmd = &cobra.Command{
	Use:   "sum <file>...",
	Short: "Print file checksums",
	Long: `Print "checksum  path" for each file. --algorithm selects xxhash (the
default), sha256 or crc32.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := pathArgs(args)
		if err != nil {
			return err
		}
		algo := fskit.ChecksumAlgorithm(sumFlags.algorithm)
		if _, err := fskit.NewHasher(algo); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		for _, p := range paths {
			sum, err := fskit.Checksum(a.raw, p, algo)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s  %s\n", sum, p.Generic())
		}
		return nil
	},
}

func init() {
	statCmd.Flags().BoolVarP(&statFlags.follow, "follow", "L", false, "Describe the target of a final symlink")

	lsCmd.Flags().BoolVarP(&lsFlags.recursive, "recursive", "r", false, "Descend into subdirectories (symlinks are not followed)")
	lsCmd.Flags().StringVar(&lsFlags.pattern, "glob", "", "Only list entries matching this pattern")
	lsCmd.Flags().BoolVar(&lsFlags.files, "files", false, "Only list regular files")
	lsCmd.Flags().BoolVar(&lsFlags.dirs, "dirs", false, "Only list directories")

	findUpCmd.Flags().StringVar(&findUpFlags.from, "from", "", "Directory to start from")

	whichCmd.Flags().BoolVarP(&whichFlags.all, "all", "a", false, "Print every match")

	sumCmd.Flags().StringVar(&sumFlags.algorithm, "algorithm", string(fskit.ChecksumXXHash), "Checksum algorithm (xxhash, sha256, crc32)")

	rootCmd.AddCommand(statCmd, lsCmd, catCmd, findUpCmd, whichCmd, sumCmd)
}
