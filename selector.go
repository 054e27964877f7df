package fskit

import (
	"strings"

	"github.com/gobwas/glob"
)

// ============================================================================
// Selector Interface
// ============================================================================

// Selector filters entries during MatchFiles and ListWithSelector.
//
// Example usage:
//
//	sel := fskit.And(fskit.MustGlob("*.cmake"), fskit.Not(fskit.MustGlob("vcpkg-*")))
//	files, err := fskit.ListWithSelector(fsys, dir, sel, true)
type Selector interface {
	// Match reports whether the entry at path, whose path relative to the
	// listing root is rel (slash separated), belongs in the result.
	Match(rel string, st FileStatus) bool
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(rel string, st FileStatus) bool

func (f SelectorFunc) Match(rel string, st FileStatus) bool { return f(rel, st) }

// ListWithSelector lists the entries below dir that sel matches. With
// recursive set, subdirectories are descended (symlinks are not).
func ListWithSelector(fsys Reader, dir Path, sel Selector, recursive bool) ([]Path, error) {
	if sel == nil {
		sel = All()
	}
	var entries []Path
	var err error
	if recursive {
		entries, err = fsys.GetFilesRecursive(dir)
	} else {
		entries, err = fsys.GetFilesNonRecursive(dir)
	}
	if err != nil {
		return nil, err
	}

	prefix := Path(AddFilename(string(dir), "")).Generic()
	var out []Path
	for _, e := range entries {
		st, err := fsys.SymlinkStatus(e)
		if err != nil {
			return nil, err
		}
		rel := strings.TrimPrefix(e.Generic(), prefix)
		if sel.Match(rel, st) {
			out = append(out, e)
		}
	}
	return out, nil
}

// MatchFiles returns the regular files below dir whose relative path
// matches the glob pattern.
func MatchFiles(fsys Reader, dir Path, pattern string, recursive bool) ([]Path, error) {
	g, err := Glob(pattern)
	if err != nil {
		return nil, err
	}
	return ListWithSelector(fsys, dir, And(g, FilesOnly()), recursive)
}

// ============================================================================
// Built-in Selectors
// ============================================================================

// All matches every entry.
func All() Selector {
	return SelectorFunc(func(string, FileStatus) bool { return true })
}

// FilesOnly matches regular files.
func FilesOnly() Selector {
	return SelectorFunc(func(_ string, st FileStatus) bool { return st.IsRegularFile() })
}

// DirectoriesOnly matches directories.
func DirectoriesOnly() Selector {
	return SelectorFunc(func(_ string, st FileStatus) bool { return st.IsDirectory() })
}

// ============================================================================
// Glob
// ============================================================================

// Pattern is a compiled glob. A pattern without '/' matches the base name
// of an entry; a pattern with '/' matches the whole relative path, where
// '*' stops at '/' and '**' crosses it.
type Pattern struct {
	raw  string
	g    glob.Glob
	full bool
}

// Glob compiles pattern. Supports *, **, ?, [abc], [a-z] and {a,b}.
//
// Examples:
//
//	Glob("*.txt")              // any .txt file
//	Glob("ports/*/portfile.*") // portfile one level below ports/
//	Glob("**/CMakeLists.txt")  // at any depth
func Glob(pattern string) (*Pattern, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &PathError{Op: "glob", Path: pattern, Kind: KindInvalidArgument, Err: err}
	}
	return &Pattern{raw: pattern, g: g, full: strings.ContainsRune(pattern, '/')}, nil
}

// MustGlob is Glob that panics on a malformed pattern.
func MustGlob(pattern string) *Pattern {
	p, err := Glob(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// MatchString matches a slash-separated relative path.
func (p *Pattern) MatchString(rel string) bool {
	if !p.full {
		if i := strings.LastIndexByte(rel, '/'); i >= 0 {
			rel = rel[i+1:]
		}
	}
	return p.g.Match(rel)
}

func (p *Pattern) Match(rel string, _ FileStatus) bool {
	return p.MatchString(rel)
}

func (p *Pattern) String() string {
	return p.raw
}

// ============================================================================
// Composition
// ============================================================================

// And matches entries every selector matches.
func And(selectors ...Selector) Selector {
	return SelectorFunc(func(rel string, st FileStatus) bool {
		for _, s := range selectors {
			if !s.Match(rel, st) {
				return false
			}
		}
		return true
	})
}

// Or matches entries any selector matches.
func Or(selectors ...Selector) Selector {
	return SelectorFunc(func(rel string, st FileStatus) bool {
		for _, s := range selectors {
			if s.Match(rel, st) {
				return true
			}
		}
		return false
	})
}

// Not inverts selector.
func Not(selector Selector) Selector {
	return SelectorFunc(func(rel string, st FileStatus) bool {
		return !selector.Match(rel, st)
	})
}
