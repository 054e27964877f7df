package fskit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PreferredSeparator is the platform's preferred path separator.
const PreferredSeparator = filepath.Separator

// InvalidCharacters lists the characters that cannot appear in a path
// component on at least one supported platform.
const InvalidCharacters = `\/:*?"<>|`

// Path is a platform-native filesystem location.
//
// A Path holds the native string form unchanged: converting a valid UTF-8
// string to a Path and back yields the same string. Paths built from bytes
// that are not valid UTF-8 are rejected by FromUTF8; Paths created with a
// plain conversion (Path(s)) carry whatever bytes they were given and are not
// guaranteed to round-trip through UTF8.
type Path string

// FromUTF8 converts an externally supplied UTF-8 byte sequence into a Path.
// Malformed UTF-8 and embedded NUL bytes are rejected with ErrInvalidArgument.
func FromUTF8(b []byte) (Path, error) {
	if !utf8.Valid(b) {
		return "", &PathError{Op: "frombytes", Path: fmt.Sprintf("%q", b), Kind: KindInvalidArgument, Err: errInvalidUTF8}
	}
	if strings.IndexByte(string(b), 0) >= 0 {
		return "", &PathError{Op: "frombytes", Path: fmt.Sprintf("%q", b), Kind: KindInvalidArgument, Err: errEmbeddedNUL}
	}
	return Path(b), nil
}

// MustPath converts s to a Path, panicking if s is not a valid path string.
func MustPath(s string) Path {
	p, err := FromUTF8([]byte(s))
	if err != nil {
		panic(err)
	}
	return p
}

// UTF8 returns the platform-preferred textual form of p.
func (p Path) UTF8() string {
	return string(p)
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return string(p)
}

// Generic returns p with every separator rewritten to a forward slash. Use it
// for output that must be stable across platforms (logs, hashes).
func (p Path) Generic() string {
	return filepath.ToSlash(string(p))
}

// Native returns p with separators rewritten to PreferredSeparator.
func (p Path) Native() Path {
	return Path(filepath.FromSlash(string(p)))
}

// IsEmpty reports whether p is the empty path.
func (p Path) IsEmpty() bool {
	return p == ""
}

// IsAbs reports whether p is absolute.
func (p Path) IsAbs() bool {
	return filepath.IsAbs(string(p))
}

// Join appends elem to p with Combine semantics.
func (p Path) Join(elem ...string) Path {
	out := p
	for _, e := range elem {
		out = Combine(out, Path(e))
	}
	return out
}

// Base returns the last element of p.
func (p Path) Base() Path {
	return Path(filepath.Base(string(p)))
}

// Dir returns all but the last element of p.
func (p Path) Dir() Path {
	return Path(filepath.Dir(string(p)))
}

// Parent returns the parent of p, or the empty path if p has none. Unlike
// Dir it never returns "." for a single relative component, and it returns
// the empty path for a filesystem root.
func (p Path) Parent() Path {
	s := string(p)
	vol := filepath.VolumeName(s)
	rest := strings.TrimRight(s[len(vol):], separatorChars)
	if rest == "" {
		return ""
	}
	i := strings.LastIndexAny(rest, separatorChars)
	if i < 0 {
		if vol != "" {
			return Path(vol)
		}
		return ""
	}
	parent := strings.TrimRight(rest[:i], separatorChars)
	if parent == "" {
		return Path(vol + rest[:1])
	}
	return Path(vol + parent)
}

// Combine joins addition onto base. An absolute addition replaces base; an
// addition with its own volume name replaces base as well. A separator is
// inserted only when base does not already end in one. Unlike filepath.Join,
// Combine does not clean the result.
func Combine(base, addition Path) Path {
	if addition == "" {
		return base
	}
	if base == "" || addition.IsAbs() || filepath.VolumeName(string(addition)) != "" {
		return addition
	}
	if isSeparator(addition[0]) {
		// rooted but not absolute: keep base's volume
		return Path(filepath.VolumeName(string(base))) + addition
	}
	return Path(AddFilename(string(base), string(addition)))
}

// AddFilename appends file to base, inserting PreferredSeparator only when
// base does not already end in a separator.
func AddFilename(base, file string) string {
	if base == "" {
		return file
	}
	var sb strings.Builder
	sb.Grow(len(base) + 1 + len(file))
	sb.WriteString(base)
	if !isSeparator(base[len(base)-1]) {
		sb.WriteByte(PreferredSeparator)
	}
	sb.WriteString(file)
	return sb.String()
}

// HasInvalidChars reports whether s contains any of InvalidCharacters or a
// control character, making it unusable as a path component.
func HasInvalidChars(s string) bool {
	if strings.ContainsAny(s, InvalidCharacters) {
		return true
	}
	for _, r := range s {
		if r < 0x20 {
			return true
		}
	}
	return false
}

// PrintPaths writes each path in generic form, one per line.
func PrintPaths(w io.Writer, paths []Path) error {
	for _, p := range paths {
		if _, err := fmt.Fprintln(w, p.Generic()); err != nil {
			return err
		}
	}
	return nil
}

func isSeparator(c byte) bool {
	return os.IsPathSeparator(c)
}
