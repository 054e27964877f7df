//go:build windows

package fskit

import (
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// FixPathCase returns p with every existing component spelled the way it is
// stored on disk. NTFS is case-insensitive, so the OS otherwise echoes back
// whatever casing the caller used. The drive letter is upper-cased.
// Components from the first missing one onward are kept as supplied.
func FixPathCase(p Path) (Path, error) {
	if p == "" {
		return p, nil
	}
	s := filepath.Clean(string(p))
	vol := filepath.VolumeName(s)
	rest := s[len(vol):]

	var sb strings.Builder
	if len(vol) == 2 && vol[1] == ':' {
		sb.WriteString(strings.ToUpper(vol))
	} else {
		sb.WriteString(vol)
	}
	if strings.HasPrefix(rest, `\`) {
		sb.WriteByte('\\')
		rest = rest[1:]
	}

	parts := strings.Split(rest, `\`)
	for i, part := range parts {
		if part == "" {
			continue
		}
		prefix := sb.String()
		if prefix != "" && !strings.HasSuffix(prefix, `\`) && !strings.HasSuffix(prefix, ":") {
			sb.WriteByte('\\')
		}
		if part == "." || part == ".." || strings.ContainsAny(part, "*?") {
			sb.WriteString(part)
			continue
		}
		name, err := onDiskName(sb.String() + part)
		if errors.Is(err, windows.ERROR_FILE_NOT_FOUND) || errors.Is(err, windows.ERROR_PATH_NOT_FOUND) {
			sb.WriteString(strings.Join(parts[i:], `\`))
			break
		}
		if err != nil {
			return p, NewPathError("fix_path_case", p, err)
		}
		sb.WriteString(name)
	}
	return Path(sb.String()), nil
}

func onDiskName(path string) (string, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", err
	}
	var fd windows.Win32finddata
	h, err := windows.FindFirstFile(p, &fd)
	if err != nil {
		return "", err
	}
	_ = windows.FindClose(h)
	return windows.UTF16ToString(fd.FileName[:]), nil
}
