//go:build !windows

package local

import "github.com/gobeaver/fskit"

func searchNames(name string) []string {
	return []string{name}
}

func isExecutable(st fskit.FileStatus) bool {
	return st.IsRegularFile() && st.Permissions()&0o111 != 0
}
