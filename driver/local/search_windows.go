//go:build windows

package local

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobeaver/fskit"
)

const defaultPathExt = ".COM;.EXE;.BAT;.CMD"

// searchNames expands name with every PATHEXT extension. A name that
// already carries one of them is also tried as given.
func searchNames(name string) []string {
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		pathext = defaultPathExt
	}
	var names []string
	ext := filepath.Ext(name)
	for _, e := range filepath.SplitList(pathext) {
		if e == "" {
			continue
		}
		if ext != "" && strings.EqualFold(ext, e) {
			names = append([]string{name}, names...)
			continue
		}
		names = append(names, name+strings.ToLower(e))
	}
	return names
}

func isExecutable(st fskit.FileStatus) bool {
	return st.IsRegularFile()
}
