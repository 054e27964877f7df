//go:build !windows

package local

import (
	"io/fs"

	"github.com/gobeaver/fskit"
)

func statusOf(fi fs.FileInfo, _ bool) fskit.FileStatus {
	return fskit.StatusFromFileInfo(fi)
}
