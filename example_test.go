package fskit_test

import (
	"errors"
	"fmt"
	"os"

	"github.com/gobeaver/fskit"
	"github.com/gobeaver/fskit/driver/memory"
)

func ExampleMountFS() {
	// Create a mount table
	mounts := fskit.NewMountFS()

	// Mount different providers under virtual paths
	downloads := memory.New() // Using memory for example; use local.New() in production
	buildtrees := memory.New()
	_, _ = downloads.CreateDirectories("/var/cache/vcpkg")

	_ = mounts.Mount("/downloads", downloads, "/var/cache/vcpkg")
	_ = mounts.Mount("/buildtrees", buildtrees, "/")

	// Write to different mounts transparently
	_ = mounts.WriteContents("/downloads/zlib.tar.gz", "archive")
	_ = mounts.WriteContents("/buildtrees/zlib.log", "log")

	entries, _ := mounts.GetFilesNonRecursive("/")
	_ = fskit.PrintPaths(os.Stdout, entries)

	data, _ := downloads.ReadContents("/var/cache/vcpkg/zlib.tar.gz")
	fmt.Println(data)
	// Output:
	// /buildtrees
	// /downloads
	// archive
}

func ExampleMountFS_RenameOrCopy() {
	mounts := fskit.NewMountFS()
	_ = mounts.Mount("/source", memory.New(), "/")
	_ = mounts.Mount("/dest", memory.New(), "/")

	_ = mounts.WriteContents("/source/data.txt", "important data")

	// Rename cannot cross mounts
	err := mounts.Rename("/source/data.txt", "/dest/data.txt")
	fmt.Println(errors.Is(err, fskit.ErrCrossDevice))

	// RenameOrCopy copies, verifies and then removes the source
	if err := mounts.RenameOrCopy("/source/data.txt", "/dest/data.txt", ".tmp"); err != nil {
		fmt.Println("Error:", err)
		return
	}
	data, _ := mounts.ReadContents("/dest/data.txt")
	gone, _ := mounts.Exists("/source/data.txt")
	fmt.Println(data, !gone)
	// Output:
	// true
	// important data true
}

func ExampleListWithSelector() {
	fs := memory.New()
	_, _ = fs.CreateDirectories("/ports/zlib")
	_ = fs.WriteContents("/ports/zlib/vcpkg.json", "{}")
	_ = fs.WriteContents("/ports/zlib/portfile.cmake", "")
	_ = fs.WriteContents("/ports/vcpkg.json", "{}")

	// List only manifests, at any depth
	files, _ := fskit.ListWithSelector(fs, "/ports", fskit.MustGlob("**/vcpkg.json"), true)
	_ = fskit.PrintPaths(os.Stdout, files)
	// Output:
	// /ports/zlib/vcpkg.json
}

func ExampleAnd() {
	fs := memory.New()
	_, _ = fs.CreateDirectories("/triplets/community")
	_ = fs.WriteContents("/triplets/x64-linux.cmake", "")
	_ = fs.WriteContents("/triplets/x64-windows.cmake", "")

	// Combine selectors: cmake files that are not for Windows
	selector := fskit.And(
		fskit.MustGlob("*.cmake"),
		fskit.Not(fskit.MustGlob("*windows*")),
		fskit.FilesOnly(),
	)
	files, _ := fskit.ListWithSelector(fs, "/triplets", selector, false)
	_ = fskit.PrintPaths(os.Stdout, files)
	// Output:
	// /triplets/x64-linux.cmake
}

func ExampleRemoveAll() {
	fs := memory.New()
	_, _ = fs.CreateDirectories("/buildtrees/zlib/src")
	_ = fs.WriteContents("/buildtrees/zlib/src/zlib.h", "")

	failurePoint, err := fs.RemoveAll("/buildtrees")
	exists, _ := fs.Exists("/buildtrees")
	fmt.Printf("%q %v %v\n", failurePoint, err, exists)
	// Output:
	// "" <nil> false
}

func ExampleWithFileLock() {
	fs := memory.New()
	_, _ = fs.CreateDirectories("/vcpkg")

	err := fskit.WithFileLock(fs, "/vcpkg/.vcpkg-root", func() error {
		// Held until fn returns, even if it panics
		return fs.WriteContents("/vcpkg/status", "installed")
	})
	fmt.Println(err)

	// The lock is free again
	lk, err := fskit.TryAcquireFileLock(fs, "/vcpkg/.vcpkg-root")
	fmt.Println(err)
	_ = lk.Release()
	// Output:
	// <nil>
	// <nil>
}

func ExampleCombine() {
	fmt.Println(fskit.Combine("/vcpkg", "ports"))
	fmt.Println(fskit.Combine("/vcpkg/", "ports"))
	// Output:
	// /vcpkg/ports
	// /vcpkg/ports
}

func ExampleIgnoreErrors() {
	fs := fskit.IgnoreErrors(memory.New())

	// Errors are discarded and the zero value returned
	fmt.Println(fs.Exists("/missing"))
	fmt.Println(fs.CreateDirectories("/a/b"))
	fmt.Println(fs.Status("/a/b").IsDirectory())
	// Output:
	// false
	// true
	// true
}
