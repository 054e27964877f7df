// Package fskit provides a cross-platform filesystem capability for build
// and package tooling: one operation set with one file-status model, in
// which symlinks, Windows junctions, advisory locks and cross-device moves
// behave the same on every OS.
//
// fskit follows interface segregation principles, providing separate
// interfaces for queries ([Reader]), mutation ([Writer]) and locking
// ([Locker]), combined in the full [Filesystem] interface. Code that only
// inspects a tree takes a Reader and cannot modify it.
//
// # Providers
//
//   - Local filesystem (github.com/gobeaver/fskit/driver/local)
//   - In-memory, for tests (github.com/gobeaver/fskit/driver/memory)
//
// There is no global instance. Build one at startup and pass it down:
//
//	fsys := local.New(fskit.WithLogger(logger))
//	installer := NewInstaller(fsys)
//
// or select the provider from the environment through the driver registry:
//
//	import _ "github.com/gobeaver/fskit/driver/local"
//
//	fsys, err := fskit.NewFromEnv() // BEAVER_FSKIT_DRIVER=local
//
// # Calling Conventions
//
// Every Filesystem method returns an error. Two adapters offer the other
// conventions over the same implementation:
//
//	// Abort with a diagnostic naming the caller's file and line.
//	ffs := fskit.Fatal(fsys)
//	text := ffs.ReadContents(manifest)
//
//	// Best-effort cleanup; failures are discarded.
//	fskit.IgnoreErrors(fsys).RemoveAll(scratch)
//
// # File Status
//
// [FileStatus] is resolved once by [StatusReader.Status] or
// [StatusReader.SymlinkStatus]; its predicates never touch the disk. The
// package deliberately has no status functions taking a raw path.
//
// # Locks
//
// Locks are advisory and per path. Prefer the scoped forms, which release on
// every exit path:
//
//	err := fskit.WithFileLock(fsys, root.Join(".vcpkg-root"), func() error {
//	    return install(fsys)
//	})
//
// # Optional Capabilities
//
// Providers may implement [Checksummer] and [Watcher]:
//
//	if w, ok := fsys.(fskit.Watcher); ok {
//	    token, err := w.Watch(ctx, portsDir, "*.json")
//	    ...
//	}
//
// # Mounts
//
// [MountFS] combines providers under one slash-rooted virtual namespace. Each
// mount acts as a separate device, so moves between mounts take the
// RenameOrCopy fallback:
//
//	mounts := fskit.NewMountFS()
//	mounts.Mount("/downloads", local.New(), "/var/cache/vcpkg")
//	mounts.Mount("/scratch", memory.New(), "/")
package fskit
