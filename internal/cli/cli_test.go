package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gobeaver/fskit"
	"github.com/gobeaver/fskit/driver/memory"
)

// exitCode is raised by the test exit hook in place of os.Exit.
type exitCode int

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(mem *memory.Adapter, args ...string) (stdout, stderr string, code int) {
	origOpen, origExit := openFilesystem, exit
	defer func() { openFilesystem, exit = origOpen, origExit }()
	openFilesystem = func(cfg *fskit.Config) (fskit.Filesystem, error) {
		if cfg.ReadOnly {
			return fskit.NewReadOnlyFileSystem(mem), nil
		}
		return mem, nil
	}
	exit = func(c int) { panic(exitCode(c)) }

	resetFlags(rootCmd)
	var out, errb bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errb)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
		stdout, stderr = out.String(), errb.String()
	}()
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(&errb, "error:", err)
	}
	return "", "", ExitCodeForError(err)
}

func newTree(t *testing.T) *memory.Adapter {
	t.Helper()
	mem := memory.New(fskit.WithLockTimeout(50 * time.Millisecond))
	if _, err := mem.CreateDirectories("/w/ports/zlib"); err != nil {
		t.Fatal(err)
	}
	for path, data := range map[fskit.Path]string{
		"/w/vcpkg.json":                "{}",
		"/w/README.md":                 "readme",
		"/w/ports/zlib/vcpkg.json":     `{"name":"zlib"}`,
		"/w/ports/zlib/portfile.cmake": "",
	} {
		if err := mem.WriteContents(path, data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mem.Symlink("/w/ports", "/w/overlay"); err != nil {
		t.Fatal(err)
	}
	return mem
}

func TestStat(t *testing.T) {
	mem := newTree(t)
	out, _, code := runCLI(mem, "stat", "/w/vcpkg.json", "/w/ports", "/w/overlay", "/w/missing")
	if code != ExitSuccess {
		t.Fatalf("exit code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		"/w/vcpkg.json\tregular",
		"/w/ports\tdirectory",
		"/w/overlay\tsymlink",
		"/w/missing\tnot_found",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d: got %q, want prefix %q", i, lines[i], prefix)
		}
	}

	out, _, _ = runCLI(mem, "stat", "-L", "/w/overlay")
	if !strings.HasPrefix(out, "/w/overlay\tdirectory") {
		t.Errorf("stat -L should follow the link, got %q", out)
	}
}

func TestLs(t *testing.T) {
	mem := newTree(t)

	out, _, code := runCLI(mem, "ls", "-r", "--glob", "*.json", "/w")
	if code != ExitSuccess {
		t.Fatalf("exit code %d", code)
	}
	got := strings.Fields(out)
	if len(got) != 2 || !contains(got, "/w/vcpkg.json") || !contains(got, "/w/ports/zlib/vcpkg.json") {
		t.Errorf("ls -r --glob *.json: got %v", got)
	}

	out, _, _ = runCLI(mem, "ls", "--dirs", "/w")
	if strings.TrimSpace(out) != "/w/ports" {
		t.Errorf("ls --dirs: got %q", out)
	}

	_, _, code = runCLI(mem, "ls", "--files", "--dirs", "/w")
	if code != ExitUsageError {
		t.Errorf("conflicting filters: exit code %d, want %d", code, ExitUsageError)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestCatFailureIsFatal(t *testing.T) {
	mem := newTree(t)

	out, _, code := runCLI(mem, "cat", "/w/README.md")
	if code != ExitSuccess || out != "readme" {
		t.Fatalf("cat: code %d, output %q", code, out)
	}

	_, stderr, code := runCLI(mem, "cat", "/w/missing.txt")
	if code != ExitGeneralError {
		t.Errorf("exit code %d, want %d", code, ExitGeneralError)
	}
	for _, want := range []string{"op=read_contents", "kind=not_found", "location="} {
		if !strings.Contains(stderr, want) {
			t.Errorf("diagnostic missing %q:\n%s", want, stderr)
		}
	}
}

func TestMvAcrossVolumes(t *testing.T) {
	mem := newTree(t)
	mem.AddVolume("/mnt")
	if _, err := mem.CreateDirectory("/mnt"); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := runCLI(mem, "mv", "/w/ports", "/mnt/ports")
	if code != ExitSuccess {
		t.Fatalf("exit code %d:\n%s", code, stderr)
	}
	got, err := mem.ReadContents("/mnt/ports/zlib/vcpkg.json")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"name":"zlib"}` {
		t.Errorf("moved contents: %q", got)
	}
	for _, gone := range []fskit.Path{"/w/ports", "/mnt/ports.tmp"} {
		if ok, _ := mem.Exists(gone); ok {
			t.Errorf("%s should not exist", gone)
		}
	}
}

func TestMountFlag(t *testing.T) {
	mem := newTree(t)
	if _, err := mem.CreateDirectories("/cache"); err != nil {
		t.Fatal(err)
	}
	mounts := []string{"--mount", "/src=/w/ports", "--mount", "/dst=/cache"}

	stdout, stderr, code := runCLI(mem, append(mounts, "ls", "/")...)
	if code != ExitSuccess {
		t.Fatalf("exit code %d:\n%s", code, stderr)
	}
	if stdout != "/dst\n/src\n" {
		t.Errorf("ls /: %q", stdout)
	}

	// One provider behind two mounts still takes the copy fallback.
	_, stderr, code = runCLI(mem, append(mounts, "mv", "/src/zlib", "/dst/zlib")...)
	if code != ExitSuccess {
		t.Fatalf("exit code %d:\n%s", code, stderr)
	}
	if ok, _ := mem.Exists("/cache/zlib/portfile.cmake"); !ok {
		t.Error("zlib was not moved into /cache")
	}
	if ok, _ := mem.Exists("/w/ports/zlib"); ok {
		t.Error("source still exists")
	}

	if _, _, code := runCLI(mem, "--mount", "nodir", "ls", "/"); code != ExitUsageError {
		t.Errorf("malformed --mount: exit code %d", code)
	}
}

func TestRm(t *testing.T) {
	mem := newTree(t)

	if _, _, code := runCLI(mem, "rm", "/w/ports"); code != ExitGeneralError {
		t.Errorf("rm of a non-empty directory: exit code %d", code)
	}
	if _, _, code := runCLI(mem, "rm", "/w/missing"); code != ExitGeneralError {
		t.Errorf("rm of a missing file: exit code %d", code)
	}
	if _, _, code := runCLI(mem, "rm", "-f", "/w/missing"); code != ExitSuccess {
		t.Errorf("rm -f of a missing file: exit code %d", code)
	}

	if _, _, code := runCLI(mem, "rm", "--inside", "/w/ports"); code != ExitSuccess {
		t.Fatalf("rm --inside: exit code %d", code)
	}
	if empty, _ := mem.IsEmpty("/w/ports"); !empty {
		t.Error("rm --inside left entries behind")
	}

	if _, _, code := runCLI(mem, "rm", "-r", "/w"); code != ExitSuccess {
		t.Fatalf("rm -r: exit code %d", code)
	}
	if ok, _ := mem.Exists("/w"); ok {
		t.Error("rm -r left the tree behind")
	}
}

func TestCpAndMkdir(t *testing.T) {
	mem := newTree(t)

	if _, _, code := runCLI(mem, "mkdir", "/w/out"); code != ExitSuccess {
		t.Fatalf("mkdir: exit code %d", code)
	}
	if _, _, code := runCLI(mem, "mkdir", "/w/out"); code != ExitGeneralError {
		t.Errorf("mkdir of an existing directory: exit code %d", code)
	}
	if _, _, code := runCLI(mem, "mkdir", "-p", "/w/out/a/b"); code != ExitSuccess {
		t.Errorf("mkdir -p: exit code %d", code)
	}

	if _, _, code := runCLI(mem, "cp", "-r", "-P", "/w/ports", "/w/out/ports"); code != ExitSuccess {
		t.Fatalf("cp -r: exit code %d", code)
	}
	if ok, _ := mem.IsRegularFile("/w/out/ports/zlib/portfile.cmake"); !ok {
		t.Error("cp -r did not copy nested files")
	}

	_, stderr, code := runCLI(mem, "cp", "--overwrite", "skip", "/w/README.md", "/w/vcpkg.json")
	if code != ExitSuccess || !strings.Contains(stderr, "skipped") {
		t.Errorf("cp --overwrite skip: code %d, stderr %q", code, stderr)
	}
	if got, _ := mem.ReadContents("/w/vcpkg.json"); got != "{}" {
		t.Errorf("skipped copy changed the destination: %q", got)
	}

	if _, _, code := runCLI(mem, "cp", "/w/README.md", "/w/vcpkg.json"); code != ExitGeneralError {
		t.Errorf("cp onto an existing file without a policy: exit code %d", code)
	}
	if _, _, code := runCLI(mem, "cp", "--overwrite", "sometimes", "/w/README.md", "/w/x"); code != ExitUsageError {
		t.Errorf("unknown policy: exit code %d", code)
	}
}

func TestFindUpAndWhich(t *testing.T) {
	mem := newTree(t)

	out, _, code := runCLI(mem, "find-up", "--from", "/w/ports/zlib", "README.md")
	if code != ExitSuccess || strings.TrimSpace(out) != "/w/README.md" {
		t.Errorf("find-up: code %d, output %q", code, out)
	}
	if _, _, code := runCLI(mem, "find-up", "--from", "/w/ports/zlib", "CMakeLists.txt"); code != ExitNotFound {
		t.Errorf("find-up of an absent file: exit code %d", code)
	}
	if _, _, code := runCLI(mem, "find-up", "a/b"); code != ExitUsageError {
		t.Errorf("find-up with a path: exit code %d", code)
	}

	if _, err := mem.CreateDirectories("/usr/bin"); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteContents("/usr/bin/cmake", ""); err != nil {
		t.Fatal(err)
	}
	mem.SetSearchPath("/w", "/usr/bin")
	out, _, code = runCLI(mem, "which", "cmake")
	if code != ExitSuccess || strings.TrimSpace(out) != "/usr/bin/cmake" {
		t.Errorf("which: code %d, output %q", code, out)
	}
	if _, _, code := runCLI(mem, "which", "ninja"); code != ExitNotFound {
		t.Errorf("which of a missing tool: exit code %d", code)
	}
}

func TestLock(t *testing.T) {
	mem := newTree(t)

	out, _, code := runCLI(mem, "lock", "/w/.lock")
	if code != ExitSuccess || !strings.Contains(out, "acquired") {
		t.Fatalf("lock: code %d, output %q", code, out)
	}

	h, err := mem.TakeExclusiveFileLock("/w/.lock")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, code := runCLI(mem, "lock", "/w/.lock"); code != ExitLockBusy {
		t.Errorf("lock while held: exit code %d, want %d", code, ExitLockBusy)
	}
	if err := mem.UnlockFileLock(h); err != nil {
		t.Fatal(err)
	}
	if _, _, code := runCLI(mem, "lock", "/w/.lock"); code != ExitSuccess {
		t.Errorf("lock after release: exit code %d", code)
	}
}

func TestSum(t *testing.T) {
	mem := memory.New()
	if err := mem.WriteContents("/hello", "hello"); err != nil {
		t.Fatal(err)
	}

	out, _, code := runCLI(mem, "sum", "--algorithm", "sha256", "/hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824  /hello\n"
	if code != ExitSuccess || out != want {
		t.Errorf("sum: code %d, output %q, want %q", code, out, want)
	}

	if _, _, code := runCLI(mem, "sum", "--algorithm", "md5", "/hello"); code != ExitUsageError {
		t.Errorf("unknown algorithm: exit code %d", code)
	}
	if _, _, code := runCLI(mem, "sum", "/missing"); code != ExitGeneralError {
		t.Errorf("sum of a missing file: exit code %d", code)
	}
}

func TestWatch(t *testing.T) {
	for name, global := range map[string][]string{
		"writable":  nil,
		"read-only": {"--read-only"},
	} {
		t.Run(name, func(t *testing.T) {
			mem := newTree(t)

			type result struct {
				out  string
				code int
			}
			done := make(chan result, 1)
			args := append(global, "watch", "-n", "1", "--glob", "*.json", "/w/ports")
			go func() {
				out, _, code := runCLI(mem, args...)
				done <- result{out, code}
			}()

			deadline := time.After(5 * time.Second)
			for {
				if err := mem.WriteContents("/w/ports/zlib/vcpkg.json", "{}"); err != nil {
					t.Fatal(err)
				}
				select {
				case r := <-done:
					if r.code != ExitSuccess || !strings.Contains(r.out, "changed /w/ports") {
						t.Errorf("watch: code %d, output %q", r.code, r.out)
					}
					return
				case <-deadline:
					t.Fatal("watch did not report the change")
				case <-time.After(10 * time.Millisecond):
				}
			}
		})
	}
}

func TestReadOnlyFlag(t *testing.T) {
	mem := newTree(t)

	_, stderr, code := runCLI(mem, "--read-only", "mkdir", "/w/new")
	if code != ExitGeneralError {
		t.Errorf("exit code %d, want %d", code, ExitGeneralError)
	}
	if !strings.Contains(stderr, "read-only") {
		t.Errorf("diagnostic should mention the read-only filesystem:\n%s", stderr)
	}
	if ok, _ := mem.Exists("/w/new"); ok {
		t.Error("directory was created through a read-only provider")
	}
}

func TestUsageErrors(t *testing.T) {
	mem := newTree(t)
	for _, args := range [][]string{
		{"stat"},
		{"mv", "/w/a"},
		{"ls", "--no-such-flag"},
		{"watch", "-n", "-1", "/w"},
	} {
		if _, _, code := runCLI(mem, args...); code != ExitUsageError {
			t.Errorf("%v: exit code %d, want %d", args, code, ExitUsageError)
		}
	}
}

func TestExitCodeForError(t *testing.T) {
	timeout := &fskit.PathError{Op: "try_take_exclusive_file_lock", Kind: fskit.KindLockTimeout, Err: fskit.ErrLockTimeout}
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{fmt.Errorf("%w: bad flag", errUsage), ExitUsageError},
		{fmt.Errorf("%w: cmake", errNotFound), ExitNotFound},
		{timeout, ExitLockBusy},
	}
	for _, tt := range tests {
		if got := ExitCodeForError(tt.err); got != tt.want {
			t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
