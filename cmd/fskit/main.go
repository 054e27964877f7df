package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/gobeaver/fskit/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(cli.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCodeForError(err))
	}
}
