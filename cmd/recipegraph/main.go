// Command recipegraph compiles and runs recipe graph documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

func main() {
	// Minimal logger until settings are loaded.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command line against the given writers.
func run(outW, errW io.Writer, args []string) error {
	root, a := newRootCmd(outW, errW)
	root.SetArgs(args)
	err := root.Execute()
	return errors.Join(err, a.teardown(context.Background()))
}
