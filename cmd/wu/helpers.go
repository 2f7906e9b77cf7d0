package main

import (
	"os"

	"github.com/mattn/go-isatty"
)

// stdoutIsTerminal reports whether table output may carry hyperlinks.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
