package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

func colorize(writer io.Writer, color, line string) string {
	if !shouldColorize(writer) {
		return line
	}
	return color + line + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
