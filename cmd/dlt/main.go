// Package main provides dlt, a differencing and in-place delta
// conversion tool implementing the Ajtai-Burns-Fagin-Long algorithms
// and the Burns-Long-Stockmeyer in-place transformation.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/deltacomp/deltac/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, os.Environ(), sigCh)

	os.Exit(exitCode)
}
