// dltsh is an interactive shell for experimenting with the differencing
// algorithms and inspecting delta files.
//
// Usage:
//
//	dltsh <ref-file>   Open a reference file
//
// Commands (in REPL):
//
//	diff <algo> <ver-file>       Compute a delta against the loaded reference and show stats
//	apply <delta-file> <out>     Reconstruct a version from a delta and write it
//	info <delta-file>            Print a delta's header and command summary
//	help                         Show this help
//	exit / quit / q              Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/deltacomp/deltac/internal/fsio"
	"github.com/deltacomp/deltac/pkg/apply"
	"github.com/deltacomp/deltac/pkg/codec"
	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/diff"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("missing reference file path")
	}

	refPath := os.Args[1]
	mapped, err := fsio.OpenMapped(refPath)
	if err != nil {
		return err
	}
	defer func() { _ = mapped.Close() }()

	repl := &REPL{refPath: refPath, ref: mapped.Bytes()}
	return repl.Run()
}

func printUsage() {
	fmt.Println("Usage: dltsh <ref-file>")
}

// REPL is the interactive command loop.
type REPL struct {
	refPath string
	ref     []byte
	liner   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dltsh_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Printf("dltsh - delta shell (ref=%s, %d bytes)\n", r.refPath, len(r.ref))
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("dltsh> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "diff":
			r.cmdDiff(args)
		case "apply":
			r.cmdApply(args)
		case "info":
			r.cmdInfo(args)
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = r.liner.WriteHistory(f)
		_ = f.Close()
	}
}

func (r *REPL) completer(line string) []string {
	cmds := []string{"diff", "apply", "info", "help", "exit", "quit"}
	var out []string
	for _, c := range cmds {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  diff <greedy|onepass|correcting> <ver-file>   Compute a delta and show stats")
	fmt.Println("  apply <delta-file> <out-file>                 Reconstruct a version from a delta")
	fmt.Println("  info <delta-file>                             Print a delta's header and summary")
	fmt.Println("  help                                           Show this help")
	fmt.Println("  exit / quit / q                                Exit")
}

func (r *REPL) cmdDiff(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: diff <algorithm> <ver-file>")
		return
	}
	algorithm, verPath := args[0], args[1]

	verMapped, err := fsio.OpenMapped(verPath)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer func() { _ = verMapped.Close() }()
	v := verMapped.Bytes()

	start := time.Now()
	var cmds []command.Command
	switch algorithm {
	case "greedy":
		cmds = diff.Greedy(r.ref, v, diff.Options{})
	case "onepass":
		cmds = diff.OnePass(r.ref, v, diff.Options{})
	case "correcting":
		cmds = diff.Correcting(r.ref, v, diff.Options{})
	default:
		fmt.Println("unknown algorithm:", algorithm)
		return
	}
	elapsed := time.Since(start)

	placed := command.Place(cmds)
	out := codec.Encode(placed, len(v), codec.EncodeOptions{})

	copies, adds := 0, 0
	for _, c := range cmds {
		switch c.(type) {
		case command.Copy:
			copies++
		case command.Add:
			adds++
		}
	}
	fmt.Printf("commands=%d (%d copy, %d add) delta_size=%d time=%s\n", len(cmds), copies, adds, len(out), elapsed)
}

func (r *REPL) cmdApply(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: apply <delta-file> <out-file>")
		return
	}
	deltaPath, outPath := args[0], args[1]

	data, err := fsio.ReadFile(deltaPath)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	hdr, placed, err := codec.Decode(data)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var v []byte
	if hdr.Inplace {
		v, err = apply.InPlace(r.ref, placed, int(hdr.VersionSize))
	} else {
		v, err = apply.Standard(r.ref, placed, int(hdr.VersionSize))
	}
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if err := fsio.WriteAtomic(outPath, v); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("wrote %d bytes to %s\n", len(v), outPath)
}

func (r *REPL) cmdInfo(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: info <delta-file>")
		return
	}
	data, err := fsio.ReadFile(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	hdr, placed, err := codec.Decode(data)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("version_size=%d inplace=%v digest=%s commands=%d\n", hdr.VersionSize, hdr.Inplace, hdr.DigestKind, len(placed))
}
