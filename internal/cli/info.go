package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/deltacomp/deltac/internal/config"
	"github.com/deltacomp/deltac/internal/fsio"
	"github.com/deltacomp/deltac/pkg/codec"
	"github.com/deltacomp/deltac/pkg/command"
)

// deltaSummary is the data info reports, independent of output format.
type deltaSummary struct {
	VersionSize int    `yaml:"version_size" json:"version_size"`
	Inplace     bool   `yaml:"inplace" json:"inplace"`
	Digest      string `yaml:"digest" json:"digest"`
	Commands    int    `yaml:"commands" json:"commands"`
	Copies      int    `yaml:"copies" json:"copies"`
	Adds        int    `yaml:"adds" json:"adds"`
	CopyBytes   int    `yaml:"copy_bytes" json:"copy_bytes"`
	AddBytes    int    `yaml:"add_bytes" json:"add_bytes"`
	DeltaSize   int    `yaml:"delta_size" json:"delta_size"`
}

// InfoCmd builds the "info" subcommand.
func InfoCmd(_ config.Config) *Command {
	flags := flag.NewFlagSet("info", flag.ContinueOnError)
	format := flags.String("format", "text", "Output format: text|json|yaml")

	return &Command{
		Flags: flags,
		Usage: "info <delta> [--format text|json|yaml]",
		Short: "Print a delta's header and summary statistics",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: info <delta> [--format text|json|yaml]")
			}

			data, err := fsio.ReadFile(args[0])
			if err != nil {
				return err
			}

			hdr, placed, err := codec.Decode(data)
			if err != nil {
				return err
			}

			summary := deltaSummary{
				VersionSize: int(hdr.VersionSize),
				Inplace:     hdr.Inplace,
				Digest:      hdr.DigestKind.String(),
				DeltaSize:   len(data),
			}
			for _, pc := range placed {
				switch c := pc.Cmd.(type) {
				case command.Copy:
					summary.Copies++
					summary.CopyBytes += c.Length
				case command.Add:
					summary.Adds++
					summary.AddBytes += len(c.Bytes)
				}
			}
			summary.Commands = len(placed)

			switch strings.ToLower(*format) {
			case "", "text":
				printTextSummary(o, summary)
			case "json":
				out, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal json: %w", err)
				}
				o.Printf("%s\n", out)
			case "yaml":
				out, err := yaml.Marshal(summary)
				if err != nil {
					return fmt.Errorf("marshal yaml: %w", err)
				}
				o.Printf("%s", out)
			default:
				return fmt.Errorf("--format: unknown format %q (want text, json, or yaml)", *format)
			}

			return nil
		},
	}
}

func printTextSummary(o *IO, s deltaSummary) {
	o.Printf("version_size: %d\n", s.VersionSize)
	o.Printf("inplace:      %v\n", s.Inplace)
	o.Printf("digest:       %s\n", s.Digest)
	o.Printf("commands:     %d (%d copy, %d add)\n", s.Commands, s.Copies, s.Adds)
	o.Printf("copy_bytes:   %d\n", s.CopyBytes)
	o.Printf("add_bytes:    %d\n", s.AddBytes)
	o.Printf("delta_size:   %d\n", s.DeltaSize)
}
