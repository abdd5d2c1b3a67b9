package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/deltacomp/deltac/internal/config"
	"github.com/deltacomp/deltac/internal/fsio"
	"github.com/deltacomp/deltac/pkg/apply"
	"github.com/deltacomp/deltac/pkg/codec"
)

// DecodeCmd builds the "decode" subcommand.
func DecodeCmd(_ config.Config) *Command {
	flags := flag.NewFlagSet("decode", flag.ContinueOnError)
	ignoreHash := flags.Bool("ignore-hash", false, "Apply even if the embedded integrity digest fails")

	return &Command{
		Flags: flags,
		Usage: "decode <ref> <delta> <output> [--ignore-hash]",
		Short: "Reconstruct a version from a reference and a delta",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("usage: decode <ref> <delta> <output> [--ignore-hash]")
			}
			refPath, deltaPath, outPath := args[0], args[1], args[2]

			refMapped, err := fsio.OpenMapped(refPath)
			if err != nil {
				return err
			}
			defer func() { _ = refMapped.Close() }()
			r := refMapped.Bytes()

			deltaBytes, err := fsio.ReadFile(deltaPath)
			if err != nil {
				return err
			}

			hdr, placed, err := codec.Decode(deltaBytes)
			if err != nil {
				return err
			}

			if !*ignoreHash {
				if err := hdr.VerifyReferenceDigest(r); err != nil {
					return err
				}
			}

			var v []byte
			if hdr.Inplace {
				v, err = apply.InPlace(r, placed, int(hdr.VersionSize))
			} else {
				v, err = apply.Standard(r, placed, int(hdr.VersionSize))
			}
			if err != nil {
				return err
			}

			if !*ignoreHash {
				if err := hdr.VerifyVersionDigest(v); err != nil {
					return err
				}
			}

			return fsio.WriteAtomic(outPath, v)
		},
	}
}
