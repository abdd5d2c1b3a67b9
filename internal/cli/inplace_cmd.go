package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/deltacomp/deltac/internal/config"
	"github.com/deltacomp/deltac/internal/fsio"
	"github.com/deltacomp/deltac/pkg/codec"
	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/inplace"
)

// InplaceCmd builds the "inplace" subcommand: converts an already
// standard-encoded delta to an in-place delta against the same
// reference, without recomputing the differencing pass.
func InplaceCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("inplace", flag.ContinueOnError)
	policyFlag := flags.String("policy", cfg.Policy, "Cycle-breaking policy: localmin|constant")

	return &Command{
		Flags: flags,
		Usage: "inplace <ref> <delta_in> <delta_out> [--policy P]",
		Short: "Convert a standard delta to an in-place delta",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("usage: inplace <ref> <delta_in> <delta_out> [--policy P]")
			}
			refPath, deltaInPath, deltaOutPath := args[0], args[1], args[2]

			policy, err := parsePolicy(*policyFlag)
			if err != nil {
				return err
			}

			refMapped, err := fsio.OpenMapped(refPath)
			if err != nil {
				return err
			}
			defer func() { _ = refMapped.Close() }()
			r := refMapped.Bytes()

			deltaBytes, err := fsio.ReadFile(deltaInPath)
			if err != nil {
				return err
			}

			hdr, placed, err := codec.Decode(deltaBytes)
			if err != nil {
				return err
			}
			if hdr.Inplace {
				return fmt.Errorf("inplace: %s is already an in-place delta", deltaInPath)
			}

			cmds := command.Unplace(placed)
			newPlaced := inplace.Convert(cmds, r, policy)

			// R and the reconstructed V are unchanged by an in-place
			// conversion, so any embedded digest carries over unaltered
			// rather than being recomputed.
			out := codec.Encode(newPlaced, int(hdr.VersionSize), codec.EncodeOptions{
				Inplace:    true,
				DigestKind: hdr.DigestKind,
				RawRDigest: hdr.RDigest,
				RawVDigest: hdr.VDigest,
			})

			return fsio.WriteAtomic(deltaOutPath, out)
		},
	}
}
