package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/deltacomp/deltac/internal/config"
	"github.com/deltacomp/deltac/internal/fsio"
	"github.com/deltacomp/deltac/pkg/codec"
	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/diff"
	"github.com/deltacomp/deltac/pkg/digest"
	"github.com/deltacomp/deltac/pkg/inplace"
)

// EncodeCmd builds the "encode" subcommand.
func EncodeCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("encode", flag.ContinueOnError)
	seedLen := flags.Int("seed-len", cfg.SeedLen, "Seed length p")
	tableSize := flags.String("table-size", strconv.FormatUint(cfg.TableSize, 10), "Minimum lookup table size")
	maxTable := flags.String("max-table", "", "Upper bound on the --table-size floor, e.g. 256k, 4M, 1B (algorithms may still size tables above it)")
	inplaceFlag := flags.Bool("inplace", false, "Produce an in-place delta")
	policyFlag := flags.String("policy", cfg.Policy, "Cycle-breaking policy: localmin|constant")
	verbose := flags.Bool("verbose", false, "Print timing and size statistics")
	splay := flags.Bool("splay", false, "Use a splay tree instead of a hash table")
	minCopy := flags.Int("min-copy", 0, "Minimum match length accepted as a Copy (default: seed-len)")
	digestFlag := flags.String("digest", cfg.Digest, "Embed an integrity digest: none|shake128|crc64xz")

	return &Command{
		Flags: flags,
		Usage: "encode <algorithm> <ref> <ver> <delta> [opts]",
		Short: "Compute a delta between a reference and a version",
		Long: "Computes a delta D such that ver can be reconstructed from ref and D.\n" +
			"algorithm is one of: greedy, onepass, correcting.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 4 {
				return fmt.Errorf("usage: encode <algorithm> <ref> <ver> <delta> [opts]")
			}
			algorithm, refPath, verPath, deltaPath := args[0], args[1], args[2], args[3]

			qFloor, err := parseSize(*tableSize)
			if err != nil {
				return fmt.Errorf("--table-size: %w", err)
			}
			if *maxTable != "" {
				cap, err := parseSize(*maxTable)
				if err != nil {
					return fmt.Errorf("--max-table: %w", err)
				}
				if qFloor > cap {
					qFloor = cap
				}
			}

			policy, err := parsePolicy(*policyFlag)
			if err != nil {
				return err
			}
			digestKind, err := parseDigestKind(*digestFlag)
			if err != nil {
				return err
			}

			refMapped, err := fsio.OpenMapped(refPath)
			if err != nil {
				return err
			}
			defer func() { _ = refMapped.Close() }()

			verMapped, err := fsio.OpenMapped(verPath)
			if err != nil {
				return err
			}
			defer func() { _ = verMapped.Close() }()

			r := refMapped.Bytes()
			v := verMapped.Bytes()

			opts := diff.Options{
				SeedLen:   *seedLen,
				MinCopy:   *minCopy,
				TableSize: qFloor,
				UseSplay:  *splay,
			}

			start := time.Now()
			var cmds []command.Command
			switch algorithm {
			case "greedy":
				cmds = diff.Greedy(r, v, opts)
			case "onepass":
				cmds = diff.OnePass(r, v, opts)
			case "correcting":
				cmds = diff.Correcting(r, v, opts)
			default:
				return fmt.Errorf("unknown algorithm: %s (want greedy, onepass, or correcting)", algorithm)
			}
			diffElapsed := time.Since(start)

			var placed []command.PlacedCommand
			placeStart := time.Now()
			if *inplaceFlag {
				placed = inplace.Convert(cmds, r, policy)
			} else {
				placed = command.Place(cmds)
			}
			placeElapsed := time.Since(placeStart)

			encOpts := codec.EncodeOptions{Inplace: *inplaceFlag, DigestKind: digestKind, RBytes: r, VBytes: v}
			out := codec.Encode(placed, len(v), encOpts)

			if err := fsio.WriteAtomic(deltaPath, out); err != nil {
				return err
			}

			if *verbose {
				o.Printf("algorithm=%s inplace=%v commands=%d delta_size=%d ref_size=%d ver_size=%d\n",
					algorithm, *inplaceFlag, len(placed), len(out), len(r), len(v))
				o.Printf("diff_time=%s place_time=%s\n", diffElapsed, placeElapsed)
			}

			return nil
		},
	}
}

func parseSize(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	mult := uint64(1)
	suffix := s[len(s)-1]
	switch suffix {
	case 'k', 'K':
		mult = 1_000
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1_000_000
		s = s[:len(s)-1]
	case 'B':
		mult = 1_000_000_000
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}

func parsePolicy(s string) (inplace.Policy, error) {
	switch strings.ToLower(s) {
	case "", "localmin":
		return inplace.PolicyLocalMin, nil
	case "constant":
		return inplace.PolicyConstant, nil
	default:
		return 0, fmt.Errorf("--policy: unknown policy %q (want localmin or constant)", s)
	}
}

func parseDigestKind(s string) (digest.Kind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return digest.None, nil
	case "shake128":
		return digest.SHAKE128, nil
	case "crc64xz":
		return digest.CRC64XZ, nil
	default:
		return digest.None, fmt.Errorf("--digest: unknown kind %q (want none, shake128, or crc64xz)", s)
	}
}
