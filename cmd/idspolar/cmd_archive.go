package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/observe-l/idspolar/fec"
	"github.com/observe-l/idspolar/internal/dna"
	"github.com/observe-l/idspolar/internal/fecwire"
	"github.com/observe-l/idspolar/internal/sim"
)

const (
	strandsFile  = "strands.txt"
	manifestFile = "manifest.bin"
)

func (a *app) archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Spread a file over polar-coded strands with an outer RaptorQ code",
	}
	cmd.AddCommand(a.archiveEncodeCmd(), a.archiveDecodeCmd(), a.archiveCorruptCmd())
	return cmd
}

func (a *app) archive() (*fec.Archive, error) {
	p, err := a.profile.ArchiveParams()
	if err != nil {
		return nil, err
	}
	return fec.NewArchive(p, a.decoderOptions()...)
}

func (a *app) archiveEncodeCmd() *cobra.Command {
	var (
		in, dir string
		asDNA   bool
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write strands and a manifest for a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			ar, err := a.archive()
			if err != nil {
				return err
			}
			strands, layout, err := ar.Encode(payload)
			if err != nil {
				return err
			}
			m, err := fecwire.FromArchive(ar.Decoder().Config(), layout)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(dir, manifestFile), m.MarshalBinary(nil), 0o644); err != nil {
				return err
			}
			if err := writeStrands(filepath.Join(dir, strandsFile), strands, asDNA); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d bytes -> %d strands of %d bits (%d source symbols)\n",
				len(payload), len(strands), m.N, layout.SourceSymbols)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "input file")
	cmd.Flags().StringVarP(&dir, "dir", "d", "archive", "output directory")
	cmd.Flags().BoolVar(&asDNA, "dna", false, "write strands as bases (two bits per base)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) archiveDecodeCmd() *cobra.Command {
	var dir, out string
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Rebuild a file from (possibly corrupted) strands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
			if err != nil {
				return err
			}
			var m fecwire.Manifest
			if err := m.UnmarshalBinary(raw); err != nil {
				return err
			}
			ar, err := a.archive()
			if err != nil {
				return err
			}
			if cfg := ar.Decoder().Config(); cfg.N != int(m.N) || cfg.K != int(m.K) {
				return fmt.Errorf("profile code (%d,%d) does not match manifest (%d,%d)", cfg.N, cfg.K, m.N, m.K)
			}
			strands, err := readStrands(filepath.Join(dir, strandsFile))
			if err != nil {
				return err
			}
			payload, stats, err := ar.Decode(strands, m.Archive())
			fmt.Fprintf(cmd.OutOrStdout(), "strands=%d verified=%d used=%d duplicate=%d\n",
				stats.Strands, stats.Verified, stats.Used, stats.Duplicate)
			if err != nil {
				return err
			}
			return os.WriteFile(out, payload, 0o644)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "archive", "archive directory")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) archiveCorruptCmd() *cobra.Command {
	var (
		dir  string
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "corrupt",
		Short: "Pass the strands of an archive through the profile's IDS channel in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(dir, strandsFile)
			strands, err := readStrands(path)
			if err != nil {
				return err
			}
			asDNA, err := isDNAFile(path)
			if err != nil {
				return err
			}
			sc := a.profile.Channel
			rng := rand.New(rand.NewSource(seed))
			if asDNA {
				sc.Alphabet = 4
				ch, err := sim.NewIDSChannel(sc, rng)
				if err != nil {
					return err
				}
				strands, err = transmitBases(ch, strands)
				if err != nil {
					return err
				}
			} else {
				sc.Alphabet = 2
				ch, err := sim.NewIDSChannel(sc, rng)
				if err != nil {
					return err
				}
				strands = fec.TransmitAll(ch, strands)
			}
			if err := writeStrands(path, strands, asDNA); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "corrupted %d strands\n", len(strands))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "archive", "archive directory")
	cmd.Flags().Int64Var(&seed, "seed", 7, "channel seed")
	return cmd
}

// transmitBases corrupts strands at base level: insertions and deletions
// add or remove whole bit pairs.
func transmitBases(ch fec.Channel, strands [][]uint8) ([][]uint8, error) {
	out := make([][]uint8, len(strands))
	for i, s := range strands {
		seq, err := dna.FromBits(s)
		if err != nil {
			return nil, err
		}
		sym, err := dna.ToSymbols(seq)
		if err != nil {
			return nil, err
		}
		rx, _ := ch.Transmit(sym)
		seq, err = dna.FromSymbols(rx)
		if err != nil {
			return nil, err
		}
		if out[i], err = dna.ToBits(seq); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeStrands(path string, strands [][]uint8, asDNA bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, s := range strands {
		line := fec.FormatBits(s)
		if asDNA {
			if line, err = dna.FromBits(s); err != nil {
				f.Close()
				return err
			}
		}
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readStrands accepts bit strings or base strings, one strand per line.
// Empty lines are strands that were deleted entirely.
func readStrands(path string) ([][]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out [][]uint8
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<24)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		var bits []uint8
		if isBitString(text) {
			bits, err = fec.ParseBits(text)
		} else {
			bits, err = dna.ToBits(text)
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, bits)
	}
	return out, sc.Err()
}

func isBitString(s string) bool {
	return strings.Trim(s, "01") == ""
}

func isDNAFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<24)
	for sc.Scan() {
		if text := strings.TrimSpace(sc.Text()); text != "" {
			return !isBitString(text), nil
		}
	}
	return false, sc.Err()
}
