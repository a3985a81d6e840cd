package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/observe-l/idspolar/internal/sim"
)

type simSummary struct {
	Runs       int
	Successes  int
	Verified   int
	Undetected int
	Elapsed    time.Duration
}

func (a *app) simulateCmd() *cobra.Command {
	var (
		runs int
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send random messages through the profile's IDS channel and decode them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runs <= 0 {
				return fmt.Errorf("--runs must be > 0")
			}
			dec, err := a.decoder()
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed))
			sc := a.profile.Channel
			sc.Alphabet = 2
			ch, err := sim.NewIDSChannel(sc, rng)
			if err != nil {
				return err
			}
			var s simSummary
			start := time.Now()
			msg := make([]uint8, dec.MessageLen())
			for r := 0; r < runs; r++ {
				for i := range msg {
					msg[i] = uint8(rng.Intn(2))
				}
				cw, err := dec.EncodeMessage(msg)
				if err != nil {
					return err
				}
				obs, drift := ch.Transmit(cw)
				res := dec.Decode(obs)
				ok := equalBits(res.Message, msg)
				s.Runs++
				if ok {
					s.Successes++
				}
				if res.Verified {
					s.Verified++
					if !ok {
						s.Undetected++
					}
				}
				if !ok {
					a.logger.Info("frame error",
						"run", r,
						"received", len(obs),
						"final_drift", drift[len(drift)-1],
						"verified", res.Verified,
					)
				}
			}
			s.Elapsed = time.Since(start)
			printSummary(cmd, s)
			return nil
		},
	}
	cmd.Flags().IntVarP(&runs, "runs", "n", 1000, "number of frames")
	cmd.Flags().Int64Var(&seed, "seed", 42, "channel and message seed")
	return cmd
}

func printSummary(cmd *cobra.Command, s simSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frames:      %d\n", s.Runs)
	fmt.Fprintf(out, "success:     %d (FER %.4f)\n", s.Successes, 1-float64(s.Successes)/float64(s.Runs))
	fmt.Fprintf(out, "verified:    %d\n", s.Verified)
	fmt.Fprintf(out, "undetected:  %d\n", s.Undetected)
	fmt.Fprintf(out, "avg decode:  %s\n", (s.Elapsed / time.Duration(s.Runs)).Round(time.Microsecond))
}

func equalBits(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
