package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/observe-l/idspolar/fec"
)

func (a *app) encodeCmd() *cobra.Command {
	var (
		message string
		random  bool
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Attach the checksum to a message and polar encode it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dec, err := a.decoder()
			if err != nil {
				return err
			}
			var msg []uint8
			switch {
			case random:
				rng := rand.New(rand.NewSource(seed))
				msg = make([]uint8, dec.MessageLen())
				for i := range msg {
					msg[i] = uint8(rng.Intn(2))
				}
			case message != "":
				if msg, err = fec.ParseBits(message); err != nil {
					return err
				}
			default:
				return fmt.Errorf("either --message or --random is required (%d bits)", dec.MessageLen())
			}
			cw, err := dec.EncodeMessage(msg)
			if err != nil {
				return err
			}
			a.logger.Debug("encoded", "message", fec.FormatBits(msg), "n", len(cw))
			fmt.Fprintln(cmd.OutOrStdout(), fec.FormatBits(cw))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message bits, e.g. 0110...")
	cmd.Flags().BoolVar(&random, "random", false, "encode a random message")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for --random")
	return cmd
}

func (a *app) decodeCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "decode [observation bits...]",
		Short: "Decode received bit strings (arguments, or one per line on stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dec, err := a.decoder()
			if err != nil {
				return err
			}
			inputs := args
			if len(inputs) == 0 {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if line := strings.TrimSpace(sc.Text()); line != "" {
						inputs = append(inputs, line)
					}
				}
				if err := sc.Err(); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			for _, in := range inputs {
				obs, err := fec.ParseBits(in)
				if err != nil {
					return fmt.Errorf("observation %q: %w", in, err)
				}
				res := dec.Decode(obs)
				status := "unverified"
				if res.Verified {
					status = "verified"
				}
				fmt.Fprintf(out, "%s %s\n", fec.FormatBits(res.Message), status)
				if verbose {
					fmt.Fprintf(out, "  metric=%.4f survivors=%d valid=%d drift=%v\n",
						res.Metric, res.Survivors, res.Valid, res.Drift)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print metric, list and drift details")
	return cmd
}
