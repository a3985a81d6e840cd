package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/observe-l/idspolar/fec"
	"github.com/observe-l/idspolar/internal/config"
)

// app carries the global flags and what is derived from them.
type app struct {
	profilePath string
	logLevel    string
	logFormat   string

	logger  *slog.Logger
	profile config.Profile
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "idspolar",
		Short: "Polar list decoding for insertion/deletion/substitution channels",
		Long: `idspolar encodes messages with a CRC-aided polar code and decodes
them after an insertion, deletion and substitution channel with a
drift-tracking successive-cancellation list decoder.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := newLogger(cmd.ErrOrStderr(), a.logLevel, a.logFormat)
			if err != nil {
				return err
			}
			a.logger = l
			p, err := config.Load(a.profilePath)
			if err != nil {
				return err
			}
			a.profile = p
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.profilePath, "profile", "", "YAML or JSON decoder profile (defaults when empty)")
	pf.StringVar(&a.logLevel, "log-level", "warn", "debug|info|warn|error")
	pf.StringVar(&a.logFormat, "log-format", "text", "text|json")

	root.AddCommand(
		a.profileCmd(),
		a.encodeCmd(),
		a.decodeCmd(),
		a.simulateCmd(),
		a.archiveCmd(),
	)
	return root
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// decoder builds the decoder of the active profile.
func (a *app) decoder() (*fec.Decoder, error) {
	cfg, err := a.profile.DecoderConfig()
	if err != nil {
		return nil, err
	}
	return fec.NewDecoder(cfg, a.decoderOptions()...)
}

func (a *app) decoderOptions() []fec.Option {
	return []fec.Option{fec.WithLogger(a.logger), fec.WithWorkers(a.profile.Decoder.Workers)}
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Print the resolved profile as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.profile.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
