// Package config loads decoder profiles: the code, the channel it is tuned
// for and the decoder knobs, from YAML (or JSON) files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/observe-l/idspolar/fec"
	"github.com/observe-l/idspolar/internal/sim"
)

// Frozen-set construction methods.
const (
	FrozenBEC         = "bec"
	FrozenReliability = "reliability"
	FrozenExplicit    = "explicit"
)

// Profile is the top-level configuration.
type Profile struct {
	Code    CodeConfig    `json:"code" yaml:"code"`
	Channel sim.Scenario  `json:"channel" yaml:"channel"`
	Decoder DecoderConfig `json:"decoder" yaml:"decoder"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// CodeConfig describes the polar code.
type CodeConfig struct {
	N        int `json:"n" yaml:"n"`
	K        int `json:"k" yaml:"k"`
	MaxDrift int `json:"max_drift" yaml:"max_drift"`
	// Polynomial is a coefficient string such as "111010101"; empty
	// disables the checksum.
	Polynomial string       `json:"polynomial" yaml:"polynomial"`
	Frozen     FrozenConfig `json:"frozen" yaml:"frozen"`
}

// FrozenConfig selects how the frozen positions are chosen.
type FrozenConfig struct {
	Method string `json:"method" yaml:"method"`
	// Erasure is the design erasure probability for the bec method.
	Erasure float64 `json:"erasure" yaml:"erasure"`
	// Table is a reliability table path for the reliability method.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
	// Positions are the frozen positions for the explicit method.
	Positions []int `json:"positions,omitempty" yaml:"positions,omitempty"`
}

// DecoderConfig holds the list decoder knobs.
type DecoderConfig struct {
	List      int    `json:"list" yaml:"list"`
	DriftMode string `json:"drift_mode" yaml:"drift_mode"`
	Seed      int64  `json:"seed" yaml:"seed"`
	Workers   int    `json:"workers" yaml:"workers"`
}

// ArchiveConfig holds the strand archive layout.
type ArchiveConfig struct {
	SymbolSize int `json:"symbol_size" yaml:"symbol_size"`
	Repair     int `json:"repair" yaml:"repair"`
}

// Default returns a 128-bit code with a CRC-8 and 56 information bits, which
// leaves room for a 16-bit strand id and 4-byte symbols.
func Default() Profile {
	return Profile{
		Code: CodeConfig{
			N:          128,
			K:          56,
			MaxDrift:   3,
			Polynomial: fec.CRC8.String(),
			Frozen:     FrozenConfig{Method: FrozenBEC, Erasure: 0.5},
		},
		Channel: sim.Scenario{PInsert: 0.005, PDelete: 0.005, PSubst: 0.01, Alphabet: 2},
		Decoder: DecoderConfig{List: 8, DriftMode: fec.DriftExpectation.String(), Seed: 1, Workers: 1},
		Archive: ArchiveConfig{SymbolSize: 4, Repair: 8},
	}
}

// Load reads a profile with priority env > file > defaults. An empty path
// yields the defaults.
func Load(path string) (Profile, error) {
	p := Default()
	if path != "" {
		if err := loadFile(path, &p); err != nil {
			return p, fmt.Errorf("load profile: %w", err)
		}
	}
	loadFromEnv(&p)
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

func loadFile(path string, p *Profile) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, p); err != nil {
		if jsonErr := json.Unmarshal(data, p); jsonErr != nil {
			return fmt.Errorf("parse profile (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadFromEnv(p *Profile) {
	if v := os.Getenv("IDSPOLAR_LIST"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			p.Decoder.List = i
		}
	}
	if v := os.Getenv("IDSPOLAR_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			p.Decoder.Workers = i
		}
	}
	if v := os.Getenv("IDSPOLAR_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.Decoder.Seed = i
		}
	}
	if v := os.Getenv("IDSPOLAR_DRIFT_MODE"); v != "" {
		p.Decoder.DriftMode = v
	}
}

// Validate checks the fields that fec and sim do not check themselves.
func (p Profile) Validate() error {
	switch strings.ToLower(p.Code.Frozen.Method) {
	case FrozenBEC, FrozenReliability, FrozenExplicit:
	default:
		return fmt.Errorf("frozen.method must be one of bec, reliability, explicit; got %q", p.Code.Frozen.Method)
	}
	if strings.EqualFold(p.Code.Frozen.Method, FrozenReliability) && p.Code.Frozen.Table == "" {
		return fmt.Errorf("frozen.table is required for the reliability method")
	}
	if p.Decoder.Workers < 0 {
		return fmt.Errorf("decoder.workers must be >= 0")
	}
	if _, err := fec.ParseDriftMode(p.Decoder.DriftMode); err != nil {
		return err
	}
	return p.Channel.Validate()
}

// FrozenPositions resolves the configured construction into frozen positions.
func (p Profile) FrozenPositions() ([]int, error) {
	c := p.Code
	var info []int
	var err error
	switch strings.ToLower(c.Frozen.Method) {
	case FrozenExplicit:
		return append([]int(nil), c.Frozen.Positions...), nil
	case FrozenReliability:
		var order []int
		if order, err = fec.LoadReliabilityTable(c.Frozen.Table); err != nil {
			return nil, err
		}
		info, err = fec.InfoSetFromReliability(order, c.N, c.K)
	default:
		info, err = fec.InfoSetBEC(c.N, c.K, c.Frozen.Erasure)
	}
	if err != nil {
		return nil, err
	}
	fs, err := fec.FrozenComplement(c.N, info)
	if err != nil {
		return nil, err
	}
	return fs.FrozenPositions(), nil
}

// DecoderConfig builds the fec configuration of the profile. The channel
// rates double as the decoder's channel model.
func (p Profile) DecoderConfig() (fec.Config, error) {
	mode, err := fec.ParseDriftMode(p.Decoder.DriftMode)
	if err != nil {
		return fec.Config{}, err
	}
	var poly fec.Polynomial
	if p.Code.Polynomial != "" {
		if poly, err = fec.ParsePolynomial(p.Code.Polynomial); err != nil {
			return fec.Config{}, err
		}
	}
	frozen, err := p.FrozenPositions()
	if err != nil {
		return fec.Config{}, err
	}
	return fec.Config{
		N:          p.Code.N,
		K:          p.Code.K,
		L:          p.Decoder.List,
		MaxDrift:   p.Code.MaxDrift,
		PInsert:    p.Channel.PInsert,
		PDelete:    p.Channel.PDelete,
		PSubst:     p.Channel.PSubst,
		Frozen:     frozen,
		Polynomial: poly,
		DriftMode:  mode,
		Seed:       p.Decoder.Seed,
	}, nil
}

// ArchiveParams builds the strand archive parameters of the profile.
func (p Profile) ArchiveParams() (fec.ArchiveParams, error) {
	cfg, err := p.DecoderConfig()
	if err != nil {
		return fec.ArchiveParams{}, err
	}
	return fec.ArchiveParams{Code: cfg, SymbolSize: p.Archive.SymbolSize, Repair: p.Archive.Repair}, nil
}

// Marshal renders the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
