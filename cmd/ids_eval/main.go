package main

import (
	"encoding/json"
	"flag"
	"fmt"
	mrand "math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/observe-l/idspolar/fec"
	"github.com/observe-l/idspolar/internal/sim"
	"github.com/observe-l/idspolar/internal/telemetry"
)

type config struct {
	N int
	K int
}

type resultKey struct {
	Mode string
	N    int
	K    int
	L    int
	Rate float64
}

type agg struct {
	Runs      int
	Successes int
	Verified  int
	// verified but wrong message
	Undetected int
	BitErrors  int
	Bits       int
	DecTotal   time.Duration
}

type allResults map[resultKey]*agg

type jsonRecord struct {
	Mode       string  `json:"drift_mode"`
	N          int     `json:"N"`
	K          int     `json:"K"`
	L          int     `json:"L"`
	Rate       float64 `json:"rate"`
	Runs       int     `json:"runs"`
	Successes  int     `json:"successes"`
	Verified   int     `json:"verified"`
	Undetected int     `json:"undetected"`
	BER        float64 `json:"ber"`
	DecMS      int64   `json:"dec_ms_total"`
}

func parseConfigs(s string) ([]config, error) {
	parts := strings.Split(s, ";")
	out := make([]config, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var a, b int
		if _, err := fmt.Sscanf(p, "%d,%d", &a, &b); err != nil {
			return nil, fmt.Errorf("bad config %q: %w", p, err)
		}
		out = append(out, config{N: a, K: b})
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var f float64
		if _, err := fmt.Sscanf(p, "%f", &f); err != nil {
			return nil, fmt.Errorf("bad rate %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var v int
		if _, err := fmt.Sscanf(p, "%d", &v); err != nil {
			return nil, fmt.Errorf("bad list size %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func main() {
	var (
		runs        = flag.Int("runs", 1000, "runs per (mode,config,list,rate)")
		cfgStr      = flag.String("configs", "64,40;128,72", "semicolon-separated list of N,K pairs")
		listStr     = flag.String("lists", "1,4,8", "comma-separated list sizes")
		rateStr     = flag.String("rates", "0.001,0.005,0.01", "comma-separated error rates; each applies to insertion, deletion and substitution")
		maxDrift    = flag.Int("max-drift", 3, "drift bound D tracked by the decoder")
		polyStr     = flag.String("poly", fec.CRC8.String(), "checksum polynomial, empty for none")
		which       = flag.String("drift-mode", "all", "expectation|sampled|all")
		eps         = flag.Float64("bec-eps", 0.5, "design erasure probability of the frozen set")
		outPath     = flag.String("out", "docs/reports/ids_eval_report.md", "output markdown report path")
		seed        = flag.Int64("seed", 42, "random seed")
		workers     = flag.Int("workers", 1, "goroutines per decode")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address while running, e.g. :9090")
	)
	flag.Parse()

	cfgs, err := parseConfigs(*cfgStr)
	if err != nil {
		fatalf("%v", err)
	}
	lists, err := parseInts(*listStr)
	if err != nil {
		fatalf("%v", err)
	}
	rates, err := parseFloats(*rateStr)
	if err != nil {
		fatalf("%v", err)
	}
	var poly fec.Polynomial
	if *polyStr != "" {
		if poly, err = fec.ParsePolynomial(*polyStr); err != nil {
			fatalf("%v", err)
		}
	}
	var modes []fec.DriftMode
	switch *which {
	case "all":
		modes = []fec.DriftMode{fec.DriftExpectation, fec.DriftSampled}
	default:
		m, err := fec.ParseDriftMode(*which)
		if err != nil {
			fatalf("%v", err)
		}
		modes = []fec.DriftMode{m}
	}

	runID := uuid.New()
	reg := prometheus.NewRegistry()
	observer := telemetry.NewPrometheusObserver(reg)
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	rng := mrand.New(mrand.NewSource(*seed))
	results := make(allResults)
	start := time.Now()

	for _, cfg := range cfgs {
		info, err := fec.InfoSetBEC(cfg.N, cfg.K, *eps)
		if err != nil {
			fatalf("config N=%d K=%d: %v", cfg.N, cfg.K, err)
		}
		fs, err := fec.FrozenComplement(cfg.N, info)
		if err != nil {
			fatalf("config N=%d K=%d: %v", cfg.N, cfg.K, err)
		}
		for _, mode := range modes {
			for _, L := range lists {
				for _, p := range rates {
					dec, err := fec.NewDecoder(fec.Config{
						N:          cfg.N,
						K:          cfg.K,
						L:          L,
						MaxDrift:   *maxDrift,
						PInsert:    p,
						PDelete:    p,
						PSubst:     p,
						Frozen:     fs.FrozenPositions(),
						Polynomial: poly,
						DriftMode:  mode,
						Seed:       *seed,
					}, fec.WithObserver(observer), fec.WithWorkers(*workers))
					if err != nil {
						fatalf("decoder N=%d K=%d L=%d p=%v: %v", cfg.N, cfg.K, L, p, err)
					}
					ch, err := sim.NewIDSChannel(sim.Scenario{PInsert: p, PDelete: p, PSubst: p}, rng)
					if err != nil {
						fatalf("channel p=%v: %v", p, err)
					}
					a := runPoint(dec, ch, rng, *runs)
					results[resultKey{Mode: mode.String(), N: cfg.N, K: cfg.K, L: L, Rate: p}] = a
					fmt.Printf("%-11s N=%-4d K=%-4d L=%-3d p=%.4f  FER=%.4f  verified=%d/%d\n",
						mode, cfg.N, cfg.K, L, p, 1-float64(a.Successes)/float64(a.Runs), a.Verified, a.Runs)
				}
			}
		}
	}

	mdPath := *outPath
	if err := ensureDir(mdPath); err != nil {
		fatalf("mkdir: %v", err)
	}
	jsonPath := strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".json"
	if err := writeJSON(jsonPath, runID, results); err != nil {
		fatalf("write json: %v", err)
	}
	if err := writeMarkdown(mdPath, runID, results, time.Since(start)); err != nil {
		fatalf("write md: %v", err)
	}
	fmt.Printf("Run %s\nReport written: %s\nJSON: %s\n", runID, mdPath, jsonPath)
}

func runPoint(dec *fec.Decoder, ch *sim.IDSChannel, rng *mrand.Rand, runs int) *agg {
	a := &agg{}
	msg := make([]uint8, dec.MessageLen())
	for r := 0; r < runs; r++ {
		for i := range msg {
			msg[i] = uint8(rng.Intn(2))
		}
		cw, err := dec.EncodeMessage(msg)
		if err != nil {
			fatalf("encode: %v", err)
		}
		obs, _ := ch.Transmit(cw)
		t0 := time.Now()
		res := dec.Decode(obs)
		a.DecTotal += time.Since(t0)
		a.Runs++
		errs := 0
		for i := range msg {
			if res.Message[i] != msg[i] {
				errs++
			}
		}
		a.BitErrors += errs
		a.Bits += len(msg)
		if res.Verified {
			a.Verified++
		}
		if errs == 0 {
			a.Successes++
		} else if res.Verified {
			a.Undetected++
		}
	}
	return a
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func sortedKeys(res allResults) []resultKey {
	keys := make([]resultKey, 0, len(res))
	for k := range res {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.N != b.N {
			return a.N < b.N
		}
		if a.K != b.K {
			return a.K < b.K
		}
		if a.Mode != b.Mode {
			return a.Mode < b.Mode
		}
		if a.L != b.L {
			return a.L < b.L
		}
		return a.Rate < b.Rate
	})
	return keys
}

func writeJSON(path string, runID uuid.UUID, res allResults) error {
	jf, err := os.Create(path)
	if err != nil {
		return err
	}
	defer jf.Close()
	recs := make([]jsonRecord, 0, len(res))
	for _, k := range sortedKeys(res) {
		v := res[k]
		ber := 0.0
		if v.Bits > 0 {
			ber = float64(v.BitErrors) / float64(v.Bits)
		}
		recs = append(recs, jsonRecord{
			Mode:       k.Mode,
			N:          k.N,
			K:          k.K,
			L:          k.L,
			Rate:       k.Rate,
			Runs:       v.Runs,
			Successes:  v.Successes,
			Verified:   v.Verified,
			Undetected: v.Undetected,
			BER:        ber,
			DecMS:      v.DecTotal.Milliseconds(),
		})
	}
	enc := json.NewEncoder(jf)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		RunID   string       `json:"run_id"`
		Records []jsonRecord `json:"records"`
	}{RunID: runID.String(), Records: recs})
}

func writeMarkdown(path string, runID uuid.UUID, res allResults, elapsed time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	type cfg struct{ N, K int }
	cfgSet := map[cfg]struct{}{}
	ratesSet := map[float64]struct{}{}
	for k := range res {
		cfgSet[cfg{N: k.N, K: k.K}] = struct{}{}
		ratesSet[k.Rate] = struct{}{}
	}
	cfgs := make([]cfg, 0, len(cfgSet))
	for c := range cfgSet {
		cfgs = append(cfgs, c)
	}
	sort.Slice(cfgs, func(i, j int) bool {
		if cfgs[i].N != cfgs[j].N {
			return cfgs[i].N < cfgs[j].N
		}
		return cfgs[i].K < cfgs[j].K
	})
	rates := make([]float64, 0, len(ratesSet))
	for r := range ratesSet {
		rates = append(rates, r)
	}
	sort.Float64s(rates)

	fmt.Fprintf(f, "# IDS Polar SCL Evaluation Report\n\n")
	fmt.Fprintf(f, "Run: `%s`  \nGenerated: %s  \nWall time: %s\n\n", runID, time.Now().Format(time.RFC3339), elapsed.Round(time.Millisecond))

	div := "|---|---|" + strings.Repeat("---:|", len(rates))
	for _, c := range cfgs {
		fmt.Fprintf(f, "## (N=%d, K=%d)\n\n", c.N, c.K)
		fmt.Fprintf(f, "### Frame Success Rate (%%)\n\n")
		fmt.Fprintf(f, "| Drift mode | L | %s |\n%s\n", joinRateHeaders(rates), div)
		for _, k := range sortedKeys(res) {
			if k.N != c.N || k.K != c.K || k.Rate != rates[0] {
				continue
			}
			fmt.Fprintf(f, "| %s | %d ", k.Mode, k.L)
			for _, r := range rates {
				a := res[resultKey{Mode: k.Mode, N: c.N, K: c.K, L: k.L, Rate: r}]
				if a == nil || a.Runs == 0 {
					fmt.Fprintf(f, "|  ")
					continue
				}
				fmt.Fprintf(f, "| %.2f ", 100*float64(a.Successes)/float64(a.Runs))
			}
			fmt.Fprintf(f, "|\n")
		}
		fmt.Fprintf(f, "\n### Undetected Errors / Avg Decode Time (ms)\n\n")
		fmt.Fprintf(f, "| Drift mode | L | %s |\n%s\n", joinRateHeaders(rates), div)
		for _, k := range sortedKeys(res) {
			if k.N != c.N || k.K != c.K || k.Rate != rates[0] {
				continue
			}
			fmt.Fprintf(f, "| %s | %d ", k.Mode, k.L)
			for _, r := range rates {
				a := res[resultKey{Mode: k.Mode, N: c.N, K: c.K, L: k.L, Rate: r}]
				if a == nil || a.Runs == 0 {
					fmt.Fprintf(f, "|  ")
					continue
				}
				avg := float64(a.DecTotal.Microseconds()) / 1000 / float64(a.Runs)
				fmt.Fprintf(f, "| %d / %.3f ", a.Undetected, avg)
			}
			fmt.Fprintf(f, "|\n")
		}
		fmt.Fprintf(f, "\n")
	}

	fmt.Fprintf(f, "---\n\n")
	fmt.Fprintf(f, "Notes:\n\n- Channel: i.i.d. insertion, deletion and substitution, each with probability p per symbol.\n- Frozen set: BEC Bhattacharyya construction; not optimized for IDS channels.\n- A frame succeeds when the decoded message equals the sent one; undetected errors passed the checksum with a wrong message.\n")
	return nil
}

func joinRateHeaders(rates []float64) string {
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = fmt.Sprintf("p=%.4f", r)
	}
	return strings.Join(parts, " | ")
}
