package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/observe-l/idspolar/fec"
)

func TestDefaultProfileBuildsArchive(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())

	ap, err := p.ArchiveParams()
	require.NoError(t, err)
	require.Len(t, ap.Code.Frozen, ap.Code.N-ap.Code.K)
	require.Equal(t, fec.CRC8, ap.Code.Polynomial)

	_, err = fec.NewArchive(ap)
	require.NoError(t, err)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	body := `
code:
  n: 8
  k: 4
  max_drift: 1
  polynomial: "1011"
  frozen:
    method: explicit
    positions: [0, 1, 2, 4]
channel:
  p_insert: 0.01
  p_delete: 0.02
  p_subst: 0.03
decoder:
  list: 4
  drift_mode: sampled
  seed: 42
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	cfg, err := p.DecoderConfig()
	require.NoError(t, err)
	require.Equal(t, 8, cfg.N)
	require.Equal(t, 4, cfg.L)
	require.Equal(t, []int{0, 1, 2, 4}, cfg.Frozen)
	require.Equal(t, fec.Polynomial{1, 0, 1, 1}, cfg.Polynomial)
	require.Equal(t, fec.DriftSampled, cfg.DriftMode)
	require.Equal(t, int64(42), cfg.Seed)
	require.InDelta(t, 0.02, cfg.PDelete, 1e-12)

	_, err = fec.NewDecoder(cfg)
	require.NoError(t, err)
}

func TestLoadJSONAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"decoder": {"list": 2, "drift_mode": "expectation"}}`), 0o644))
	t.Setenv("IDSPOLAR_LIST", "16")

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 16, p.Decoder.List)
	require.Equal(t, 128, p.Code.N)
}

func TestReliabilityTable(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "rel.txt")
	require.NoError(t, os.WriteFile(table, []byte("# idx rank\n0 0\n1 1\n2 2\n3 4\n"), 0o644))

	p := Default()
	p.Code = CodeConfig{N: 4, K: 2, Frozen: FrozenConfig{Method: FrozenReliability, Table: table}}
	frozen, err := p.FrozenPositions()
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, frozen)
}

func TestValidateRejects(t *testing.T) {
	p := Default()
	p.Code.Frozen.Method = "magic"
	require.Error(t, p.Validate())

	p = Default()
	p.Code.Frozen = FrozenConfig{Method: FrozenReliability}
	require.Error(t, p.Validate())

	p = Default()
	p.Decoder.DriftMode = "random"
	require.Error(t, p.Validate())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	p := Default()
	out, err := p.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))
	back, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, p, back)
}
