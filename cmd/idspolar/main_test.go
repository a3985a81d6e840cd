package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestProfileCommand(t *testing.T) {
	out := execute(t, "", "profile")
	require.Contains(t, out, "n: 128")
	require.Contains(t, out, "drift_mode: expectation")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := strings.Repeat("01101001", 6)
	cw := strings.TrimSpace(execute(t, "", "encode", "--message", msg))
	require.Len(t, cw, 128)

	out := execute(t, cw+"\n", "decode")
	require.Equal(t, msg+" verified\n", out)
}

func TestEncodeRejectsWrongLength(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"encode", "--message", "0101"})
	require.Error(t, cmd.Execute())
}

func TestSimulateNoiseless(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("channel:\n  p_insert: 0\n  p_delete: 0\n  p_subst: 0\n"), 0o644))

	out := execute(t, "", "--profile", profile, "simulate", "--runs", "5")
	require.Contains(t, out, "success:     5 (FER 0.0000)")
	require.Contains(t, out, "undetected:  0")
}

func TestArchiveRoundTrip(t *testing.T) {
	for _, asDNA := range []bool{false, true} {
		dir := t.TempDir()
		in := filepath.Join(dir, "in.bin")
		payload := bytes.Repeat([]byte("polar strands "), 7)
		require.NoError(t, os.WriteFile(in, payload, 0o644))

		args := []string{"archive", "encode", "--in", in, "--dir", filepath.Join(dir, "ar")}
		if asDNA {
			args = append(args, "--dna")
		}
		execute(t, "", args...)

		out := filepath.Join(dir, "out.bin")
		execute(t, "", "archive", "decode", "--dir", filepath.Join(dir, "ar"), "--out", out)
		got, err := os.ReadFile(out)
		require.NoError(t, err)
		require.Equal(t, payload, got)
	}
}
