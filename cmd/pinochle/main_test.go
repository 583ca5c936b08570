package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PINOCHLE_STORE", filepath.Join(dir, "test.db"))
	t.Setenv("PINOCHLE_LOG_LEVEL", "error")
	return runIn(t, filepath.Join(dir, "pinochle.yaml"), args...)
}

func runIn(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestEval(t *testing.T) {
	out, err := run(t, "eval", "41", "[4 0 1]")
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	out, err = run(t, "eval", "[[1 2] [3 4]]", "[0 5]")
	require.NoError(t, err)
	assert.Equal(t, "2", out)

	out, err = run(t, "eval", "--jam", "0", "[1 1 2]")
	require.NoError(t, err)
	assert.Equal(t, "0x1231", out)

	_, err = run(t, "eval", "[1 2]", "[4 0 1]")
	assert.ErrorContains(t, err, "crash")

	_, err = run(t, "eval", "--max-steps", "50", "[2 [0 1] [0 1]]", "[2 [0 1] [0 1]]")
	assert.ErrorContains(t, err, "step budget")

	_, err = run(t, "eval", "1")
	assert.Error(t, err)
}

func TestEvalFileAndHints(t *testing.T) {
	f := filepath.Join(t.TempDir(), "dec.nock")
	require.NoError(t, os.WriteFile(f, []byte(":: decrement 42\n[42 8 [1 0] 8 [1 6 [5 [0 7] 4 0 6] [0 6] 9 2 [0 2] [4 0 6] 0 7] 9 2 0 1]\n"), 0o644))
	out, err := run(t, "eval", "--file", f)
	require.NoError(t, err)
	assert.Equal(t, "41", out)

	out, err = run(t, "eval", "--hints", "7", "[11 [1 [1 42]] [4 0 1]]")
	require.NoError(t, err)
	assert.Equal(t, "hint 1 42\n8", out)
}

func TestCodecCommands(t *testing.T) {
	out, err := run(t, "jam", "[1 2]")
	require.NoError(t, err)
	assert.Equal(t, "0x1231", out)

	out, err = run(t, "cue", "0x1231")
	require.NoError(t, err)
	assert.Equal(t, "[1 2]", out)

	f := filepath.Join(t.TempDir(), "n.jam")
	_, err = run(t, "jam", "--out", f, "[[1 2] [1 2]]")
	require.NoError(t, err)
	out, err = run(t, "cue", "--in", f)
	require.NoError(t, err)
	assert.Equal(t, "[[1 2] 1 2]", out)

	_, err = run(t, "cue", "7")
	assert.ErrorContains(t, err, "cue")

	out, err = run(t, "mug", "[1 2]")
	require.NoError(t, err)
	assert.Regexp(t, `^0x[0-9a-f]+$`, out)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "jobs.nock")
	require.NoError(t, os.WriteFile(f, []byte("[41 4 0 1]\n.*([10 20] [0 3])\n"), 0o644))
	out, err := run(t, "batch", "-j", "2", f)
	require.NoError(t, err)
	assert.Equal(t, f+":1: 42\n"+f+":2: 20", out)

	require.NoError(t, os.WriteFile(f, []byte("[41 4 0 1]\n[[1 2] 4 0 1]\n"), 0o644))
	_, err = run(t, "batch", f)
	assert.ErrorContains(t, err, "1 of 2 jobs failed")
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PINOCHLE_STORE", filepath.Join(dir, "nouns.db"))
	t.Setenv("PINOCHLE_LOG_LEVEL", "error")
	cfg := filepath.Join(dir, "pinochle.yaml")

	_, err := runIn(t, cfg, "store", "put", "inc", "[4 0 1]")
	require.NoError(t, err)
	_, err = runIn(t, cfg, "store", "put", "pair", "[1 2]")
	require.NoError(t, err)

	out, err := runIn(t, cfg, "store", "get", "inc")
	require.NoError(t, err)
	assert.Equal(t, "[4 0 1]", out)

	out, err = runIn(t, cfg, "store", "list")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "inc "))
	assert.True(t, strings.HasPrefix(lines[1], "pair "))

	_, err = runIn(t, cfg, "store", "put", "cons", "[1 2]")
	require.NoError(t, err)
	out, err = runIn(t, cfg, "store", "find", "[1 2]")
	require.NoError(t, err)
	assert.Equal(t, "cons\npair", out)
	_, err = runIn(t, cfg, "store", "find", "[2 1]")
	assert.ErrorContains(t, err, "not found")
	_, err = runIn(t, cfg, "store", "rm", "cons")
	require.NoError(t, err)

	_, err = runIn(t, cfg, "store", "rm", "inc")
	require.NoError(t, err)
	_, err = runIn(t, cfg, "store", "get", "inc")
	assert.ErrorContains(t, err, "not found")

	t.Setenv("PINOCHLE_STORE", "")
	_, err = runIn(t, cfg, "store", "list")
	assert.ErrorContains(t, err, "no store path")
}

func TestBadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "pinochle.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("logging:\n  level: loud\n"), 0o644))
	t.Setenv("PINOCHLE_LOG_LEVEL", "")
	_, err := runIn(t, cfg, "mug", "0")
	assert.ErrorContains(t, err, "logging.level")
}
