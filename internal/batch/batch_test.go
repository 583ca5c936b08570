package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sigilante/pinochle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func outputs(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		if r.Err != nil {
			out[i] = "error"
			continue
		}
		out[i] = pinochle.Pretty(r.Value)
	}
	return out
}

func TestParseFile(t *testing.T) {
	jobs, err := ParseFile(strings.NewReader(`:: increments
[41 4 0 1]

.*(42 [0 1])
[[1 2] [0 3]] :: tail
`))
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []int{2, 4, 5}, []int{jobs[0].Line, jobs[1].Line, jobs[2].Line})
	assert.Equal(t, "41", pinochle.Pretty(jobs[0].Subject))
	assert.Equal(t, "[4 0 1]", pinochle.Pretty(jobs[0].Formula))
	assert.Equal(t, "[0 1]", pinochle.Pretty(jobs[1].Formula))
	assert.Equal(t, "[1 2]", pinochle.Pretty(jobs[2].Subject))
}

func TestParseFileErrors(t *testing.T) {
	for _, src := range []string{"42\n", "[1 2\n", ".*(1 [0 1]\n", "\n\n[1 foo]\n"} {
		_, err := ParseFile(strings.NewReader(src))
		assert.Error(t, err, src)
	}
	_, err := ParseFile(strings.NewReader("\n\n[1 foo]\n"))
	assert.ErrorContains(t, err, "line 3")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.nock", "[41 4 0 1]\n[[1 2] 4 0 1]\n[[10 20] 0 3]\n")
	b := writeFile(t, dir, "b.nock", ".*(42 [8 [1 0] 8 [1 6 [5 [0 7] 4 0 6] [0 6] 9 2 [0 2] [4 0 6] 0 7] 9 2 0 1])\n")

	r := &Runner{Workers: 3, Log: zaptest.NewLogger(t)}
	results, err := r.Run(context.Background(), []string{a, b})
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"42", "error", "20", "41"}, outputs(results)); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	assert.True(t, errors.Is(results[1].Err, pinochle.ErrCrash))
	assert.Equal(t, a, results[1].File)
	assert.Equal(t, 2, results[1].Line)
	assert.Equal(t, b, results[3].File)
	assert.Contains(t, results[1].String(), "a.nock:2: error: crash")
	assert.Contains(t, results[0].String(), "a.nock:1: 42")
}

func TestRunBudgets(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "loop.nock", "[[2 [0 1] [0 1]] 2 [0 1] [0 1]]\n[1 4 0 1]\n")
	r := &Runner{Interp: &pinochle.Interp{MaxSteps: 500}, Workers: 2}
	results, err := r.Run(context.Background(), []string{f})
	require.NoError(t, err)
	assert.True(t, errors.Is(results[0].Err, pinochle.ErrStepBudget))
	assert.Equal(t, "2", pinochle.Pretty(results[1].Value))
}

func TestRunFileErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.nock", "[1 0 1]\n")
	bad := writeFile(t, dir, "bad.nock", "[1 0 1]\n[1\n")

	r := &Runner{Workers: 1}
	_, err := r.Run(context.Background(), []string{good, bad})
	assert.ErrorContains(t, err, "bad.nock: line 2")

	_, err = r.Run(context.Background(), []string{filepath.Join(dir, "missing.nock")})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "loop.nock", strings.Repeat("[[2 [0 1] [0 1]] 2 [0 1] [0 1]]\n", 4))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := (&Runner{Workers: 2}).Run(ctx, []string{f})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "w.nock", "[1 4 0 1]\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seen := make(chan []string, 16)
	done := make(chan error, 1)
	r := &Runner{Workers: 1, Settle: 10 * time.Millisecond, Log: zaptest.NewLogger(t)}
	go func() {
		done <- r.Watch(ctx, f, func(results []Result, err error) {
			if err != nil {
				seen <- []string{err.Error()}
				return
			}
			seen <- outputs(results)
		})
	}()

	select {
	case got := <-seen:
		assert.Equal(t, []string{"2"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial run")
	}

	require.NoError(t, os.WriteFile(f, []byte("[7 4 0 1]\n[7 0 1]\n"), 0o644))
	deadline := time.After(5 * time.Second)
	for changed := false; !changed; {
		select {
		case got := <-seen:
			changed = cmp.Equal([]string{"8", "7"}, got)
		case <-deadline:
			t.Fatal("no rerun after write")
		}
	}

	// unrelated files in the same directory do not trigger a run
	writeFile(t, dir, "other.nock", "[1 0 1]\n")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
