// Package batch evaluates files of [subject formula] lines concurrently.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sigilante/pinochle"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one line of a batch file.
type Job struct {
	File    string
	Line    int
	Subject pinochle.Noun
	Formula pinochle.Noun
}

type Result struct {
	Job
	Value   pinochle.Noun // nil when Err is set
	Err     error         // a crash or budget error; never a file error
	Elapsed time.Duration
}

func (me Result) String() string {
	if me.Err != nil {
		return fmt.Sprintf("%s:%d: error: %v", me.File, me.Line, me.Err)
	}
	return fmt.Sprintf("%s:%d: %s", me.File, me.Line, pinochle.Pretty(me.Value))
}

// ParseFile reads one [subject formula] or .*(subject formula) per line.
// Blank lines and :: comment lines are skipped.
func ParseFile(r io.Reader) ([]Job, error) {
	var jobs []Job
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "::") {
			continue
		}
		if inner, ok := strings.CutPrefix(text, ".*("); ok {
			inner, ok = strings.CutSuffix(inner, ")")
			if !ok {
				return nil, fmt.Errorf("line %d: unclosed .*(", line)
			}
			text = "[" + inner + "]"
		}
		n, err := pinochle.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cell, ok := n.(*pinochle.NounCell)
		if !ok {
			return nil, fmt.Errorf("line %d: want [subject formula], got atom %s", line, n)
		}
		jobs = append(jobs, Job{Line: line, Subject: cell.Head, Formula: cell.Tail})
	}
	return jobs, sc.Err()
}

// Runner evaluates batch files with at most Workers evaluations in flight.
type Runner struct {
	Interp  *pinochle.Interp
	Workers int
	Log     *zap.Logger

	// Settle is how long Watch waits for writes to a file to stop; 0 means 50ms.
	Settle time.Duration
}

func (me *Runner) log() *zap.Logger {
	if me.Log == nil {
		return zap.NewNop()
	}
	return me.Log
}

// Run parses every file, then evaluates every job. Results follow file order,
// then line order. A file that cannot be read or parsed fails the whole run;
// a job that crashes only fails its own Result.
func (me *Runner) Run(ctx context.Context, files []string) ([]Result, error) {
	perfile := make([][]Job, len(files))
	var reads errgroup.Group
	for i, name := range files {
		reads.Go(func() error {
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()
			jobs, err := ParseFile(f)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			for j := range jobs {
				jobs[j].File = name
			}
			perfile[i] = jobs
			return nil
		})
	}
	if err := reads.Wait(); err != nil {
		return nil, err
	}

	var jobs []Job
	for _, js := range perfile {
		jobs = append(jobs, js...)
	}
	results := make([]Result, len(jobs))
	interp := me.Interp
	if interp == nil {
		interp = &pinochle.Interp{}
	}
	workers := max(me.Workers, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			v, err := interp.Eval(gctx, job.Subject, job.Formula)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			results[i] = Result{Job: job, Value: v, Err: err, Elapsed: time.Since(start)}
			if err != nil {
				me.log().Debug("job failed", zap.String("file", job.File), zap.Int("line", job.Line), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	me.log().Info("batch done", zap.Int("files", len(files)), zap.Int("jobs", len(jobs)), zap.Int("workers", workers))
	return results, nil
}
