package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/peterh/liner"
	"github.com/sigilante/pinochle/internal/config"
	"go.uber.org/zap"
)

const banner = `Nock 4K shell. :help lists commands, :quit or ^D leaves.
`

// Run reads lines from the terminal until :quit, end of input or ctx is done.
// Errors from a line are printed and the session goes on.
func (me *Session) Run(ctx context.Context, cfg config.Shell, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(me.Complete)
	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprint(out, banner)
	for ctx.Err() == nil {
		input, err := line.Prompt(cfg.Prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		} else if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			break
		} else if err != nil {
			return fmt.Errorf("read line: %w", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		res, err := me.Exec(ctx, input)
		if errors.Is(err, ErrQuit) {
			break
		}
		fmt.Fprintln(out, Format(res, err))
	}

	if cfg.HistoryFile != "" {
		f, err := os.Create(cfg.HistoryFile)
		if err != nil {
			me.Log.Warn("history not saved", zap.String("file", cfg.HistoryFile), zap.Error(err))
			return nil
		}
		defer f.Close()
		if _, err := line.WriteHistory(f); err != nil {
			me.Log.Warn("history not saved", zap.String("file", cfg.HistoryFile), zap.Error(err))
		}
	}
	return nil
}

// Format is what the shell prints for one Exec outcome.
func Format(res string, err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return res
}

// Complete offers command names after a leading colon and variable names
// for the last word of anything else.
func (me *Session) Complete(line string) []string {
	var out []string
	if strings.HasPrefix(line, ":") && !strings.ContainsAny(line, " \t") {
		for name := range commands {
			if strings.HasPrefix(":"+name, line) {
				out = append(out, ":"+name)
			}
		}
	} else {
		cut := strings.LastIndexAny(line, " \t[(") + 1
		head, word := line[:cut], line[cut:]
		if word == "" {
			return nil
		}
		for _, name := range me.varNames() {
			if strings.HasPrefix(name, word) {
				out = append(out, head+name)
			}
		}
	}
	slices.Sort(out)
	return out
}
