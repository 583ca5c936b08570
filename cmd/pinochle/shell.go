package main

import (
	"fmt"
	"io"

	"github.com/sigilante/pinochle/internal/batch"
	"github.com/sigilante/pinochle/internal/repl"
	"github.com/sigilante/pinochle/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (me *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell (the default)",
		Args:  cobra.NoArgs,
		RunE:  me.runRepl,
	}
}

func (me *app) runRepl(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var st *store.Store
	if me.cfg.Store.Path != "" {
		var err error
		if st, err = me.openStore(ctx); err != nil {
			me.logger.Warn("shell runs without a store", zap.Error(err))
		} else {
			defer st.Close()
		}
	}
	return repl.New(me.interp(), st, me.logger).Run(ctx, me.cfg.Shell, cmd.OutOrStdout())
}

func (me *app) batchCmd() *cobra.Command {
	var (
		watch   bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Evaluate every [subject formula] line of the files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &batch.Runner{Interp: me.interp(), Workers: me.cfg.Batch.Workers, Log: me.logger}
			if cmd.Flags().Changed("workers") {
				r.Workers = workers
			}
			out := cmd.OutOrStdout()
			if watch {
				if len(args) != 1 {
					return fmt.Errorf("--watch takes one file, got %d", len(args))
				}
				return r.Watch(cmd.Context(), args[0], func(results []batch.Result, err error) {
					if err != nil {
						fmt.Fprintln(out, "error:", err)
						return
					}
					printResults(out, results)
				})
			}
			results, err := r.Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			if failed := printResults(out, results); failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run the file whenever it changes")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "concurrent evaluations (overrides batch.workers)")
	return cmd
}

func printResults(out io.Writer, results []batch.Result) (failed int) {
	for _, r := range results {
		fmt.Fprintln(out, r.String())
		if r.Err != nil {
			failed++
		}
	}
	return failed
}
