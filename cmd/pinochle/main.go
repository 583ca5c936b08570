// Command pinochle evaluates Nock, jams and cues nouns, runs batch files and
// hosts the interactive shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sigilante/pinochle"
	"github.com/sigilante/pinochle/internal/config"
	"github.com/sigilante/pinochle/internal/logging"
	"github.com/sigilante/pinochle/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pinochle",
		Short: "Nock 4K interpreter, jam/cue codec and shell",
		Long: `pinochle evaluates Nock 4K formulas.

Nouns are written as decimal atoms (1.000 grouping allowed), 0x hex atoms,
%N opcode shorthand and [a b c] cells. Run without a subcommand for the shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			lc := cfg.Logging
			if a.verbose {
				lc = logging.Verbose(lc)
			}
			logger, err := logging.New(lc)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runRepl,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "pinochle.yaml", "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.evalCmd(),
		a.jamCmd(),
		a.cueCmd(),
		a.mugCmd(),
		a.replCmd(),
		a.batchCmd(),
		a.storeCmd(),
	)
	return root
}

func (me *app) interp() *pinochle.Interp {
	return &pinochle.Interp{
		Log:      me.logger,
		MaxSteps: me.cfg.Limits.MaxSteps,
		MaxStack: me.cfg.Limits.MaxStack,
	}
}

func (me *app) openStore(ctx context.Context) (*store.Store, error) {
	if me.cfg.Store.Path == "" {
		return nil, errors.New("no store path; set store.path or PINOCHLE_STORE")
	}
	return store.Open(ctx, me.cfg.Store.Path, me.logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
