package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sigilante/pinochle"
	"github.com/spf13/cobra"
)

func (me *app) evalCmd() *cobra.Command {
	var (
		file     string
		maxSteps int
		jam      bool
		hints    bool
	)
	cmd := &cobra.Command{
		Use:   "eval <subject> <formula>",
		Short: "Evaluate *[subject formula]",
		Example: `  pinochle eval 41 '[4 0 1]'
  pinochle eval '[[1 2] [3 4]]' '[0 5]'
  pinochle eval --file dec.nock`,
		Args: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, formula, err := evalInput(file, args)
			if err != nil {
				return err
			}
			interp := me.interp()
			if cmd.Flags().Changed("max-steps") {
				interp.MaxSteps = maxSteps
			}
			if hints {
				interp.OnHint = func(tag, clue, subj pinochle.Noun) {
					if clue == nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "hint %s\n", pinochle.Pretty(tag))
						return
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "hint %s %s\n", pinochle.Pretty(tag), pinochle.Pretty(clue))
				}
			}
			res, err := interp.Eval(cmd.Context(), subject, formula)
			if err != nil {
				return err
			}
			if jam {
				fmt.Fprintln(cmd.OutOrStdout(), hexAtom(pinochle.JamAtom(res)))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), pinochle.Pretty(res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read [subject formula] from a file")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "reduction budget, 0 for none (overrides limits.max_steps)")
	cmd.Flags().BoolVar(&jam, "jam", false, "print the jammed result as a hex atom")
	cmd.Flags().BoolVar(&hints, "hints", false, "print opcode 11 hints to stderr")
	return cmd
}

func evalInput(file string, args []string) (pinochle.Noun, pinochle.Noun, error) {
	if file == "" {
		subject, err := pinochle.Parse(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("subject: %w", err)
		}
		formula, err := pinochle.Parse(args[1])
		if err != nil {
			return nil, nil, fmt.Errorf("formula: %w", err)
		}
		return subject, formula, nil
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	n, err := pinochle.Parse(string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file, err)
	}
	cell, ok := n.(*pinochle.NounCell)
	if !ok {
		return nil, nil, errors.New(file + ": want [subject formula]")
	}
	return cell.Head, cell.Tail, nil
}

func hexAtom(a pinochle.NounAtom) string {
	return "0x" + a.Big().Text(16)
}
