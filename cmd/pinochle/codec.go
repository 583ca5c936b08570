package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sigilante/pinochle"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (me *app) jamCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:     "jam <noun>",
		Short:   "Serialize a noun",
		Example: "  pinochle jam '[1 2]'        # 0x1231\n  pinochle jam --out n.jam '[1 2]'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := pinochle.Parse(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), hexAtom(pinochle.JamAtom(n)))
				return nil
			}
			b := pinochle.Jam(n)
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return err
			}
			me.logger.Info("jammed", zap.String("file", out), zap.Int("bytes", len(b)), zap.Uint32("mug", pinochle.Mug(n)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the raw bytes to a file")
	return cmd
}

func (me *app) cueCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:     "cue <atom>",
		Short:   "Deserialize a jammed atom",
		Example: "  pinochle cue 0x1231          # [1 2]\n  pinochle cue --in n.jam",
		Args: func(cmd *cobra.Command, args []string) error {
			if in != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var n pinochle.Noun
			if in != "" {
				b, err := os.ReadFile(in)
				if err != nil {
					return err
				}
				if n, err = pinochle.Cue(b); err != nil {
					return fmt.Errorf("%s: %w", in, err)
				}
			} else {
				a, err := pinochle.Parse(args[0])
				if err != nil {
					return err
				}
				atom, ok := a.(pinochle.NounAtom)
				if !ok {
					return errors.New("cue takes an atom")
				}
				if n, err = pinochle.CueAtom(atom); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), pinochle.Pretty(n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "read raw jam bytes from a file")
	return cmd
}

func (me *app) mugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mug <noun>",
		Short: "Print the 31-bit hash of a noun",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := pinochle.Parse(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%x\n", pinochle.Mug(n))
			return nil
		},
	}
}
