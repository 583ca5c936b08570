package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/sigilante/pinochle"
	"github.com/sigilante/pinochle/internal/store"
	"github.com/spf13/cobra"
)

func (me *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Named nouns kept in the SQLite store",
	}
	// each subcommand opens and closes the store around its work
	with := func(run func(cmd *cobra.Command, st *store.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			st, err := me.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return run(cmd, st, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "put <name> <noun>",
			Short: "Store a noun under a name",
			Args:  cobra.ExactArgs(2),
			RunE: with(func(cmd *cobra.Command, st *store.Store, args []string) error {
				n, err := pinochle.Parse(args[1])
				if err != nil {
					return err
				}
				if err := st.Put(cmd.Context(), args[0], n); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s 0x%x\n", args[0], pinochle.Mug(n))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "get <name>",
			Short: "Print a stored noun",
			Args:  cobra.ExactArgs(1),
			RunE: with(func(cmd *cobra.Command, st *store.Store, args []string) error {
				n, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pinochle.Pretty(n))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored nouns with their mugs",
			Args:  cobra.NoArgs,
			RunE: with(func(cmd *cobra.Command, st *store.Store, args []string) error {
				entries, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t0x%x\t%s\n", e.Name, e.Mug, e.Updated.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "find <noun>",
			Short: "Print the names a noun is stored under",
			Args:  cobra.ExactArgs(1),
			RunE: with(func(cmd *cobra.Command, st *store.Store, args []string) error {
				n, err := pinochle.Parse(args[0])
				if err != nil {
					return err
				}
				candidates, err := st.FindByMug(cmd.Context(), pinochle.Mug(n))
				if err != nil {
					return err
				}
				found := 0
				for _, e := range candidates {
					// a shared mug is only a candidate
					stored, err := st.Get(cmd.Context(), e.Name)
					if err != nil {
						return err
					}
					if pinochle.Equal(n, stored) {
						fmt.Fprintln(cmd.OutOrStdout(), e.Name)
						found++
					}
				}
				if found == 0 {
					return fmt.Errorf("noun %s: %w", args[0], store.ErrNotFound)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:     "rm <name>",
			Aliases: []string{"delete"},
			Short:   "Remove a stored noun",
			Args:    cobra.ExactArgs(1),
			RunE: with(func(cmd *cobra.Command, st *store.Store, args []string) error {
				return st.Delete(cmd.Context(), args[0])
			}),
		},
	)
	return cmd
}
