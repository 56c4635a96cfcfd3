package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/cadpath/pkg/path"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "parse <path text>",
		Short: "Tokenize and check path text",
		Long: `Tokenize path text, check its grammar and split it into legs,
without adjusting it. Each item is printed with the leg it belongs to.`,
		Example: `  cadpath parse "100.00 90-00 50.00"
  cadpath parse --unit ft "(90-00 30/50 60)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := opts.unit(unit)
			if err != nil {
				return err
			}
			items, err := path.Parse(args[0], u)
			if err != nil {
				return err
			}
			legs, err := path.CreateLegs(items)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, it := range items {
				fmt.Fprintf(out, "%-3d %-18s %s\n", it.Leg, it.Kind, it)
			}
			fmt.Fprintf(out, "legs: %d\n", len(legs))
			fmt.Fprintf(out, "path: %s\n", path.Format(legs, u))
			return nil
		},
	}

	cmd.Flags().StringVarP(&unit, "unit", "u", "", "default distance unit (m, ft, ch)")
	return cmd
}
