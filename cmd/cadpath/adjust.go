package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/cadpath/pkg/operation"
)

func newAdjustCmd(opts *rootOptions) *cobra.Command {
	var (
		from, to string
		unit     string
	)

	cmd := &cobra.Command{
		Use:   "adjust <path text>",
		Short: "Fit a connection path between two known points",
		Long: `Project path text from the start point, then rotate and scale it so
that it ends exactly on the end point. Any remaining misclosure is spread
over the stations in proportion to distance.

Coordinates are easting,northing in meters.`,
		Example: `  cadpath adjust --from 0,0 --to 100,50 "100 90-00 50"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := opts.unit(unit)
			if err != nil {
				return err
			}
			a, err := parseXY(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			b, err := parseXY(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			op, err := operation.NewPathOperation(a, b, args[0], u)
			if err != nil {
				return err
			}
			res, err := op.Adjust(opts.settings.AdjustOptions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "path: %s\n", op)
			for _, st := range res.Stations {
				flags := ""
				if st.Omit {
					flags += " omit"
				}
				if !st.Connect {
					flags += " no-line"
				}
				fmt.Fprintf(out, "%-3d %14.3f %14.3f%s\n", st.Leg, st.Position.X, st.Position.Y, flags)
			}
			fmt.Fprintln(out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "0,0", "start point easting,northing")
	cmd.Flags().StringVar(&to, "to", "", "end point easting,northing")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "default distance unit (m, ft, ch)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
