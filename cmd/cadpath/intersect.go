package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/cadpath/pkg/construct"
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/chazu/cadpath/pkg/operation"
)

func newIntersectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intersect",
		Short: "Locate a point from two constraints",
		Long: `Locate a point where two directions, two distances, or a direction and
a distance meet. Coordinates are easting,northing in meters.`,
	}
	cmd.AddCommand(
		newIntersectCirclesCmd(opts),
		newIntersectDirectionsCmd(opts),
		newIntersectDirectionCircleCmd(opts),
	)
	return cmd
}

// hintFlag parses the optional --near flag.
func hintFlag(near string) (*geom.Position, error) {
	if near == "" {
		return nil, nil
	}
	p, err := parseXY(near)
	if err != nil {
		return nil, fmt.Errorf("--near: %w", err)
	}
	return &p, nil
}

// circleFlags builds a circle about center with a radius in entry units.
func (o *rootOptions) circleFlags(center, radius string) (observation.Circle, error) {
	c, err := parseXY(center)
	if err != nil {
		return observation.Circle{}, err
	}
	d, err := observation.ParseDistance(radius, o.settings.EntryUnit)
	if err != nil {
		return observation.Circle{}, err
	}
	b := construct.CircleBuilder{}
	b.SetCenter(c)
	b.SetRadius(d)
	circle, ok, err := b.TryBuild()
	if err != nil {
		return observation.Circle{}, err
	}
	if !ok {
		return observation.Circle{}, fmt.Errorf("incomplete circle: %s", b.State())
	}
	return circle, nil
}

// directionFlags builds a direction from a point on a bearing, with the
// default offset from the settings unless offset is given.
func (o *rootOptions) directionFlags(from, bearing, offset string) (observation.Direction, error) {
	p, err := parseXY(from)
	if err != nil {
		return nil, err
	}
	a, err := observation.ParseAngle(bearing)
	if err != nil {
		return nil, err
	}
	b := construct.NewDirectionBuilder(o.settings.Defaults())
	b.SetFrom(p)
	b.SetAngle(a)
	if offset != "" {
		d, err := observation.ParseDistance(strings.TrimPrefix(offset, "-"), o.settings.EntryUnit)
		if err != nil {
			return nil, fmt.Errorf("offset: %w", err)
		}
		m := d.Meters()
		if strings.HasPrefix(offset, "-") {
			m = -m
		}
		if m == 0 {
			b.ClearOffset()
		} else {
			off := observation.SignedOffset(m, d.Unit())
			b.SetOffsetDistance(off.Distance, off.Side)
		}
	}
	dir, ok, err := b.TryBuild()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("incomplete direction: %s", b.State())
	}
	return dir, nil
}

func printIntersection(cmd *cobra.Command, op *operation.IntersectOperation) error {
	p, ok := op.Point()
	if !ok {
		return errors.New(op.String())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%.3f,%.3f\n", op, p.X, p.Y)
	return nil
}

func newIntersectCirclesCmd(opts *rootOptions) *cobra.Command {
	var c1, r1, c2, r2, near string

	cmd := &cobra.Command{
		Use:   "circles",
		Short: "Intersect two distances",
		Long: `Intersect two circles. With two solutions the one nearer --near is
chosen, or without it the one left of the line from the first center to
the second.`,
		Example: `  cadpath intersect circles --c1 0,0 --r1 5 --c2 8,0 --r2 5 --near 4,-10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.circleFlags(c1, r1)
			if err != nil {
				return fmt.Errorf("first circle: %w", err)
			}
			b, err := opts.circleFlags(c2, r2)
			if err != nil {
				return fmt.Errorf("second circle: %w", err)
			}
			hint, err := hintFlag(near)
			if err != nil {
				return err
			}
			return printIntersection(cmd, operation.IntersectTwoDistances(a, b, hint))
		},
	}

	cmd.Flags().StringVar(&c1, "c1", "", "first center easting,northing")
	cmd.Flags().StringVar(&r1, "r1", "", "first radius")
	cmd.Flags().StringVar(&c2, "c2", "", "second center easting,northing")
	cmd.Flags().StringVar(&r2, "r2", "", "second radius")
	cmd.Flags().StringVar(&near, "near", "", "pick the solution nearer this point")
	for _, f := range []string{"c1", "r1", "c2", "r2"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newIntersectDirectionsCmd(opts *rootOptions) *cobra.Command {
	var p1, b1, o1, p2, b2, o2 string

	cmd := &cobra.Command{
		Use:     "directions",
		Short:   "Intersect two directions",
		Example: `  cadpath intersect directions --p1 0,0 --b1 45-00 --p2 10,0 --b2 0`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.directionFlags(p1, b1, o1)
			if err != nil {
				return fmt.Errorf("first direction: %w", err)
			}
			b, err := opts.directionFlags(p2, b2, o2)
			if err != nil {
				return fmt.Errorf("second direction: %w", err)
			}
			return printIntersection(cmd, operation.IntersectTwoDirections(a, b))
		},
	}

	cmd.Flags().StringVar(&p1, "p1", "", "first point easting,northing")
	cmd.Flags().StringVar(&b1, "b1", "", "first bearing (dd-mm-ss)")
	cmd.Flags().StringVar(&o1, "o1", "", "first offset, negative is left")
	cmd.Flags().StringVar(&p2, "p2", "", "second point easting,northing")
	cmd.Flags().StringVar(&b2, "b2", "", "second bearing (dd-mm-ss)")
	cmd.Flags().StringVar(&o2, "o2", "", "second offset, negative is left")
	for _, f := range []string{"p1", "b1", "p2", "b2"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newIntersectDirectionCircleCmd(opts *rootOptions) *cobra.Command {
	var p, b, o, c, r, near string

	cmd := &cobra.Command{
		Use:     "direction-circle",
		Short:   "Intersect a direction with a distance",
		Example: `  cadpath intersect direction-circle --p 0,-10 --b 0 --c 0,0 --r 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := opts.directionFlags(p, b, o)
			if err != nil {
				return fmt.Errorf("direction: %w", err)
			}
			circle, err := opts.circleFlags(c, r)
			if err != nil {
				return fmt.Errorf("circle: %w", err)
			}
			hint, err := hintFlag(near)
			if err != nil {
				return err
			}
			return printIntersection(cmd, operation.IntersectDirectionAndDistance(d, circle, hint))
		},
	}

	cmd.Flags().StringVar(&p, "p", "", "point easting,northing")
	cmd.Flags().StringVar(&b, "b", "", "bearing (dd-mm-ss)")
	cmd.Flags().StringVar(&o, "o", "", "offset, negative is left")
	cmd.Flags().StringVar(&c, "c", "", "circle center easting,northing")
	cmd.Flags().StringVar(&r, "r", "", "circle radius")
	cmd.Flags().StringVar(&near, "near", "", "pick the solution nearer this point")
	for _, f := range []string{"p", "b", "c", "r"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
