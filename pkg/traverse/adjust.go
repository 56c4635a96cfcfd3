// Package traverse fits a run of path legs between two known points.
//
// Adjustment has two stages. The first is an exact two-parameter
// similarity fit: every leg is rotated by one angle and scaled by one
// factor about the start point so that the computed end lands on the
// known end. The second distributes whatever residual remains by the
// compass rule, in proportion to the distance travelled, so that the last
// station coincides with the known end.
package traverse

import (
	"fmt"
	"math"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/path"
	"github.com/golang/geo/s1"
)

// DefaultTolerance is the misclosure, in meters, below which no rotation
// or scaling is applied.
const DefaultTolerance = 0.0005

// Options controls an adjustment.
type Options struct {
	// Tolerance is the misclosure in meters treated as exact. Zero means
	// DefaultTolerance.
	Tolerance float64
}

func (o Options) tolerance() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return DefaultTolerance
}

// AdjustmentError reports a path that cannot be adjusted.
type AdjustmentError struct {
	Reason string
}

func (e *AdjustmentError) Error() string {
	return "cannot adjust path: " + e.Reason
}

// Result is the outcome of Adjust.
type Result struct {
	From, To geom.Position

	// Before adjustment.
	RawEnd           geom.Position
	Misclosure       geom.Position // RawEnd - To, as (east, north)
	MisclosureLength float64
	TotalLength      float64
	PrecisionRatio   float64 // misclosure length / total length
	Precision        float64 // total length / misclosure length, 0 when exact

	// Similarity fit.
	Rotation s1.Angle // clockwise, in (-π, π]
	Scale    float64

	// Left over after the fit and spread over the stations.
	Residual geom.Position

	Stations []Station
	Legs     []LegGeometry
}

// End returns the adjusted position of the last station.
func (r *Result) End() geom.Position {
	return r.Stations[len(r.Stations)-1].Position
}

// Adjust fits legs between from and to. Straight legs start on grid north
// unless an angle turns them.
func Adjust(legs []path.Leg, from, to geom.Position, opts Options) (*Result, error) {
	if len(legs) == 0 {
		return nil, &AdjustmentError{Reason: "no legs"}
	}
	if !geom.IsFinite(from) {
		return nil, &AdjustmentError{Reason: "start point is undefined"}
	}
	if !geom.IsFinite(to) {
		return nil, &AdjustmentError{Reason: "end point is undefined"}
	}
	tol := opts.tolerance()

	raw := project(legs, from, geom.North, 1)
	if len(raw.stations) == 0 {
		return nil, &AdjustmentError{Reason: "path has no spans"}
	}

	res := &Result{
		From:     from,
		To:       to,
		RawEnd:   raw.end,
		Rotation: 0,
		Scale:    1,
	}
	for _, l := range legs {
		res.TotalLength += l.Length()
	}
	if res.TotalLength <= geom.Tiny {
		return nil, &AdjustmentError{Reason: "path has zero length"}
	}
	res.Misclosure = raw.end.Sub(to)
	res.MisclosureLength = res.Misclosure.Length()
	res.PrecisionRatio = res.MisclosureLength / res.TotalLength
	if res.MisclosureLength > 0 {
		res.Precision = res.TotalLength / res.MisclosureLength
	}

	fitted := raw
	wantDist := geom.Distance(from, to)
	if res.MisclosureLength > tol && wantDist > tol {
		gotDist := geom.Distance(from, raw.end)
		if gotDist <= geom.Tiny {
			return nil, &AdjustmentError{Reason: "computed path returns to its start"}
		}
		rot := geom.BearingTo(from, to) - geom.BearingTo(from, raw.end)
		res.Rotation = geom.NormalizeSigned(rot)
		res.Scale = wantDist / gotDist
		fitted = project(legs, from, res.Rotation, res.Scale)
	}

	res.Residual = fitted.end.Sub(to)
	res.Stations = distribute(fitted.stations, res.Residual, res.TotalLength, to)
	res.Legs = settleLegs(fitted.legs, res.Stations, from)
	return res, nil
}

// distribute applies the compass rule: each station moves against the
// residual in proportion to its cumulative distance. The last station is
// set to end exactly.
func distribute(stations []Station, residual geom.Position, total float64, end geom.Position) []Station {
	out := make([]Station, len(stations))
	for i, s := range stations {
		share := s.Cumulative / total
		s.Correction = residual.MulScalar(-share)
		s.Position = s.Raw.Add(s.Correction)
		out[i] = s
	}
	last := &out[len(out)-1]
	last.Correction = end.Sub(last.Raw)
	last.Position = end
	return out
}

// settleLegs moves leg end points onto the adjusted stations. Curve
// centers move with their BC.
func settleLegs(legs []LegGeometry, stations []Station, from geom.Position) []LegGeometry {
	endOf := make(map[int]geom.Position, len(legs))
	for _, s := range stations {
		endOf[s.Leg] = s.Position
	}
	out := make([]LegGeometry, len(legs))
	start := from
	for i, g := range legs {
		shift := start.Sub(g.Start)
		g.Start = start
		if g.Curve {
			g.Center = g.Center.Add(shift)
		}
		if e, ok := endOf[g.Leg]; ok {
			g.End = e
		}
		start = g.End
		out[i] = g
	}
	return out
}

// String summarises the closure for logging.
func (r *Result) String() string {
	prec := "exact"
	if r.Precision > 0 {
		prec = fmt.Sprintf("1:%.0f", math.Round(r.Precision))
	}
	return fmt.Sprintf("length %.3fm misclosure %.3fm (%s) rotation %.6f° scale %.8f",
		r.TotalLength, r.MisclosureLength, prec, r.Rotation.Degrees(), r.Scale)
}
