package observation

import (
	"fmt"
	"math"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/golang/geo/s1"
)

// ---------------------------------------------------------------------------
// Offsets
// ---------------------------------------------------------------------------

// Side says which side of a direction an offset lies on, looking along it.
type Side int

const (
	Right Side = iota
	Left
)

func (s Side) String() string {
	switch s {
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Offset shifts a direction sideways. Implementations are OffsetDistance
// and OffsetPoint.
type Offset interface {
	offset() // marker method restricting implementations to this package
}

// OffsetDistance shifts a direction perpendicular to itself by a distance.
type OffsetDistance struct {
	Distance Distance
	Side     Side
}

func (OffsetDistance) offset() {}

// SignedOffset returns an OffsetDistance from a signed metric value:
// negative means left, as stored in the user settings.
func SignedOffset(meters float64, unit Unit) OffsetDistance {
	side := Right
	if meters < 0 {
		side = Left
		meters = -meters
	}
	return OffsetDistance{Distance: DefaultDistance(unit.FromMetric(meters), unit), Side: side}
}

// OffsetPoint shifts a direction so that it passes through a point.
type OffsetPoint struct {
	Point geom.Position
}

func (OffsetPoint) offset() {}

// ---------------------------------------------------------------------------
// Directions
// ---------------------------------------------------------------------------

// Direction is a ray anchored at a from-point. Implementations are
// BearingDirection, AngleDirection and ParallelDirection.
type Direction interface {
	direction() // marker method restricting implementations to this package
}

// BearingDirection is a ray at a fixed bearing from grid north.
type BearingDirection struct {
	From    geom.Position
	Bearing s1.Angle
	Offset  Offset
}

func (BearingDirection) direction() {}

// AngleDirection is a ray turned off a backsight. In normal mode the
// observed angle is measured from the from->backsight line. In deflection
// mode it is measured from the extension of the backsight->from line.
type AngleDirection struct {
	Backsight  geom.Position
	From       geom.Position
	Observed   s1.Angle
	Clockwise  bool
	Deflection bool
	Offset     Offset
}

func (AngleDirection) direction() {}

// ParallelDirection is a ray parallel to the line from P1 to P2.
type ParallelDirection struct {
	From   geom.Position
	P1, P2 geom.Position
	Offset Offset
}

func (ParallelDirection) direction() {}

// From returns the point a direction is anchored at.
func From(d Direction) geom.Position {
	switch d := d.(type) {
	case BearingDirection:
		return d.From
	case AngleDirection:
		return d.From
	case ParallelDirection:
		return d.From
	}
	panic(fmt.Sprintf("observation: unknown direction %T", d))
}

// OffsetOf returns the offset attached to a direction, or nil.
func OffsetOf(d Direction) Offset {
	switch d := d.(type) {
	case BearingDirection:
		return d.Offset
	case AngleDirection:
		return d.Offset
	case ParallelDirection:
		return d.Offset
	}
	panic(fmt.Sprintf("observation: unknown direction %T", d))
}

// WithOffset returns a copy of d carrying the given offset.
func WithOffset(d Direction, o Offset) Direction {
	switch d := d.(type) {
	case BearingDirection:
		d.Offset = o
		return d
	case AngleDirection:
		d.Offset = o
		return d
	case ParallelDirection:
		d.Offset = o
		return d
	}
	panic(fmt.Sprintf("observation: unknown direction %T", d))
}

// Bearing returns the grid bearing of a direction, in [0, 2π).
func Bearing(d Direction) s1.Angle {
	switch d := d.(type) {
	case BearingDirection:
		return geom.NormalizeBearing(d.Bearing)
	case AngleDirection:
		base := geom.BearingTo(d.From, d.Backsight)
		if d.Deflection {
			base = geom.BearingTo(d.Backsight, d.From)
		}
		turn := d.Observed
		if !d.Clockwise {
			turn = -turn
		}
		return geom.NormalizeBearing(base + turn)
	case ParallelDirection:
		return geom.BearingTo(d.P1, d.P2)
	}
	panic(fmt.Sprintf("observation: unknown direction %T", d))
}

// OffsetMeters returns the signed perpendicular shift of a direction in
// meters: negative to the left, positive to the right, zero without an
// offset.
func OffsetMeters(d Direction) float64 {
	switch o := OffsetOf(d).(type) {
	case nil:
		return 0
	case OffsetDistance:
		m := math.Abs(o.Distance.Meters())
		if o.Side == Left {
			return -m
		}
		return m
	case OffsetPoint:
		b := Bearing(d)
		right := geom.Unit(b + s1.Angle(math.Pi/2))
		return o.Point.Sub(From(d)).Dot(right)
	default:
		panic(fmt.Sprintf("observation: unknown offset %T", o))
	}
}

// StartPosition returns the origin of the ray after applying any offset.
func StartPosition(d Direction) geom.Position {
	off := OffsetMeters(d)
	if off == 0 {
		return From(d)
	}
	return geom.Polar(From(d), Bearing(d)+s1.Angle(math.Pi/2), off)
}

// ---------------------------------------------------------------------------
// Circles
// ---------------------------------------------------------------------------

// Circle is a center plus a radius in meters.
type Circle struct {
	Center geom.Position
	Radius float64
}

// CircleFromDistance returns a circle whose radius is an observed distance.
func CircleFromDistance(center geom.Position, radius Distance) Circle {
	return Circle{Center: center, Radius: math.Abs(radius.Meters())}
}

// CircleThroughPoint returns the circle centered at center that passes
// through p.
func CircleThroughPoint(center, p geom.Position) Circle {
	return Circle{Center: center, Radius: geom.Distance(center, p)}
}

// DistanceTo returns how far p lies from the circumference.
func (c Circle) DistanceTo(p geom.Position) float64 {
	return math.Abs(geom.Distance(c.Center, p) - c.Radius)
}
