// Package intersect solves for a point from two geometric constraints.
//
// A constraint is a ray, a circle or a bounded segment. Every solver returns
// a Result saying how many solutions there were; a miss is an ordinary
// result, not an error. Where two solutions exist the one nearer a hint is
// preferred, otherwise a fixed tie-break applies.
package intersect

import (
	"fmt"
	"math"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/golang/geo/s1"
)

// Kind counts the solutions found.
type Kind int

const (
	None Kind = iota
	One
	Two
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case One:
		return "one"
	case Two:
		return "two"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the outcome of an intersection. Point is the chosen solution;
// Other is the rejected one when Kind is Two.
type Result struct {
	Kind  Kind
	Point geom.Position
	Other geom.Position
}

// OK reports whether there is at least one solution.
func (r Result) OK() bool { return r.Kind != None }

// ---------------------------------------------------------------------------
// Constraints
// ---------------------------------------------------------------------------

// Constraint is one of Ray, Circle or Segment.
type Constraint interface {
	constraint() // marker method restricting implementations to this package
}

// Ray starts at Origin and runs on Bearing.
type Ray struct {
	Origin  geom.Position
	Bearing s1.Angle
}

// Circle wraps an observed circle.
type Circle observation.Circle

// Segment is the bounded line from Start to End.
type Segment struct {
	Start, End geom.Position
}

func (Ray) constraint()     {}
func (Circle) constraint()  {}
func (Segment) constraint() {}

// RayFrom returns the ray a direction describes, offsets applied.
func RayFrom(d observation.Direction) Ray {
	return Ray{Origin: observation.StartPosition(d), Bearing: observation.Bearing(d)}
}

func (r Ray) unit() geom.Position { return geom.Unit(r.Bearing) }

// ---------------------------------------------------------------------------
// Solvers
// ---------------------------------------------------------------------------

// RayRay intersects the lines through two directions, wherever they cross.
// Parallel directions, identical ones included, have no solution.
func RayRay(a, b Ray) Result {
	t, _, ok := lineParams(a.Origin, a.unit(), b.Origin, b.unit())
	if !ok {
		return Result{}
	}
	return Result{Kind: One, Point: a.Origin.Add(a.unit().MulScalar(t))}
}

// RayCircle intersects a ray with a circle. Only points ahead of the origin
// count. Of two, the one nearer hint wins, or the first reached along the
// ray.
func RayCircle(r Ray, c Circle, hint *geom.Position) Result {
	d := r.unit()
	f := r.Origin.Sub(c.Center)
	// |f + t d|^2 = R^2, with |d| = 1
	bh := f.Dot(d)
	cc := f.Dot(f) - c.Radius*c.Radius
	disc := bh*bh - cc
	if disc < -geom.Tiny {
		return Result{}
	}

	var ts []float64
	if disc <= geom.Tiny {
		ts = []float64{-bh}
	} else {
		s := math.Sqrt(disc)
		ts = []float64{-bh - s, -bh + s}
	}
	var pts []geom.Position
	for _, t := range ts {
		if t >= -geom.Tiny {
			pts = append(pts, r.Origin.Add(d.MulScalar(t)))
		}
	}
	return choose(pts, hint)
}

// CircleCircle intersects two circles. Disjoint and nested circles have no
// solution; tangent circles have one. Of two, the one nearer hint wins, or
// the one left of the line from the first center to the second.
func CircleCircle(a, b Circle, hint *geom.Position) Result {
	dv := b.Center.Sub(a.Center)
	d := dv.Length()
	if d <= geom.Tiny {
		return Result{}
	}
	if d > a.Radius+b.Radius+geom.Tiny || d < math.Abs(a.Radius-b.Radius)-geom.Tiny {
		return Result{}
	}

	// Distance along the center line to the chord, and half the chord.
	x := (d*d + a.Radius*a.Radius - b.Radius*b.Radius) / (2 * d)
	h2 := a.Radius*a.Radius - x*x
	u := dv.MulScalar(1 / d)
	mid := a.Center.Add(u.MulScalar(x))
	if h2 <= geom.Tiny {
		return Result{Kind: One, Point: mid}
	}
	h := math.Sqrt(h2)
	left := geom.Pos(-u.Y, u.X)
	return choose([]geom.Position{
		mid.Add(left.MulScalar(h)),
		mid.Sub(left.MulScalar(h)),
	}, hint)
}

// RaySegment intersects a ray with a bounded segment.
func RaySegment(r Ray, s Segment) Result {
	sd := s.End.Sub(s.Start)
	if sd.Length() <= geom.Tiny {
		return Result{}
	}
	t, u, ok := lineParams(r.Origin, r.unit(), s.Start, sd)
	if !ok || t < -geom.Tiny || u < -geom.Tiny || u > 1+geom.Tiny {
		return Result{}
	}
	return Result{Kind: One, Point: r.Origin.Add(r.unit().MulScalar(t))}
}

// SegmentSegment intersects two bounded segments. Overlapping collinear
// segments have no single solution.
func SegmentSegment(a, b Segment) Result {
	ad, bd := a.End.Sub(a.Start), b.End.Sub(b.Start)
	if ad.Length() <= geom.Tiny || bd.Length() <= geom.Tiny {
		return Result{}
	}
	t, u, ok := lineParams(a.Start, ad, b.Start, bd)
	if !ok || t < -geom.Tiny || t > 1+geom.Tiny || u < -geom.Tiny || u > 1+geom.Tiny {
		return Result{}
	}
	return Result{Kind: One, Point: a.Start.Add(ad.MulScalar(t))}
}

// SegmentCircle intersects a bounded segment with a circle.
func SegmentCircle(s Segment, c Circle, hint *geom.Position) Result {
	sd := s.End.Sub(s.Start)
	length := sd.Length()
	if length <= geom.Tiny {
		return Result{}
	}
	r := RayCircle(Ray{Origin: s.Start, Bearing: geom.BearingTo(s.Start, s.End)}, c, nil)
	var pts []geom.Position
	for _, p := range points(r) {
		if geom.Distance(s.Start, p) <= length+geom.Tiny {
			pts = append(pts, p)
		}
	}
	return choose(pts, hint)
}

// Resolve intersects any two constraints.
func Resolve(a, b Constraint, hint *geom.Position) Result {
	switch a := a.(type) {
	case Ray:
		switch b := b.(type) {
		case Ray:
			return RayRay(a, b)
		case Circle:
			return RayCircle(a, b, hint)
		case Segment:
			return RaySegment(a, b)
		}
	case Circle:
		switch b := b.(type) {
		case Ray:
			return RayCircle(b, a, hint)
		case Circle:
			return CircleCircle(a, b, hint)
		case Segment:
			return SegmentCircle(b, a, hint)
		}
	case Segment:
		switch b := b.(type) {
		case Ray:
			return RaySegment(b, a)
		case Circle:
			return SegmentCircle(a, b, hint)
		case Segment:
			return SegmentSegment(a, b)
		}
	}
	panic(fmt.Sprintf("intersect: unsupported pair %T, %T", a, b))
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// lineParams solves p + t·r = q + u·s. ok is false for parallel lines.
func lineParams(p, r, q, s geom.Position) (t, u float64, ok bool) {
	denom := geom.Cross(r, s)
	if math.Abs(denom) <= geom.Tiny*r.Length()*s.Length() {
		return 0, 0, false
	}
	qp := q.Sub(p)
	return geom.Cross(qp, s) / denom, geom.Cross(qp, r) / denom, true
}

// choose orders candidate points into a Result. The first candidate is
// preferred unless hint is nearer the second.
func choose(pts []geom.Position, hint *geom.Position) Result {
	switch len(pts) {
	case 0:
		return Result{}
	case 1:
		return Result{Kind: One, Point: pts[0]}
	}
	first, second := pts[0], pts[1]
	if hint != nil && geom.Distance(*hint, second) < geom.Distance(*hint, first) {
		first, second = second, first
	}
	return Result{Kind: Two, Point: first, Other: second}
}

func points(r Result) []geom.Position {
	switch r.Kind {
	case One:
		return []geom.Position{r.Point}
	case Two:
		return []geom.Position{r.Point, r.Other}
	}
	return nil
}
