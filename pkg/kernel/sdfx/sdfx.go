// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx signed distance library. Each shape is an
// sdf.SDF2 measuring the distance to its outline, plus the sampled
// polylines used for drawing.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

const (
	// defaultMarkerSize is the side of the square drawn for a point, in meters.
	defaultMarkerSize = 0.5
	// defaultArcStep is the largest angle one arc chord may subtend.
	defaultArcStep = 2 * math.Pi / 180
)

// sdfxShape wraps an sdf.SDF2 to implement kernel.Shape.
type sdfxShape struct {
	s     sdf.SDF2
	lines [][]geom.Position
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxShape) BoundingBox() (min, max geom.Position) {
	bb := s.s.BoundingBox()
	return bb.Min, bb.Max
}

// Distance returns the unsigned distance from p to the outline.
func (s *sdfxShape) Distance(p geom.Position) float64 {
	return math.Abs(s.s.Evaluate(p))
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	MarkerSize float64
	ArcStep    float64 // radians
}

// New returns a new SdfxKernel with the default marker size and arc
// resolution.
func New() *SdfxKernel {
	return &SdfxKernel{MarkerSize: defaultMarkerSize, ArcStep: defaultArcStep}
}

// unwrap extracts the underlying shape from a kernel.Shape.
func unwrap(s kernel.Shape) (*sdfxShape, error) {
	sh, ok := s.(*sdfxShape)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign shape %T", s)
	}
	return sh, nil
}

// Marker creates a point marker. Its distance is measured to the point
// itself; the square is only drawn.
func (k *SdfxKernel) Marker(p geom.Position) kernel.Shape {
	h := k.MarkerSize / 2
	square := []geom.Position{
		geom.Pos(p.X-h, p.Y-h), geom.Pos(p.X+h, p.Y-h),
		geom.Pos(p.X+h, p.Y+h), geom.Pos(p.X-h, p.Y+h),
		geom.Pos(p.X-h, p.Y-h),
	}
	return &sdfxShape{s: &markerSDF{p: p, half: h}, lines: [][]geom.Position{square}}
}

// Segment creates the straight line from a to b.
func (k *SdfxKernel) Segment(a, b geom.Position) kernel.Shape {
	return &sdfxShape{s: &segmentSDF{a: a, b: b}, lines: [][]geom.Position{{a, b}}}
}

// Circle creates a full circle.
func (k *SdfxKernel) Circle(center geom.Position, radius float64) kernel.Shape {
	a := &arcSDF{c: center, r: radius, start: 0, sweep: 2 * math.Pi}
	return &sdfxShape{s: a, lines: [][]geom.Position{a.sample(k.ArcStep)}}
}

// Arc creates the arc from start to end. Angles are taken from the center,
// so the ends need only lie on the same ray as the true arc ends.
func (k *SdfxKernel) Arc(center geom.Position, radius float64, start, end geom.Position, clockwise bool) kernel.Shape {
	a0 := math.Atan2(start.Y-center.Y, start.X-center.X)
	a1 := math.Atan2(end.Y-center.Y, end.X-center.X)
	// Counter-clockwise sweep from a0 to a1, in [0, 2π).
	sweep := math.Mod(a1-a0, 2*math.Pi)
	if sweep < 0 {
		sweep += 2 * math.Pi
	}
	if clockwise && sweep > 0 {
		sweep -= 2 * math.Pi
	}
	a := &arcSDF{c: center, r: radius, start: a0, sweep: sweep}
	return &sdfxShape{s: a, lines: [][]geom.Position{a.sample(k.ArcStep)}}
}

// Union returns a shape measuring the nearer of the two outlines and
// drawing both.
func (k *SdfxKernel) Union(a, b kernel.Shape) kernel.Shape {
	sa, errA := unwrap(a)
	sb, errB := unwrap(b)
	if errA != nil || errB != nil {
		panic(fmt.Sprintf("sdfx.Union: %v %v", errA, errB))
	}
	lines := make([][]geom.Position, 0, len(sa.lines)+len(sb.lines))
	lines = append(lines, sa.lines...)
	lines = append(lines, sb.lines...)
	return &sdfxShape{s: sdf.Union2D(sa.s, sb.s), lines: lines}
}

// ToOutline flattens a shape into polylines.
func (k *SdfxKernel) ToOutline(s kernel.Shape) (*kernel.Outline, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	n := 0
	for _, l := range sh.lines {
		n += len(l)
	}
	points := make([]float32, 0, n*2)
	starts := make([]uint32, 0, len(sh.lines))

	for _, l := range sh.lines {
		starts = append(starts, uint32(len(points)/2))
		for _, p := range l {
			points = append(points, float32(p.X), float32(p.Y))
		}
	}

	return &kernel.Outline{
		Points: points,
		Starts: starts,
	}, nil
}

// ---------------------------------------------------------------------------
// Distance functions
// ---------------------------------------------------------------------------

// markerSDF is the distance to a single point.
type markerSDF struct {
	p    v2.Vec
	half float64
}

func (m *markerSDF) Evaluate(p v2.Vec) float64 {
	return p.Sub(m.p).Length()
}

func (m *markerSDF) BoundingBox() sdf.Box2 {
	h := v2.Vec{X: m.half, Y: m.half}
	return sdf.Box2{Min: m.p.Sub(h), Max: m.p.Add(h)}
}

// segmentSDF is the distance to a line segment.
type segmentSDF struct {
	a, b v2.Vec
}

func (s *segmentSDF) Evaluate(p v2.Vec) float64 {
	ab := s.b.Sub(s.a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(s.a).Length()
	}
	t := math.Max(0, math.Min(1, p.Sub(s.a).Dot(ab)/l2))
	return p.Sub(s.a.Add(ab.MulScalar(t))).Length()
}

func (s *segmentSDF) BoundingBox() sdf.Box2 {
	return sdf.Box2{
		Min: v2.Vec{X: math.Min(s.a.X, s.b.X), Y: math.Min(s.a.Y, s.b.Y)},
		Max: v2.Vec{X: math.Max(s.a.X, s.b.X), Y: math.Max(s.a.Y, s.b.Y)},
	}
}

// arcSDF is the distance to a circular arc. start is a math angle
// (counter-clockwise from east) and sweep is signed: negative runs
// clockwise.
type arcSDF struct {
	c     v2.Vec
	r     float64
	start float64
	sweep float64
}

func (a *arcSDF) at(angle float64) v2.Vec {
	return v2.Vec{X: a.c.X + a.r*math.Cos(angle), Y: a.c.Y + a.r*math.Sin(angle)}
}

// contains reports whether the ray from the center at angle crosses the arc.
func (a *arcSDF) contains(angle float64) bool {
	if math.Abs(a.sweep) >= 2*math.Pi {
		return true
	}
	d := angle - a.start
	if a.sweep < 0 {
		d = -d
	}
	d = math.Mod(d, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d <= math.Abs(a.sweep)
}

func (a *arcSDF) Evaluate(p v2.Vec) float64 {
	d := p.Sub(a.c)
	if a.contains(math.Atan2(d.Y, d.X)) {
		return math.Abs(d.Length() - a.r)
	}
	return math.Min(p.Sub(a.at(a.start)).Length(), p.Sub(a.at(a.start+a.sweep)).Length())
}

func (a *arcSDF) BoundingBox() sdf.Box2 {
	pts := a.sample(defaultArcStep)
	bb := sdf.Box2{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb.Min = v2.Vec{X: math.Min(bb.Min.X, p.X), Y: math.Min(bb.Min.Y, p.Y)}
		bb.Max = v2.Vec{X: math.Max(bb.Max.X, p.X), Y: math.Max(bb.Max.Y, p.Y)}
	}
	return bb
}

// sample returns points along the arc no more than step radians apart.
func (a *arcSDF) sample(step float64) []geom.Position {
	n := int(math.Ceil(math.Abs(a.sweep)/step - 1e-9))
	if n < 1 {
		n = 1
	}
	pts := make([]geom.Position, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, a.at(a.start+a.sweep*float64(i)/float64(n)))
	}
	return pts
}
