// Package geom provides planar survey geometry: positions in
// easting/northing and bearings measured clockwise from grid north.
package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/golang/geo/s1"
)

// Position is a ground position. X is the easting, Y is the northing,
// both in meters.
type Position = v2.Vec

// Tiny is the tolerance used when comparing lengths and angles.
const Tiny = 1e-9

// North is the bearing of grid north.
const North s1.Angle = 0

// Pos is shorthand for building a Position.
func Pos(e, n float64) Position {
	return Position{X: e, Y: n}
}

// NormalizeBearing folds a into the range [0, 2π).
func NormalizeBearing(a s1.Angle) s1.Angle {
	r := math.Mod(a.Radians(), 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	// Mod can hand back 2π after the correction above for tiny negatives.
	if r >= 2*math.Pi {
		r = 0
	}
	return s1.Angle(r)
}

// BearingTo returns the bearing from one position to another, in [0, 2π).
// Coincident positions give a bearing of zero.
func BearingTo(from, to Position) s1.Angle {
	d := to.Sub(from)
	return NormalizeBearing(s1.Angle(math.Atan2(d.X, d.Y)))
}

// Distance returns the length between two positions.
func Distance(a, b Position) float64 {
	return b.Sub(a).Length()
}

// Polar returns the position reached by travelling dist along bearing.
func Polar(from Position, bearing s1.Angle, dist float64) Position {
	b := bearing.Radians()
	return Position{
		X: from.X + dist*math.Sin(b),
		Y: from.Y + dist*math.Cos(b),
	}
}

// Unit returns the unit vector pointing along bearing.
func Unit(bearing s1.Angle) Position {
	return Polar(Position{}, bearing, 1)
}

// Rotate turns p about origin by angle, clockwise (the same sense in which
// bearings increase).
func Rotate(origin, p Position, angle s1.Angle) Position {
	s, c := math.Sincos(angle.Radians())
	d := p.Sub(origin)
	return Position{
		X: origin.X + d.X*c + d.Y*s,
		Y: origin.Y - d.X*s + d.Y*c,
	}
}

// Cross returns the z component of a x b.
func Cross(a, b Position) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Equal reports whether two positions lie within tol of each other.
func Equal(a, b Position, tol float64) bool {
	return Distance(a, b) <= tol
}

// IsFinite reports whether both ordinates are finite numbers.
func IsFinite(p Position) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// NormalizeSigned folds a into the range (-π, π].
func NormalizeSigned(a s1.Angle) s1.Angle {
	n := NormalizeBearing(a)
	if n > math.Pi {
		n -= 2 * math.Pi
	}
	return n
}
