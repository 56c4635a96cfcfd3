package traverse

import (
	"fmt"
	"math"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/path"
	"github.com/golang/geo/s1"
)

// Station is the position at the end of one span.
type Station struct {
	Leg        int           // leg number, 1-based
	Span       int           // span index within the leg
	Position   geom.Position // adjusted position
	Raw        geom.Position // position before the residual was distributed
	Cumulative float64       // observed distance from the start, meters
	Correction geom.Position // share of the residual applied to Raw
	Omit       bool          // the span ends at an omitted point
	Connect    bool          // a line should join the previous station to this one
}

// LegGeometry describes where a leg ended up after rotation and scaling.
type LegGeometry struct {
	Leg          int
	Start, End   geom.Position
	StartBearing s1.Angle
	EndBearing   s1.Angle

	// Curve legs only.
	Curve     bool
	Center    geom.Position
	Radius    float64
	Clockwise bool
}

// projection is the outcome of walking legs from a start point.
type projection struct {
	stations []Station
	legs     []LegGeometry
	end      geom.Position
}

// project walks the legs from start, beginning on bearing and scaling
// every distance by sfac.
func project(legs []path.Leg, start geom.Position, bearing s1.Angle, sfac float64) projection {
	var p projection
	pos := start
	cum := 0.0
	for _, l := range legs {
		switch l := l.(type) {
		case path.StraightLeg:
			bearing = addStartAngle(bearing, l)
			g := LegGeometry{Leg: l.Number, Start: pos, StartBearing: bearing, EndBearing: bearing}
			along := 0.0
			for j, s := range l.Spans {
				along += s.Distance.Meters()
				cum += s.Distance.Meters()
				p.stations = append(p.stations, Station{
					Leg:        l.Number,
					Span:       j,
					Raw:        geom.Polar(g.Start, bearing, along*sfac),
					Cumulative: cum,
					Omit:       s.OmitPoint,
					Connect:    !s.MissConnect,
				})
			}
			pos = geom.Polar(g.Start, bearing, along*sfac)
			g.End = pos
			p.legs = append(p.legs, g)

		case path.CurveLeg:
			c := curvePositions(l, pos, bearing, sfac)
			g := LegGeometry{
				Leg:          l.Number,
				Start:        pos,
				End:          c.ec,
				StartBearing: bearing,
				EndBearing:   c.exit,
				Curve:        true,
				Center:       c.center,
				Radius:       c.radius,
				Clockwise:    l.Clockwise,
			}
			p.stations = append(p.stations, curveStations(l, c, cum)...)
			cum += l.Length()
			pos = c.ec
			bearing = c.exit
			p.legs = append(p.legs, g)

		default:
			panic(fmt.Sprintf("traverse: unknown leg %T", l))
		}
	}
	p.end = pos
	return p
}

// addStartAngle turns the incoming bearing by a straight leg's start
// angle. An angle is measured from the backsight, so it is taken off the
// reversed bearing. A deflection is measured from the bearing itself.
func addStartAngle(bearing s1.Angle, l path.StraightLeg) s1.Angle {
	if !l.HasAngle && math.Abs(l.StartAngle.Radians()) < geom.Tiny {
		return bearing
	}
	if l.Deflection {
		return bearing + l.StartAngle
	}
	return bearing + l.StartAngle - math.Pi
}

// curveGeometry holds the derived positions of a curve leg.
type curveGeometry struct {
	center  geom.Position
	radius  float64  // scaled, meters
	toBC    s1.Angle // bearing from the center to the BC
	ec      geom.Position
	exit    s1.Angle // bearing on leaving the EC
	culFact float64  // stretches observed arc distances to fit a cul-de-sac
}

func curvePositions(l path.CurveLeg, bc geom.Position, entry s1.Angle, sfac float64) curveGeometry {
	ccw := !l.Clockwise
	radius := math.Abs(l.Radius.Meters()) * sfac
	reverse := entry + math.Pi

	// Bearing from the BC to the center.
	bearing := entry
	if l.CulDeSac {
		half := l.CentralAngle / 2
		if ccw {
			bearing -= half
		} else {
			bearing += half
		}
	} else {
		turn := math.Pi - l.EntryAngle
		if ccw {
			bearing -= turn
		} else {
			bearing += turn
		}
	}
	center := geom.Polar(bc, bearing, radius)
	toBC := bearing + math.Pi

	// Bearing from the center to the EC.
	if l.CulDeSac {
		turn := math.Pi - l.CentralAngle
		if ccw {
			bearing -= turn
		} else {
			bearing += turn
		}
	} else {
		ca := s1.Angle(l.Length() * sfac / radius)
		if ccw {
			bearing += math.Pi - ca
		} else {
			bearing -= math.Pi - ca
		}
	}
	ec := geom.Polar(center, bearing, radius)

	exit := reverse
	if !l.CulDeSac {
		turn := math.Pi - l.Exit()
		if ccw {
			exit = bearing - turn
		} else {
			exit = bearing + turn
		}
	}

	culFact := 1.0
	if l.CulDeSac {
		if obsv := observedTotal(l.Spans); obsv > geom.Tiny {
			culFact = l.Length() / obsv
		}
	}

	return curveGeometry{
		center:  center,
		radius:  radius,
		toBC:    toBC,
		ec:      ec,
		exit:    geom.NormalizeBearing(exit),
		culFact: culFact,
	}
}

// curveStations places a station at the end of each arc span. A
// cul-de-sac without observed spans gets a single station at the EC.
func curveStations(l path.CurveLeg, c curveGeometry, cum float64) []Station {
	if len(l.Spans) == 0 {
		return []Station{{
			Leg:        l.Number,
			Raw:        c.ec,
			Cumulative: cum + l.Length(),
			Connect:    true,
		}}
	}

	out := make([]Station, 0, len(l.Spans))
	r := math.Abs(l.Radius.Meters())
	edist := 0.0
	for j, s := range l.Spans {
		edist += s.Distance.Meters() * c.culFact
		angle := s1.Angle(edist / r)
		b := c.toBC - angle
		if l.Clockwise {
			b = c.toBC + angle
		}
		pos := geom.Polar(c.center, b, c.radius)
		if j == len(l.Spans)-1 {
			pos = c.ec
		}
		out = append(out, Station{
			Leg:        l.Number,
			Span:       j,
			Raw:        pos,
			Cumulative: cum + edist,
			Omit:       s.OmitPoint,
			Connect:    !s.MissConnect,
		})
	}
	return out
}

func observedTotal(spans []path.Span) float64 {
	var t float64
	for _, s := range spans {
		t += s.Distance.Meters()
	}
	return t
}
