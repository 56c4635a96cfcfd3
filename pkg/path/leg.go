package path

import (
	"math"

	"github.com/chazu/cadpath/pkg/observation"
	"github.com/golang/geo/s1"
)

// Span is one observed distance along a leg.
type Span struct {
	Distance    observation.Distance
	MissConnect bool // no line is created for this span
	OmitPoint   bool // no point is created at the end of this span
}

// Leg is one straight or circular section of a path. Implementations are
// StraightLeg and CurveLeg.
type Leg interface {
	leg() // marker method restricting implementations to this package

	// LegNumber returns the 1-based position of the leg in its path.
	LegNumber() int

	// Observed returns the spans along the leg.
	Observed() []Span

	// Length returns the length of the leg in meters.
	Length() float64
}

// StraightLeg is a run of distances along one bearing. An optional start
// angle turns the bearing before the leg begins.
type StraightLeg struct {
	Number     int
	StartAngle s1.Angle
	HasAngle   bool // the leg opened with an angle or deflection, zero included
	Deflection bool // StartAngle is a deflection, not an angle from the backsight
	Spans      []Span
}

func (StraightLeg) leg()               {}
func (l StraightLeg) LegNumber() int   { return l.Number }
func (l StraightLeg) Observed() []Span { return l.Spans }
func (l StraightLeg) Length() float64  { return spanTotal(l.Spans) }

// CurveLeg is a circular arc. A regular curve is defined by its entry
// angle and the observed arc distances. A cul-de-sac is defined by its
// central angle, and any arc distances are scaled to fit it.
type CurveLeg struct {
	Number       int
	Radius       observation.Distance
	EntryAngle   s1.Angle
	ExitAngle    s1.Angle
	TwoAngles    bool // ExitAngle was given explicitly
	CentralAngle s1.Angle
	CulDeSac     bool
	Clockwise    bool
	Spans        []Span
}

func (CurveLeg) leg()               {}
func (l CurveLeg) LegNumber() int   { return l.Number }
func (l CurveLeg) Observed() []Span { return l.Spans }

// Length returns the arc length. For a cul-de-sac it is derived from the
// central angle and the radius.
func (l CurveLeg) Length() float64 {
	if l.CulDeSac {
		return (2*math.Pi - l.CentralAngle.Radians()) * math.Abs(l.Radius.Meters())
	}
	return spanTotal(l.Spans)
}

// Exit returns the exit angle, which defaults to the entry angle.
func (l CurveLeg) Exit() s1.Angle {
	if l.TwoAngles {
		return l.ExitAngle
	}
	return l.EntryAngle
}

func spanTotal(spans []Span) float64 {
	var total float64
	for _, s := range spans {
		total += s.Distance.Meters()
	}
	return total
}

// CreateLegs groups validated, numbered items into legs.
func CreateLegs(items []Item) ([]Leg, error) {
	var legs []Leg
	i := 0
	for i < len(items) {
		it := items[i]
		switch {
		case it.Kind == UnitsChange:
			i++
		case it.Leg < 0:
			leg, next, err := curveLeg(items, i)
			if err != nil {
				return nil, err
			}
			legs = append(legs, leg)
			i = next
		case it.Leg > 0:
			leg, next, err := straightLeg(items, i)
			if err != nil {
				return nil, err
			}
			legs = append(legs, leg)
			i = next
		default:
			return nil, grammarErr(items, i, "item not assigned to a leg")
		}
	}
	if len(legs) == 0 {
		return nil, &GrammarError{Index: -1, Reason: "path has no legs"}
	}
	return legs, nil
}

// addQualifier attaches a miss-connect or omit-point to the last span.
func addQualifier(spans []Span, kind ItemKind) {
	if len(spans) == 0 {
		return
	}
	switch kind {
	case MissConnect:
		spans[len(spans)-1].MissConnect = true
	case OmitPoint:
		spans[len(spans)-1].OmitPoint = true
	}
}

func straightLeg(items []Item, start int) (StraightLeg, int, error) {
	num := items[start].Leg
	leg := StraightLeg{Number: num}
	i := start
	for ; i < len(items); i++ {
		it := items[i]
		if it.Kind == UnitsChange {
			continue
		}
		if it.Leg != num {
			break
		}
		switch it.Kind {
		case Angle:
			leg.StartAngle = it.Angle()
			leg.HasAngle = true
		case Deflection:
			leg.StartAngle = it.Angle()
			leg.HasAngle = true
			leg.Deflection = true
		case Distance:
			leg.Spans = append(leg.Spans, Span{Distance: it.Distance()})
		case MissConnect, OmitPoint:
			addQualifier(leg.Spans, it.Kind)
		default:
			return leg, i, grammarErr(items, i, "unexpected %s in a straight leg", it.Kind)
		}
	}
	if len(leg.Spans) == 0 {
		return leg, i, grammarErr(items, start, "leg %d has no distances", num)
	}
	return leg, i, nil
}

func curveLeg(items []Item, start int) (CurveLeg, int, error) {
	num := -items[start].Leg
	leg := CurveLeg{Number: num, Clockwise: true}
	i := start
	for ; i < len(items); i++ {
		it := items[i]
		if it.Kind != UnitsChange && it.Leg != -num {
			break
		}
		switch it.Kind {
		case BeginCurve, EndCurve, Slash, UnitsChange:
		case BeginCurveAngle:
			leg.EntryAngle = it.Angle()
		case EndCurveAngle:
			leg.ExitAngle = it.Angle()
			leg.TwoAngles = true
		case CentralAngle:
			leg.CentralAngle = it.Angle()
			leg.CulDeSac = true
		case Radius:
			leg.Radius = it.Distance()
		case CounterClockwise:
			leg.Clockwise = false
		case Distance:
			leg.Spans = append(leg.Spans, Span{Distance: it.Distance()})
		case MissConnect, OmitPoint:
			addQualifier(leg.Spans, it.Kind)
		default:
			return leg, i, grammarErr(items, i, "unexpected %s in a curve", it.Kind)
		}
		if it.Kind == EndCurve {
			i++
			break
		}
	}
	if leg.Radius.Meters() <= 0 {
		return leg, i, grammarErr(items, start, "curve %d needs a positive radius", num)
	}
	if !leg.CulDeSac && len(leg.Spans) == 0 {
		return leg, i, grammarErr(items, start, "curve %d has no arc distances", num)
	}
	return leg, i, nil
}
