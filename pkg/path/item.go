// Package path parses connection paths: whitespace-separated words that
// describe a run of straight and circular legs between two known points.
//
// Parsing happens in three steps. Tokenize turns text into Items, Validate
// checks the grammar and retypes numeric values by position, and
// AssignLegs numbers the legs. Parse runs all three. CreateLegs and Format
// convert between items and the Leg model.
package path

import (
	"fmt"

	"github.com/chazu/cadpath/pkg/observation"
	"github.com/golang/geo/s1"
)

// ItemKind enumerates the tokens of the connection path grammar.
type ItemKind int

const (
	Value            ItemKind = iota // numeric value not yet classified
	Distance                         // observed distance
	Angle                            // angle measured from the backsight
	Deflection                       // angle measured from the extended course
	CentralAngle                     // central angle of a cul-de-sac
	BeginCurveAngle                  // entry angle of a curve
	EndCurveAngle                    // exit angle of a curve
	Radius                           // curve radius
	BeginCurve                       // "("
	EndCurve                         // ")"
	Slash                            // separates curve definition from arc distances
	CounterClockwise                 // "cc"
	MissConnect                      // "/-": no line for the preceding span
	OmitPoint                        // "/*": no point at the end of the preceding span
	UnitsChange                      // "ft..." switches the entry unit
)

func (k ItemKind) String() string {
	switch k {
	case Value:
		return "value"
	case Distance:
		return "distance"
	case Angle:
		return "angle"
	case Deflection:
		return "deflection"
	case CentralAngle:
		return "central angle"
	case BeginCurveAngle:
		return "BC angle"
	case EndCurveAngle:
		return "EC angle"
	case Radius:
		return "radius"
	case BeginCurve:
		return "BC"
	case EndCurve:
		return "EC"
	case Slash:
		return "slash"
	case CounterClockwise:
		return "counter-clockwise"
	case MissConnect:
		return "miss-connect"
	case OmitPoint:
		return "omit-point"
	case UnitsChange:
		return "units"
	default:
		return "unknown"
	}
}

// isAngle reports whether the kind carries an angle in radians.
func (k ItemKind) isAngle() bool {
	switch k {
	case Angle, Deflection, CentralAngle, BeginCurveAngle, EndCurveAngle:
		return true
	}
	return false
}

// Item is one token of a connection path.
//
// Value holds radians for angle kinds and a length in Unit for Value,
// Distance and Radius. Leg is zero until AssignLegs runs; items inside a
// curve carry the negated leg number.
type Item struct {
	Kind  ItemKind
	Value float64
	Unit  observation.Unit

	// Implicit marks a MissConnect inserted after the span that follows
	// an omitted point.
	Implicit bool

	Leg int
}

// Angle returns the item's value as an angle.
func (it Item) Angle() s1.Angle {
	return s1.Angle(it.Value)
}

// Distance returns the item's value as an observed distance.
func (it Item) Distance() observation.Distance {
	return observation.NewDistance(it.Value, it.Unit)
}

func (it Item) String() string {
	switch {
	case it.Kind.isAngle():
		return fmt.Sprintf("%s %s", it.Kind, observation.FormatAngle(it.Angle()))
	case it.Kind == Value || it.Kind == Distance || it.Kind == Radius:
		return fmt.Sprintf("%s %s", it.Kind, it.Distance().Format(-1))
	case it.Kind == UnitsChange:
		return fmt.Sprintf("%s %s", it.Kind, it.Unit)
	}
	return it.Kind.String()
}
