package path

import (
	"fmt"

	"github.com/chazu/cadpath/pkg/observation"
	"github.com/golang/geo/s1"
)

// GrammarError reports a token sequence that breaks the path grammar.
// Index is the offending item, or -1 for problems with the whole path.
type GrammarError struct {
	Index  int
	Item   Item
	Reason string
}

func (e *GrammarError) Error() string {
	if e.Index < 0 {
		return e.Reason
	}
	return fmt.Sprintf("item %d (%s): %s", e.Index+1, e.Item.Kind, e.Reason)
}

func grammarErr(items []Item, i int, format string, args ...any) *GrammarError {
	e := &GrammarError{Index: i, Reason: fmt.Sprintf(format, args...)}
	if i >= 0 && i < len(items) {
		e.Item = items[i]
	}
	return e
}

// Validate checks items against the path grammar, retyping plain values
// in place: outside a curve they become distances, inside a curve they
// become the entry angle, exit angle, radius or arc distances according
// to their position after the BC.
func Validate(items []Item) error {
	if len(items) == 0 {
		return &GrammarError{Index: -1, Reason: "path is empty"}
	}

	ibc := -1 // index of the open BC, -1 outside a curve
	for i := range items {
		it := &items[i]
		switch it.Kind {
		case BeginCurve:
			if ibc >= 0 {
				return grammarErr(items, i, "nested curve")
			}
			// Need at least an angle, a radius and the EC.
			if i+4 > len(items) {
				return grammarErr(items, i, "curve needs an angle, a radius and a closing bracket")
			}
			ibc = i

		case EndCurve:
			if ibc < 0 {
				return grammarErr(items, i, "end of curve without a matching start")
			}
			if err := checkCurve(items, ibc, i); err != nil {
				return err
			}
			ibc = -1

		case Value:
			if ibc < 0 {
				it.Kind = Distance
				break
			}
			switch i - ibc {
			case 1:
				it.Kind = BeginCurveAngle
				it.Value = (s1.Angle(it.Value) * s1.Degree).Radians()
				it.Unit = observation.Meters
			case 2:
				if items[ibc+1].Kind != CentralAngle && i+1 < len(items) && items[i+1].Kind == Value {
					it.Kind = EndCurveAngle
					it.Value = (s1.Angle(it.Value) * s1.Degree).Radians()
					it.Unit = observation.Meters
				} else {
					it.Kind = Radius
				}
			case 3:
				if items[i-1].Kind == EndCurveAngle {
					it.Kind = Radius
				} else {
					it.Kind = Distance
				}
			default:
				it.Kind = Distance
			}

		case Angle, Deflection:
			if ibc >= 0 {
				if it.Kind == Deflection {
					return grammarErr(items, i, "deflection not allowed inside a curve")
				}
				switch {
				case i-ibc == 1:
					it.Kind = BeginCurveAngle
				case i-ibc == 2 && items[ibc+1].Kind != CentralAngle:
					it.Kind = EndCurveAngle
				default:
					return grammarErr(items, i, "extraneous angle inside a curve")
				}
				break
			}
			if i > 0 {
				switch items[i-1].Kind {
				case Angle, Deflection:
					return grammarErr(items, i, "only one angle may start a leg")
				case EndCurve:
					return grammarErr(items, i, "angle cannot follow the end of a curve")
				}
			}

		case Slash:
			if ibc < 0 {
				return grammarErr(items, i, "slash outside a curve")
			}
			if d := i - ibc; d < 3 || d > 5 {
				return grammarErr(items, i, "misplaced slash")
			}

		case CounterClockwise:
			if ibc < 0 {
				return grammarErr(items, i, "counter-clockwise marker outside a curve")
			}
			if d := i - ibc; d < 3 || d > 4 {
				return grammarErr(items, i, "misplaced counter-clockwise marker")
			}

		case CentralAngle:
			if ibc < 0 || i-ibc != 1 {
				return grammarErr(items, i, "central angle must directly follow the start of a curve")
			}

		case MissConnect, OmitPoint:
			// A span may be both unconnected and unpointed: "50/-/*".
			j := i - 1
			if it.Kind == OmitPoint && j >= 0 && items[j].Kind == MissConnect {
				j--
			}
			if j < 0 || items[j].Kind != Distance {
				return grammarErr(items, i, "%s must follow a distance", it.Kind)
			}
		}
	}

	if ibc >= 0 {
		return grammarErr(items, ibc, "curve not closed")
	}
	return nil
}

// checkCurve verifies that the curve between ibc and iec has a usable
// angle and a radius.
func checkCurve(items []Item, ibc, iec int) error {
	switch items[ibc+1].Kind {
	case BeginCurveAngle, CentralAngle:
	default:
		return grammarErr(items, ibc, "curve must start with an angle")
	}
	for j := ibc + 1; j < iec; j++ {
		if items[j].Kind == Radius {
			return nil
		}
	}
	return grammarErr(items, ibc, "curve has no radius")
}

// AssignLegs numbers the legs of validated items and returns the number
// of legs. A straight leg starts at each angle, and at each distance that
// does not continue a straight run. Curve items carry the negated number
// of their leg. Units changes belong to no leg.
func AssignLegs(items []Item) int {
	leg := 0
	inCurve, inStraight := false, false
	for i := range items {
		it := &items[i]
		switch {
		case it.Kind == UnitsChange:
			it.Leg = 0
		case it.Kind == BeginCurve:
			leg++
			inCurve, inStraight = true, false
			it.Leg = -leg
		case inCurve:
			it.Leg = -leg
			if it.Kind == EndCurve {
				inCurve = false
			}
		default:
			switch it.Kind {
			case Angle, Deflection:
				leg++
				inStraight = true
			case Distance:
				if !inStraight {
					leg++
					inStraight = true
				}
			}
			it.Leg = leg
		}
	}
	return leg
}

// Parse tokenizes, validates and numbers a path in one step.
func Parse(text string, unit observation.Unit) ([]Item, error) {
	items, err := Tokenize(text, unit)
	if err != nil {
		return nil, err
	}
	if err := Validate(items); err != nil {
		return nil, err
	}
	AssignLegs(items)
	return items, nil
}
