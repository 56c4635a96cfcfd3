package operation

import (
	"fmt"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/intersect"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/google/uuid"
)

// IntersectKind names the constraints an intersection was built from.
type IntersectKind int

const (
	TwoDirections IntersectKind = iota
	TwoDistances
	DirectionAndDistance
	DirectionAndLine
	TwoLines
)

func (k IntersectKind) String() string {
	switch k {
	case TwoDirections:
		return "two-directions"
	case TwoDistances:
		return "two-distances"
	case DirectionAndDistance:
		return "direction-and-distance"
	case DirectionAndLine:
		return "direction-and-line"
	case TwoLines:
		return "two-lines"
	default:
		return fmt.Sprintf("IntersectKind(%d)", int(k))
	}
}

// IntersectOperation locates a point from two constraints. A miss is
// recorded in Result rather than returned as an error.
type IntersectOperation struct {
	ID     uuid.UUID
	Kind   IntersectKind
	A, B   intersect.Constraint
	Hint   *geom.Position
	Result intersect.Result
}

func newIntersect(kind IntersectKind, a, b intersect.Constraint, hint *geom.Position) *IntersectOperation {
	return &IntersectOperation{
		ID:     uuid.New(),
		Kind:   kind,
		A:      a,
		B:      b,
		Hint:   hint,
		Result: intersect.Resolve(a, b, hint),
	}
}

// IntersectTwoDirections intersects two directions.
func IntersectTwoDirections(d1, d2 observation.Direction) *IntersectOperation {
	return newIntersect(TwoDirections, intersect.RayFrom(d1), intersect.RayFrom(d2), nil)
}

// IntersectTwoDistances intersects two circles, preferring the solution
// nearer hint when there are two.
func IntersectTwoDistances(c1, c2 observation.Circle, hint *geom.Position) *IntersectOperation {
	return newIntersect(TwoDistances, intersect.Circle(c1), intersect.Circle(c2), hint)
}

// IntersectDirectionAndDistance intersects a direction with a circle.
func IntersectDirectionAndDistance(d observation.Direction, c observation.Circle, hint *geom.Position) *IntersectOperation {
	return newIntersect(DirectionAndDistance, intersect.RayFrom(d), intersect.Circle(c), hint)
}

// IntersectDirectionAndLine intersects a direction with the line from start
// to end.
func IntersectDirectionAndLine(d observation.Direction, start, end geom.Position) *IntersectOperation {
	return newIntersect(DirectionAndLine, intersect.RayFrom(d), intersect.Segment{Start: start, End: end}, nil)
}

// IntersectTwoLines intersects two existing lines.
func IntersectTwoLines(a, b intersect.Segment) *IntersectOperation {
	return newIntersect(TwoLines, a, b, nil)
}

// Point returns the intersection and whether there was one.
func (op *IntersectOperation) Point() (geom.Position, bool) {
	return op.Result.Point, op.Result.OK()
}

func (op *IntersectOperation) String() string {
	if !op.Result.OK() {
		return fmt.Sprintf("%s: no intersection", op.Kind)
	}
	return fmt.Sprintf("%s: %s at (%.3f, %.3f)", op.Kind, op.Result.Kind, op.Result.Point.X, op.Result.Point.Y)
}
