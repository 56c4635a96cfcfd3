package feature

import (
	"fmt"

	"github.com/chazu/cadpath/pkg/operation"
	"github.com/chazu/cadpath/pkg/traverse"
)

// MaterializeError reports an adjustment that cannot be turned into
// features.
type MaterializeError struct {
	Reason string
}

func (e *MaterializeError) Error() string {
	return "materialize: " + e.Reason
}

// Materialize adds the features for an adjusted path running from the point
// feature from to the point feature to. Each span gets an end point unless
// it omits one, and a line or arc unless it is miss-connected or either
// end is missing. The last span always ends on to. It returns the IDs of
// the new features.
func Materialize(s *Store, from, to ID, op *operation.PathOperation, res *traverse.Result) ([]ID, error) {
	if _, ok := s.Point(from); !ok {
		return nil, &MaterializeError{Reason: fmt.Sprintf("start %s is not a point", from.Short())}
	}
	if _, ok := s.Point(to); !ok {
		return nil, &MaterializeError{Reason: fmt.Sprintf("end %s is not a point", to.Short())}
	}
	if len(res.Stations) == 0 {
		return nil, &MaterializeError{Reason: "adjustment has no stations"}
	}

	source := op.ID.String()
	var created []ID
	add := func(f *Feature) *Feature {
		f.Source = source
		created = append(created, f.ID)
		return f
	}

	// One circle per curve leg, about a new center point.
	circles := make(map[int]ID)
	clockwise := make(map[int]bool)
	for _, g := range res.Legs {
		if !g.Curve {
			continue
		}
		center := add(s.AddPoint("", g.Center))
		circle := add(s.AddCircle(center.ID, g.Radius))
		circles[g.Leg] = circle.ID
		clockwise[g.Leg] = g.Clockwise
	}

	prev := from
	last := len(res.Stations) - 1
	for i, st := range res.Stations {
		var end ID
		switch {
		case i == last:
			end = to
		case !st.Omit:
			end = add(s.AddPoint("", st.Position)).ID
		}

		if st.Connect && !st.Omit && !prev.IsZero() && !end.IsZero() {
			if c, ok := circles[st.Leg]; ok {
				add(s.AddArc(c, prev, end, clockwise[st.Leg]))
			} else {
				add(s.AddLine(prev, end))
			}
		}
		prev = end
	}
	return created, nil
}
