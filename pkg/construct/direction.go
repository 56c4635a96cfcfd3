// Package construct builds directions and circles from partially entered
// input. A builder holds whatever has been entered so far; TryBuild reports
// whether the input is complete and, if it is, the value it describes.
// Missing input is never an error. Contradictory input is.
package construct

import (
	"fmt"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/golang/geo/s1"
)

// Defaults are the user settings a builder starts from.
type Defaults struct {
	// Offset is a signed distance in meters; negative means left.
	Offset    float64
	EntryUnit observation.Unit
}

// ConstructionError reports input that cannot describe any direction or
// circle.
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return "construction: " + e.Reason
}

// State says what a builder still needs.
type State int

const (
	NeedFrom State = iota
	NeedAngle
	NeedBacksight
	NeedParallelPoints
	NeedCenter
	NeedRadius
	Ready
	Invalid
)

func (s State) String() string {
	switch s {
	case NeedFrom:
		return "need-from"
	case NeedAngle:
		return "need-angle"
	case NeedBacksight:
		return "need-backsight"
	case NeedParallelPoints:
		return "need-parallel-points"
	case NeedCenter:
		return "need-center"
	case NeedRadius:
		return "need-radius"
	case Ready:
		return "ready"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DirectionBuilder accumulates the inputs for one direction. The zero value
// is usable; NewDirectionBuilder pre-seeds the default offset.
type DirectionBuilder struct {
	From       *geom.Position `json:"from,omitempty"`
	Backsight  *geom.Position `json:"backsight,omitempty"`
	Angle      *s1.Angle      `json:"angle,omitempty"`
	CCW        bool           `json:"ccw"`
	Deflection bool           `json:"deflection"`
	Parallel1  *geom.Position `json:"parallel1,omitempty"`
	Parallel2  *geom.Position `json:"parallel2,omitempty"`

	OffsetDistance *observation.OffsetDistance `json:"offsetDistance,omitempty"`
	OffsetPoint    *geom.Position              `json:"offsetPoint,omitempty"`
}

// NewDirectionBuilder returns a builder carrying the default offset, if
// any.
func NewDirectionBuilder(d Defaults) *DirectionBuilder {
	b := &DirectionBuilder{}
	if d.Offset != 0 {
		off := observation.SignedOffset(d.Offset, d.EntryUnit)
		b.OffsetDistance = &off
	}
	return b
}

// SetFrom sets the point the direction starts at.
func (b *DirectionBuilder) SetFrom(p geom.Position) { b.From = &p }

// SetBacksight sets the point an observed angle is turned from.
func (b *DirectionBuilder) SetBacksight(p geom.Position) { b.Backsight = &p }

// SetAngle sets the bearing, or the observed angle when there is a
// backsight.
func (b *DirectionBuilder) SetAngle(a s1.Angle) { b.Angle = &a }

// SetParallel sets the two points of the line the direction runs parallel
// to.
func (b *DirectionBuilder) SetParallel(p1, p2 geom.Position) {
	b.Parallel1 = &p1
	b.Parallel2 = &p2
}

// ClearParallel removes the parallel points.
func (b *DirectionBuilder) ClearParallel() {
	b.Parallel1 = nil
	b.Parallel2 = nil
}

// SetOffsetDistance replaces any offset point with an offset distance.
func (b *DirectionBuilder) SetOffsetDistance(d observation.Distance, side observation.Side) {
	b.OffsetDistance = &observation.OffsetDistance{Distance: d, Side: side}
	b.OffsetPoint = nil
}

// SetOffsetPoint replaces any offset distance with an offset point.
func (b *DirectionBuilder) SetOffsetPoint(p geom.Position) {
	b.OffsetPoint = &p
	b.OffsetDistance = nil
}

// ClearOffset removes any offset.
func (b *DirectionBuilder) ClearOffset() {
	b.OffsetDistance = nil
	b.OffsetPoint = nil
}

func (b *DirectionBuilder) parallel() bool {
	return b.Parallel1 != nil || b.Parallel2 != nil
}

// check returns the first contradiction in the input, or nil.
func (b *DirectionBuilder) check() error {
	if !b.parallel() {
		return nil
	}
	switch {
	case b.Backsight != nil:
		return &ConstructionError{Reason: "a parallel cannot also have a backsight"}
	case b.Angle != nil:
		return &ConstructionError{Reason: "a parallel cannot also have an angle"}
	case b.Deflection:
		return &ConstructionError{Reason: "a parallel cannot be a deflection"}
	case b.CCW:
		return &ConstructionError{Reason: "a parallel has no turn direction"}
	}
	if b.Parallel1 != nil && b.Parallel2 != nil && geom.Equal(*b.Parallel1, *b.Parallel2, geom.Tiny) {
		return &ConstructionError{Reason: "parallel points coincide"}
	}
	return nil
}

// State reports what the builder needs next.
func (b *DirectionBuilder) State() State {
	if b.check() != nil {
		return Invalid
	}
	switch {
	case b.From == nil:
		return NeedFrom
	case b.parallel():
		if b.Parallel1 == nil || b.Parallel2 == nil {
			return NeedParallelPoints
		}
		return Ready
	case b.Angle == nil:
		return NeedAngle
	case b.Deflection && b.Backsight == nil:
		return NeedBacksight
	}
	return Ready
}

// TryBuild returns the direction described so far. ok is false while
// required input is missing.
func (b *DirectionBuilder) TryBuild() (observation.Direction, bool, error) {
	if err := b.check(); err != nil {
		return nil, false, err
	}
	if b.State() != Ready {
		return nil, false, nil
	}

	var d observation.Direction
	switch {
	case b.parallel():
		d = observation.ParallelDirection{From: *b.From, P1: *b.Parallel1, P2: *b.Parallel2}
	case b.Backsight != nil:
		if geom.Equal(*b.Backsight, *b.From, geom.Tiny) {
			return nil, false, &ConstructionError{Reason: "backsight coincides with the from-point"}
		}
		d = observation.AngleDirection{
			Backsight:  *b.Backsight,
			From:       *b.From,
			Observed:   *b.Angle,
			Clockwise:  !b.CCW,
			Deflection: b.Deflection,
		}
	default:
		bearing := *b.Angle
		if b.CCW {
			bearing = -bearing
		}
		d = observation.BearingDirection{From: *b.From, Bearing: geom.NormalizeBearing(bearing)}
	}

	switch {
	case b.OffsetDistance != nil:
		d = observation.WithOffset(d, *b.OffsetDistance)
	case b.OffsetPoint != nil:
		d = observation.WithOffset(d, observation.OffsetPoint{Point: *b.OffsetPoint})
	}
	return d, true, nil
}
