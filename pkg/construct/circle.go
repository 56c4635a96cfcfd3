package construct

import (
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
)

// CircleBuilder accumulates a center and a radius. The radius is either an
// entered distance or the distance to a point, never both.
type CircleBuilder struct {
	Center      *geom.Position        `json:"center,omitempty"`
	Radius      *observation.Distance `json:"radius,omitempty"`
	RadiusPoint *geom.Position        `json:"radiusPoint,omitempty"`
}

// SetCenter sets the center point.
func (b *CircleBuilder) SetCenter(p geom.Position) { b.Center = &p }

// SetRadius replaces any radius point with an entered distance.
func (b *CircleBuilder) SetRadius(d observation.Distance) {
	b.Radius = &d
	b.RadiusPoint = nil
}

// SetRadiusPoint replaces any entered distance with a point on the circle.
func (b *CircleBuilder) SetRadiusPoint(p geom.Position) {
	b.RadiusPoint = &p
	b.Radius = nil
}

// State reports what the builder needs next.
func (b *CircleBuilder) State() State {
	switch {
	case b.Center == nil:
		return NeedCenter
	case b.Radius == nil && b.RadiusPoint == nil:
		return NeedRadius
	}
	if _, _, err := b.TryBuild(); err != nil {
		return Invalid
	}
	return Ready
}

// TryBuild returns the circle described so far.
func (b *CircleBuilder) TryBuild() (observation.Circle, bool, error) {
	if b.Center == nil || (b.Radius == nil && b.RadiusPoint == nil) {
		return observation.Circle{}, false, nil
	}
	var c observation.Circle
	if b.Radius != nil {
		if b.Radius.Meters() <= 0 {
			return observation.Circle{}, false, &ConstructionError{Reason: "radius must be positive"}
		}
		c = observation.CircleFromDistance(*b.Center, *b.Radius)
	} else {
		c = observation.CircleThroughPoint(*b.Center, *b.RadiusPoint)
	}
	if c.Radius <= geom.Tiny {
		return observation.Circle{}, false, &ConstructionError{Reason: "radius point coincides with the center"}
	}
	return c, true, nil
}
