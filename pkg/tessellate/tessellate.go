// Package tessellate walks a feature store and produces drawable outlines
// using a drawing kernel. One outline is produced per feature.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/cadpath/pkg/feature"
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/kernel"
)

// Tessellate produces one outline per feature, in store order, using the
// provided drawing kernel. The tessellator is read-only and never mutates
// the store.
func Tessellate(s *feature.Store, k kernel.Kernel) ([]*kernel.Outline, error) {
	if s == nil {
		return nil, nil
	}

	outlines := make([]*kernel.Outline, 0, s.Count())
	for _, f := range s.All() {
		shape, err := shapeFor(s, k, f)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		o, err := k.ToOutline(shape)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToOutline failed for feature %s: %w", f.ID.Short(), err)
		}
		o.FeatureID = string(f.ID)
		o.Kind = f.Kind.String()
		outlines = append(outlines, o)
	}
	return outlines, nil
}

// Pick returns the feature whose outline passes nearest to p, provided it
// is within tolerance. Earlier features win ties.
func Pick(s *feature.Store, k kernel.Kernel, p geom.Position, tolerance float64) (feature.ID, bool) {
	if s == nil {
		return "", false
	}
	var (
		best     feature.ID
		bestDist = math.Inf(1)
	)
	for _, f := range s.All() {
		shape, err := shapeFor(s, k, f)
		if err != nil {
			continue
		}
		if d := shape.Distance(p); d <= tolerance && d < bestDist {
			best, bestDist = f.ID, d
		}
	}
	return best, !best.IsZero()
}

// Extent returns the bounding box of everything drawn. ok is false for an
// empty store.
func Extent(s *feature.Store, k kernel.Kernel) (min, max geom.Position, ok bool) {
	if s == nil {
		return min, max, false
	}
	var all kernel.Shape
	for _, f := range s.All() {
		shape, err := shapeFor(s, k, f)
		if err != nil {
			continue
		}
		if all == nil {
			all = shape
		} else {
			all = k.Union(all, shape)
		}
	}
	if all == nil {
		return min, max, false
	}
	min, max = all.BoundingBox()
	return min, max, true
}

// shapeFor creates the kernel shape for one feature.
func shapeFor(s *feature.Store, k kernel.Kernel, f *feature.Feature) (kernel.Shape, error) {
	switch d := f.Data.(type) {
	case feature.PointData:
		return k.Marker(d.Position), nil

	case feature.LineData:
		a, b, ok := s.Endpoints(f)
		if !ok {
			return nil, fmt.Errorf("line %s has a missing end point", f.ID.Short())
		}
		return k.Segment(a, b), nil

	case feature.CircleData:
		c, ok := s.Circle(f.ID)
		if !ok {
			return nil, fmt.Errorf("circle %s has no center point", f.ID.Short())
		}
		return k.Circle(c.Center, c.Radius), nil

	case feature.ArcData:
		c, ok := s.Circle(d.Circle)
		if !ok {
			return nil, fmt.Errorf("arc %s has no circle", f.ID.Short())
		}
		a, b, ok := s.Endpoints(f)
		if !ok {
			return nil, fmt.Errorf("arc %s has a missing end point", f.ID.Short())
		}
		return k.Arc(c.Center, c.Radius, a, b, d.Clockwise), nil

	default:
		return nil, fmt.Errorf("feature %s has unsupported data type %T", f.ID.Short(), f.Data)
	}
}
