// Package kernel defines the abstract drawing kernel interface.
// Implementations turn survey geometry into shapes that can be measured
// against a cursor position and flattened into polylines for display.
// The kernel abstraction allows swapping backends without changing the
// rest of the system.
package kernel

import "github.com/chazu/cadpath/pkg/geom"

// Shape is an opaque handle to a kernel shape.
// Implementations wrap their internal representation.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Position)
	// Distance returns how far p lies from the drawn outline.
	Distance(p geom.Position) float64
}

// Kernel is the abstract drawing kernel interface.
type Kernel interface {
	// Primitives
	Marker(p geom.Position) Shape
	Segment(a, b geom.Position) Shape
	Circle(center geom.Position, radius float64) Shape
	// Arc runs from start to end around center; both ends lie on the circle.
	Arc(center geom.Position, radius float64, start, end geom.Position, clockwise bool) Shape

	// Combination
	Union(a, b Shape) Shape

	// Outline output
	ToOutline(s Shape) (*Outline, error)
}
