package kernel

// Outline is a set of polylines suitable for drawing.
// Points has 2 floats per point (easting, northing); Starts holds the index
// of the first point of each polyline.
type Outline struct {
	Points    []float32 `json:"points"`    // [x0,y0, x1,y1, ...]
	Starts    []uint32  `json:"starts"`    // first point of each polyline
	FeatureID string    `json:"featureId"` // which feature this came from
	Kind      string    `json:"kind"`
}

// PointCount returns the number of points.
func (o *Outline) PointCount() int {
	return len(o.Points) / 2
}

// PolylineCount returns the number of polylines.
func (o *Outline) PolylineCount() int {
	return len(o.Starts)
}

// IsEmpty returns true if the outline has no geometry.
func (o *Outline) IsEmpty() bool {
	return len(o.Points) == 0
}

// Polyline returns the points of polyline i as (x, y) pairs.
func (o *Outline) Polyline(i int) []float32 {
	start := int(o.Starts[i]) * 2
	end := len(o.Points)
	if i+1 < len(o.Starts) {
		end = int(o.Starts[i+1]) * 2
	}
	return o.Points[start:end]
}
