package feature

import (
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/google/uuid"
)

// ID identifies a feature.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

// Short returns the first eight characters, for messages.
func (id ID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// Kind enumerates feature types.
type Kind int

const (
	KindPoint  Kind = iota // surveyed or computed position
	KindLine               // straight segment between two points
	KindArc                // circular segment between two points
	KindCircle             // full circle about a center point
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindArc:
		return "arc"
	case KindCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindPoint; k <= KindCircle; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Feature is one element of the store.
type Feature struct {
	ID     ID     `json:"id"`
	Kind   Kind   `json:"kind"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"` // ID of the operation that created it
	Data   Data   `json:"data"`
}

// Data is the kind-specific payload of a feature.
type Data interface {
	featureData() // marker method restricting implementations to this package
}

// PointData is a position.
type PointData struct {
	Position geom.Position `json:"position"`
}

func (PointData) featureData() {}

// LineData joins two point features.
type LineData struct {
	Start ID `json:"start"`
	End   ID `json:"end"`
}

func (LineData) featureData() {}

// ArcData follows a circle feature from Start to End.
type ArcData struct {
	Circle    ID   `json:"circle"`
	Start     ID   `json:"start"`
	End       ID   `json:"end"`
	Clockwise bool `json:"clockwise"`
}

func (ArcData) featureData() {}

// CircleData is a circle about a point feature. Radius is in meters.
type CircleData struct {
	Center ID      `json:"center"`
	Radius float64 `json:"radius"`
}

func (CircleData) featureData() {}
