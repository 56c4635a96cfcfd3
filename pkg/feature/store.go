package feature

import (
	"fmt"
	"sort"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
)

// Store is an in-memory set of features. Order records insertion so that
// iteration and persistence are deterministic.
type Store struct {
	Features  map[ID]*Feature `json:"features"`
	Order     []ID            `json:"order"`
	NameIndex map[string]ID   `json:"name_index"`
	Version   uint64          `json:"version"`
}

// New creates an empty store.
func New() *Store {
	return &Store{
		Features:  make(map[ID]*Feature),
		NameIndex: make(map[string]ID),
	}
}

// Add inserts a feature, assigning an ID if it has none. It does not check
// for duplicate names; Validate reports those.
func (s *Store) Add(f *Feature) *Feature {
	if f.ID.IsZero() {
		f.ID = NewID()
	}
	if _, exists := s.Features[f.ID]; !exists {
		s.Order = append(s.Order, f.ID)
	}
	s.Features[f.ID] = f
	if f.Name != "" {
		s.NameIndex[f.Name] = f.ID
	}
	s.Version++
	return f
}

// AddPoint adds a point feature. name may be empty.
func (s *Store) AddPoint(name string, p geom.Position) *Feature {
	return s.Add(&Feature{Kind: KindPoint, Name: name, Data: PointData{Position: p}})
}

// AddLine adds a straight line between two point features.
func (s *Store) AddLine(start, end ID) *Feature {
	return s.Add(&Feature{Kind: KindLine, Data: LineData{Start: start, End: end}})
}

// AddCircle adds a circle about a point feature.
func (s *Store) AddCircle(center ID, radius float64) *Feature {
	return s.Add(&Feature{Kind: KindCircle, Data: CircleData{Center: center, Radius: radius}})
}

// AddArc adds an arc on a circle feature.
func (s *Store) AddArc(circle, start, end ID, clockwise bool) *Feature {
	return s.Add(&Feature{Kind: KindArc, Data: ArcData{Circle: circle, Start: start, End: end, Clockwise: clockwise}})
}

// Get returns the feature with the given ID, or nil.
func (s *Store) Get(id ID) *Feature {
	return s.Features[id]
}

// Lookup returns the feature with the given name, or nil.
func (s *Store) Lookup(name string) *Feature {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Features[id]
}

// Point returns the position of a point feature.
func (s *Store) Point(id ID) (geom.Position, bool) {
	f := s.Features[id]
	if f == nil {
		return geom.Position{}, false
	}
	pd, ok := f.Data.(PointData)
	return pd.Position, ok
}

// NamedPoint returns the position of the point feature called name.
func (s *Store) NamedPoint(name string) (geom.Position, error) {
	f := s.Lookup(name)
	if f == nil {
		return geom.Position{}, fmt.Errorf("no feature named %q", name)
	}
	p, ok := s.Point(f.ID)
	if !ok {
		return geom.Position{}, fmt.Errorf("feature %q is a %s, not a point", name, f.Kind)
	}
	return p, nil
}

// Circle returns the geometry of a circle feature.
func (s *Store) Circle(id ID) (observation.Circle, bool) {
	f := s.Features[id]
	if f == nil {
		return observation.Circle{}, false
	}
	cd, ok := f.Data.(CircleData)
	if !ok {
		return observation.Circle{}, false
	}
	center, ok := s.Point(cd.Center)
	if !ok {
		return observation.Circle{}, false
	}
	return observation.Circle{Center: center, Radius: cd.Radius}, true
}

// All returns every feature in insertion order.
func (s *Store) All() []*Feature {
	out := make([]*Feature, 0, len(s.Order))
	for _, id := range s.Order {
		if f := s.Features[id]; f != nil {
			out = append(out, f)
		}
	}
	return out
}

// OfKind returns the features of one kind in insertion order.
func (s *Store) OfKind(k Kind) []*Feature {
	var out []*Feature
	for _, f := range s.All() {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// Count returns the number of features.
func (s *Store) Count() int {
	return len(s.Features)
}

// FindCircles returns the circles whose circumference passes within
// tolerance of p, nearest first.
func (s *Store) FindCircles(p geom.Position, tolerance float64) []observation.Circle {
	var out []observation.Circle
	for _, f := range s.OfKind(KindCircle) {
		c, ok := s.Circle(f.ID)
		if ok && c.DistanceTo(p) <= tolerance {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceTo(p) < out[j].DistanceTo(p)
	})
	return out
}

// Endpoints returns the start and end positions of a line or arc feature.
func (s *Store) Endpoints(f *Feature) (start, end geom.Position, ok bool) {
	var a, b ID
	switch d := f.Data.(type) {
	case LineData:
		a, b = d.Start, d.End
	case ArcData:
		a, b = d.Start, d.End
	default:
		return geom.Position{}, geom.Position{}, false
	}
	start, okA := s.Point(a)
	end, okB := s.Point(b)
	return start, end, okA && okB
}
