// Package operation records the editing operations that create survey
// features: connection paths and intersections. Operations keep their
// observed inputs so they can be recomputed and written back as text.
package operation

import (
	"fmt"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/chazu/cadpath/pkg/path"
	"github.com/chazu/cadpath/pkg/traverse"
	"github.com/google/uuid"
)

// PathOperation is a connection path between two known points.
type PathOperation struct {
	ID          uuid.UUID
	From, To    geom.Position
	EntryUnit   observation.Unit
	EntryString string
	Legs        []path.Leg
}

// NewPathOperation parses text into legs. Distances without a unit are in
// unit.
func NewPathOperation(from, to geom.Position, text string, unit observation.Unit) (*PathOperation, error) {
	items, err := path.Parse(text, unit)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	legs, err := path.CreateLegs(items)
	if err != nil {
		return nil, fmt.Errorf("create legs: %w", err)
	}
	return &PathOperation{
		ID:          uuid.New(),
		From:        from,
		To:          to,
		EntryUnit:   unit,
		EntryString: text,
		Legs:        legs,
	}, nil
}

// String formats the legs back into path text.
func (op *PathOperation) String() string {
	return path.Format(op.Legs, op.EntryUnit)
}

// Adjust fits the legs between From and To.
func (op *PathOperation) Adjust(opts traverse.Options) (*traverse.Result, error) {
	res, err := traverse.Adjust(op.Legs, op.From, op.To, opts)
	if err != nil {
		return nil, fmt.Errorf("path %s: %w", op.ID, err)
	}
	return res, nil
}

// Precision returns the closure precision denominator, 0 when the path
// closes exactly.
func (op *PathOperation) Precision() (float64, error) {
	res, err := op.Adjust(traverse.Options{})
	if err != nil {
		return 0, err
	}
	return res.Precision, nil
}

// Length returns the total observed length in meters.
func (op *PathOperation) Length() float64 {
	var total float64
	for _, l := range op.Legs {
		total += l.Length()
	}
	return total
}
