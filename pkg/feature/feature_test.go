package feature

import (
	"testing"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/chazu/cadpath/pkg/operation"
	"github.com/chazu/cadpath/pkg/traverse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	s := New()
	require.NotNil(t, s.Features)
	require.NotNil(t, s.NameIndex)
	assert.Equal(t, 0, s.Count())
}

func TestAddAndLookup(t *testing.T) {
	s := New()
	a := s.AddPoint("A", geom.Pos(1, 2))
	b := s.AddPoint("B", geom.Pos(4, 6))
	line := s.AddLine(a.ID, b.ID)

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, uint64(3), s.Version)
	assert.Equal(t, a, s.Lookup("A"))
	assert.Nil(t, s.Lookup("missing"))

	p, ok := s.Point(b.ID)
	require.True(t, ok)
	assert.Equal(t, geom.Pos(4, 6), p)

	_, ok = s.Point(line.ID)
	assert.False(t, ok, "a line is not a point")

	start, end, ok := s.Endpoints(line)
	require.True(t, ok)
	assert.Equal(t, geom.Pos(1, 2), start)
	assert.Equal(t, geom.Pos(4, 6), end)

	ids := []ID{}
	for _, f := range s.All() {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []ID{a.ID, b.ID, line.ID}, ids, "insertion order")
}

func TestNamedPoint(t *testing.T) {
	s := New()
	a := s.AddPoint("A", geom.Pos(1, 2))
	c := s.AddCircle(a.ID, 5)
	c.Name = "C"
	s.NameIndex["C"] = c.ID

	p, err := s.NamedPoint("A")
	require.NoError(t, err)
	assert.Equal(t, geom.Pos(1, 2), p)

	_, err = s.NamedPoint("C")
	assert.ErrorContains(t, err, "not a point")
	_, err = s.NamedPoint("Z")
	assert.ErrorContains(t, err, "no feature")
}

func TestFindCircles(t *testing.T) {
	s := New()
	c1 := s.AddPoint("", geom.Pos(0, 0))
	c2 := s.AddPoint("", geom.Pos(10, 0))
	s.AddCircle(c1.ID, 5)
	s.AddCircle(c2.ID, 5.0004)
	s.AddCircle(c2.ID, 20)

	found := s.FindCircles(geom.Pos(5, 0), 0.001)
	require.Len(t, found, 2)
	assert.Equal(t, 5.0, found[0].Radius, "exact match first")
	assert.Equal(t, geom.Pos(10, 0), found[1].Center)

	assert.Empty(t, s.FindCircles(geom.Pos(100, 100), 0.001))
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateCleanStore(t *testing.T) {
	s := New()
	a := s.AddPoint("A", geom.Pos(0, 0))
	b := s.AddPoint("B", geom.Pos(10, 0))
	s.AddLine(a.ID, b.ID)
	circle := s.AddCircle(a.ID, 10)
	s.AddArc(circle.ID, b.ID, b.ID, true)

	res := Validate(s)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	// A zero-length arc is only a warning.
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "zero length")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(s *Store)
		want  string
	}{
		{"dangling line", func(s *Store) {
			a := s.AddPoint("A", geom.Pos(0, 0))
			s.AddLine(a.ID, "nope")
		}, "is not a point"},
		{"circle without center", func(s *Store) {
			s.AddCircle("nope", 5)
		}, "is not a point"},
		{"arc without circle", func(s *Store) {
			a := s.AddPoint("A", geom.Pos(0, 0))
			b := s.AddPoint("B", geom.Pos(1, 0))
			s.AddArc(a.ID, a.ID, b.ID, false)
		}, "is not a circle"},
		{"duplicate names", func(s *Store) {
			s.AddPoint("A", geom.Pos(0, 0))
			s.AddPoint("A", geom.Pos(5, 0))
		}, "duplicate name"},
		{"non-positive radius", func(s *Store) {
			a := s.AddPoint("A", geom.Pos(0, 0))
			s.AddCircle(a.ID, 0)
		}, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			tt.build(s)
			res := Validate(s)
			require.False(t, res.OK())
			assert.Contains(t, res.Errors[0].Error(), tt.want)
			assert.Equal(t, SeverityError, res.Errors[0].Severity)
		})
	}
}

func TestValidateCoincidentPoints(t *testing.T) {
	s := New()
	s.AddPoint("A", geom.Pos(0, 0))
	s.AddPoint("B", geom.Pos(0, 0.0001))
	res := Validate(s)
	assert.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "coincides")
}

// ---------------------------------------------------------------------------
// Materialize
// ---------------------------------------------------------------------------

func adjusted(t *testing.T, s *Store, text string) (*operation.PathOperation, *traverse.Result) {
	t.Helper()
	from, err := s.NamedPoint("A")
	require.NoError(t, err)
	to, err := s.NamedPoint("B")
	require.NoError(t, err)
	op, err := operation.NewPathOperation(from, to, text, observation.Meters)
	require.NoError(t, err)
	res, err := op.Adjust(traverse.Options{})
	require.NoError(t, err)
	return op, res
}

func TestMaterializeStraightPath(t *testing.T) {
	s := New()
	a := s.AddPoint("A", geom.Pos(0, 0))
	b := s.AddPoint("B", geom.Pos(100, 50))
	op, res := adjusted(t, s, "100.00 90-00 50.00")

	created, err := Materialize(s, a.ID, b.ID, op, res)
	require.NoError(t, err)
	// One intermediate point and two lines.
	assert.Len(t, created, 3)
	assert.Len(t, s.OfKind(KindPoint), 3)
	lines := s.OfKind(KindLine)
	require.Len(t, lines, 2)
	assert.Equal(t, b.ID, lines[1].Data.(LineData).End)
	for _, id := range created {
		assert.Equal(t, op.ID.String(), s.Get(id).Source)
	}
	assert.True(t, Validate(s).OK())
}

func TestMaterializeQualifiers(t *testing.T) {
	s := New()
	a := s.AddPoint("A", geom.Pos(0, 0))
	b := s.AddPoint("B", geom.Pos(0, 100))
	op, res := adjusted(t, s, "25/- 25/* 25 25")

	_, err := Materialize(s, a.ID, b.ID, op, res)
	require.NoError(t, err)
	// Spans end at 25 (point), 50 (omitted), 75 (point) and B.
	assert.Len(t, s.OfKind(KindPoint), 4)
	// Span 1 is miss-connected, span 2 ends at no point and span 3 starts
	// at none, so only span 4 has a line.
	lines := s.OfKind(KindLine)
	require.Len(t, lines, 1)
	assert.Equal(t, b.ID, lines[0].Data.(LineData).End)
}

func TestMaterializeCurve(t *testing.T) {
	s := New()
	a := s.AddPoint("A", geom.Pos(0, 0))
	op, err := operation.NewPathOperation(geom.Pos(0, 0), geom.Pos(1, 1), "(90-00 10/5 5)", observation.Meters)
	require.NoError(t, err)
	raw, err := op.Adjust(traverse.Options{})
	require.NoError(t, err)
	op.To = raw.RawEnd
	res, err := op.Adjust(traverse.Options{})
	require.NoError(t, err)
	b := s.AddPoint("B", op.To)

	_, err = Materialize(s, a.ID, b.ID, op, res)
	require.NoError(t, err)
	require.Len(t, s.OfKind(KindCircle), 1)
	arcs := s.OfKind(KindArc)
	require.Len(t, arcs, 2)
	assert.True(t, arcs[0].Data.(ArcData).Clockwise)
	assert.Equal(t, b.ID, arcs[1].Data.(ArcData).End)
	assert.True(t, Validate(s).OK())
}

func TestMaterializeRejectsUnknownEnds(t *testing.T) {
	s := New()
	a := s.AddPoint("A", geom.Pos(0, 0))
	s.AddPoint("B", geom.Pos(0, 100))
	op, res := adjusted(t, s, "100")

	_, err := Materialize(s, a.ID, "missing", op, res)
	var mErr *MaterializeError
	require.ErrorAs(t, err, &mErr)
}
