package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cadpath/pkg/geom"
)

func TestIntersectCircles(t *testing.T) {
	out, _, err := execute(t, "intersect", "circles", "--c1", "0,0", "--r1", "5", "--c2", "8,0", "--r2", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "two")
	assertNear(t, geom.Pos(4, 3), lastXY(t, out))

	out, _, err = execute(t, "intersect", "circles", "--c1", "0,0", "--r1", "5", "--c2", "8,0", "--r2", "5", "--near", "4,-10")
	require.NoError(t, err)
	assertNear(t, geom.Pos(4, -3), lastXY(t, out))
}

func TestIntersectCircles_RadiusUnits(t *testing.T) {
	// Radii in feet are converted before intersecting.
	out, _, err := execute(t, "intersect", "circles", "--c1", "0,0", "--r1", "10ft", "--c2", "8,0", "--r2", "20ft")
	require.NoError(t, err)
	p := lastXY(t, out)
	assert.InDelta(t, 3.048, geom.Distance(geom.Pos(0, 0), p), 1e-3)
}

func TestIntersectCircles_Miss(t *testing.T) {
	_, _, err := execute(t, "intersect", "circles", "--c1", "0,0", "--r1", "1", "--c2", "10,0", "--r2", "1")
	assert.ErrorContains(t, err, "no intersection")
}

func TestIntersectCircles_MissingFlags(t *testing.T) {
	_, _, err := execute(t, "intersect", "circles", "--c1", "0,0", "--r1", "1")
	assert.Error(t, err)
}

func TestIntersectDirections(t *testing.T) {
	out, _, err := execute(t, "intersect", "directions", "--p1", "0,0", "--b1", "45-00", "--p2", "10,0", "--b2", "0")
	require.NoError(t, err)
	assertNear(t, geom.Pos(10, 10), lastXY(t, out))
}

func TestIntersectDirections_Offset(t *testing.T) {
	// Positive offsets are right of the direction of travel.
	out, _, err := execute(t, "intersect", "directions", "--p1", "0,0", "--b1", "45-00", "--p2", "10,0", "--b2", "0", "--o2", "2")
	require.NoError(t, err)
	assertNear(t, geom.Pos(12, 12), lastXY(t, out))

	out, _, err = execute(t, "intersect", "directions", "--p1", "0,0", "--b1", "45-00", "--p2", "10,0", "--b2", "0", "--o2=-2")
	require.NoError(t, err)
	assertNear(t, geom.Pos(8, 8), lastXY(t, out))
}

func TestIntersectDirections_Parallel(t *testing.T) {
	_, _, err := execute(t, "intersect", "directions", "--p1", "0,0", "--b1", "0", "--p2", "10,0", "--b2", "0")
	assert.ErrorContains(t, err, "no intersection")
}

func TestIntersectDirections_BadBearing(t *testing.T) {
	_, _, err := execute(t, "intersect", "directions", "--p1", "0,0", "--b1", "north", "--p2", "10,0", "--b2", "0")
	assert.ErrorContains(t, err, "first direction")
}

func TestIntersectDirectionCircle(t *testing.T) {
	out, _, err := execute(t, "intersect", "direction-circle", "--p", "0,-10", "--b", "0", "--c", "0,0", "--r", "5")
	require.NoError(t, err)
	assertNear(t, geom.Pos(0, -5), lastXY(t, out))

	out, _, err = execute(t, "intersect", "direction-circle", "--p", "0,-10", "--b", "0", "--c", "0,0", "--r", "5", "--near", "0,10")
	require.NoError(t, err)
	assertNear(t, geom.Pos(0, 5), lastXY(t, out))
}
