// Package feature holds the spatial features produced by survey operations:
// points, lines, arcs and circles, keyed by ID with a name index.
// Geometry code reads positions from a Store; operations add to it through
// Materialize.
package feature
