package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chazu/cadpath/pkg/feature"
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "features.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleStore() *feature.Store {
	s := feature.New()
	a := s.AddPoint("A", geom.Pos(1000.25, 2000.5))
	b := s.AddPoint("B", geom.Pos(1100, 2050))
	c := s.AddPoint("", geom.Pos(1050, 2000))
	line := s.AddLine(a.ID, b.ID)
	line.Source = "op-1"
	circle := s.AddCircle(c.ID, 50.25)
	s.AddArc(circle.ID, a.ID, b.ID, true)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	want := sampleStore()

	require.NoError(t, db.Save(ctx, want))
	got, err := db.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, want.Order, got.Order)
	assert.Equal(t, want.Version, got.Version)
	for _, f := range want.All() {
		g := got.Get(f.ID)
		require.NotNil(t, g, "feature %s missing", f.ID)
		assert.Equal(t, f, g)
	}
	assert.Equal(t, want.Lookup("A").ID, got.Lookup("A").ID)
	assert.True(t, feature.Validate(got).OK())
}

func TestSaveReplacesContents(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	require.NoError(t, db.Save(ctx, sampleStore()))

	small := feature.New()
	small.AddPoint("only", geom.Pos(0, 0))
	require.NoError(t, db.Save(ctx, small))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count())
	assert.NotNil(t, got.Lookup("only"))
}

func TestLoadEmpty(t *testing.T) {
	db := openTemp(t)
	got, err := db.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count())
	assert.Equal(t, uint64(0), got.Version)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Save(context.Background(), sampleStore()))
	require.NoError(t, db.Close())

	// Migrations are not re-run on an up-to-date schema.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, got.Count())
	assert.Equal(t, path, db.Path())
}
