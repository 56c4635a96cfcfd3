// Package sqlite persists a feature store to a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chazu/cadpath/pkg/feature"
	"github.com/chazu/cadpath/pkg/feature/sqlite/migrations"
)

// DB is an open feature database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and brings its schema up to
// date.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single writer keeps Save atomic with respect to Load.
	db.SetMaxOpenConns(1)

	d := &DB{db: db, path: path}
	if err := d.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// migrate runs all pending migrations.
func (d *DB) migrate(fsys embed.FS) error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	row := d.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := d.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := d.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save replaces the stored features with the contents of s.
func (d *DB) Save(ctx context.Context, s *feature.Store) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM features"); err != nil {
		return fmt.Errorf("clearing features: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO features (id, seq, kind, name, source, data) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range s.All() {
		data, err := json.Marshal(f.Data)
		if err != nil {
			return fmt.Errorf("marshalling feature %s: %w", f.ID.Short(), err)
		}
		if _, err := stmt.ExecContext(ctx, string(f.ID), i, f.Kind.String(),
			nullString(f.Name), nullString(f.Source), string(data)); err != nil {
			return fmt.Errorf("inserting feature %s: %w", f.ID.Short(), err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO store_meta (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, strconv.FormatUint(s.Version, 10)); err != nil {
		return fmt.Errorf("saving version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads the stored features into a new store.
func (d *DB) Load(ctx context.Context) (*feature.Store, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, kind, name, source, data FROM features ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	defer rows.Close()

	s := feature.New()
	for rows.Next() {
		var (
			id, kind, data string
			name, source   sql.NullString
		)
		if err := rows.Scan(&id, &kind, &name, &source, &data); err != nil {
			return nil, fmt.Errorf("scanning feature: %w", err)
		}
		k, ok := feature.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("feature %s has unknown kind %q", id, kind)
		}
		fd, err := decodeData(k, []byte(data))
		if err != nil {
			return nil, fmt.Errorf("decoding feature %s: %w", id, err)
		}
		s.Add(&feature.Feature{
			ID:     feature.ID(id),
			Kind:   k,
			Name:   name.String,
			Source: source.String,
			Data:   fd,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating features: %w", err)
	}

	var version string
	err = d.db.QueryRowContext(ctx, "SELECT value FROM store_meta WHERE key = 'version'").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("loading version: %w", err)
	default:
		if v, perr := strconv.ParseUint(version, 10, 64); perr == nil {
			s.Version = v
		}
	}
	return s, nil
}

func decodeData(k feature.Kind, data []byte) (feature.Data, error) {
	switch k {
	case feature.KindPoint:
		var d feature.PointData
		err := json.Unmarshal(data, &d)
		return d, err
	case feature.KindLine:
		var d feature.LineData
		err := json.Unmarshal(data, &d)
		return d, err
	case feature.KindArc:
		var d feature.ArcData
		err := json.Unmarshal(data, &d)
		return d, err
	case feature.KindCircle:
		var d feature.CircleData
		err := json.Unmarshal(data, &d)
		return d, err
	}
	return nil, fmt.Errorf("unknown kind %s", k)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
