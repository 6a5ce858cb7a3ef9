// Package layoutstore persists named workspace layouts and region sizes.
package layoutstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// ErrNotFound marks a layout name with no stored row.
var ErrNotFound = errors.New("layout not found")

// ErrCorrupt marks a stored document that no longer parses. Callers fall
// back to an empty workspace instead of failing the load.
var ErrCorrupt = errors.New("layout document corrupt")

// Store handles layout persistence.
type Store struct {
	db *sql.DB
}

// Open opens or creates the layout database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS layouts (
		name TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS region_sizes (
		key TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveLayout upserts a named layout as a JSON document. Saving under an
// existing name overwrites it; layouts are never auto-deleted.
func (s *Store) SaveLayout(layout model.Layout) error {
	if layout.Name == "" {
		return fmt.Errorf("layout name cannot be empty")
	}
	doc, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO layouts (name, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		layout.Name, string(doc), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

// LoadLayout fetches a named layout. A missing row yields ErrNotFound and a
// document that fails to parse yields ErrCorrupt; both are soft conditions
// the caller maps to an empty workspace.
func (s *Store) LoadLayout(name string) (model.Layout, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM layouts WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Layout{}, ErrNotFound
	}
	if err != nil {
		return model.Layout{}, fmt.Errorf("load layout: %w", err)
	}

	var layout model.Layout
	if err := json.Unmarshal([]byte(doc), &layout); err != nil {
		return model.Layout{}, ErrCorrupt
	}
	layout.Name = name
	return layout, nil
}

// DeleteLayout removes a named layout; unknown names are no-ops.
func (s *Store) DeleteLayout(name string) error {
	_, err := s.db.Exec(`DELETE FROM layouts WHERE name = ?`, name)
	return err
}

// ListLayouts returns stored layout names, most recently saved first.
func (s *Store) ListLayouts() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM layouts ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveRegionSize persists a resizable region's size under its caller-supplied
// identifier.
func (s *Store) SaveRegionSize(key string, size int) error {
	_, err := s.db.Exec(`
		INSERT INTO region_sizes (key, size, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET size = excluded.size, updated_at = excluded.updated_at`,
		key, size, time.Now().UTC())
	return err
}

// RegionSize returns a persisted region size, if any.
func (s *Store) RegionSize(key string) (int, bool) {
	var size int
	err := s.db.QueryRow(`SELECT size FROM region_sizes WHERE key = ?`, key).Scan(&size)
	if err != nil {
		return 0, false
	}
	return size, true
}
