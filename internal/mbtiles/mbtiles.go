// Package mbtiles is a small mbtiles-backed tile cache. Tiles are stored
// in TMS row order, so the Y coordinate is flipped relative to the ZXY
// addresses the rest of the system uses. Each map caches into its own
// mbtiles file; a Store manages the per-map files under one directory.
package mbtiles

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	name  TEXT,
	value TEXT
);
CREATE TABLE IF NOT EXISTS tiles (
	zoom_level  INTEGER,
	tile_column INTEGER,
	tile_row    INTEGER,
	tile_data   BLOB
);
CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// DB is one open mbtiles file.
type DB struct {
	db *sql.DB
}

// Open opens or creates the mbtiles file at path and writes the given
// metadata rows.
func Open(path string, metadata map[string]string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening mbtiles file %v", path)
	}

	// WAL keeps concurrent tile reads from blocking on cache writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "configuring mbtiles pragmas")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating mbtiles schema")
	}

	for name, value := range metadata {
		if _, err := db.Exec(
			"INSERT INTO metadata (name, value) VALUES (?, ?)",
			name, value,
		); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "writing mbtiles metadata")
		}
	}

	return &DB{db: db}, nil
}

func tmsRow(z, y uint) uint { return (1 << z) - 1 - y }

// WriteTile stores the tile, replacing any previous data at the address.
func (m *DB) WriteTile(z, x, y uint, data []byte) error {
	_, err := m.db.Exec(
		"INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)",
		z, x, tmsRow(z, y), data,
	)
	return errors.Wrapf(err, "writing tile %v/%v/%v", z, x, y)
}

// ReadTile returns the cached tile data, or nil when the tile is not
// cached.
func (m *DB) ReadTile(z, x, y uint) ([]byte, error) {
	var data []byte
	err := m.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?",
		z, x, tmsRow(z, y),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading tile %v/%v/%v", z, x, y)
	}
	return data, nil
}

func (m *DB) Close() error { return m.db.Close() }

// Store is a tile cache holding one mbtiles file per map under a single
// directory. Keying the cache by map keeps maps that share a tile address
// from reading each other's tiles.
type Store struct {
	dir string

	mu  sync.Mutex
	dbs map[string]*DB
}

// OpenStore opens a tile cache rooted at dir, creating the directory if
// needed. Per-map files are opened lazily on first use.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating cache directory %v", dir)
	}
	return &Store{dir: dir, dbs: map[string]*DB{}}, nil
}

func (s *Store) db(mapName string) (*DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[mapName]; ok {
		return db, nil
	}
	db, err := Open(filepath.Join(s.dir, mapName+".mbtiles"), map[string]string{
		"name":   mapName,
		"format": "json",
	})
	if err != nil {
		return nil, err
	}
	s.dbs[mapName] = db
	return db, nil
}

// WriteTile stores the tile in the named map's cache file.
func (s *Store) WriteTile(mapName string, z, x, y uint, data []byte) error {
	db, err := s.db(mapName)
	if err != nil {
		return err
	}
	return db.WriteTile(z, x, y, data)
}

// ReadTile returns the named map's cached tile data, or nil when the tile
// is not cached.
func (s *Store) ReadTile(mapName string, z, x, y uint) ([]byte, error) {
	db, err := s.db(mapName)
	if err != nil {
		return nil, err
	}
	return db.ReadTile(z, x, y)
}

// Close closes every per-map file, returning the first error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for _, db := range s.dbs {
		if err := db.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.dbs = map[string]*DB{}
	return first
}
