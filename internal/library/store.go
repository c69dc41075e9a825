// Package library persists the track catalog in SQLite and scans the
// filesystem to keep it current.
package library

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Track is a single catalog row. Identity is FilePath, not a generated key.
type Track struct {
	ID              int64
	FilePath        string
	Title           string
	Artist          string
	Album           string
	DurationSeconds sql.NullInt64
	FileSize        int64
	LastModified    int64
	FileExtension   string
	CreatedAt       int64
	UpdatedAt       int64
}

// TrackKey is the lightweight (id, file_path, last_modified) tuple used to
// diff the filesystem against the store without reading full rows.
type TrackKey struct {
	ID           int64
	FilePath     string
	LastModified int64
}

// Store wraps a pooled SQLite connection holding the track catalog.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	album TEXT NOT NULL,
	duration_seconds INTEGER,
	file_size INTEGER NOT NULL,
	last_modified INTEGER NOT NULL,
	file_extension TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tracks_file_path ON tracks(file_path);
CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist);
CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album);
CREATE INDEX IF NOT EXISTS idx_tracks_last_modified ON tracks(last_modified);

CREATE TABLE IF NOT EXISTS library_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Open opens (creating if needed) the SQLite database at path, applies the
// WAL/foreign_keys/synchronous pragmas, caps the connection pool at 5, and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(5)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertTrack inserts a single row and returns its generated id.
func (s *Store) InsertTrack(t *Track) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO tracks (file_path, title, artist, album, duration_seconds,
			file_size, last_modified, file_extension, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.FilePath, t.Title, t.Artist, t.Album, t.DurationSeconds,
		t.FileSize, t.LastModified, t.FileExtension, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert track %s: %w", t.FilePath, err)
	}
	return res.LastInsertId()
}

// InsertTracksBatch inserts every track inside a single transaction.
func (s *Store) InsertTracksBatch(tracks []*Track) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO tracks (file_path, title, artist, album, duration_seconds,
				file_size, last_modified, file_extension, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range tracks {
			if _, err := stmt.Exec(t.FilePath, t.Title, t.Artist, t.Album, t.DurationSeconds,
				t.FileSize, t.LastModified, t.FileExtension, t.CreatedAt, t.UpdatedAt); err != nil {
				return fmt.Errorf("insert track %s: %w", t.FilePath, err)
			}
		}
		return nil
	})
}

// UpdateTrack updates the mutable fields of the row identified by FilePath.
func (s *Store) UpdateTrack(t *Track) error {
	_, err := s.db.Exec(
		`UPDATE tracks SET title=?, artist=?, album=?, duration_seconds=?,
			file_size=?, last_modified=?, file_extension=?, updated_at=?
		 WHERE file_path=?`,
		t.Title, t.Artist, t.Album, t.DurationSeconds,
		t.FileSize, t.LastModified, t.FileExtension, t.UpdatedAt, t.FilePath,
	)
	if err != nil {
		return fmt.Errorf("update track %s: %w", t.FilePath, err)
	}
	return nil
}

// UpdateTracksBatch updates every track inside a single transaction.
func (s *Store) UpdateTracksBatch(tracks []*Track) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`UPDATE tracks SET title=?, artist=?, album=?, duration_seconds=?,
				file_size=?, last_modified=?, file_extension=?, updated_at=?
			 WHERE file_path=?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range tracks {
			if _, err := stmt.Exec(t.Title, t.Artist, t.Album, t.DurationSeconds,
				t.FileSize, t.LastModified, t.FileExtension, t.UpdatedAt, t.FilePath); err != nil {
				return fmt.Errorf("update track %s: %w", t.FilePath, err)
			}
		}
		return nil
	})
}

// DeleteTrack removes the row identified by filePath.
func (s *Store) DeleteTrack(filePath string) error {
	_, err := s.db.Exec(`DELETE FROM tracks WHERE file_path=?`, filePath)
	if err != nil {
		return fmt.Errorf("delete track %s: %w", filePath, err)
	}
	return nil
}

// DeleteTracksBatch removes every row identified by filePaths inside a
// single transaction.
func (s *Store) DeleteTracksBatch(filePaths []string) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`DELETE FROM tracks WHERE file_path=?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, fp := range filePaths {
			if _, err := stmt.Exec(fp); err != nil {
				return fmt.Errorf("delete track %s: %w", fp, err)
			}
		}
		return nil
	})
}

// GetAllTracks returns every row in the catalog.
func (s *Store) GetAllTracks() ([]*Track, error) {
	rows, err := s.db.Query(
		`SELECT id, file_path, title, artist, album, duration_seconds,
			file_size, last_modified, file_extension, created_at, updated_at
		 FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []*Track
	for rows.Next() {
		t := &Track{}
		if err := rows.Scan(&t.ID, &t.FilePath, &t.Title, &t.Artist, &t.Album,
			&t.DurationSeconds, &t.FileSize, &t.LastModified, &t.FileExtension,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTrackKeys returns the (id, file_path, last_modified) tuples used by
// the incremental scanner to diff against the filesystem.
func (s *Store) GetTrackKeys() ([]TrackKey, error) {
	rows, err := s.db.Query(`SELECT id, file_path, last_modified FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("query track keys: %w", err)
	}
	defer rows.Close()

	var out []TrackKey
	for rows.Next() {
		var k TrackKey
		if err := rows.Scan(&k.ID, &k.FilePath, &k.LastModified); err != nil {
			return nil, fmt.Errorf("scan track key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// TrackCount returns the number of rows in the catalog.
func (s *Store) TrackCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}

// GetMetadata returns the value for key and whether it was present.
func (s *Store) GetMetadata(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM library_metadata WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, true, nil
}

// SetMetadata upserts key/value, stamping updated_at with the current time.
func (s *Store) SetMetadata(key, value string) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO library_metadata (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
