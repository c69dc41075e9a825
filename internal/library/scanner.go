package library

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

var supportedExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".ogg": true,
	".aac": true, ".m4a": true, ".opus": true, ".wma": true,
}

const (
	metaLastFullScan        = "last_full_scan"
	metaLastIncrementalScan = "last_incremental_scan"
)

// ScanResult reports the outcome of a scan: how many rows were touched and
// any per-file errors accumulated along the way (non-fatal).
type ScanResult struct {
	Inserted int
	Updated  int
	Deleted  int
	Errors   []error
}

// FullScan walks root, tags every recognized audio file, and inserts all of
// them into the catalog in one batch. Existing rows are not removed or
// updated; a path that is already in the catalog makes the batch fail.
func (s *Store) FullScan(root string) (*ScanResult, error) {
	result := &ScanResult{}
	var tracks []*Track

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		if d.IsDir() || !isAudioFile(path) {
			return nil
		}

		t, err := buildTrack(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("scan %s: %w", path, err))
			return nil
		}
		tracks = append(tracks, t)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk %s: %w", root, err)
	}

	if len(tracks) > 0 {
		if err := s.InsertTracksBatch(tracks); err != nil {
			return result, fmt.Errorf("batch insert: %w", err)
		}
	}
	result.Inserted = len(tracks)

	if err := s.SetMetadata(metaLastFullScan, fmt.Sprintf("%d", time.Now().Unix())); err != nil {
		return result, err
	}

	return result, nil
}

// IncrementalScan diffs the filesystem against the stored track keys: new
// files are inserted, files whose mtime changed are re-tagged and updated,
// and files that disappeared are deleted. Each batch commits inside one
// transaction; on a batch failure the scanner falls back to per-row writes
// and accumulates the per-row errors.
func (s *Store) IncrementalScan(root string) (*ScanResult, error) {
	result := &ScanResult{}

	keys, err := s.GetTrackKeys()
	if err != nil {
		return nil, fmt.Errorf("load track keys: %w", err)
	}
	index := make(map[string]TrackKey, len(keys))
	for _, k := range keys {
		index[k.FilePath] = k
	}

	var toInsert, toUpdate []*Track

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		if d.IsDir() || !isAudioFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("stat %s: %w", path, err))
			return nil
		}
		mtime := info.ModTime().Unix()

		existing, known := index[path]
		delete(index, path)

		if known && existing.LastModified == mtime {
			return nil
		}

		t, err := buildTrack(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("scan %s: %w", path, err))
			return nil
		}

		if known {
			toUpdate = append(toUpdate, t)
		} else {
			toInsert = append(toInsert, t)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk %s: %w", root, err)
	}

	var toDelete []string
	for path := range index {
		toDelete = append(toDelete, path)
	}

	if len(toInsert) > 0 {
		if err := s.InsertTracksBatch(toInsert); err != nil {
			slog.Warn("incremental scan insert batch failed, retrying per-row", "error", err)
			for _, t := range toInsert {
				if _, rowErr := s.InsertTrack(t); rowErr != nil {
					result.Errors = append(result.Errors, rowErr)
					continue
				}
				result.Inserted++
			}
		} else {
			result.Inserted = len(toInsert)
		}
	}

	if len(toUpdate) > 0 {
		if err := s.UpdateTracksBatch(toUpdate); err != nil {
			slog.Warn("incremental scan update batch failed, retrying per-row", "error", err)
			for _, t := range toUpdate {
				if rowErr := s.UpdateTrack(t); rowErr != nil {
					result.Errors = append(result.Errors, rowErr)
					continue
				}
				result.Updated++
			}
		} else {
			result.Updated = len(toUpdate)
		}
	}

	if len(toDelete) > 0 {
		if err := s.DeleteTracksBatch(toDelete); err != nil {
			slog.Warn("incremental scan delete batch failed, retrying per-row", "error", err)
			for _, fp := range toDelete {
				if rowErr := s.DeleteTrack(fp); rowErr != nil {
					result.Errors = append(result.Errors, rowErr)
					continue
				}
				result.Deleted++
			}
		} else {
			result.Deleted = len(toDelete)
		}
	}

	if err := s.SetMetadata(metaLastIncrementalScan, fmt.Sprintf("%d", time.Now().Unix())); err != nil {
		return result, err
	}

	return result, nil
}

func isAudioFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// ReadTags extracts title/artist/album from an audio file's tags, falling
// back to the filename stem / "Unknown" on a tag-read failure. Used by the
// playlist sequencer to refresh the current-track metadata snapshot.
func ReadTags(path string) (title, artist, album string) {
	title, artist, album = filenameFallback(path)
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		slog.Warn("tag read failed, using filename fallback", "path", path, "error", err)
		return
	}
	if v := m.Title(); v != "" {
		title = v
	}
	if v := m.Artist(); v != "" {
		artist = v
	}
	if v := m.Album(); v != "" {
		album = v
	}
	return
}

func buildTrack(path string) (*Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	title, artist, album := ReadTags(path)

	now := time.Now().Unix()
	return &Track{
		FilePath:        path,
		Title:           title,
		Artist:          artist,
		Album:           album,
		DurationSeconds: sql.NullInt64{},
		FileSize:        info.Size(),
		LastModified:    info.ModTime().Unix(),
		FileExtension:   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func filenameFallback(path string) (title, artist, album string) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem, "Unknown", "Unknown"
}
