package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestFullScanInsertsFoundFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3", "fake-mp3-bytes")
	writeFile(t, dir, "b.flac", "fake-flac-bytes")
	writeFile(t, dir, "notes.txt", "ignored")

	s := openTempStore(t)
	result, err := s.FullScan(dir)
	if err != nil {
		t.Fatalf("FullScan: %v", err)
	}
	if result.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d (errors=%v)", result.Inserted, result.Errors)
	}

	count, _ := s.TrackCount()
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}

	if _, ok, err := s.GetMetadata(metaLastFullScan); err != nil || !ok {
		t.Fatalf("expected last_full_scan recorded, ok=%v err=%v", ok, err)
	}
}

func TestFullScanUsesFilenameFallbackOnUntaggedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "My Great Song.mp3", "not actually valid id3")

	s := openTempStore(t)
	if _, err := s.FullScan(dir); err != nil {
		t.Fatalf("FullScan: %v", err)
	}

	tracks, _ := s.GetAllTracks()
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	if tracks[0].Title != "My Great Song" {
		t.Fatalf("expected filename-stem title fallback, got %q", tracks[0].Title)
	}
	if tracks[0].Artist != "Unknown" || tracks[0].Album != "Unknown" {
		t.Fatalf("expected Unknown artist/album fallback, got %q/%q", tracks[0].Artist, tracks[0].Album)
	}
}

func TestIncrementalScanDetectsDeletedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.mp3", "fake-mp3-bytes")

	s := openTempStore(t)
	if _, err := s.FullScan(dir); err != nil {
		t.Fatalf("FullScan: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	result, err := s.IncrementalScan(dir)
	if err != nil {
		t.Fatalf("IncrementalScan: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", result.Deleted)
	}

	tracks, _ := s.GetAllTracks()
	if len(tracks) != 0 {
		t.Fatalf("expected empty catalog, got %d tracks", len(tracks))
	}
}

func TestIncrementalScanDetectsNewAndUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3", "fake-mp3-bytes")

	s := openTempStore(t)
	if _, err := s.FullScan(dir); err != nil {
		t.Fatalf("FullScan: %v", err)
	}

	writeFile(t, dir, "b.mp3", "another-fake-mp3")

	result, err := s.IncrementalScan(dir)
	if err != nil {
		t.Fatalf("IncrementalScan: %v", err)
	}
	if result.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got %d", result.Inserted)
	}
	if result.Updated != 0 || result.Deleted != 0 {
		t.Fatalf("expected no updates/deletes, got updated=%d deleted=%d", result.Updated, result.Deleted)
	}

	count, _ := s.TrackCount()
	if count != 2 {
		t.Fatalf("expected 2 tracks, got %d", count)
	}
}

func TestIncrementalScanDetectsModifiedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.mp3", "fake-mp3-bytes")

	s := openTempStore(t)
	if _, err := s.FullScan(dir); err != nil {
		t.Fatalf("FullScan: %v", err)
	}

	// Ensure a distinct mtime second, then rewrite.
	future := time.Now().Add(2 * time.Second)
	if err := os.WriteFile(path, []byte("new-content-longer-than-before"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result, err := s.IncrementalScan(dir)
	if err != nil {
		t.Fatalf("IncrementalScan: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %d (errors=%v)", result.Updated, result.Errors)
	}
}
