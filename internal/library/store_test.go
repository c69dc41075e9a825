package library

import (
	"path/filepath"
	"testing"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertGetUpdateDeleteRoundTrip(t *testing.T) {
	s := openTempStore(t)

	tr := &Track{
		FilePath: "/music/a.mp3", Title: "A", Artist: "Artist",
		Album: "Album", FileSize: 100, LastModified: 1000,
		FileExtension: "mp3", CreatedAt: 1, UpdatedAt: 1,
	}
	id, err := s.InsertTrack(tr)
	if err != nil {
		t.Fatalf("InsertTrack: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	all, err := s.GetAllTracks()
	if err != nil {
		t.Fatalf("GetAllTracks: %v", err)
	}
	if len(all) != 1 || all[0].Title != "A" {
		t.Fatalf("unexpected tracks: %+v", all)
	}

	tr.Title = "Updated"
	tr.UpdatedAt = 2
	if err := s.UpdateTrack(tr); err != nil {
		t.Fatalf("UpdateTrack: %v", err)
	}

	all, _ = s.GetAllTracks()
	if all[0].Title != "Updated" {
		t.Fatalf("expected updated title, got %q", all[0].Title)
	}

	if err := s.DeleteTrack(tr.FilePath); err != nil {
		t.Fatalf("DeleteTrack: %v", err)
	}
	all, _ = s.GetAllTracks()
	if len(all) != 0 {
		t.Fatalf("expected empty catalog after delete, got %d", len(all))
	}
}

func TestBatchOperationsRunInOneTransaction(t *testing.T) {
	s := openTempStore(t)

	tracks := []*Track{
		{FilePath: "/m/a.mp3", Title: "A", Artist: "x", Album: "y", FileSize: 1, LastModified: 1, FileExtension: "mp3", CreatedAt: 1, UpdatedAt: 1},
		{FilePath: "/m/b.mp3", Title: "B", Artist: "x", Album: "y", FileSize: 1, LastModified: 1, FileExtension: "mp3", CreatedAt: 1, UpdatedAt: 1},
	}
	if err := s.InsertTracksBatch(tracks); err != nil {
		t.Fatalf("InsertTracksBatch: %v", err)
	}

	count, err := s.TrackCount()
	if err != nil {
		t.Fatalf("TrackCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tracks, got %d", count)
	}

	if err := s.DeleteTracksBatch([]string{"/m/a.mp3", "/m/b.mp3"}); err != nil {
		t.Fatalf("DeleteTracksBatch: %v", err)
	}
	count, _ = s.TrackCount()
	if count != 0 {
		t.Fatalf("expected 0 tracks after batch delete, got %d", count)
	}
}

func TestMetadataSetGetIsIdempotent(t *testing.T) {
	s := openTempStore(t)

	if _, ok, err := s.GetMetadata("last_full_scan"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.SetMetadata("last_full_scan", "100"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("last_full_scan", "100"); err != nil {
		t.Fatalf("SetMetadata (idempotent): %v", err)
	}

	v, ok, err := s.GetMetadata("last_full_scan")
	if err != nil || !ok || v != "100" {
		t.Fatalf("expected (100, true, nil), got (%q, %v, %v)", v, ok, err)
	}
}

func TestGetTrackKeysMatchesRows(t *testing.T) {
	s := openTempStore(t)
	if _, err := s.InsertTrack(&Track{FilePath: "/m/a.mp3", Title: "A", Artist: "x", Album: "y", FileSize: 1, LastModified: 42, FileExtension: "mp3", CreatedAt: 1, UpdatedAt: 1}); err != nil {
		t.Fatalf("InsertTrack: %v", err)
	}

	keys, err := s.GetTrackKeys()
	if err != nil {
		t.Fatalf("GetTrackKeys: %v", err)
	}
	if len(keys) != 1 || keys[0].FilePath != "/m/a.mp3" || keys[0].LastModified != 42 {
		t.Fatalf("unexpected keys: %+v", keys)
	}
}
