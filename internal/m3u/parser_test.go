package m3u

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func writePlaylist(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	return path
}

func TestParseSimplePlaylist(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "b.mp3"))
	playlist := writePlaylist(t, dir, "p.m3u", "a.mp3\nb.mp3\n")

	tracks, err := Parse(playlist)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d: %v", len(tracks), tracks)
	}
}

func TestParseIgnoresExtendedM3UMetadataAndComments(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	playlist := writePlaylist(t, dir, "p.m3u", "#EXTM3U\n#EXTINF:123,Artist - Title\na.mp3\n")

	tracks, err := Parse(playlist)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	playlist := writePlaylist(t, dir, "p.m3u", "\n\na.mp3\n\n")

	tracks, err := Parse(playlist)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
}

func TestParseResolvesAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "a.mp3")
	touch(t, abs)
	playlist := writePlaylist(t, dir, "p.m3u", abs+"\n")

	tracks, err := Parse(playlist)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tracks) != 1 || tracks[0] != abs {
		t.Fatalf("expected [%s], got %v", abs, tracks)
	}
}

func TestParseSkipsMissingFilesWithWarning(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	playlist := writePlaylist(t, dir, "p.m3u", "a.mp3\nmissing.mp3\n")

	tracks, err := Parse(playlist)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track (missing skipped), got %d", len(tracks))
	}
}

func TestParseNonexistentPlaylistFileErrors(t *testing.T) {
	if _, err := Parse(filepath.Join(t.TempDir(), "nope.m3u")); err == nil {
		t.Fatal("expected error for nonexistent playlist file")
	}
}

func TestParseEmptyPlaylistFileErrors(t *testing.T) {
	dir := t.TempDir()
	playlist := writePlaylist(t, dir, "p.m3u", "")

	if _, err := Parse(playlist); err == nil {
		t.Fatal("expected error for empty playlist")
	}
}

func TestParseCommentsOnlyErrors(t *testing.T) {
	dir := t.TempDir()
	playlist := writePlaylist(t, dir, "p.m3u", "# just a comment\n# another\n")

	if _, err := Parse(playlist); err == nil {
		t.Fatal("expected error for comments-only playlist")
	}
}

func TestValidateReturnsTrackCount(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "b.mp3"))
	playlist := writePlaylist(t, dir, "p.m3u", "a.mp3\nb.mp3\n")

	count, err := Validate(playlist)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}
