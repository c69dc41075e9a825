// Package m3u implements the trivial line-based M3U playlist reader: one
// path per line, comments and blank lines ignored, relative paths resolved
// against the playlist file's own directory.
package m3u

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Parse reads the playlist at path and returns the resolved, existing
// track paths it references, in file order. Entries that resolve to a
// missing file are logged and skipped rather than aborting the parse. An
// empty result (no valid tracks found) is an error.
func Parse(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var tracks []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		resolved := line
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(dir, resolved)
		}

		if _, err := os.Stat(resolved); err != nil {
			slog.Warn("m3u entry does not resolve to an existing file, skipping", "playlist", path, "entry", line)
			continue
		}

		tracks = append(tracks, resolved)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist %s: %w", path, err)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("no valid tracks found in M3U playlist: %s", path)
	}

	return tracks, nil
}

// Validate parses path and returns only the resolved track count, used by
// the schedule controller to eagerly check a playlist-typed program at
// construction time.
func Validate(path string) (int, error) {
	tracks, err := Parse(path)
	if err != nil {
		return 0, err
	}
	return len(tracks), nil
}
