// Package liveset resolves a stream URL from a remote liveset API: either
// from the general feed, or genre-by-genre with a feed fallback.
package liveset

import (
	"fmt"
	"hash/maphash"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Track is a single entry returned by the liveset API.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	StreamURL  string `json:"stream_url"`
	Duration   string `json:"duration"`
	Type       string `json:"type"`
	User       User   `json:"user"`
}

// User is the uploader of a liveset track.
type User struct {
	Username string `json:"username"`
}

// Client fetches random livesets from a configured API base.
type Client struct {
	http    *resty.Client
	apiBase string
}

// New returns a Client pointed at apiBase, with a 30s request timeout.
func New(apiBase string) *Client {
	return &Client{
		http:    resty.New().SetTimeout(30 * time.Second),
		apiBase: apiBase,
	}
}

// GetRandomLiveset resolves a single track: from the requested genres in
// order (falling back to the general feed if every genre fails or the
// list is empty), or straight from the feed when genres is empty.
func (c *Client) GetRandomLiveset(genres []string) (*Track, error) {
	if len(genres) == 0 {
		return c.fetchRandomFromFeed()
	}
	return c.fetchRandomFromGenres(genres)
}

func (c *Client) fetchRandomFromFeed() (*Track, error) {
	url := fmt.Sprintf("%s/feed/?page=1&count=20", c.apiBase)

	var tracks []Track
	resp, err := c.http.R().SetResult(&tracks).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch feed: status %s", resp.Status())
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks found in feed")
	}

	track := selectRandomTrack(tracks)
	slog.Info("selected random track from feed", "title", track.Title, "user", track.User.Username)
	return &track, nil
}

func (c *Client) fetchRandomFromGenres(genres []string) (*Track, error) {
	for _, genre := range genres {
		track, err := c.fetchFromGenre(genre)
		if err != nil {
			slog.Error("failed to fetch liveset from genre", "genre", genre, "error", err)
			continue
		}
		slog.Info("selected random liveset track", "genre", genre, "title", track.Title, "user", track.User.Username)
		return track, nil
	}

	slog.Error("all requested genres failed, falling back to general feed", "genres", genres)
	return c.fetchRandomFromFeed()
}

func (c *Client) fetchFromGenre(genre string) (*Track, error) {
	slug := strings.ReplaceAll(strings.ToLower(genre), " ", "-")
	url := fmt.Sprintf("%s/categories/%s/?page=1&count=20", c.apiBase, slug)

	var tracks []Track
	resp, err := c.http.R().SetResult(&tracks).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch genre %s: %w", genre, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch genre %s: status %s", genre, resp.Status())
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks found in genre %q", genre)
	}

	track := selectRandomTrack(tracks)
	return &track, nil
}

// selectRandomTrack picks a time-seeded index. This is a separate,
// non-deterministic selection distinct from the playlist shuffle formula
// used by the sequencer — nothing about liveset selection needs to be
// reproducible across runs.
func selectRandomTrack(tracks []Track) Track {
	var h maphash.Hash
	h.SetSeed(maphash.MakeSeed())
	fmt.Fprintf(&h, "%d", time.Now().UnixNano())
	seed := h.Sum64()

	index := int(seed % uint64(len(tracks)))
	return tracks[index]
}
