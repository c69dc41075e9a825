package liveset

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetRandomLivesetEmptyGenresUsesFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/feed/") {
			t.Errorf("expected feed request, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Track{{ID: "1", Title: "Feed Track", StreamURL: "http://x/1", User: User{Username: "dj"}}})
	}))
	defer server.Close()

	c := New(server.URL)
	track, err := c.GetRandomLiveset(nil)
	if err != nil {
		t.Fatalf("GetRandomLiveset: %v", err)
	}
	if track.ID != "1" {
		t.Fatalf("expected track 1, got %q", track.ID)
	}
}

func TestGetRandomLivesetTriesGenreThenSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/categories/techno/") {
			json.NewEncoder(w).Encode([]Track{{ID: "t1", Title: "Techno Track", User: User{Username: "dj"}}})
			return
		}
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer server.Close()

	c := New(server.URL)
	track, err := c.GetRandomLiveset([]string{"Techno"})
	if err != nil {
		t.Fatalf("GetRandomLiveset: %v", err)
	}
	if track.ID != "t1" {
		t.Fatalf("expected t1, got %q", track.ID)
	}
}

func TestGetRandomLivesetFallsBackToFeedWhenAllGenresFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/categories/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode([]Track{{ID: "feed-1", Title: "Fallback", User: User{Username: "dj"}}})
	}))
	defer server.Close()

	c := New(server.URL)
	track, err := c.GetRandomLiveset([]string{"techno", "house"})
	if err != nil {
		t.Fatalf("GetRandomLiveset: %v", err)
	}
	if track.ID != "feed-1" {
		t.Fatalf("expected fallback feed track, got %q", track.ID)
	}
}

func TestGetRandomLivesetEmptyFeedErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Track{})
	}))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.GetRandomLiveset(nil); err == nil {
		t.Fatal("expected error for empty feed")
	}
}
