// Package playlist owns the current playlist, cursor, and source tag, and
// produces the next track on demand for the transcoder supervisor.
package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/library"
	"github.com/arung-agamani/denpa-radio/internal/liveset"
	"github.com/arung-agamani/denpa-radio/internal/metadata"
	"github.com/arung-agamani/denpa-radio/internal/schedule"
)

// SourceTag distinguishes ordinary library playback from a scheduled
// preemption.
type SourceTag int

const (
	SourceLibrary SourceTag = iota
	SourceScheduled
)

type livesetResolution struct {
	name     string
	duration time.Duration
	url      string
	err      error
}

// Sequencer holds the current playlist and yields tracks in order to the
// transcoder supervisor, honoring schedule commands and end-of-playlist
// rules.
type Sequencer struct {
	mu sync.Mutex

	store   *library.Store
	shuffle bool
	repeat  bool

	tracks []string
	cursor int

	source       SourceTag
	scheduledEnd time.Time

	snapshot *metadata.Snapshot
	commands <-chan schedule.Command

	livesetClient  *liveset.Client
	livesetResults chan livesetResolution

	out chan string
}

// NewSequencer preloads the playlist from the library store. Fails if the
// library is empty.
func NewSequencer(store *library.Store, shuffle, repeat bool, commands <-chan schedule.Command, livesetClient *liveset.Client, snapshot *metadata.Snapshot) (*Sequencer, error) {
	s := &Sequencer{
		store:          store,
		shuffle:        shuffle,
		repeat:         repeat,
		source:         SourceLibrary,
		snapshot:       snapshot,
		commands:       commands,
		livesetClient:  livesetClient,
		livesetResults: make(chan livesetResolution, 1),
		out:            make(chan string, 2),
	}

	if err := s.reloadFromLibrary(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sequencer) reloadFromLibrary() error {
	tracks, err := s.store.GetAllTracks()
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	if len(tracks) == 0 {
		return fmt.Errorf("library is empty, cannot start sequencer")
	}

	paths := make([]string, len(tracks))
	for i, t := range tracks {
		paths[i] = t.FilePath
	}
	if s.shuffle {
		deterministicShuffle(paths, uint64(time.Now().UnixNano()))
	}

	s.tracks = paths
	s.cursor = 0
	s.source = SourceLibrary
	return nil
}

// Start spawns the feeder goroutine and returns the channel the transcoder
// supervisor reads tracks from.
func (s *Sequencer) Start(ctx context.Context) <-chan string {
	go s.run(ctx)
	return s.out
}

func (s *Sequencer) run(ctx context.Context) {
	defer close(s.out)

	for {
		s.drainCommands()

		path, ok := s.NextTrack()
		if !ok {
			slog.Info("sequencer exhausted, terminating")
			return
		}

		select {
		case <-ctx.Done():
			return
		case s.out <- path:
		}
	}
}

// drainCommands performs a non-blocking check of both the schedule
// command channel and any pending liveset resolution.
func (s *Sequencer) drainCommands() {
	select {
	case cmd := <-s.commands:
		s.handleCommand(cmd)
	default:
	}

	select {
	case res := <-s.livesetResults:
		s.handleLivesetResolution(res)
	default:
	}
}

func (s *Sequencer) handleCommand(cmd schedule.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Type {
	case schedule.SwitchToPlaylist:
		s.tracks = cmd.Tracks
		s.cursor = 0
		s.source = SourceScheduled
		s.scheduledEnd = time.Now().Add(cmd.Duration)

	case schedule.SwitchToLiveset:
		name, duration, genres := cmd.Name, cmd.Duration, cmd.Genres
		go func() {
			track, err := s.livesetClient.GetRandomLiveset(genres)
			res := livesetResolution{name: name, duration: duration}
			if err != nil {
				res.err = err
			} else {
				res.url = track.StreamURL
			}
			s.livesetResults <- res
		}()

	case schedule.ReturnToLibrary:
		if err := s.reloadFromLibrary(); err != nil {
			slog.Error("failed to reload library on ReturnToLibrary", "error", err)
		}
	}
}

func (s *Sequencer) handleLivesetResolution(res livesetResolution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.err != nil {
		slog.Error("liveset resolution failed, continuing with current playlist", "program", res.name, "error", res.err)
		return
	}

	s.tracks = []string{res.url}
	s.cursor = 0
	s.source = SourceScheduled
	s.scheduledEnd = time.Now().Add(res.duration)
}

// NextTrack returns the path at the cursor, updates the current-track
// snapshot, advances the cursor, and applies the end-of-playlist rule for
// the active source. Returns false when the sequencer should terminate
// (Library, repeat=false, exhausted).
func (s *Sequencer) NextTrack() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tracks) == 0 || s.cursor >= len(s.tracks) {
		if !s.advancePastEnd() {
			return "", false
		}
	}

	path := s.tracks[s.cursor]
	s.updateSnapshot(path)
	s.cursor++

	return path, true
}

// advancePastEnd applies the end-of-playlist rule. Returns false only when
// the sequencer should terminate.
func (s *Sequencer) advancePastEnd() bool {
	switch s.source {
	case SourceLibrary:
		if !s.repeat {
			return false
		}
		if s.shuffle {
			deterministicShuffle(s.tracks, uint64(time.Now().UnixNano()))
		}
		s.cursor = 0
		return true

	case SourceScheduled:
		if time.Now().Before(s.scheduledEnd) {
			s.cursor = 0
			return true
		}
		if err := s.reloadFromLibrary(); err != nil {
			slog.Error("failed to reload library after scheduled playlist expired", "error", err)
			return false
		}
		return true
	}
	return false
}

func (s *Sequencer) updateSnapshot(path string) {
	title, artist, album := library.ReadTags(path)
	s.snapshot.Set(metadata.TrackMetadata{Title: title, Artist: artist, Album: album, Path: path})
}
