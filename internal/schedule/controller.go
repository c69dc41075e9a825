// Package schedule evaluates cron-driven programs and emits playlist
// commands to the sequencer, preempting library playback for the
// program's configured duration and then returning to it automatically.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/m3u"
)

const tolerance = 2 * time.Second

type state int

const (
	stateIdle state = iota
	stateRunning
)

func (s state) String() string {
	if s == stateRunning {
		return "running"
	}
	return "idle"
}

// Controller owns the Idle/Running state machine and emits Commands on a
// single-producer-single-consumer channel.
type Controller struct {
	programs []*ValidatedProgram
	commands chan Command

	mu          sync.Mutex
	state       state
	currentName string
	currentEnd  time.Time
}

// Status summarizes the controller's current state for operational display.
type Status struct {
	State       string    `json:"state"`
	CurrentName string    `json:"current_program,omitempty"`
	CurrentEnd  time.Time `json:"current_end,omitempty"`
}

// NewController validates specs into programs and constructs a Controller.
// Fails construction if zero programs survive validation.
func NewController(specs []ProgramSpec) (*Controller, error) {
	programs, err := BuildPrograms(specs)
	if err != nil {
		return nil, err
	}
	return &Controller{
		programs: programs,
		commands: make(chan Command, 1),
		state:    stateIdle,
	}, nil
}

// Commands returns the channel the sequencer should read from.
func (c *Controller) Commands() <-chan Command {
	return c.commands
}

// Programs returns the validated programs this controller is driving.
func (c *Controller) Programs() []*ValidatedProgram {
	return c.programs
}

// CurrentStatus reports the controller's current state for operational display.
func (c *Controller) CurrentStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state.String(), CurrentName: c.currentName}
	if c.state == stateRunning {
		st.CurrentEnd = c.currentEnd
	}
	return st
}

// Run drives the state machine until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sleep := c.tick()

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// tick runs one iteration of the state machine and returns how long to
// sleep before the next one.
func (c *Controller) tick() time.Duration {
	now := time.Now()

	c.mu.Lock()
	running := c.state == stateRunning
	currentEnd := c.currentEnd
	c.mu.Unlock()

	if running {
		if !now.Before(currentEnd) {
			c.emit(Command{Type: ReturnToLibrary})
			c.mu.Lock()
			c.state = stateIdle
			c.mu.Unlock()
			return time.Second
		}
		remaining := currentEnd.Sub(now)
		if remaining > 5*time.Second {
			return 5 * time.Second
		}
		return remaining
	}

	name, program, fireTime, ok := c.findNextProgram(now)
	if !ok {
		return 30 * time.Second
	}

	if !fireTime.After(now) && fireTime.After(now.Add(-tolerance)) {
		c.startProgram(name, program, now)
		return time.Second
	}

	untilFire := fireTime.Sub(now)
	if untilFire > 30*time.Second {
		return 30 * time.Second
	}
	if untilFire < 0 {
		return time.Second
	}
	return untilFire
}

// findNextProgram returns the earliest-firing program as observed from
// now - tolerance, so a program whose fire instant lies in the very recent
// past (within the tolerance window) is still found instead of skipped.
func (c *Controller) findNextProgram(now time.Time) (string, *ValidatedProgram, time.Time, bool) {
	lookup := now.Add(-tolerance)

	var bestName string
	var bestProgram *ValidatedProgram
	var bestTime time.Time
	found := false

	for _, p := range c.programs {
		next := p.Schedule.Next(lookup)
		if !found || next.Before(bestTime) {
			bestName = p.Name
			bestProgram = p
			bestTime = next
			found = true
		}
	}

	return bestName, bestProgram, bestTime, found
}

func (c *Controller) startProgram(name string, p *ValidatedProgram, now time.Time) {
	switch p.Type {
	case TypePlaylist:
		tracks, err := m3u.Parse(p.PlaylistPath)
		if err != nil {
			slog.Error("program start aborted, playlist failed to re-parse", "program", name, "error", err)
			return
		}
		c.emit(Command{Type: SwitchToPlaylist, Name: name, Tracks: tracks, Duration: p.Duration})
	case TypeLiveset:
		c.emit(Command{Type: SwitchToLiveset, Name: name, Genres: p.Genres, Duration: p.Duration})
	}

	c.mu.Lock()
	c.state = stateRunning
	c.currentName = name
	c.currentEnd = now.Add(p.Duration)
	c.mu.Unlock()
}

func (c *Controller) emit(cmd Command) {
	select {
	case c.commands <- cmd:
	default:
		slog.Warn("schedule command channel full, dropping command", "type", cmd.Type)
	}
}
