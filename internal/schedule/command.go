package schedule

import "time"

// CommandType distinguishes the three playlist commands the controller can
// emit to the sequencer.
type CommandType int

const (
	SwitchToPlaylist CommandType = iota
	SwitchToLiveset
	ReturnToLibrary
)

// Command is a single instruction from the schedule controller to the
// playlist sequencer, delivered over a single-producer-single-consumer
// channel.
type Command struct {
	Type     CommandType
	Name     string
	Tracks   []string
	Genres   []string
	Duration time.Duration
}
