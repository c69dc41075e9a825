package schedule

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arung-agamani/denpa-radio/internal/m3u"
)

// ProgramType distinguishes a static-playlist program from a liveset one.
type ProgramType int

const (
	TypePlaylist ProgramType = iota
	TypeLiveset
)

// ProgramSpec is the raw, unparsed configuration for one schedule entry.
type ProgramSpec struct {
	Name     string
	Active   bool
	Cron     string
	Duration string
	Type     string
	Playlist string
	Genres   []string
}

// ValidatedProgram is a schedule entry whose cron expression, duration, and
// (for playlist programs) referenced M3U file have all been checked once
// at construction time. Immutable for the lifetime of the process.
type ValidatedProgram struct {
	Name         string
	Schedule     cron.Schedule
	Duration     time.Duration
	Type         ProgramType
	PlaylistPath string
	Genres       []string
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// parseDuration accepts "<integer>m" or "<integer>h"; anything else,
// including zero or negative values, is rejected.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid duration format %q: use '30m' or '2h'", s)
	}

	suffix := s[len(s)-1]
	numPart := s[:len(s)-1]

	var unit time.Duration
	switch suffix {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	default:
		return 0, fmt.Errorf("invalid duration format %q: use '30m' or '2h'", s)
	}

	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format %q: use '30m' or '2h'", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}

	return time.Duration(n) * unit, nil
}

// ValidateAndConvert parses and eagerly validates a single program spec.
func ValidateAndConvert(spec ProgramSpec) (*ValidatedProgram, error) {
	sched, err := cronParser.Parse(spec.Cron)
	if err != nil {
		return nil, fmt.Errorf("program %q: invalid cron expression %q: %w", spec.Name, spec.Cron, err)
	}

	dur, err := parseDuration(spec.Duration)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", spec.Name, err)
	}

	p := &ValidatedProgram{
		Name:     spec.Name,
		Schedule: sched,
		Duration: dur,
	}

	switch spec.Type {
	case "playlist":
		if _, err := m3u.Validate(spec.Playlist); err != nil {
			return nil, fmt.Errorf("program %q: playlist validation failed: %w", spec.Name, err)
		}
		p.Type = TypePlaylist
		p.PlaylistPath = spec.Playlist
	case "liveset":
		p.Type = TypeLiveset
		p.Genres = spec.Genres
	default:
		return nil, fmt.Errorf("program %q: unknown type %q", spec.Name, spec.Type)
	}

	return p, nil
}

// BuildPrograms filters specs to active ones, validates each, logs and
// skips failures, and errors if none survive.
func BuildPrograms(specs []ProgramSpec) ([]*ValidatedProgram, error) {
	var programs []*ValidatedProgram
	for _, spec := range specs {
		if !spec.Active {
			continue
		}
		p, err := ValidateAndConvert(spec)
		if err != nil {
			slog.Error("skipping invalid schedule program", "name", spec.Name, "error", err)
			continue
		}
		programs = append(programs, p)
	}

	if len(programs) == 0 {
		return nil, fmt.Errorf("no valid active schedule programs")
	}
	return programs, nil
}
