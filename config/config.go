// Package config loads and validates the TOML configuration file that
// drives a denpa-radio process: bind addresses, the library root, the set
// of enabled output streams, and the cron schedule.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

var streamNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var validFormats = map[string]bool{"mp3": true, "aac": true, "opus": true, "ogg": true}
var validSampleRates = map[int]bool{
	8000: true, 11025: true, 16000: true, 22050: true,
	32000: true, 44100: true, 48000: true,
}

type Config struct {
	Server   ServerConfig            `toml:"server"`
	Library  LibraryConfig           `toml:"library"`
	Stream   StationConfig           `toml:"stream"`
	Streams  map[string]StreamConfig `toml:"streams"`
	Schedule ScheduleConfig          `toml:"schedule"`
	Admin    AdminConfig             `toml:"admin"`
	Liveset  LivesetConfig           `toml:"liveset"`
}

type ServerConfig struct {
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
	FFmpegPath  string `toml:"ffmpeg_path"`
}

type LibraryConfig struct {
	MusicDirectory        string `toml:"music_directory"`
	DatabasePath          string `toml:"database_path"`
	Shuffle               bool   `toml:"shuffle"`
	Repeat                bool   `toml:"repeat"`
	RescanIntervalMinutes int    `toml:"rescan_interval_minutes"`
}

// StationConfig carries the descriptive metadata advertised to listeners,
// shared by every stream.
type StationConfig struct {
	StationName string `toml:"station_name"`
	Description string `toml:"description"`
	Genre       string `toml:"genre"`
	URL         string `toml:"url"`
}

type StreamConfig struct {
	Enabled    bool   `toml:"enabled"`
	Format     string `toml:"format"`
	Bitrate    int    `toml:"bitrate"`
	SampleRate int    `toml:"sample_rate"`
	Channels   int    `toml:"channels"`
}

type ScheduleConfig struct {
	Programs []ProgramConfig `toml:"programs"`
}

type ProgramConfig struct {
	Name     string   `toml:"name"`
	Active   bool     `toml:"active"`
	Cron     string   `toml:"cron"`
	Duration string   `toml:"duration"`
	Type     string   `toml:"type"`
	Playlist string   `toml:"playlist"`
	Genres   []string `toml:"genres"`
}

type AdminConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
}

type LivesetConfig struct {
	APIBase string `toml:"api_base"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			BindAddress: "0.0.0.0",
			Port:        8284,
			FFmpegPath:  "ffmpeg",
		},
		Library: LibraryConfig{
			MusicDirectory:        "/srv/music",
			DatabasePath:          "./data/database.db",
			Shuffle:               true,
			Repeat:                true,
			RescanIntervalMinutes: 60,
		},
		Stream: StationConfig{
			StationName: "My Radio Station",
			Description: "Great music 24/7",
			Genre:       "Various",
		},
		Admin: AdminConfig{
			BindAddress: "127.0.0.1",
			Port:        8285,
		},
		Liveset: LivesetConfig{
			APIBase: "https://api-v2.hearthis.at",
		},
	}
}

// Load reads, parses, defaults, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaults()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate enforces the field-level constraints from the wire contract:
// stream names, formats, bitrates, sample rates, channel counts, and the
// "at least one enabled stream" invariant.
func (c *Config) Validate() error {
	if c.Library.MusicDirectory == "" {
		return fmt.Errorf("library.music_directory is required")
	}
	if c.Library.RescanIntervalMinutes <= 0 {
		return fmt.Errorf("library.rescan_interval_minutes must be positive")
	}
	if len(c.Streams) == 0 {
		return fmt.Errorf("at least one entry under [streams.*] is required")
	}

	anyEnabled := false
	for name, s := range c.Streams {
		if !streamNameRe.MatchString(name) {
			return fmt.Errorf("stream name %q must match [A-Za-z0-9_-]+", name)
		}
		if !s.Enabled {
			continue
		}
		anyEnabled = true
		if !validFormats[s.Format] {
			return fmt.Errorf("stream %q: format %q must be one of mp3, aac, opus, ogg", name, s.Format)
		}
		if s.Bitrate < 32 || s.Bitrate > 320 {
			return fmt.Errorf("stream %q: bitrate %d must be in [32, 320]", name, s.Bitrate)
		}
		if !validSampleRates[s.SampleRate] {
			return fmt.Errorf("stream %q: sample_rate %d is not a supported rate", name, s.SampleRate)
		}
		if s.Channels != 1 && s.Channels != 2 {
			return fmt.Errorf("stream %q: channels %d must be 1 or 2", name, s.Channels)
		}
	}
	if !anyEnabled {
		return fmt.Errorf("at least one stream must be enabled")
	}

	for _, p := range c.Schedule.Programs {
		if !p.Active {
			continue
		}
		switch p.Type {
		case "playlist":
			if p.Playlist == "" {
				return fmt.Errorf("program %q: type=playlist requires playlist path", p.Name)
			}
		case "liveset":
			if p.Genres == nil {
				return fmt.Errorf("program %q: type=liveset requires genres (may be empty)", p.Name)
			}
		default:
			return fmt.Errorf("program %q: type must be 'playlist' or 'liveset', got %q", p.Name, p.Type)
		}
	}

	return nil
}
