// Package transcoder spawns and supervises one external transcoder child
// per configured output stream, turning its stdout into a stream of
// encoded chunks.
package transcoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	chunkSize   = 8192
	idleCadence = 10 * time.Millisecond
)

// Config describes one stream's target encoding.
type Config struct {
	FFmpegPath string
	Format     string
	Bitrate    int
	SampleRate int
	Channels   int
}

var codecByFormat = map[string]string{
	"mp3":    "libmp3lame",
	"opus":   "libopus",
	"aac":    "aac",
	"vorbis": "libvorbis",
	"ogg":    "libvorbis",
	"flac":   "flac",
}

func codecFor(format string) string {
	if codec, ok := codecByFormat[format]; ok {
		return codec
	}
	slog.Warn("unknown transcoder format, defaulting to libmp3lame", "format", format)
	return "libmp3lame"
}

// Supervisor runs one transcoder child at a time for a single stream,
// consuming track paths from an input channel and emitting encoded chunks
// on an output channel.
type Supervisor struct {
	cfg Config
}

// NewSupervisor constructs a Supervisor for one stream's configuration.
func NewSupervisor(cfg Config) *Supervisor {
	return &Supervisor{cfg: cfg}
}

// Run consumes tracks until ctx is cancelled or the tracks channel is
// closed, returning a channel of encoded chunks.
func (s *Supervisor) Run(ctx context.Context, tracks <-chan string) <-chan []byte {
	out := make(chan []byte)

	go func() {
		defer close(out)

		var current *runningChild

		for {
			select {
			case <-ctx.Done():
				if current != nil {
					current.kill()
				}
				return
			default:
			}

			if current == nil {
				select {
				case track, ok := <-tracks:
					if !ok {
						return
					}
					child, err := s.start(track)
					if err != nil {
						slog.Error("transcoder spawn failed, skipping track", "track", track, "error", err)
					} else {
						current = child
					}
				default:
				}
			}

			if current != nil {
				chunk, err := current.readChunk()
				switch {
				case err == io.EOF:
					current.waitAndLog()
					current = nil
				case err != nil:
					slog.Error("transcoder read error, clearing child", "error", err)
					current.kill()
					current = nil
				case len(chunk) > 0:
					select {
					case out <- chunk:
					case <-ctx.Done():
						current.kill()
						return
					}
					continue
				}
			}

			time.Sleep(idleCadence)
		}
	}()

	return out
}

func (s *Supervisor) start(input string) (*runningChild, error) {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		if _, err := os.Stat(input); err != nil {
			return nil, fmt.Errorf("input file does not exist: %s", input)
		}
	}

	codec := codecFor(s.cfg.Format)
	args := []string{
		"-i", input,
		"-f", s.cfg.Format,
		"-acodec", codec,
		"-ab", strconv.Itoa(s.cfg.Bitrate) + "k",
		"-ar", strconv.Itoa(s.cfg.SampleRate),
		"-ac", strconv.Itoa(s.cfg.Channels),
		"-loglevel", "error",
		"-",
	}

	ffmpegPath := s.cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	go drainStderr(stderr)

	return &runningChild{cmd: cmd, reader: bufio.NewReaderSize(stdout, chunkSize)}, nil
}

func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		slog.Debug("ffmpeg", "stderr", scanner.Text())
	}
}

type runningChild struct {
	cmd    *exec.Cmd
	reader *bufio.Reader
}

func (c *runningChild) readChunk() ([]byte, error) {
	buf := make([]byte, chunkSize)
	n, err := c.reader.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	return nil, err
}

func (c *runningChild) waitAndLog() {
	if err := c.cmd.Wait(); err != nil {
		slog.Warn("ffmpeg process exited with error", "error", err)
	} else {
		slog.Debug("ffmpeg process completed successfully")
	}
}

func (c *runningChild) kill() {
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	_ = c.cmd.Wait()
}
