package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arung-agamani/denpa-radio/config"
	"github.com/arung-agamani/denpa-radio/internal/admin"
	"github.com/arung-agamani/denpa-radio/internal/buffer"
	"github.com/arung-agamani/denpa-radio/internal/library"
	"github.com/arung-agamani/denpa-radio/internal/liveset"
	"github.com/arung-agamani/denpa-radio/internal/metadata"
	"github.com/arung-agamani/denpa-radio/internal/playlist"
	"github.com/arung-agamani/denpa-radio/internal/radio"
	"github.com/arung-agamani/denpa-radio/internal/schedule"
	"github.com/arung-agamani/denpa-radio/internal/transcoder"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := flag.String("c", "./data/config.toml", "path to config.toml")
	flag.StringVar(configPath, "config", "./data/config.toml", "path to config.toml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal startup error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting denpa-radio",
		"music_dir", cfg.Library.MusicDirectory,
		"station_name", cfg.Stream.StationName,
	)

	store, err := library.Open(cfg.Library.DatabasePath)
	if err != nil {
		return fmt.Errorf("open library store: %w", err)
	}
	defer store.Close()

	if count, err := store.TrackCount(); err != nil {
		return fmt.Errorf("count tracks: %w", err)
	} else if count == 0 {
		slog.Info("library empty, running initial full scan", "dir", cfg.Library.MusicDirectory)
		result, err := store.FullScan(cfg.Library.MusicDirectory)
		if err != nil {
			return fmt.Errorf("initial full scan: %w", err)
		}
		slog.Info("initial scan complete", "inserted", result.Inserted, "errors", len(result.Errors))
	}

	controller, err := schedule.NewController(toProgramSpecs(cfg.Schedule.Programs))
	if err != nil {
		return fmt.Errorf("build schedule controller: %w", err)
	}

	var livesetClient *liveset.Client
	if cfg.Liveset.APIBase != "" {
		livesetClient = liveset.New(cfg.Liveset.APIBase)
	}

	snapshot := metadata.NewSnapshot()
	sequencer, err := playlist.NewSequencer(store, cfg.Library.Shuffle, cfg.Library.Repeat,
		controller.Commands(), livesetClient, snapshot)
	if err != nil {
		return fmt.Errorf("build sequencer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutdown signal received")
		cancel()
	}()

	tracks := sequencer.Start(ctx)

	streamSources := make(map[string]*radio.StreamSource)
	var adminStreamsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		controller.Run(gctx)
		return nil
	})

	rescanInterval := time.Duration(cfg.Library.RescanIntervalMinutes) * time.Minute
	g.Go(func() error {
		return runRescanner(gctx, store, cfg.Library.MusicDirectory, rescanInterval)
	})

	var fanOuts []chan string
	for name, streamCfg := range cfg.Streams {
		if !streamCfg.Enabled {
			continue
		}

		trackFeed := make(chan string)
		fanOuts = append(fanOuts, trackFeed)

		sup := transcoder.NewSupervisor(transcoder.Config{
			FFmpegPath: cfg.Server.FFmpegPath,
			Format:     streamCfg.Format,
			Bitrate:    streamCfg.Bitrate,
			SampleRate: streamCfg.SampleRate,
			Channels:   streamCfg.Channels,
		})
		chunks := sup.Run(gctx, trackFeed)

		ring := buffer.NewRingBuffer(256, 4*1024*1024)
		bc := buffer.NewBroadcaster(ring)

		name, bc := name, bc
		g.Go(func() error {
			bc.Run(gctx, chunks)
			return nil
		})

		adminStreamsMu.Lock()
		streamSources[name] = &radio.StreamSource{Name: name, Broadcaster: bc, Bitrate: streamCfg.Bitrate}
		adminStreamsMu.Unlock()
	}

	if len(streamSources) == 0 {
		return fmt.Errorf("no enabled streams configured")
	}

	g.Go(func() error {
		defer func() {
			for _, fo := range fanOuts {
				close(fo)
			}
		}()
		for {
			select {
			case <-gctx.Done():
				return nil
			case path, ok := <-tracks:
				if !ok {
					return nil
				}
				for _, fo := range fanOuts {
					select {
					case fo <- path:
					case <-gctx.Done():
						return nil
					}
				}
			}
		}
	})

	radioServer := radio.NewServer(
		fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port),
		cfg.Stream, streamSources, snapshot,
	)
	g.Go(func() error {
		return radioServer.Run(gctx)
	})

	if cfg.Admin.Enabled {
		adminServer := admin.NewServer(
			fmt.Sprintf("%s:%d", cfg.Admin.BindAddress, cfg.Admin.Port),
			store, controller, cfg.Library.MusicDirectory,
			func() []admin.StreamStatus {
				adminStreamsMu.Lock()
				defer adminStreamsMu.Unlock()
				out := make([]admin.StreamStatus, 0, len(streamSources))
				for _, src := range streamSources {
					chunks, bytes := src.Broadcaster.RingInfo()
					status := "offline"
					if src.Broadcaster.IsRunning() {
						status = "online"
					}
					out = append(out, admin.StreamStatus{
						Name: src.Name, Status: status, Bitrate: src.Bitrate,
						Chunks: chunks, Bytes: bytes, Listeners: src.Broadcaster.ListenerCount(),
					})
				}
				return out
			},
		)
		g.Go(func() error {
			return adminServer.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("service error: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// runRescanner periodically re-syncs the catalog against the filesystem.
// Directory-walk and per-file errors are collected in the scan result (only
// their count is logged) and do not stop the loop; an error returned by
// IncrementalScan (loading the track keys or recording the scan time) is
// returned and brings the process down via the top-level errgroup.
func runRescanner(ctx context.Context, store *library.Store, musicDir string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			result, err := store.IncrementalScan(musicDir)
			if err != nil {
				return fmt.Errorf("library rescan: %w", err)
			}
			slog.Info("library rescan complete",
				"inserted", result.Inserted, "updated", result.Updated,
				"deleted", result.Deleted, "errors", len(result.Errors))
		}
	}
}

func toProgramSpecs(programs []config.ProgramConfig) []schedule.ProgramSpec {
	specs := make([]schedule.ProgramSpec, len(programs))
	for i, p := range programs {
		specs[i] = schedule.ProgramSpec{
			Name: p.Name, Active: p.Active, Cron: p.Cron, Duration: p.Duration,
			Type: p.Type, Playlist: p.Playlist, Genres: p.Genres,
		}
	}
	return specs
}
