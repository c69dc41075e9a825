// Package radio exposes the public-facing HTTP surface: live stream
// endpoints, status/current-track JSON, the station landing page and its
// API documentation.
package radio

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/arung-agamani/denpa-radio/config"
	"github.com/arung-agamani/denpa-radio/internal/buffer"
	"github.com/arung-agamani/denpa-radio/internal/metadata"
)

// StreamSource pairs a configured output stream with its fan-out layer.
type StreamSource struct {
	Name        string
	Broadcaster *buffer.Broadcaster
	Bitrate     int
}

// Server serves the public radio surface over HTTP.
type Server struct {
	station   config.StationConfig
	streams   map[string]*StreamSource
	snapshot  *metadata.Snapshot
	startTime time.Time

	httpServer *http.Server
}

// NewServer constructs a Server for the given station metadata and streams.
func NewServer(bindAddress string, station config.StationConfig, streams map[string]*StreamSource, snapshot *metadata.Snapshot) *Server {
	s := &Server{station: station, streams: streams, snapshot: snapshot, startTime: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /current", s.handleCurrent)
	mux.HandleFunc("GET /api-docs", handleAPIDocsUI)
	mux.HandleFunc("GET /api-docs/openapi.yaml", handleOpenAPISpec)
	mux.HandleFunc("GET /{stream}", s.handleStream)
	mux.HandleFunc("GET /{$}", s.handleLanding)

	s.httpServer = &http.Server{
		Addr:    bindAddress,
		Handler: mux,
	}
	return s
}

// Run starts the HTTP server and blocks until ctx is cancelled, at which
// point it shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("radio server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type streamStatus struct {
		Name    string `json:"name"`
		Bitrate int    `json:"bitrate"`
		Status  string `json:"status"`
		Chunks  int    `json:"buffer_chunks"`
		Bytes   int    `json:"buffer_bytes"`
	}

	out := struct {
		StationName string         `json:"station_name"`
		Description string         `json:"station_description"`
		Genre       string         `json:"station_genre"`
		Streams     []streamStatus `json:"streams"`
		Uptime      string         `json:"uptime"`
	}{
		StationName: s.station.StationName,
		Description: s.station.Description,
		Genre:       s.station.Genre,
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
	}

	for _, src := range s.streams {
		chunks, bytes := src.Broadcaster.RingInfo()
		status := "offline"
		if src.Broadcaster.IsRunning() {
			status = "online"
		}
		out.Streams = append(out.Streams, streamStatus{
			Name:    src.Name,
			Bitrate: src.Bitrate,
			Status:  status,
			Chunks:  chunks,
			Bytes:   bytes,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot.Get())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
