// Package admin exposes an unauthenticated operational surface over the
// library and schedule, meant to be bound to a private interface.
package admin

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arung-agamani/denpa-radio/internal/library"
	"github.com/arung-agamani/denpa-radio/internal/schedule"
)

// StreamStatus mirrors the public /status payload for one stream, plus a
// listener count the public endpoint omits.
type StreamStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Bitrate   int    `json:"bitrate"`
	Chunks    int    `json:"buffer_chunks"`
	Bytes     int    `json:"buffer_bytes"`
	Listeners int    `json:"listeners"`
}

// Server holds the gin engine backing the admin API.
type Server struct {
	store      *library.Store
	controller *schedule.Controller
	musicDir   string
	streams    func() []StreamStatus

	httpServer *http.Server
}

// NewServer constructs an admin API server. streams supplies the current
// per-stream status on demand.
func NewServer(bindAddress string, store *library.Store, controller *schedule.Controller, musicDir string, streams func() []StreamStatus) *Server {
	s := &Server{store: store, controller: controller, musicDir: musicDir, streams: streams}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/admin/tracks", s.listTracks)
	router.GET("/admin/tracks/search", s.searchTracks)
	router.POST("/admin/scan", s.scan)
	router.GET("/admin/programs", s.listPrograms)
	router.GET("/admin/streams", s.listStreams)

	s.httpServer = &http.Server{Addr: bindAddress, Handler: router}
	return s
}

// Run starts the admin HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
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

func sanitiseTrack(t *library.Track) gin.H {
	return gin.H{
		"id":           t.ID,
		"title":        t.Title,
		"artist":       t.Artist,
		"album":        t.Album,
		"fileName":     filepath.Base(t.FilePath),
		"fileSize":     t.FileSize,
		"lastModified": t.LastModified,
		"extension":    t.FileExtension,
	}
}

// listTracks handles GET /admin/tracks
func (s *Server) listTracks(c *gin.Context) {
	tracks, err := s.store.GetAllTracks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	count, _ := strconv.Atoi(c.DefaultQuery("count", "50"))
	if page < 1 {
		page = 1
	}
	if count < 1 || count > 500 {
		count = 50
	}

	start := (page - 1) * count
	if start > len(tracks) {
		start = len(tracks)
	}
	end := start + count
	if end > len(tracks) {
		end = len(tracks)
	}

	pageSlice := tracks[start:end]
	out := make([]gin.H, 0, len(pageSlice))
	for _, t := range pageSlice {
		out = append(out, sanitiseTrack(t))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"total_tracks": len(tracks),
		"page":         page,
		"count":        count,
		"tracks":       out,
	})
}

// searchTracks handles GET /admin/tracks/search?q=
func (s *Server) searchTracks(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "q is required"})
		return
	}

	tracks, err := s.store.GetAllTracks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	var matches []gin.H
	for _, t := range tracks {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) ||
			strings.Contains(strings.ToLower(t.Album), q) {
			matches = append(matches, sanitiseTrack(t))
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "matches": matches})
}

// scan handles POST /admin/scan?full=1
func (s *Server) scan(c *gin.Context) {
	var (
		result *library.ScanResult
		err    error
	)
	if c.Query("full") == "1" {
		result, err = s.store.FullScan(s.musicDir)
	} else {
		result, err = s.store.IncrementalScan(s.musicDir)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"deleted":  result.Deleted,
		"errors":   len(result.Errors),
	})
}

// listPrograms handles GET /admin/programs
func (s *Server) listPrograms(c *gin.Context) {
	programs := s.controller.Programs()
	out := make([]gin.H, 0, len(programs))
	for _, p := range programs {
		out = append(out, gin.H{
			"name":     p.Name,
			"type":     p.Type,
			"duration": p.Duration.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"programs": out,
		"current":  s.controller.CurrentStatus(),
	})
}

// listStreams handles GET /admin/streams
func (s *Server) listStreams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "streams": s.streams()})
}
