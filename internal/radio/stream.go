package radio

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	icyMetaInterval = 16000
	listenerIdle    = 30 * time.Second
	readChunkBytes  = 8192
)

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("stream")
	src, ok := s.streams[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	if rng := r.Header.Get("Range"); rng != "" {
		slog.Debug("ignoring Range header on live stream", "stream", name, "range", rng)
	}

	ch, detach := src.Broadcaster.Subscribe()
	defer detach()

	header := w.Header()
	header.Set("Content-Type", "audio/mpeg")
	header.Set("Cache-Control", "no-cache, no-store")
	header.Set("Connection", "close")
	header.Set("Accept-Ranges", "none")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("icy-name", s.station.StationName)
	header.Set("icy-description", s.station.Description)
	header.Set("icy-genre", s.station.Genre)
	header.Set("icy-br", strconv.Itoa(src.Bitrate))
	header.Set("icy-metaint", strconv.Itoa(icyMetaInterval))

	flusher, canFlush := w.(http.Flusher)

	w.WriteHeader(http.StatusOK)
	if canFlush {
		flusher.Flush()
	}

	sinceLastByte := time.Now()
	sinceMeta := 0

	for {
		select {
		case <-r.Context().Done():
			return
		case chunk, ok := <-ch:
			if !ok {
				return
			}
			if len(chunk) == 0 {
				continue
			}
			sinceLastByte = time.Now()
			if err := writeWithMetadata(w, chunk, &sinceMeta, s.snapshot.Get().IcyTitle()); err != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		case <-time.After(100 * time.Millisecond):
			if time.Since(sinceLastByte) > listenerIdle {
				slog.Warn("disconnecting idle listener", "stream", name)
				return
			}
		}
	}
}

// writeWithMetadata writes chunk to w, interleaving a single-byte-length-
// prefixed ICY StreamTitle metadata block whenever the running byte count
// crosses icyMetaInterval.
func writeWithMetadata(w http.ResponseWriter, chunk []byte, sinceMeta *int, title string) error {
	for len(chunk) > 0 {
		remaining := icyMetaInterval - *sinceMeta
		n := len(chunk)
		if n > remaining {
			n = remaining
		}

		if _, err := w.Write(chunk[:n]); err != nil {
			return err
		}
		chunk = chunk[n:]
		*sinceMeta += n

		if *sinceMeta >= icyMetaInterval {
			if err := writeMetaBlock(w, title); err != nil {
				return err
			}
			*sinceMeta = 0
		}
	}
	return nil
}

func writeMetaBlock(w http.ResponseWriter, title string) error {
	payload := []byte("StreamTitle='" + title + "';")
	blocks := (len(payload) + 15) / 16
	padded := make([]byte, blocks*16)
	copy(padded, payload)

	if _, err := w.Write([]byte{byte(blocks)}); err != nil {
		return err
	}
	_, err := w.Write(padded)
	return err
}
