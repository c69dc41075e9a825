package radio

import (
	"html/template"
	"net/http"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>{{.StationName}}</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
		.container { max-width: 600px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
		h1 { color: #333; border-bottom: 2px solid #4CAF50; padding-bottom: 10px; }
		.info { background: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0; }
		.stream-link { background: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block; margin: 10px 0; }
		.now-playing { background: #e8f5e9; padding: 20px; border-radius: 5px; margin: 20px 0; border-left: 4px solid #4CAF50; }
	</style>
</head>
<body>
	<div class="container">
		<h1>{{.StationName}}</h1>
		<div class="now-playing">
			<h2>Now Playing</h2>
			<div>{{.NowPlaying}}</div>
			<div style="color: #666;">Album: {{.Album}}</div>
		</div>
		<div class="info">
			<p><strong>Description:</strong> {{.Description}}</p>
			<p><strong>Genre:</strong> {{.Genre}}</p>
		</div>
		{{range .Streams}}<a href="/{{.}}" class="stream-link">Listen: {{.}}</a>{{end}}
		<a href="/status" class="stream-link">Status (JSON)</a>
		<a href="/current" class="stream-link">Current Track (JSON)</a>
		<a href="/api-docs" class="stream-link">API Documentation</a>
	</div>
</body>
</html>`))

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	meta := s.snapshot.Get()

	var names []string
	for name := range s.streams {
		names = append(names, name)
	}

	data := struct {
		StationName string
		Description string
		Genre       string
		NowPlaying  string
		Album       string
		Streams     []string
	}{
		StationName: s.station.StationName,
		Description: s.station.Description,
		Genre:       s.station.Genre,
		NowPlaying:  meta.IcyTitle(),
		Album:       meta.Album,
		Streams:     names,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = landingTemplate.Execute(w, data)
}
