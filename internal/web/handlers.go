package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/joestump/branchsmith/internal/hub"
	"github.com/joestump/branchsmith/internal/rules"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var rulesPage = template.Must(template.New("rules").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>branchsmith rules</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
code { background: #f4f4f4; padding: 0 0.2rem; }
.warning { color: #8a5300; }
</style>
</head>
<body>
{{.Body}}
{{if .Warnings}}<h2>Warnings</h2>
<ul>{{range .Warnings}}<li class="warning">{{.}}</li>{{end}}</ul>{{end}}
</body>
</html>
`))

// renderMarkdown converts GitHub-flavoured markdown to HTML.
func renderMarkdown(md string) (template.HTML, error) {
	gm := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // tables, strikethrough, autolinks, task lists
		),
	)
	var buf bytes.Buffer
	if err := gm.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// handleRules renders the effective naming rules as an HTML page.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	cfg, warnings, err := s.rules.Load(r.Context())
	if err != nil {
		s.logger.Error("load rules", "error", err)
		http.Error(w, "rules configuration error", http.StatusInternalServerError)
		return
	}

	body, err := renderMarkdown(rules.Describe(cfg))
	if err != nil {
		s.logger.Error("render rules", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	data := struct {
		Body     template.HTML
		Warnings []string
	}{Body: body, Warnings: warnings}

	var buf bytes.Buffer
	if err := rulesPage.Execute(&buf, data); err != nil {
		s.logger.Error("rules template", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleEventStream streams branch creation events over SSE. Each event is
// the JSON creation record.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	_, _ = fmt.Fprintf(w, "retry: 30000\n\n")
	flusher.Flush()

	if s.hub == nil {
		_, _ = fmt.Fprintf(w, "event: done\ndata: event hub not connected\n\n")
		flusher.Flush()
		return
	}

	ch, unsubscribe := s.hub.Subscribe(hub.TopicBranches)
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				_, _ = fmt.Fprintf(w, "event: done\ndata: stream closed\n\n")
				flusher.Flush()
				return
			}
			_, _ = fmt.Fprintf(w, "event: branch\ndata: %s\n\n", event)
			flusher.Flush()
		}
	}
}
