package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/MarketBrief/internal/content"
	"github.com/TobiSchelling/MarketBrief/internal/database"
	"github.com/TobiSchelling/MarketBrief/internal/pipeline"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// RecentLimit is the number of log entries listed on the index page.
const RecentLimit = 20

// Generator runs and persists content generation.
type Generator interface {
	Generate(ctx context.Context, v profile.Variant) (*pipeline.Result, error)
	Save(e *content.Entry) []pipeline.StepResult
}

// Server is the HTTP server for generating and browsing content.
type Server struct {
	db    *database.DB
	gen   Generator
	style profile.Style
	now   func() time.Time
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server. A nil generator leaves the site read-only.
func New(db *database.DB, gen Generator, defaultStyle profile.Style) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"join":     strings.Join,
		"score":    func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) },
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "entry.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	if defaultStyle == "" {
		defaultStyle = profile.Professional
	}
	s := &Server{db: db, gen: gen, style: defaultStyle, now: time.Now, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/generate", s.handleGenerate)
	s.mux.HandleFunc("/entry/", s.handleEntry)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	entries, err := s.db.RecentEntries(RecentLimit)
	if err != nil {
		lgr.Printf("[ERROR] listing entries: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats(s.now())
	if err != nil {
		lgr.Printf("[ERROR] reading stats: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Entries":     entries,
		"Stats":       stats,
		"Modes":       profile.Modes(),
		"Styles":      profile.Styles(),
		"DefaultMode": profile.ModeForDay(s.now().Weekday()),
		"Style":       s.style,
		"CanGenerate": s.gen != nil,
		"Error":       r.URL.Query().Get("error"),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if s.gen == nil {
		http.Error(w, "Generation is not configured", http.StatusServiceUnavailable)
		return
	}

	mode, err := profile.ParseMode(r.FormValue("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	style := s.style
	if v := strings.TrimSpace(r.FormValue("style")); v != "" {
		if style, err = profile.ParseStyle(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	res, err := s.gen.Generate(r.Context(), profile.Variant{Mode: mode, Style: style})
	if err != nil {
		lgr.Printf("[ERROR] generation failed: %v", err)
		http.Redirect(w, r, "/?error="+url.QueryEscape("generation failed"), http.StatusSeeOther)
		return
	}
	for _, step := range res.Failed() {
		lgr.Printf("[WARN] %s: %v", step.Name, step.Err)
	}
	for _, step := range s.gen.Save(res.Entry) {
		if step.Err != nil {
			lgr.Printf("[ERROR] %s: %v", step.Name, step.Err)
		}
	}

	if res.Entry.ID == 0 {
		http.Redirect(w, r, "/?error="+url.QueryEscape("entry was not saved"), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/entry/%d", res.Entry.ID), http.StatusSeeOther)
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/entry/"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	entry, err := s.db.GetEntry(id)
	if err != nil {
		lgr.Printf("[ERROR] loading entry %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, "entry.html", map[string]any{
		"Entry": entry,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		lgr.Printf("[ERROR] template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		lgr.Printf("[ERROR] rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port and stops when ctx is done.
func Serve(ctx context.Context, srv *Server, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown: %v", err)
		}
	}()

	lgr.Printf("[INFO] server listening on http://%s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
