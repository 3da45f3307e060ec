// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only dashboard of export runs at localhost:8080
package web

import (
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/heyreport/db"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	db        *sql.DB
	templates *template.Template
	logger    *log.Logger
	now       func() time.Time
}

func NewServer(database *sql.DB, logger *log.Logger) (*Server, error) {
	funcMap := template.FuncMap{
		"when": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04:05")
		},
		"took": func(run db.Run) string {
			if run.FinishedAt == nil {
				return "-"
			}
			return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		db:        database,
		templates: tmpl,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)
	return mux
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("starting web server", "url", "http://localhost"+addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := db.GetRunStats(s.db, s.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	recent, err := db.ListRuns(s.db, 5)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "dashboard.html", map[string]any{
		"Title":    "Dashboard",
		"Stats":    stats,
		"Runs":     recent,
		"Statuses": []string{db.StatusExported, db.StatusFallback, db.StatusDeclined, db.StatusEmpty, db.StatusFailed, db.StatusDryRun},
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := db.ListRuns(s.db, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "runs.html", map[string]any{
		"Title": "Runs",
		"Runs":  runs,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := db.GetRun(s.db, r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}

	s.renderTemplate(w, "run.html", map[string]any{
		"Title": "Run " + run.ID,
		"Run":   run,
	})
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
