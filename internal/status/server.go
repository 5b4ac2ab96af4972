package status

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"BoostKeeper/internal/model"
	"BoostKeeper/internal/settlement"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportSource exposes the most recent cycle report.
type ReportSource interface {
	LastReport() *settlement.Report
}

// Server serves health, last-cycle status and metrics over HTTP.
type Server struct {
	Addr     string
	Source   ReportSource
	Gatherer prometheus.Gatherer
	Now      func() time.Time

	started time.Time
	router  http.Handler
	srv     *http.Server
}

// New builds the router. gatherer may be nil to omit /metrics.
func New(addr string, src ReportSource, gatherer prometheus.Gatherer) *Server {
	s := &Server{Addr: addr, Source: src, Gatherer: gatherer, Now: time.Now}
	s.started = s.Now()
	s.router = s.buildRouter()
	return s
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/status", s.status)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type statusResponse struct {
	Uptime  string                `json:"uptime"`
	Summary *model.CycleSummary   `json:"summary,omitempty"`
	Results []model.RequestResult `json:"results,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Uptime: s.Now().Sub(s.started).Round(time.Second).String()}
	if s.Source != nil {
		if rep := s.Source.LastReport(); rep != nil {
			resp.Summary = &rep.Summary
			resp.Results = rep.Results
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] status server listening on %s", s.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Println("[INFO] status server stopping")
		return s.srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}
