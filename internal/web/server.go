// Package web provides an HTTP status server for the thermostat daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sweeney/thermostat/internal/metrics"
	"github.com/sweeney/thermostat/internal/status"
)

// Server serves the status page, JSON status and metrics over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from the given tracker. A nil
// metrics disables /metrics.
func New(addr string, tracker *status.Tracker, m *metrics.Metrics, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{tracker: tracker}

	router := mux.NewRouter()
	router.Handle("/", m.WrapHandler("/", http.HandlerFunc(s.handleIndex))).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/index.html", m.WrapHandler("/index.html", http.HandlerFunc(s.handleIndex))).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/index.json", m.WrapHandler("/index.json", http.HandlerFunc(s.handleJSON))).Methods(http.MethodGet, http.MethodHead)
	if m != nil {
		router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	access := zap.NewStdLog(logger.Desugar().Named("http")).Writer()
	errLog := zap.NewStdLog(logger.Desugar().Named("http"))
	handler := handlers.RecoveryHandler(handlers.RecoveryLogger(errLog))(
		handlers.CombinedLoggingHandler(access, router),
	)

	s.httpServer = &http.Server{
		Addr:     addr,
		Handler:  handler,
		ErrorLog: errLog,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
