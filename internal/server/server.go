// Package server serves the dashboard page, its JSON API and a websocket
// session that re-filters on every message.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/internal/logger"
)

// Server is the dashboard HTTP server
type Server struct {
	cache    *dataset.Cache
	dataPath string
	log      *logger.Logger
	router   *mux.Router
	upgrader websocket.Upgrader
}

// New creates a server that reads datasets for dataPath through cache
func New(cache *dataset.Cache, dataPath string, log *logger.Logger) *Server {
	s := &Server{
		cache:    cache,
		dataPath: dataPath,
		log:      log,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/", s.handlePage).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebsocket)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/options", s.handleOptions).Methods("GET")
	api.HandleFunc("/readings", s.handleReadings).Methods("GET")
	api.HandleFunc("/charts", s.handleCharts).Methods("GET")
	api.HandleFunc("/charts/{kind:[a-z-]+}.{format:png|svg}", s.handleChartImage).Methods("GET")
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("Dashboard listening on %s (data: %s)", addr, s.dataPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("Shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("%s %s (%s)", r.Method, r.URL.RequestURI(), time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"datasets": s.cache.Len(),
	})
}
