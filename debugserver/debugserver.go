// Package debugserver implements the optional, strictly observational
// HTTP server started when --debug-addr is set (§4.14): it reports
// in-flight run progress and the config discovery report, and has no
// effect on simulation semantics. When no --debug-addr flag is given,
// this package is never touched and zero goroutines start.
package debugserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/schmidtdse/joshsim/log"
)

// Progress is the current timestep/replicate of an in-flight run.
type Progress struct {
	Replicate int       `json:"replicate"`
	Step      int       `json:"step"`
	Timesteps int       `json:"timesteps"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker is a thread-safe holder for the latest Progress snapshot,
// recorded through Update and read by the /progress handler. The stepper
// does not call Update.
type Tracker struct {
	mu       sync.RWMutex
	progress Progress
}

// Update records a new progress snapshot.
func (t *Tracker) Update(p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = p
}

// Snapshot returns the latest recorded progress.
func (t *Tracker) Snapshot() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

// Server is the debug/progress HTTP server.
type Server struct {
	httpServer *http.Server
	tracker    *Tracker
}

// New builds a Server listening on addr. configLines is served verbatim
// (one entry per line) at /config; it may be updated by the caller before
// Start is called, but is not safe to mutate concurrently with requests.
func New(addr string, tracker *Tracker, configLines []string) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, tracker.Snapshot())
	}).Methods(http.MethodGet)

	router.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, configLines)
	}).Methods(http.MethodGet)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	handler := cors.Default().Handler(router)

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: handler},
		tracker:    tracker,
	}
}

// Start runs the server until ctx is cancelled, then shuts it down
// gracefully. It blocks until the server has stopped.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Default.Infof("debugserver: listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
