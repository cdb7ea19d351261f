// Package viewer serves computed timelines over HTTP.
//
//	POST /schedule   compute a timeline from features and keep it
//	POST /timeline   store an already computed timeline
//	GET  /timeline   return the latest timeline
//	GET  /healthz    liveness check
package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/feature"
	"github.com/joshharrison/roadloom/internal/graph"
	"github.com/joshharrison/roadloom/internal/log"
	"github.com/joshharrison/roadloom/internal/timeline"
)

const maxBodyBytes = 8 << 20

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code,omitempty"`
	FeatureIDs []string `json:"featureIds,omitempty"`
}

// Server holds the latest timeline and the engine used to compute new ones.
type Server struct {
	engine       *timeline.Engine
	logger       *log.Logger
	defaultStart func() calendar.Date

	mu     sync.RWMutex
	latest *timeline.Result
}

// NewServer returns a Server scheduling with engine. Requests without a
// projectStart are anchored at defaultStart(), or today when it is nil.
func NewServer(engine *timeline.Engine, logger *log.Logger, defaultStart func() calendar.Date) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	if engine == nil {
		engine = timeline.NewEngine(logger)
	}
	if defaultStart == nil {
		defaultStart = calendar.Today
	}
	return &Server{engine: engine, logger: logger, defaultStart: defaultStart}
}

// Latest returns the most recent timeline, or nil.
func (s *Server) Latest() *timeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// SetLatest replaces the timeline served by GET /timeline.
func (s *Server) SetLatest(r *timeline.Result) {
	s.mu.Lock()
	s.latest = r
	s.mu.Unlock()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/schedule", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
			return
		}
		s.handleSchedule(w, r)
	})
	mux.HandleFunc("/timeline", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handlePostTimeline(w, r)
		case http.MethodGet:
			s.handleGetTimeline(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// handleSchedule accepts either a bare feature array or
// {"projectStart": "YYYY-MM-DD", "features": [...]}.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "read body: " + err.Error()})
		return
	}

	features, err := feature.ParseJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	start := s.defaultStart()
	if raw := gjson.GetBytes(body, "projectStart"); raw.Exists() {
		if start, err = calendar.Parse(raw.String()); err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid projectStart: " + err.Error()})
			return
		}
	}

	result, err := s.engine.Schedule(features, start)
	if err != nil {
		s.logger.WithError(err).Info("schedule request rejected")
		if ie, ok := graph.AsInputError(err); ok {
			writeError(w, http.StatusBadRequest, ErrorResponse{
				Error:      ie.Error(),
				Code:       ie.Code(),
				FeatureIDs: ie.FeatureIDs(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	s.SetLatest(result)
	s.logger.Info("timeline scheduled", "features", len(result.Features))
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handlePostTimeline(w http.ResponseWriter, r *http.Request) {
	var result timeline.Result
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	s.SetLatest(&result)
	s.logger.Info("timeline received", "features", len(result.Features))
	writeJSON(w, http.StatusCreated, &result)
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	result := s.Latest()
	if result == nil {
		writeError(w, http.StatusNotFound, ErrorResponse{Error: "no timeline loaded"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	writeJSON(w, status, body)
}

// Serve runs the server on port until ctx is cancelled, then shuts it down.
func (s *Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("viewer listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on port %d: %w", port, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// PostTimeline sends a computed timeline to a running viewer.
func PostTimeline(ctx context.Context, addr string, result *timeline.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/timeline", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST /timeline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /timeline returned %d", resp.StatusCode)
	}

	return nil
}

// IsPortOpen checks if something is listening on the given address.
func IsPortOpen(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
