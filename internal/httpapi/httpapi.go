// Package httpapi exposes the titling daemon's control surface: loading and
// stopping a titling session, querying dispatch history, liveness, and
// Prometheus metrics, grounded on the teacher's tuner.Server request
// logging and JSON health-check handler shapes.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/wst-titler/op47/internal/audit"
	"github.com/wst-titler/op47/internal/segmenter"
	"github.com/wst-titler/op47/internal/timesource"
	"github.com/wst-titler/op47/internal/vtt"
)

// Scheduler is the subset of *scheduler.Scheduler the HTTP surface drives.
type Scheduler interface {
	Load(ctx context.Context, segments []segmenter.Segment, clock timesource.Source)
	Stop()
	Status() (loaded bool, segmentCount int, lastShownIndex int)
}

// Dispatcher reports liveness for /healthz.
type Dispatcher interface {
	Connected() bool
}

// Server wires the HTTP control surface to a running Scheduler, Dispatcher,
// and audit log.
type Server struct {
	Scheduler  Scheduler
	Dispatcher Dispatcher
	Audit      *audit.Log
	SegConfig  segmenter.Config

	// TimecodeStrictMatch configures a freshly-created ExternalClock's
	// address-matching mode for timeMode "external".
	TimecodeStrictMatch bool
	ExternalAddr        string

	// OnExternalClock, if set, is called with each newly created
	// ExternalClock so the UDP timecode listener can be pointed at it.
	OnExternalClock func(*timesource.ExternalClock)

	titlingLimiter *rate.Limiter
}

// Mux builds the *http.ServeMux the process should serve. POST /titling is
// rate limited to one request per second (burst 2): an engineer or a
// misbehaving automation retrying too fast should not be able to tear down
// and reload a live titling session faster than the scheduler can settle.
func (s *Server) Mux() *http.ServeMux {
	if s.titlingLimiter == nil {
		s.titlingLimiter = rate.NewLimiter(rate.Limit(1), 2)
	}
	mux := http.NewServeMux()
	mux.Handle("/titling", logRequests(s.rateLimited(http.HandlerFunc(s.handleTitling))))
	mux.Handle("/titling/stop", logRequests(http.HandlerFunc(s.handleTitlingStop)))
	mux.Handle("/titling/history", logRequests(http.HandlerFunc(s.handleHistory)))
	mux.Handle("/healthz", logRequests(http.HandlerFunc(s.handleHealthz)))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.titlingLimiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"ok": false, "error": "too many titling requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type titlingRequest struct {
	VTTPath  string   `json:"vttPath"`
	TimeMode string   `json:"timeMode"`
	StartAt  *float64 `json:"startAt"`
}

func (s *Server) handleTitling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
		return
	}

	var req titlingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.VTTPath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "vttPath is required"})
		return
	}
	timeMode := req.TimeMode
	if timeMode == "" {
		timeMode = "autonomous"
	}
	if timeMode != "autonomous" && timeMode != "external" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": fmt.Sprintf("invalid timeMode %q", timeMode)})
		return
	}

	cues, err := vtt.Load(req.VTTPath)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	segments := segmenter.SegmentAll(s.SegConfig, cues)

	startAt := 0.0
	if req.StartAt != nil {
		startAt = *req.StartAt
	}

	var clock timesource.Source
	if timeMode == "autonomous" {
		clock = timesource.NewAutonomousClock(startAt)
	} else {
		ext := timesource.NewExternalClock(s.ExternalAddr, s.TimecodeStrictMatch)
		if s.OnExternalClock != nil {
			s.OnExternalClock(ext)
		}
		clock = ext
	}

	s.Scheduler.Load(r.Context(), segments, clock)

	resp := map[string]any{
		"ok":       true,
		"cues":     len(cues),
		"segments": len(segments),
		"timeMode": timeMode,
	}
	if req.StartAt != nil {
		resp["startAt"] = startAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTitlingStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
		return
	}
	s.Scheduler.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "titling session stopped"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	records, err := s.Audit.History(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "records": records})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	loaded, _, _ := s.Scheduler.Status()
	connected := s.Dispatcher != nil && s.Dispatcher.Connected()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                  true,
		"dispatcherConnected": connected,
		"sessionLoaded":       loaded,
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)
		status := lw.status
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("http: %s %s status=%d dur=%s remote=%s", r.Method, r.URL.Path, status, time.Since(start).Round(time.Millisecond), r.RemoteAddr)
	})
}
