// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard exposes the activity views over HTTP for the
// browser dashboard. The API is read-only JSON, designed for frequent
// polling: nothing is cached server-side, every request triggers a
// fresh bounded scan of the record store, and concurrent requests do
// not coordinate because they share no mutable state.
package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/activity"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/clock"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

// Server answers the dashboard's polling requests.
type Server struct {
	store     *store.Store
	clock     clock.Clock
	logger    *slog.Logger
	series    activity.SeriesOptions
	feed      activity.FeedOptions
	startedAt time.Time
}

// Config holds the server dependencies.
type Config struct {
	// Store is the record store to read. Required.
	Store *store.Store

	// Clock provides "now" for window anchoring. Required.
	Clock clock.Clock

	// Logger receives request logs. Nil discards them.
	Logger *slog.Logger

	// Series and Feed override the scan parameters; zero fields take
	// the package defaults.
	Series activity.SeriesOptions
	Feed   activity.FeedOptions
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:     cfg.Store,
		clock:     cfg.Clock,
		logger:    logger,
		series:    cfg.Series,
		feed:      cfg.Feed,
		startedAt: cfg.Clock.Now(),
	}
}

// Handler returns the HTTP handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("GET /api/tool-calls", s.handleToolCalls)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// handleActivity serves the five-series tool-call chart. The session
// query parameter names the main session; when absent the most
// recently updated top-level session is used, and an empty store
// yields zero-filled series rather than an error.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = activity.MainSession(s.store)
	}

	set := activity.BuildSeries(s.store, sessionID, s.clock.Now().UnixMilli(), s.series)
	writeJSON(w, http.StatusOK, set)
}

// handleToolCalls serves the recent tool-invocation feed.
func (s *Server) handleToolCalls(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = activity.MainSession(s.store)
	}

	feed, err := activity.BuildFeed(s.store, sessionID, s.feed)
	if err != nil {
		if errors.Is(err, store.ErrPathEscapesRoot) {
			s.logger.Warn("part directory escaped allowed roots", "session", sessionID, "error", err)
		} else {
			s.logger.Error("feed build failed", "session", sessionID, "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "feed unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptimeMs": s.clock.Now().Sub(s.startedAt).Milliseconds(),
	})
}

// logRequests wraps the mux with structured request logging. Each
// request gets a fresh correlation id so a slow scan can be matched to
// its log lines.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := s.clock.Now()

		next.ServeHTTP(recorder, r)

		s.logger.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", s.clock.Now().Sub(started),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encode failures past this point can only be broken pipes; the
	// client is gone and there is nothing useful to do.
	_ = json.NewEncoder(w).Encode(payload)
}
