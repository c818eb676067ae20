// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package api exposes the orchestration engine over an authenticated HTTP
// surface for operational tooling.
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"conductor/pkg/changelist"
	"conductor/pkg/config"
	"conductor/pkg/edge"
	"conductor/pkg/locks"
	"conductor/pkg/log"
	"conductor/pkg/tenant"
	"conductor/pkg/util"

	"github.com/go-chi/chi/v5"
)

// Server routes HTTP requests to the orchestrator and monitor. Clients
// authenticate with a bearer token and an X-Client-ID header; failed
// attempts are tracked per source IP.
type Server struct {
	orchestrator *changelist.Orchestrator
	monitor      *changelist.Monitor
	logger       *log.ScopedLogger

	mu       sync.RWMutex
	profiles map[string]config.APIClientProfile

	attemptsMu     sync.Mutex
	failedAttempts map[string]*failedAttemptTracker
}

// failedAttemptTracker tracks failed authentication attempts from an IP.
type failedAttemptTracker struct {
	Count       int
	FirstFailed time.Time
	LastFailed  time.Time
}

// applyRequest is the JSON body for a batch change submission.
type applyRequest struct {
	Tenant       string              `json:"tenant,omitempty"`
	Changes      []edge.RecordChange `json:"changes"`
	Network      string              `json:"network,omitempty"`
	AutoActivate *bool               `json:"autoActivate,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer builds a server from the API config. Client tokens may be
// file:// or env:// references; they are resolved once at startup.
func NewServer(apiConfig *config.APIConfig, orchestrator *changelist.Orchestrator, monitor *changelist.Monitor) (*Server, error) {
	logLevel := ""
	if apiConfig != nil && apiConfig.LogLevel != "" {
		logLevel = apiConfig.LogLevel
	}
	logger := log.NewScopedLogger("[api]", logLevel)
	if logLevel != "" {
		logger.Info("API server log_level set to: '%s'", logLevel)
	}

	s := &Server{
		orchestrator:   orchestrator,
		monitor:        monitor,
		logger:         logger,
		profiles:       make(map[string]config.APIClientProfile),
		failedAttempts: make(map[string]*failedAttemptTracker),
	}

	if apiConfig != nil {
		resolved := make(map[string]config.APIClientProfile, len(apiConfig.Profiles))
		for clientID, profile := range apiConfig.Profiles {
			token := util.ReadSecretValue(profile.Token)
			if token == "" {
				return nil, fmt.Errorf("[api] client '%s' has empty token", clientID)
			}
			resolved[clientID] = config.APIClientProfile{Token: token}
			logger.Debug("Registered client profile: %s (token: %s)", clientID, util.MaskSensitiveValue(token))
		}
		s.profiles = resolved
	}
	return s, nil
}

// Router assembles the HTTP routes. The health endpoint is unauthenticated;
// everything else requires a valid client profile.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(connectionIDMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/changelists", s.handleListChangelists)
		r.Get("/changelists/{zone}/submit/{requestID}", s.handleStatus)
		r.Post("/zones/{zone}/changes", s.handleApply)
	})

	return r
}

// Serve runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, listen string) error {
	if listen == "" {
		listen = ":8080"
	}
	httpServer := &http.Server{
		Addr:    listen,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", listen)
		errCh <- httpServer.ListenAndServe()
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanupFailedAttempts()
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type contextKey string

const connectionIDKey contextKey = "connectionID"

func generateConnectionID() string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// connectionIDMiddleware adds a unique connection ID to each request
func connectionIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), connectionIDKey, generateConnectionID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getConnectionID(r *http.Request) string {
	if id, ok := r.Context().Value(connectionIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// authMiddleware validates the bearer token and client ID on every request.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		connID := getConnectionID(r)
		clientID, ok := s.authenticateClient(r)
		if !ok {
			s.logger.Warn("[%s] Unauthorized request from %s", connID, r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		s.logger.Debug("[%s] Authenticated client %s for %s %s", connID, clientID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// authenticateClient validates client authentication
func (s *Server) authenticateClient(r *http.Request) (string, bool) {
	connID := getConnectionID(r)

	if s.isRateLimited(r.RemoteAddr) {
		s.logger.Warn("[%s] SECURITY: Rate limited IP attempted connection: %s", connID, r.RemoteAddr)
		return "", false
	}

	authHeader := r.Header.Get("Authorization")
	clientID := r.Header.Get("X-Client-ID")

	if !strings.HasPrefix(authHeader, "Bearer ") {
		s.recordFailedAttempt(r.RemoteAddr, clientID, "missing/invalid Authorization header")
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	if clientID == "" {
		s.recordFailedAttempt(r.RemoteAddr, "unknown", "missing X-Client-ID header")
		return "", false
	}

	s.mu.RLock()
	profile, exists := s.profiles[clientID]
	s.mu.RUnlock()

	if !exists {
		s.recordFailedAttempt(r.RemoteAddr, clientID, "unknown client_id")
		return "", false
	}
	if profile.Token != token {
		s.recordFailedAttempt(r.RemoteAddr, clientID, "invalid token")
		return "", false
	}

	s.resetFailedAttempts(r.RemoteAddr)
	return clientID, true
}

// recordFailedAttempt tracks a failed authentication attempt from an IP
func (s *Server) recordFailedAttempt(remoteAddr, clientID, reason string) {
	ip := strings.Split(remoteAddr, ":")[0]

	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()

	now := time.Now()
	tracker, exists := s.failedAttempts[ip]
	if exists {
		tracker.Count++
		tracker.LastFailed = now
	} else {
		tracker = &failedAttemptTracker{Count: 1, FirstFailed: now, LastFailed: now}
		s.failedAttempts[ip] = tracker
	}

	switch {
	case tracker.Count >= 10:
		s.logger.Error("SECURITY: %d failed auth attempts from %s (client_id: %s, reason: %s)",
			tracker.Count, ip, clientID, reason)
	case tracker.Count >= 5:
		s.logger.Warn("Multiple failed auth attempts from %s: %d attempts (client_id: %s, reason: %s)",
			ip, tracker.Count, clientID, reason)
	default:
		s.logger.Verbose("Failed auth attempt from %s (client_id: %s, reason: %s)", ip, clientID, reason)
	}
}

// isRateLimited checks if an IP should be blocked based on failed attempts
func (s *Server) isRateLimited(remoteAddr string) bool {
	ip := strings.Split(remoteAddr, ":")[0]

	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()

	tracker, exists := s.failedAttempts[ip]
	if !exists {
		return false
	}
	// More than 20 failures inside an hour blocks the IP.
	return tracker.Count >= 20 && time.Since(tracker.FirstFailed) < time.Hour
}

func (s *Server) resetFailedAttempts(remoteAddr string) {
	ip := strings.Split(remoteAddr, ":")[0]

	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()

	if tracker, exists := s.failedAttempts[ip]; exists && tracker.Count > 0 {
		s.logger.Debug("Clearing %d failed attempts for %s after successful auth", tracker.Count, ip)
		delete(s.failedAttempts, ip)
	}
}

// cleanupFailedAttempts drops attempt records older than 24 hours.
func (s *Server) cleanupFailedAttempts() {
	s.attemptsMu.Lock()
	defer s.attemptsMu.Unlock()

	now := time.Now()
	cleaned := 0
	for ip, tracker := range s.failedAttempts {
		if now.Sub(tracker.FirstFailed) > 24*time.Hour {
			delete(s.failedAttempts, ip)
			cleaned++
		}
	}
	if cleaned > 0 {
		s.logger.Debug("Cleaned up %d old failed attempt records", cleaned)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListChangelists(w http.ResponseWriter, r *http.Request) {
	connID := getConnectionID(r)
	tenantName := r.URL.Query().Get("tenant")

	lists, err := s.monitor.ListOpen(r.Context(), tenantName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Verbose("[%s] Listed %d open change-set(s)", connID, len(lists))
	writeJSON(w, http.StatusOK, map[string]interface{}{"changeLists": lists})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	zone := chi.URLParam(r, "zone")
	requestID := chi.URLParam(r, "requestID")
	tenantName := r.URL.Query().Get("tenant")

	session, err := s.monitor.Status(r.Context(), tenantName, zone, requestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	connID := getConnectionID(r)
	zone := chi.URLParam(r, "zone")

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	var overrides *changelist.Overrides
	if req.Network != "" || req.AutoActivate != nil {
		overrides = &changelist.Overrides{
			Network:      edge.Network(req.Network),
			AutoActivate: req.AutoActivate,
		}
	}

	s.logger.Info("[%s] Applying %d change(s) to zone %s", connID, len(req.Changes), zone)
	outcome, err := s.orchestrator.Apply(r.Context(), req.Tenant, zone, req.Changes, overrides)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// writeError maps engine errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	connID := getConnectionID(r)

	status := http.StatusBadGateway
	var (
		validationErr *changelist.ValidationError
		authErr       *tenant.AuthorizationError
		timeoutErr    *changelist.TimeoutError
		apiErr        *edge.APIError
	)
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &authErr):
		status = http.StatusForbidden
	case errors.Is(err, locks.ErrZoneBusy):
		status = http.StatusConflict
	case errors.As(err, &timeoutErr):
		status = http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		status = apiErr.StatusCode
	}

	s.logger.Debug("[%s] Request failed (%d): %v", connID, status, err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
