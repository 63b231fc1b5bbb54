package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/policy"
	"go.uber.org/zap"
)

// checkRequest is the body of a POST /check call.
type checkRequest struct {
	Text  string `json:"text"`
	Field string `json:"field"`
}

// checkResponse carries the verdict. It intentionally contains neither
// the checked text nor any matched substring.
type checkResponse struct {
	Allowed bool            `json:"allowed"`
	Field   string          `json:"field"`
	Refusal *policy.Refusal `json:"refusal,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleInfo describes the running guard without exposing any configured
// value.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	stats := s.guard.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"name":               "moltbook-wrapper",
		"version":            stats.Version,
		"protection_enabled": stats.ProtectionEnabled,
		"creator_secrets":    stats.Detector.Total(),
		"custom_patterns":    stats.Detector.CustomPatterns,
	})
}

// handleStats returns guard counters and detector set sizes.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.guard.Stats())
}

// handleCheck runs the PII check on the posted text and returns the
// boolean verdict. The text itself goes no further than the detector.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Field == "" {
		req.Field = "content"
	}

	refusal := s.guard.CheckContent(req.Text, req.Field)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(checkResponse{
		Allowed: refusal == nil,
		Field:   req.Field,
		Refusal: refusal,
	})
}

// loggingMiddleware assigns each request an ID and logs request shape
// and timing. Request bodies are never logged here; /check bodies may
// contain the very PII being screened.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := fmt.Sprintf("req_%d", atomic.AddUint64(&s.requestSeq, 1))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		rw.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(rw, r)

		s.logger.WithRequestID(requestID).Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status_code", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
