// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the verification pipeline over HTTP. Single-contact
// endpoints run synchronously; bulk submissions return a job ID and are
// polled through the job store.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bcem/contactverify/internal/fraud"
	"github.com/bcem/contactverify/internal/job"
	"github.com/bcem/contactverify/internal/verify"
)

// EmailVerifier is the synchronous email pipeline.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) verify.EmailResult
	Quick(ctx context.Context, email string) verify.EmailResult
}

// PhoneVerifier is the synchronous phone pipeline.
type PhoneVerifier interface {
	Verify(phone string) verify.PhoneResult
}

// BulkProcessor accepts batch submissions.
type BulkProcessor interface {
	Submit(ctx context.Context, contacts []job.Contact, webhookURL string, opts job.Options) (*job.Job, error)
}

// HealthCheck is a named dependency probe for the health endpoint.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server holds the API's collaborators and builds its routes.
type Server struct {
	emails   EmailVerifier
	phones   PhoneVerifier
	analyzer *fraud.Analyzer
	bulk     BulkProcessor
	jobs     job.Store
	checks   []HealthCheck
}

// ServerConfig wires the server.
type ServerConfig struct {
	Emails   EmailVerifier
	Phones   PhoneVerifier
	Analyzer *fraud.Analyzer
	Bulk     BulkProcessor
	Jobs     job.Store
	Checks   []HealthCheck
}

// NewServer creates the API server.
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		emails:   cfg.Emails,
		phones:   cfg.Phones,
		analyzer: cfg.Analyzer,
		bulk:     cfg.Bulk,
		jobs:     cfg.Jobs,
		checks:   cfg.Checks,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/email/verify", s.handleEmailVerify)
	mux.HandleFunc("POST /api/email/quick", s.handleEmailQuick)
	mux.HandleFunc("POST /api/email/batch", s.handleEmailBatch)
	mux.HandleFunc("POST /api/phone/verify", s.handlePhoneVerify)
	mux.HandleFunc("POST /api/contact/analyze", s.handleContactAnalyze)

	mux.HandleFunc("POST /api/bulk/process", s.handleBulkProcess)
	mux.HandleFunc("GET /api/bulk/status/{id}", s.handleBulkStatus)
	mux.HandleFunc("GET /api/bulk/results/{id}", s.handleBulkResults)
	mux.HandleFunc("DELETE /api/bulk/job/{id}", s.handleBulkDelete)

	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	for _, check := range s.checks {
		if err := check.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "dependency", check.Name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":     "unhealthy",
				"dependency": check.Name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("response encoding failed", "error", err)
	}
}

// decodeBody reads a JSON request body into dst, capped at 10 MiB.
// Returns false after writing the error response.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
