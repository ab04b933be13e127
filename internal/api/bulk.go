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

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bcem/contactverify/internal/job"
)

type bulkOptions struct {
	IncludeScore *bool `json:"include_score,omitempty"`
	IncludeFraud *bool `json:"include_fraud,omitempty"`
}

type bulkRequest struct {
	Contacts   []job.Contact `json:"contacts"`
	WebhookURL string        `json:"webhook_url,omitempty"`
	Options    bulkOptions   `json:"options"`
}

type bulkAcceptedResponse struct {
	Success       bool   `json:"success"`
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	TotalContacts int    `json:"total_contacts"`
	EstimatedSecs int    `json:"estimated_time_seconds"`
	StatusURL     string `json:"status_url"`
}

// handleBulkProcess accepts a batch and returns the job handle
// immediately; processing continues in the background.
func (s *Server) handleBulkProcess(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Omitted toggles default to on.
	opts := job.DefaultOptions()
	if req.Options.IncludeScore != nil {
		opts.IncludeScore = *req.Options.IncludeScore
	}
	if req.Options.IncludeFraud != nil {
		opts.IncludeFraud = *req.Options.IncludeFraud
	}

	j, err := s.bulk.Submit(r.Context(), req.Contacts, req.WebhookURL, opts)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrEmptyBatch):
			writeError(w, http.StatusBadRequest, "array of contacts is required")
		case errors.Is(err, job.ErrBatchTooLarge):
			writeError(w, http.StatusBadRequest, "maximum 1000 contacts per batch, split larger sets into multiple requests")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start bulk processing")
		}
		return
	}

	writeJSON(w, http.StatusOK, bulkAcceptedResponse{
		Success:       true,
		JobID:         j.ID,
		Status:        j.State,
		TotalContacts: j.Total,
		EstimatedSecs: (j.Total + 1) / 2,
		StatusURL:     fmt.Sprintf("/api/bulk/status/%s", j.ID),
	})
}

type bulkStatusResponse struct {
	Success         bool          `json:"success"`
	JobID           string        `json:"job_id"`
	Status          string        `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	Total           int           `json:"total"`
	Processed       int           `json:"processed"`
	ProgressPercent int           `json:"progress_percent"`
	Results         []job.Outcome `json:"results,omitempty"`
}

func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	resp := bulkStatusResponse{
		Success:     true,
		JobID:       j.ID,
		Status:      j.State,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
		Total:       j.Total,
		Processed:   j.Processed,
	}
	if j.Total > 0 {
		resp.ProgressPercent = j.Processed * 100 / j.Total
	}
	if j.State == job.StateCompleted {
		resp.Results = j.Results
	}
	writeJSON(w, http.StatusOK, resp)
}

type bulkResultsResponse struct {
	Success    bool            `json:"success"`
	JobID      string          `json:"job_id"`
	Status     string          `json:"status"`
	Total      int             `json:"total"`
	Processed  int             `json:"processed"`
	Statistics *job.Statistics `json:"statistics,omitempty"`
	Results    []job.Outcome   `json:"results"`
}

type bulkInProgressResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Status   string `json:"status"`
	Progress string `json:"progress"`
}

func (s *Server) handleBulkResults(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	if j.State != job.StateCompleted {
		writeJSON(w, http.StatusAccepted, bulkInProgressResponse{
			Success:  true,
			Message:  "job still in progress",
			Status:   j.State,
			Progress: fmt.Sprintf("%d/%d", j.Processed, j.Total),
		})
		return
	}

	writeJSON(w, http.StatusOK, bulkResultsResponse{
		Success:    true,
		JobID:      j.ID,
		Status:     j.State,
		Total:      j.Total,
		Processed:  j.Processed,
		Statistics: j.Stats,
		Results:    j.Results,
	})
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.jobs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "job deleted",
	})
}

// lookupJob fetches the path's job ID, handling the error responses.
func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*job.Job, bool) {
	id := r.PathValue("id")
	j, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load job")
		}
		return nil, false
	}
	return j, true
}
