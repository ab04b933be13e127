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
	"net/http"
	"time"

	"github.com/bcem/contactverify/internal/fraud"
	"github.com/bcem/contactverify/internal/scoring"
	"github.com/bcem/contactverify/internal/verify"
)

// maxInlineBatch caps the synchronous email batch endpoint. Larger sets
// belong on the async bulk endpoint.
const maxInlineBatch = 50

type emailRequest struct {
	Email string `json:"email"`
}

type emailResponse struct {
	Success bool `json:"success"`
	verify.EmailResult
}

func (s *Server) handleEmailVerify(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	res := s.emails.Verify(r.Context(), req.Email)
	writeJSON(w, http.StatusOK, emailResponse{Success: true, EmailResult: res})
}

func (s *Server) handleEmailQuick(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	res := s.emails.Quick(r.Context(), req.Email)
	writeJSON(w, http.StatusOK, emailResponse{Success: true, EmailResult: res})
}

type emailBatchRequest struct {
	Emails []string `json:"emails"`
	Quick  *bool    `json:"quick,omitempty"`
}

type emailBatchStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

type emailBatchResponse struct {
	Success bool                 `json:"success"`
	Stats   emailBatchStats      `json:"stats"`
	Results []verify.EmailResult `json:"results"`
}

// handleEmailBatch verifies up to maxInlineBatch addresses synchronously.
// Quick mode is the default; full SMTP probing across 50 addresses would
// hold the request open for minutes.
func (s *Server) handleEmailBatch(w http.ResponseWriter, r *http.Request) {
	var req emailBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Emails) == 0 {
		writeError(w, http.StatusBadRequest, "emails array is required")
		return
	}
	if len(req.Emails) > maxInlineBatch {
		writeError(w, http.StatusBadRequest, "maximum 50 emails per batch")
		return
	}

	quick := req.Quick == nil || *req.Quick

	resp := emailBatchResponse{
		Success: true,
		Results: make([]verify.EmailResult, len(req.Emails)),
	}
	for i, email := range req.Emails {
		if quick {
			resp.Results[i] = s.emails.Quick(r.Context(), email)
		} else {
			resp.Results[i] = s.emails.Verify(r.Context(), email)
		}
		if resp.Results[i].Valid {
			resp.Stats.Valid++
		} else {
			resp.Stats.Invalid++
		}
	}
	resp.Stats.Total = len(resp.Results)

	writeJSON(w, http.StatusOK, resp)
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type phoneResponse struct {
	Success bool `json:"success"`
	verify.PhoneResult
}

func (s *Server) handlePhoneVerify(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	writeJSON(w, http.StatusOK, phoneResponse{Success: true, PhoneResult: s.phones.Verify(req.Phone)})
}

type contactRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type contactVerification struct {
	Email *verify.EmailResult `json:"email,omitempty"`
	Phone *verify.PhoneResult `json:"phone,omitempty"`
}

type contactSummary struct {
	IsValid        bool   `json:"is_valid"`
	IsSafe         bool   `json:"is_safe"`
	Quality        string `json:"quality"`
	Risk           string `json:"risk"`
	Recommendation string `json:"recommendation"`
}

type contactResponse struct {
	Success       bool                  `json:"success"`
	Timestamp     time.Time             `json:"timestamp"`
	Contact       contactRequest        `json:"contact"`
	Verification  contactVerification   `json:"verification"`
	QualityScore  scoring.Score         `json:"quality_score"`
	FraudAnalysis fraud.ContactAnalysis `json:"fraud_analysis"`
	Summary       contactSummary        `json:"summary"`
}

// handleContactAnalyze runs the full intelligence pass on one contact:
// verification, quality score, and fraud analysis in a single call.
func (s *Server) handleContactAnalyze(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" && req.Phone == "" {
		writeError(w, http.StatusBadRequest, "at least one of email or phone is required")
		return
	}

	resp := contactResponse{
		Success:   true,
		Timestamp: time.Now().UTC(),
		Contact:   req,
	}

	if req.Email != "" {
		res := s.emails.Verify(r.Context(), req.Email)
		resp.Verification.Email = &res
	}
	if req.Phone != "" {
		res := s.phones.Verify(req.Phone)
		resp.Verification.Phone = &res
	}

	resp.QualityScore = scoring.Calculate(resp.Verification.Email, resp.Verification.Phone)
	resp.FraudAnalysis = s.analyzer.AnalyzeContact(req.Email, req.Phone, resp.Verification.Email, resp.Verification.Phone)

	resp.Summary = contactSummary{
		IsValid:        resp.QualityScore.Score >= 50,
		IsSafe:         resp.FraudAnalysis.OverallRiskLevel != fraud.RiskHigh,
		Quality:        resp.QualityScore.Quality,
		Risk:           resp.FraudAnalysis.OverallRiskLevel,
		Recommendation: contactRecommendation(resp.QualityScore.Score, resp.FraudAnalysis.OverallRiskScore),
	}

	writeJSON(w, http.StatusOK, resp)
}

func contactRecommendation(qualityScore, fraudScore int) string {
	switch {
	case qualityScore >= 70 && fraudScore < 30:
		return "Excellent contact - safe to proceed"
	case qualityScore >= 50 && fraudScore < 50:
		return "Good contact - proceed with normal verification"
	case fraudScore >= 50:
		return "High fraud risk - additional verification recommended"
	default:
		return "Low quality contact - verify before engaging"
	}
}
