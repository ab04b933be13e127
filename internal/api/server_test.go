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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bcem/contactverify/internal/fraud"
	"github.com/bcem/contactverify/internal/job"
	"github.com/bcem/contactverify/internal/verify"
)

// stubEmails records which pipeline ran.
type stubEmails struct {
	verifyCalls int
	quickCalls  int
}

func (s *stubEmails) Verify(_ context.Context, email string) verify.EmailResult {
	s.verifyCalls++
	return s.result(email)
}

func (s *stubEmails) Quick(_ context.Context, email string) verify.EmailResult {
	s.quickCalls++
	return s.result(email)
}

func (s *stubEmails) result(email string) verify.EmailResult {
	valid := strings.Contains(email, "@")
	return verify.EmailResult{
		Email:  strings.ToLower(email),
		Valid:  valid,
		Checks: verify.EmailChecks{Format: valid, MX: valid},
	}
}

type stubPhones struct{}

func (stubPhones) Verify(phone string) verify.PhoneResult {
	return verify.PhoneResult{
		Phone:      phone,
		Normalized: verify.NormalizePhone(phone),
		Valid:      true,
		Checks:     verify.PhoneChecks{Format: true, CountryCode: true, Length: true},
	}
}

// stubBulk validates bounds like the real processor and records the
// submission.
type stubBulk struct {
	lastContacts []job.Contact
	lastWebhook  string
	lastOpts     job.Options
}

func (s *stubBulk) Submit(_ context.Context, contacts []job.Contact, webhookURL string, opts job.Options) (*job.Job, error) {
	if len(contacts) == 0 {
		return nil, job.ErrEmptyBatch
	}
	if len(contacts) > job.MaxBatchSize {
		return nil, job.ErrBatchTooLarge
	}
	s.lastContacts = contacts
	s.lastWebhook = webhookURL
	s.lastOpts = opts
	return &job.Job{
		ID:        "job-123",
		State:     job.StateProcessing,
		Total:     len(contacts),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func newTestServer(t *testing.T) (*Server, *stubEmails, *stubBulk, *job.MemoryStore) {
	t.Helper()
	emails := &stubEmails{}
	bulk := &stubBulk{}
	store := job.NewMemoryStore()
	srv := NewServer(ServerConfig{
		Emails:   emails,
		Phones:   stubPhones{},
		Analyzer: fraud.NewAnalyzer(nil),
		Bulk:     bulk,
		Jobs:     store,
	})
	return srv, emails, bulk, store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestEmailVerifyEndpoint covers the happy path and the required-field
// error.
func TestEmailVerifyEndpoint(t *testing.T) {
	srv, emails, _, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/email/verify", `{"email":"User@Example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Success bool   `json:"success"`
		Email   string `json:"email"`
		Valid   bool   `json:"valid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || !resp.Valid || resp.Email != "user@example.com" {
		t.Errorf("resp = %+v", resp)
	}
	if emails.verifyCalls != 1 || emails.quickCalls != 0 {
		t.Errorf("verify/quick calls = %d/%d", emails.verifyCalls, emails.quickCalls)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/email/verify", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing email: status = %d", rec.Code)
	}
}

// TestEmailQuickEndpoint verifies the quick route uses the abbreviated
// pipeline.
func TestEmailQuickEndpoint(t *testing.T) {
	srv, emails, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/email/quick", `{"email":"user@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if emails.quickCalls != 1 || emails.verifyCalls != 0 {
		t.Errorf("verify/quick calls = %d/%d, want 0/1", emails.verifyCalls, emails.quickCalls)
	}
}

// TestEmailBatchEndpoint covers quick default, stats, and the cap.
func TestEmailBatchEndpoint(t *testing.T) {
	srv, emails, _, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/email/batch", `{"emails":["a@x.com","bogus"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp emailBatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Stats.Total != 2 || resp.Stats.Valid != 1 || resp.Stats.Invalid != 1 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if emails.quickCalls != 2 || emails.verifyCalls != 0 {
		t.Errorf("quick should be the default, calls = %d/%d", emails.verifyCalls, emails.quickCalls)
	}

	many := `{"emails":[` + strings.Repeat(`"a@x.com",`, 50) + `"a@x.com"]}`
	rec = doJSON(t, h, http.MethodPost, "/api/email/batch", many)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("51 emails: status = %d, want 400", rec.Code)
	}
}

// TestContactAnalyzeEndpoint verifies the combined response and the
// at-least-one-field rule.
func TestContactAnalyzeEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/contact/analyze", `{"email":"user@example.com","phone":"+15558675309"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp contactResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Verification.Email == nil || resp.Verification.Phone == nil {
		t.Error("both verifications should be present")
	}
	if resp.QualityScore.Score == 0 || resp.QualityScore.Grade == "" {
		t.Errorf("quality score = %+v", resp.QualityScore)
	}
	if resp.Summary.Recommendation == "" || resp.Summary.Risk == "" {
		t.Errorf("summary = %+v", resp.Summary)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/contact/analyze", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty contact: status = %d, want 400", rec.Code)
	}
}

// TestBulkProcessEndpoint covers submission, option defaults, and the
// validation errors.
func TestBulkProcessEndpoint(t *testing.T) {
	srv, _, bulk, _ := newTestServer(t)
	h := srv.Handler()

	body := `{"contacts":[{"email":"a@x.com"},{"phone":"+15558675309"}],"webhook_url":"https://hooks.example/cb","options":{"include_fraud":false}}`
	rec := doJSON(t, h, http.MethodPost, "/api/bulk/process", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp bulkAcceptedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID == "" || resp.Status != job.StateProcessing || resp.TotalContacts != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.StatusURL != "/api/bulk/status/"+resp.JobID {
		t.Errorf("status_url = %q", resp.StatusURL)
	}
	if bulk.lastWebhook != "https://hooks.example/cb" {
		t.Errorf("webhook = %q", bulk.lastWebhook)
	}
	if !bulk.lastOpts.IncludeScore || bulk.lastOpts.IncludeFraud {
		t.Errorf("opts = %+v, want score on and fraud off", bulk.lastOpts)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/bulk/process", `{"contacts":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty contacts: status = %d, want 400", rec.Code)
	}
}

// TestBulkStatusAndResults walks a job from processing to completed
// through the status and results endpoints.
func TestBulkStatusAndResults(t *testing.T) {
	srv, _, _, store := newTestServer(t)
	h := srv.Handler()
	ctx := context.Background()

	j := &job.Job{
		ID:        "abc",
		State:     job.StateProcessing,
		Total:     4,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Create(ctx, j); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.UpdateProgress(ctx, "abc", 2); err != nil {
		t.Fatalf("progress: %v", err)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/bulk/status/abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status bulkStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.ProgressPercent != 50 || status.Results != nil {
		t.Errorf("in-progress status = %+v, results must be withheld", status)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/bulk/results/abc", "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("in-progress results: status = %d, want 202", rec.Code)
	}

	results := []job.Outcome{
		{Input: job.Contact{Email: "a@x.com"}, Success: true},
		{Input: job.Contact{Email: "b@x.com"}, Success: true},
		{Input: job.Contact{Phone: "+15558675309"}, Success: true},
		{Input: job.Contact{}, Error: "contact has neither email nor phone"},
	}
	if err := store.Complete(ctx, "abc", results, job.ComputeStatistics(results), time.Now().UTC()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/bulk/results/abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("completed results: status = %d", rec.Code)
	}
	var full bulkResultsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &full); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(full.Results) != 4 || full.Statistics == nil || full.Statistics.Failed != 1 {
		t.Errorf("results resp = %+v", full)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/bulk/status/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job: status = %d, want 404", rec.Code)
	}
}

// TestBulkDeleteEndpoint verifies deletion and the not-found case.
func TestBulkDeleteEndpoint(t *testing.T) {
	srv, _, _, store := newTestServer(t)
	h := srv.Handler()
	ctx := context.Background()

	j := &job.Job{ID: "gone", State: job.StateProcessing, Total: 1, CreatedAt: time.Now().UTC()}
	if err := store.Create(ctx, j); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := doJSON(t, h, http.MethodDelete, "/api/bulk/job/gone", "")
	if rec.Code != http.StatusOK {
		t.Errorf("delete: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/bulk/job/gone", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

// TestHealthEndpoint verifies check wiring in both directions.
func TestHealthEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("no checks: status = %d", rec.Code)
	}

	srv.checks = []HealthCheck{{
		Name: "redis",
		Ping: func(context.Context) error { return context.DeadlineExceeded },
	}}
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing check: status = %d, want 503", rec.Code)
	}
}
