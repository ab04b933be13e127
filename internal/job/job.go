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

// Package job runs asynchronous bulk verification jobs. A submitted batch
// gets a UUID immediately and is processed in the background by a bounded
// worker pool; results are slotted by input index so output order always
// matches input order regardless of completion order.
package job

import (
	"context"
	"errors"
	"time"

	"github.com/bcem/contactverify/internal/fraud"
	"github.com/bcem/contactverify/internal/scoring"
	"github.com/bcem/contactverify/internal/verify"
)

// MaxBatchSize is the hard cap on contacts per job. Larger uploads must
// be split by the caller.
const MaxBatchSize = 1000

// Job states. There is no failed state: per-contact errors are captured
// as result entries and the job itself always completes.
const (
	StateProcessing = "processing"
	StateCompleted  = "completed"
)

var (
	// ErrNotFound is returned for unknown or deleted job IDs.
	ErrNotFound = errors.New("job not found")

	// ErrEmptyBatch rejects submissions with no contacts.
	ErrEmptyBatch = errors.New("at least one contact is required")

	// ErrBatchTooLarge rejects submissions over MaxBatchSize contacts.
	ErrBatchTooLarge = errors.New("too many contacts in batch")
)

// Contact is one entry in a submitted batch. Either field may be empty,
// but a contact with neither is recorded as a failed entry.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Options toggles the enrichment steps applied per contact.
type Options struct {
	IncludeScore bool `json:"include_score"`
	IncludeFraud bool `json:"include_fraud"`
}

// DefaultOptions enables all enrichment.
func DefaultOptions() Options {
	return Options{IncludeScore: true, IncludeFraud: true}
}

// Outcome is the per-contact result. A failed contact carries Error and
// Success false; the job as a whole still completes.
type Outcome struct {
	Input   Contact                `json:"input"`
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Email   *verify.EmailResult    `json:"email,omitempty"`
	Phone   *verify.PhoneResult    `json:"phone,omitempty"`
	Score   *scoring.Score         `json:"score,omitempty"`
	Fraud   *fraud.ContactAnalysis `json:"fraud,omitempty"`
}

// Statistics summarizes a completed job.
type Statistics struct {
	Total           int `json:"total"`
	Successful      int `json:"successful"`
	Failed          int `json:"failed"`
	EmailsValid     int `json:"emails_valid"`
	PhonesValid     int `json:"phones_valid"`
	AvgQualityScore int `json:"avg_quality_score"`
	HighFraudRisk   int `json:"high_fraud_risk"`
}

// Job is the persisted state of one bulk run. Results and Stats are set
// atomically at completion.
type Job struct {
	ID          string      `json:"id"`
	State       string      `json:"state"`
	Total       int         `json:"total"`
	Processed   int         `json:"processed"`
	WebhookURL  string      `json:"webhook_url,omitempty"`
	Results     []Outcome   `json:"results,omitempty"`
	Stats       *Statistics `json:"statistics,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Store persists job state. Update methods return ErrNotFound for IDs
// that no longer exist, which is how in-flight work learns a job was
// deleted: the update is refused and the worker's results are discarded
// instead of resurrecting the job.
type Store interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	UpdateProgress(ctx context.Context, id string, processed int) error
	Complete(ctx context.Context, id string, results []Outcome, stats Statistics, completedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// ComputeStatistics aggregates per-contact outcomes.
func ComputeStatistics(results []Outcome) Statistics {
	stats := Statistics{Total: len(results)}

	scoreSum, scoreCount := 0, 0
	for _, r := range results {
		if r.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		if r.Email != nil && r.Email.Valid {
			stats.EmailsValid++
		}
		if r.Phone != nil && r.Phone.Valid {
			stats.PhonesValid++
		}
		if r.Score != nil {
			scoreSum += r.Score.Score
			scoreCount++
		}
		if r.Fraud != nil && r.Fraud.OverallRiskLevel == fraud.RiskHigh {
			stats.HighFraudRisk++
		}
	}

	if scoreCount > 0 {
		stats.AvgQualityScore = (scoreSum + scoreCount/2) / scoreCount
	}
	return stats
}
