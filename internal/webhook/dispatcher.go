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

// Package webhook delivers job completion callbacks. Delivery is best
// effort: one POST per completed job, a bounded timeout, no retries.
// A dead callback endpoint never affects job state.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bcem/contactverify/internal/job"
)

// DefaultTimeout bounds one delivery attempt end to end.
const DefaultTimeout = 10 * time.Second

// CompletionEvent is the payload POSTed to the caller's webhook URL when
// a bulk job finishes.
type CompletionEvent struct {
	Event       string         `json:"event"`
	JobID       string         `json:"job_id"`
	Status      string         `json:"status"`
	Total       int            `json:"total"`
	Processed   int            `json:"processed"`
	Statistics  job.Statistics `json:"statistics"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Dispatcher POSTs completion events. It satisfies job.CompletionNotifier.
type Dispatcher struct {
	client *http.Client
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses
// DefaultTimeout.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		client: &http.Client{Timeout: timeout},
	}
}

// NotifyCompletion delivers the completion event for a finished job.
// Failures are logged and swallowed.
func (d *Dispatcher) NotifyCompletion(ctx context.Context, j *job.Job) {
	if j.WebhookURL == "" {
		return
	}

	event := CompletionEvent{
		Event:     "bulk_processing_complete",
		JobID:     j.ID,
		Status:    j.State,
		Total:     j.Total,
		Processed: j.Processed,
	}
	if j.Stats != nil {
		event.Statistics = *j.Stats
	}
	if j.CompletedAt != nil {
		event.CompletedAt = *j.CompletedAt
	}

	if err := d.deliver(ctx, j.WebhookURL, event); err != nil {
		slog.Warn("webhook delivery failed",
			"job_id", j.ID,
			"url", j.WebhookURL,
			"error", err,
		)
		return
	}

	slog.Info("webhook delivered", "job_id", j.ID, "url", j.WebhookURL)
}

func (d *Dispatcher) deliver(ctx context.Context, url string, event CompletionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}
