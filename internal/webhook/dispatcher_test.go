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

package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bcem/contactverify/internal/job"
)

func completedJob(url string) *job.Job {
	completedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &job.Job{
		ID:          "4f9f1a2e-test",
		State:       job.StateCompleted,
		Total:       3,
		Processed:   3,
		WebhookURL:  url,
		Stats:       &job.Statistics{Total: 3, Successful: 2, Failed: 1},
		CompletedAt: &completedAt,
	}
}

// TestNotifyCompletion_PostsEvent verifies the payload shape and headers.
func TestNotifyCompletion_PostsEvent(t *testing.T) {
	var got CompletionEvent
	var contentType string
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(0)
	d.NotifyCompletion(context.Background(), completedJob(srv.URL))

	if calls != 1 {
		t.Fatalf("endpoint hit %d times, want 1", calls)
	}
	if contentType != "application/json" {
		t.Errorf("content type = %q", contentType)
	}
	if got.Event != "bulk_processing_complete" {
		t.Errorf("event = %q", got.Event)
	}
	if got.JobID != "4f9f1a2e-test" || got.Status != job.StateCompleted {
		t.Errorf("payload = %+v", got)
	}
	if got.Total != 3 || got.Processed != 3 || got.Statistics.Successful != 2 {
		t.Errorf("counters = %+v", got)
	}
	if got.CompletedAt.IsZero() {
		t.Error("completed_at missing")
	}
}

// TestNotifyCompletion_SwallowsServerError verifies a 5xx response is
// logged and dropped, not retried.
func TestNotifyCompletion_SwallowsServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(0)
	d.NotifyCompletion(context.Background(), completedJob(srv.URL))

	if calls != 1 {
		t.Errorf("endpoint hit %d times, want exactly 1 (no retries)", calls)
	}
}

// TestNotifyCompletion_UnreachableEndpoint verifies a refused connection
// does not panic or block.
func TestNotifyCompletion_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := NewDispatcher(time.Second)
	d.NotifyCompletion(context.Background(), completedJob(url))
}

// TestNotifyCompletion_NoURL verifies jobs without a webhook are skipped.
func TestNotifyCompletion_NoURL(t *testing.T) {
	d := NewDispatcher(0)
	d.NotifyCompletion(context.Background(), completedJob(""))
}
