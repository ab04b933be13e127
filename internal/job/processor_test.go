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

package job

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bcem/contactverify/internal/fraud"
	"github.com/bcem/contactverify/internal/verify"
)

// fakeEmails marks addresses containing "bad" invalid and can stall
// until released to simulate slow SMTP conversations.
type fakeEmails struct {
	mu      sync.Mutex
	calls   int
	delay   func(email string) time.Duration
	barrier chan struct{}
}

func (f *fakeEmails) Verify(ctx context.Context, email string) verify.EmailResult {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.barrier != nil {
		select {
		case <-f.barrier:
		case <-ctx.Done():
		}
	}
	if f.delay != nil {
		time.Sleep(f.delay(email))
	}

	valid := !strings.Contains(email, "bad")
	return verify.EmailResult{
		Email: email,
		Valid: valid,
		Checks: verify.EmailChecks{
			Format: valid,
			MX:     valid,
		},
	}
}

type fakePhones struct{}

func (fakePhones) Verify(phone string) verify.PhoneResult {
	return verify.PhoneResult{
		Phone:      phone,
		Normalized: verify.NormalizePhone(phone),
		Valid:      true,
		Checks:     verify.PhoneChecks{Format: true, CountryCode: true, Length: true},
	}
}

// recordingNotifier captures completion callbacks.
type recordingNotifier struct {
	mu   sync.Mutex
	jobs []*Job
}

func (n *recordingNotifier) NotifyCompletion(_ context.Context, j *Job) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, j)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.jobs)
}

func newTestProcessor(store Store, emails EmailVerifier, notifier CompletionNotifier) *Processor {
	return NewProcessor(ProcessorConfig{
		Store:    store,
		Emails:   emails,
		Phones:   fakePhones{},
		Analyzer: fraud.NewAnalyzer(nil),
		Notifier: notifier,
		Workers:  4,
	})
}

// waitCompleted polls until the job completes or the deadline passes.
func waitCompleted(t *testing.T, store Store, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if j.State == StateCompleted {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never completed", id)
	return nil
}

// TestSubmit_Validation covers the batch size bounds.
func TestSubmit_Validation(t *testing.T) {
	p := newTestProcessor(NewMemoryStore(), &fakeEmails{}, nil)
	defer p.Stop()

	if _, err := p.Submit(context.Background(), nil, "", DefaultOptions()); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch: err = %v, want ErrEmptyBatch", err)
	}

	big := make([]Contact, MaxBatchSize+1)
	for i := range big {
		big[i] = Contact{Email: "user@example.com"}
	}
	if _, err := p.Submit(context.Background(), big, "", DefaultOptions()); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("oversized batch: err = %v, want ErrBatchTooLarge", err)
	}
}

// TestSubmit_ProcessesBatch runs a mixed batch end to end: a good email,
// a phone-only contact, a bad email, and an empty contact.
func TestSubmit_ProcessesBatch(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	p := newTestProcessor(store, &fakeEmails{}, notifier)
	defer p.Stop()

	contacts := []Contact{
		{Email: "good@example.com"},
		{Phone: "+15558675309"},
		{Email: "bad@example.com"},
		{},
	}

	submitted, err := p.Submit(context.Background(), contacts, "", DefaultOptions())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.State != StateProcessing || submitted.Total != 4 {
		t.Errorf("submitted = %+v, want processing/4", submitted)
	}

	j := waitCompleted(t, store, submitted.ID)

	if len(j.Results) != j.Total {
		t.Fatalf("len(results) = %d, want %d", len(j.Results), j.Total)
	}
	if j.Processed != j.Total {
		t.Errorf("processed = %d, want %d", j.Processed, j.Total)
	}

	if !j.Results[0].Success || j.Results[0].Email == nil || !j.Results[0].Email.Valid {
		t.Errorf("results[0] = %+v, want successful valid email", j.Results[0])
	}
	if !j.Results[1].Success || j.Results[1].Phone == nil {
		t.Errorf("results[1] = %+v, want successful phone entry", j.Results[1])
	}
	if !j.Results[2].Success || j.Results[2].Email.Valid {
		t.Errorf("results[2] = %+v, want successful entry with invalid email", j.Results[2])
	}
	if j.Results[3].Success || j.Results[3].Error == "" {
		t.Errorf("results[3] = %+v, want failed empty-contact entry", j.Results[3])
	}
	if j.Results[0].Score == nil || j.Results[0].Fraud == nil {
		t.Error("enrichment should run with default options")
	}

	if j.Stats == nil {
		t.Fatal("statistics missing")
	}
	if j.Stats.Successful != 3 || j.Stats.Failed != 1 || j.Stats.EmailsValid != 1 || j.Stats.PhonesValid != 1 {
		t.Errorf("stats = %+v", j.Stats)
	}

	// No webhook URL was given.
	if notifier.count() != 0 {
		t.Error("notifier must not fire without a webhook URL")
	}

	// Status reads are idempotent.
	again, err := store.Get(context.Background(), submitted.ID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.State != j.State || again.Processed != j.Processed || len(again.Results) != len(j.Results) {
		t.Error("repeated status reads diverged")
	}
}

// TestSubmit_PreservesInputOrder runs a large batch where later contacts
// finish first and verifies result slots still line up with input order.
func TestSubmit_PreservesInputOrder(t *testing.T) {
	store := NewMemoryStore()
	emails := &fakeEmails{delay: func(email string) time.Duration {
		// Earlier contacts sleep longer, inverting completion order.
		if strings.HasPrefix(email, "u0") {
			return 20 * time.Millisecond
		}
		return 0
	}}
	p := newTestProcessor(store, emails, nil)
	defer p.Stop()

	const n = 60
	contacts := make([]Contact, n)
	for i := range contacts {
		contacts[i] = Contact{Email: emailFor(i)}
	}

	submitted, err := p.Submit(context.Background(), contacts, "", Options{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	j := waitCompleted(t, store, submitted.ID)

	if len(j.Results) != n {
		t.Fatalf("len(results) = %d, want %d", len(j.Results), n)
	}
	for i, r := range j.Results {
		if r.Input.Email != contacts[i].Email {
			t.Fatalf("results[%d].input = %q, want %q", i, r.Input.Email, contacts[i].Email)
		}
	}
}

func emailFor(i int) string {
	if i < 10 {
		return "u0" + string(rune('0'+i)) + "@example.com"
	}
	return "u" + string(rune('0'+i/10)) + string(rune('0'+i%10)) + "@example.com"
}

// TestSubmit_DeleteMidFlightDiscardsResults verifies a deleted job stays
// deleted: the in-flight run's completion write is refused and nothing
// reappears in the store.
func TestSubmit_DeleteMidFlightDiscardsResults(t *testing.T) {
	store := NewMemoryStore()
	emails := &fakeEmails{barrier: make(chan struct{})}
	notifier := &recordingNotifier{}
	p := newTestProcessor(store, emails, notifier)
	defer p.Stop()

	contacts := []Contact{{Email: "a@example.com"}, {Email: "b@example.com"}}
	submitted, err := p.Submit(context.Background(), contacts, "https://hooks.example/done", DefaultOptions())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Workers are stalled at the barrier. Delete, then let them run.
	if err := store.Delete(context.Background(), submitted.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(emails.barrier)
	p.Stop()

	if _, err := store.Get(context.Background(), submitted.ID); err != ErrNotFound {
		t.Errorf("deleted job reappeared: err = %v, want ErrNotFound", err)
	}
}

// TestSubmit_NotifierFiresOnceWithStats verifies the completion callback
// carries the final counters when a webhook URL is configured.
func TestSubmit_NotifierFiresOnceWithStats(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	p := newTestProcessor(store, &fakeEmails{}, notifier)
	defer p.Stop()

	contacts := []Contact{{Email: "good@example.com"}, {Email: "bad@example.com"}}
	submitted, err := p.Submit(context.Background(), contacts, "https://hooks.example/done", Options{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitCompleted(t, store, submitted.ID)
	p.Stop()

	if notifier.count() != 1 {
		t.Fatalf("notifier fired %d times, want 1", notifier.count())
	}
	got := notifier.jobs[0]
	if got.ID != submitted.ID || got.State != StateCompleted {
		t.Errorf("notified job = %+v", got)
	}
	if got.Stats == nil || got.Stats.Total != 2 {
		t.Errorf("notified stats = %+v, want total 2", got.Stats)
	}
	if got.CompletedAt == nil {
		t.Error("notified job missing completion time")
	}
}
