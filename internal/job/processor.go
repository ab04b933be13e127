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
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/bcem/contactverify/internal/fraud"
	"github.com/bcem/contactverify/internal/scoring"
	"github.com/bcem/contactverify/internal/verify"
)

// DefaultWorkers bounds concurrent contact verifications per job. SMTP
// probes dominate the wall time, so this is effectively the number of
// simultaneous outbound port-25 conversations.
const DefaultWorkers = 10

// EmailVerifier is the email pipeline consumed by the processor.
// Implemented by verify.EmailVerifier.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) verify.EmailResult
}

// PhoneVerifier is the phone pipeline consumed by the processor.
// Implemented by verify.PhoneVerifier.
type PhoneVerifier interface {
	Verify(phone string) verify.PhoneResult
}

// CompletionNotifier is told when a job finishes. Implemented by
// webhook.Dispatcher; delivery is best effort and never affects job
// state.
type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, j *Job)
}

// ProcessorConfig wires the processor's collaborators.
type ProcessorConfig struct {
	Store    Store
	Emails   EmailVerifier
	Phones   PhoneVerifier
	Analyzer *fraud.Analyzer
	Notifier CompletionNotifier
	Workers  int
	MaxBatch int
}

// Processor accepts bulk submissions and runs them in the background.
// Each job gets its own bounded worker pool; results are written into
// index-addressed slots so completion order never reorders output.
type Processor struct {
	store    Store
	emails   EmailVerifier
	phones   PhoneVerifier
	analyzer *fraud.Analyzer
	notifier CompletionNotifier
	workers  int64
	maxBatch int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates a processor. Zero Workers or MaxBatch use the
// defaults.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = MaxBatchSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		store:    cfg.Store,
		emails:   cfg.Emails,
		phones:   cfg.Phones,
		analyzer: cfg.Analyzer,
		notifier: cfg.Notifier,
		workers:  int64(cfg.Workers),
		maxBatch: cfg.MaxBatch,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Stop aborts in-flight verification work and waits for job goroutines
// to drain.
func (p *Processor) Stop() {
	p.cancel()
	p.wg.Wait()
	slog.Info("bulk processor stopped")
}

// Submit validates a batch, persists the new job, and starts background
// processing. The returned job snapshot is in the processing state; the
// caller polls the store for progress.
func (p *Processor) Submit(ctx context.Context, contacts []Contact, webhookURL string, opts Options) (*Job, error) {
	if len(contacts) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(contacts) > p.maxBatch {
		return nil, fmt.Errorf("%w: %d contacts, maximum %d", ErrBatchTooLarge, len(contacts), p.maxBatch)
	}

	j := &Job{
		ID:         uuid.NewString(),
		State:      StateProcessing,
		Total:      len(contacts),
		WebhookURL: webhookURL,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.store.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	slog.Info("bulk job submitted",
		"job_id", j.ID,
		"contacts", j.Total,
		"webhook", webhookURL != "",
	)

	p.wg.Add(1)
	go p.run(j.ID, webhookURL, contacts, opts)

	return snapshot(j), nil
}

// run executes one job to completion. It uses the processor's own
// context, not the submitting request's, so jobs outlive their HTTP
// requests.
func (p *Processor) run(jobID, webhookURL string, contacts []Contact, opts Options) {
	defer p.wg.Done()

	results := make([]Outcome, len(contacts))
	sem := semaphore.NewWeighted(p.workers)
	var processed atomic.Int64
	var wg sync.WaitGroup

	for i := range contacts {
		if err := sem.Acquire(p.ctx, 1); err != nil {
			// Shutdown. Remaining contacts become failed entries so the
			// job still completes with a full result set.
			for k := i; k < len(contacts); k++ {
				results[k] = Outcome{Input: contacts[k], Error: "processing aborted by shutdown"}
			}
			break
		}

		wg.Add(1)
		go func(i int, c Contact) {
			defer wg.Done()
			defer sem.Release(1)

			results[i] = p.processContact(p.ctx, c, opts)

			n := int(processed.Add(1))
			if err := p.store.UpdateProgress(context.Background(), jobID, n); err != nil {
				if err != ErrNotFound {
					slog.Error("progress update failed", "job_id", jobID, "error", err)
				}
			}
		}(i, contacts[i])
	}

	wg.Wait()

	stats := ComputeStatistics(results)
	completedAt := time.Now().UTC()

	// Completion writes use a fresh context so a shutdown that aborted
	// the verification work can still persist what was done.
	if err := p.store.Complete(context.Background(), jobID, results, stats, completedAt); err != nil {
		if err == ErrNotFound {
			slog.Debug("job deleted mid-flight, discarding results", "job_id", jobID)
		} else {
			slog.Error("job completion failed", "job_id", jobID, "error", err)
		}
		return
	}

	slog.Info("bulk job completed",
		"job_id", jobID,
		"total", stats.Total,
		"successful", stats.Successful,
		"failed", stats.Failed,
	)

	if webhookURL != "" && p.notifier != nil {
		p.notifier.NotifyCompletion(context.Background(), &Job{
			ID:          jobID,
			State:       StateCompleted,
			Total:       len(results),
			Processed:   len(results),
			WebhookURL:  webhookURL,
			Stats:       &stats,
			CompletedAt: &completedAt,
		})
	}
}

// processContact verifies one contact. Panics in the pipeline become a
// failed entry rather than taking the job down.
func (p *Processor) processContact(ctx context.Context, c Contact, opts Options) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("contact processing panic", "email", c.Email, "phone", c.Phone, "panic", r)
			out = Outcome{Input: c, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	out = Outcome{Input: c}

	if c.Email == "" && c.Phone == "" {
		out.Error = "contact has neither email nor phone"
		return out
	}

	if c.Email != "" {
		res := p.emails.Verify(ctx, c.Email)
		out.Email = &res
	}
	if c.Phone != "" {
		res := p.phones.Verify(c.Phone)
		out.Phone = &res
	}

	if opts.IncludeScore {
		s := scoring.Calculate(out.Email, out.Phone)
		out.Score = &s
	}
	if opts.IncludeFraud && p.analyzer != nil {
		f := p.analyzer.AnalyzeContact(c.Email, c.Phone, out.Email, out.Phone)
		out.Fraud = &f
	}

	out.Success = true
	return out
}
