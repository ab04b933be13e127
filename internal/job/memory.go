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
	"sync"
	"time"
)

// MemoryStore keeps jobs in process memory. It is the default when no
// database is configured; jobs do not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Create stores a snapshot of the job.
func (s *MemoryStore) Create(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = snapshot(j)
	return nil
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(j), nil
}

// UpdateProgress sets the processed counter.
func (s *MemoryStore) UpdateProgress(_ context.Context, id string, processed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Processed = processed
	return nil
}

// Complete transitions the job to completed with its results and stats.
func (s *MemoryStore) Complete(_ context.Context, id string, results []Outcome, stats Statistics, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.State = StateCompleted
	j.Processed = len(results)
	j.Results = results
	j.Stats = &stats
	j.CompletedAt = &completedAt
	return nil
}

// Delete removes the job. Subsequent updates from in-flight workers get
// ErrNotFound and are discarded.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// snapshot copies a job so callers never share mutable state with the
// store.
func snapshot(j *Job) *Job {
	cp := *j
	if j.Results != nil {
		cp.Results = make([]Outcome, len(j.Results))
		copy(cp.Results, j.Results)
	}
	if j.Stats != nil {
		stats := *j.Stats
		cp.Stats = &stats
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
