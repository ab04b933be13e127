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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists jobs in Postgres so status and results survive
// restarts. Results and statistics are stored as JSONB blobs written
// once at completion.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a job store backed by the given Postgres pool.
// It ensures the bulk_jobs table exists on creation.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure job schema: %w", err)
	}
	slog.Info("job store initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bulk_jobs (
			id           TEXT PRIMARY KEY,
			state        TEXT NOT NULL,
			total        INT NOT NULL,
			processed    INT NOT NULL DEFAULT 0,
			webhook_url  TEXT DEFAULT '',
			results      JSONB,
			statistics   JSONB,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_bulk_jobs_state ON bulk_jobs(state);
		CREATE INDEX IF NOT EXISTS idx_bulk_jobs_created ON bulk_jobs(created_at);
	`)
	return err
}

// Create inserts a new job row.
func (s *PostgresStore) Create(ctx context.Context, j *Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bulk_jobs (id, state, total, processed, webhook_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, j.ID, j.State, j.Total, j.Processed, j.WebhookURL, j.CreatedAt)
	return err
}

// Get retrieves a job by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, state, total, processed, webhook_url, results, statistics,
		       created_at, completed_at
		FROM bulk_jobs
		WHERE id = $1
	`, id)

	var j Job
	var results, stats []byte
	err := row.Scan(&j.ID, &j.State, &j.Total, &j.Processed, &j.WebhookURL,
		&results, &stats, &j.CreatedAt, &j.CompletedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		if err := json.Unmarshal(results, &j.Results); err != nil {
			return nil, fmt.Errorf("decode job results: %w", err)
		}
	}
	if len(stats) > 0 {
		j.Stats = &Statistics{}
		if err := json.Unmarshal(stats, j.Stats); err != nil {
			return nil, fmt.Errorf("decode job statistics: %w", err)
		}
	}
	return &j, nil
}

// UpdateProgress sets the processed counter.
func (s *PostgresStore) UpdateProgress(ctx context.Context, id string, processed int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE bulk_jobs SET processed = $1 WHERE id = $2
	`, processed, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete transitions the job to completed with its results and stats.
func (s *PostgresStore) Complete(ctx context.Context, id string, results []Outcome, stats Statistics, completedAt time.Time) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode job results: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode job statistics: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE bulk_jobs
		SET state = $1, processed = $2, results = $3, statistics = $4, completed_at = $5
		WHERE id = $6
	`, StateCompleted, len(results), resultsJSON, statsJSON, completedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a job row.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM bulk_jobs WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
