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

// Contact verification service.
//
// Entry point for the verification API. It:
//  1. Loads configuration from config.yaml and environment variables
//  2. Optionally connects to PostgreSQL (job store) and Redis (result cache)
//  3. Wires the email/phone verification pipeline, scoring, and fraud analysis
//  4. Starts the bulk processor with a bounded worker pool
//  5. Serves the HTTP API
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bcem/contactverify/internal/api"
	"github.com/bcem/contactverify/internal/cache"
	"github.com/bcem/contactverify/internal/config"
	"github.com/bcem/contactverify/internal/fraud"
	"github.com/bcem/contactverify/internal/job"
	"github.com/bcem/contactverify/internal/mx"
	"github.com/bcem/contactverify/internal/probe"
	"github.com/bcem/contactverify/internal/verify"
	"github.com/bcem/contactverify/internal/webhook"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting contact verification service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"port", cfg.Port,
		"probe_timeout", cfg.ProbeTimeout,
		"workers", cfg.Workers,
		"max_batch", cfg.MaxBatch,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var checks []api.HealthCheck

	// --- Result Cache (Redis, optional) ---
	var resultCache verify.ResultCache
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		resultCache = cache.New(rdb, cfg.CacheTTL)
		checks = append(checks, api.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		slog.Info("connected to Redis", "cache_ttl", cfg.CacheTTL)
	} else {
		slog.Info("no REDIS_URL configured, result caching disabled")
	}

	// --- Job Store (Postgres, optional) ---
	var jobStore job.Store
	var pgPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pgPool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		if err := pgPool.Ping(ctx); err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		jobStore, err = job.NewPostgresStore(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise job store", "error", err)
			os.Exit(1)
		}
		checks = append(checks, api.HealthCheck{
			Name: "postgres",
			Ping: pgPool.Ping,
		})
		slog.Info("connected to PostgreSQL")
	} else {
		jobStore = job.NewMemoryStore()
		slog.Info("no DATABASE_URL configured, using in-memory job store")
	}

	// --- Verification Pipeline ---
	tables := verify.NewTables(cfg.DisposableDomains, cfg.RoleAccounts, cfg.TypoSuggestions, cfg.CountryCodes)

	prober := probe.New(cfg.HeloDomain, cfg.MailFrom, cfg.ProbeTimeout)
	prober.Port = cfg.ProbePort

	emails := verify.NewEmailVerifier(mx.NewResolver(), prober, tables, resultCache)
	phones := verify.NewPhoneVerifier(tables)
	analyzer := fraud.NewAnalyzer(tables)

	// --- Bulk Processor ---
	dispatcher := webhook.NewDispatcher(cfg.WebhookTimeout)
	processor := job.NewProcessor(job.ProcessorConfig{
		Store:    jobStore,
		Emails:   emails,
		Phones:   phones,
		Analyzer: analyzer,
		Notifier: dispatcher,
		Workers:  cfg.Workers,
		MaxBatch: cfg.MaxBatch,
	})

	// --- HTTP API ---
	apiServer := api.NewServer(api.ServerConfig{
		Emails:   emails,
		Phones:   phones,
		Analyzer: analyzer,
		Bulk:     processor,
		Jobs:     jobStore,
		Checks:   checks,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		// Drain in-flight bulk jobs before closing their stores.
		processor.Stop()

		if rdb != nil {
			rdb.Close()
		}
		if pgPool != nil {
			pgPool.Close()
		}
	}()

	slog.Info("verification service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("verification service stopped")
}
