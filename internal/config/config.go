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

// Package config loads configuration from config.yaml and environment
// variables. The YAML file is optional; every setting has an environment
// fallback and a sane default, so the service starts with no config at
// all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the verification service.
type Config struct {
	// HTTP API
	Port int

	// SMTP probe
	HeloDomain   string
	MailFrom     string
	ProbePort    int
	ProbeTimeout time.Duration

	// Bulk processing
	Workers  int
	MaxBatch int

	// Webhook delivery
	WebhookTimeout time.Duration

	// Redis result cache. Empty URL disables caching.
	RedisURL string
	CacheTTL time.Duration

	// Postgres job store. Empty URL falls back to in-memory jobs.
	DatabaseURL string

	// Heuristic table overrides. Empty slices and maps keep the built-in
	// defaults; these are data, not logic.
	DisposableDomains []string
	RoleAccounts      []string
	TypoSuggestions   map[string]string
	CountryCodes      map[string]string
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	SMTP struct {
		HeloDomain string `yaml:"helo_domain"`
		MailFrom   string `yaml:"mail_from"`
		Port       int    `yaml:"port"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"smtp"`
	Bulk struct {
		Workers  int `yaml:"workers"`
		MaxBatch int `yaml:"max_batch"`
	} `yaml:"bulk"`
	Webhook struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"webhook"`
	Redis struct {
		URL      string `yaml:"url"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"redis"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Tables struct {
		DisposableDomains []string          `yaml:"disposable_domains"`
		RoleAccounts      []string          `yaml:"role_accounts"`
		TypoSuggestions   map[string]string `yaml:"typo_suggestions"`
		CountryCodes      map[string]string `yaml:"country_codes"`
	} `yaml:"tables"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables. Environment variables win over YAML.
func Load() (*Config, error) {
	var raw rawConfig

	configPath := envOrDefault("CONFIG_PATH", "config.yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
		// No file is fine, run on env vars and defaults.
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		Port:           envOrDefaultInt("PORT", firstNonZero(raw.Server.Port, 8080)),
		HeloDomain:     envOrDefault("SMTP_HELO_DOMAIN", firstNonEmpty(raw.SMTP.HeloDomain, "verify.local")),
		MailFrom:       envOrDefault("SMTP_MAIL_FROM", firstNonEmpty(raw.SMTP.MailFrom, "verify@verify.local")),
		ProbePort:      envOrDefaultInt("SMTP_PROBE_PORT", firstNonZero(raw.SMTP.Port, 25)),
		ProbeTimeout:   envOrDefaultDuration("SMTP_PROBE_TIMEOUT", yamlDuration(raw.SMTP.Timeout, 5*time.Second)),
		Workers:        envOrDefaultInt("BULK_WORKERS", firstNonZero(raw.Bulk.Workers, 10)),
		MaxBatch:       envOrDefaultInt("BULK_MAX_BATCH", firstNonZero(raw.Bulk.MaxBatch, 1000)),
		WebhookTimeout: envOrDefaultDuration("WEBHOOK_TIMEOUT", yamlDuration(raw.Webhook.Timeout, 10*time.Second)),
		RedisURL:       firstNonEmpty(os.Getenv("REDIS_URL"), raw.Redis.URL),
		CacheTTL:       envOrDefaultDuration("CACHE_TTL", yamlDuration(raw.Redis.CacheTTL, 15*time.Minute)),
		DatabaseURL:    firstNonEmpty(os.Getenv("DATABASE_URL"), raw.Database.URL),

		DisposableDomains: raw.Tables.DisposableDomains,
		RoleAccounts:      raw.Tables.RoleAccounts,
		TypoSuggestions:   raw.Tables.TypoSuggestions,
		CountryCodes:      raw.Tables.CountryCodes,
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("bulk workers must be positive, got %d", cfg.Workers)
	}
	if cfg.MaxBatch < 1 {
		return nil, fmt.Errorf("bulk max batch must be positive, got %d", cfg.MaxBatch)
	}
	if cfg.ProbeTimeout <= 0 {
		return nil, fmt.Errorf("probe timeout must be positive, got %s", cfg.ProbeTimeout)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func yamlDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
