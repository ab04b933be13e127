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

// Package cache stores recent email verification results in Redis with a
// TTL. Mail exchanger records and mailbox dispositions change slowly, so
// a short cache window cuts most of the DNS and SMTP traffic on bulk
// workloads with repeated addresses.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bcem/contactverify/internal/verify"
)

const (
	// DefaultTTL is how long a verification result stays fresh.
	DefaultTTL = 15 * time.Minute

	// keyPrefix namespaces verification keys in Redis.
	keyPrefix = "cv:email:"
)

// RedisCache is a verify.ResultCache backed by Redis. All failures are
// soft: a broken connection degrades to cache misses and the pipeline
// recomputes.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Redis-backed result cache. A non-positive TTL uses
// DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached result for an address, if present and decodable.
func (c *RedisCache) Get(ctx context.Context, email string) (*verify.EmailResult, bool) {
	raw, err := c.rdb.Get(ctx, key(email)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("verification cache read failed", "error", err)
		}
		return nil, false
	}

	var res verify.EmailResult
	if err := json.Unmarshal(raw, &res); err != nil {
		slog.Warn("verification cache entry corrupt", "email", email, "error", err)
		return nil, false
	}
	return &res, true
}

// Put stores a result under the address key with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, email string, res *verify.EmailResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		slog.Warn("verification cache encode failed", "email", email, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key(email), raw, c.ttl).Err(); err != nil {
		slog.Warn("verification cache write failed", "email", email, "error", err)
	}
}

func key(email string) string {
	return fmt.Sprintf("%s%s", keyPrefix, email)
}
