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

// Package verify composes format validation, MX resolution, and the SMTP
// mailbox probe into per-contact verification results. The composition
// short-circuits: an invalid format skips DNS, a missing MX record set
// skips the probe. A quick mode stops after MX resolution, trading
// accuracy for latency.
package verify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bcem/contactverify/internal/mx"
	"github.com/bcem/contactverify/internal/probe"
)

// maxMXHosts caps how many resolved hosts are reported per address.
const maxMXHosts = 3

// MailboxProber is the single-host SMTP probe consumed by the pipeline.
// Implemented by probe.Prober.
type MailboxProber interface {
	Probe(ctx context.Context, email, host string) probe.Result
}

// ResultCache stores recent email verification results so repeated lookups
// skip DNS and SMTP entirely. Implementations must fail soft: a broken
// cache is a miss, never an error.
type ResultCache interface {
	Get(ctx context.Context, email string) (*EmailResult, bool)
	Put(ctx context.Context, email string, res *EmailResult)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*EmailResult, bool) { return nil, false }
func (nopCache) Put(context.Context, string, *EmailResult)        {}

// NopCache returns a cache that never hits.
func NopCache() ResultCache { return nopCache{} }

// EmailChecks records the individual verification steps.
type EmailChecks struct {
	Format      bool `json:"format"`
	MX          bool `json:"mx"`
	Disposable  bool `json:"disposable"`
	RoleAccount bool `json:"role_account"`
}

// SMTPCheck is the outcome of an attempted mailbox probe. A nil *SMTPCheck
// on EmailResult means the probe was never attempted, as distinct from an
// attempted probe that came back indeterminate.
type SMTPCheck struct {
	Verdict probe.Verdict `json:"verdict"`
	Code    int           `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
}

// EmailResult is the immutable outcome of verifying one address.
//
// Valid is format ∧ mx ∧ ¬disposable. The SMTP verdict deliberately does
// not gate it: strict or silent servers would otherwise turn every
// indeterminate probe into a false negative. The verdict is advisory.
type EmailResult struct {
	Email       string      `json:"email"`
	Valid       bool        `json:"valid"`
	Checks      EmailChecks `json:"checks"`
	MXHosts     []string    `json:"mx_hosts,omitempty"`
	SMTP        *SMTPCheck  `json:"smtp,omitempty"`
	Suggestion  string      `json:"suggestion,omitempty"`
	FormatError string      `json:"format_error,omitempty"`
	LocalPart   string      `json:"local_part,omitempty"`
	Domain      string      `json:"domain,omitempty"`
}

// EmailVerifier runs the email verification pipeline.
type EmailVerifier struct {
	resolver mx.Resolver
	prober   MailboxProber
	tables   *Tables
	cache    ResultCache
}

// NewEmailVerifier wires the pipeline. A nil cache disables caching.
func NewEmailVerifier(resolver mx.Resolver, prober MailboxProber, tables *Tables, cache ResultCache) *EmailVerifier {
	if cache == nil {
		cache = NopCache()
	}
	if tables == nil {
		tables = DefaultTables()
	}
	return &EmailVerifier{
		resolver: resolver,
		prober:   prober,
		tables:   tables,
		cache:    cache,
	}
}

// Verify runs the full pipeline: format → heuristics → MX → SMTP probe
// against the highest-priority host only.
func (v *EmailVerifier) Verify(ctx context.Context, raw string) EmailResult {
	email := strings.ToLower(strings.TrimSpace(raw))

	if cached, ok := v.cache.Get(ctx, email); ok {
		slog.Debug("verification cache hit", "email", email)
		return *cached
	}

	res := v.verify(ctx, email, true)
	v.cache.Put(ctx, email, &res)
	return res
}

// Quick runs the abbreviated pipeline: format and MX resolution only.
// The mailbox probe is never attempted, so SMTP stays nil.
func (v *EmailVerifier) Quick(ctx context.Context, raw string) EmailResult {
	email := strings.ToLower(strings.TrimSpace(raw))
	return v.verify(ctx, email, false)
}

func (v *EmailVerifier) verify(ctx context.Context, email string, withProbe bool) EmailResult {
	res := EmailResult{Email: email}

	if err := ValidateEmailFormat(email); err != nil {
		res.FormatError = err.Error()
		return res
	}
	res.Checks.Format = true

	local, domain, _ := splitAddress(email)
	res.LocalPart = local
	res.Domain = domain
	res.Checks.Disposable = v.tables.IsDisposable(domain)
	res.Checks.RoleAccount = v.tables.IsRoleAccount(local)
	res.Suggestion = v.tables.Suggest(domain)

	candidates := v.resolver.Lookup(ctx, domain)
	res.Checks.MX = len(candidates) > 0
	for i, c := range candidates {
		if i == maxMXHosts {
			break
		}
		res.MXHosts = append(res.MXHosts, c.Host)
	}

	if res.Checks.MX && withProbe && v.prober != nil {
		pr := v.prober.Probe(ctx, email, candidates[0].Host)
		res.SMTP = &SMTPCheck{Verdict: pr.Verdict, Code: pr.Code, Message: pr.Message}
	}

	res.Valid = res.Checks.Format && res.Checks.MX && !res.Checks.Disposable
	return res
}
