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

// Package mx resolves the mail-exchange host set for a domain. Resolution
// fails soft: NXDOMAIN, timeouts, and malformed responses all yield an
// empty candidate list, because a caller cannot safely distinguish "domain
// has no mail capability" from "resolver had a transient fault" and the
// conservative reading of both is "unresolvable".
package mx

import (
	"context"
	"log/slog"
	"net"
	"sort"
	"strings"
)

// Candidate is a single mail-exchange host with its advertised priority.
// Lower priority means preferred.
type Candidate struct {
	Host     string `json:"host"`
	Priority uint16 `json:"priority"`
}

// Resolver looks up the ordered mail-exchange candidates for a domain.
type Resolver interface {
	Lookup(ctx context.Context, domain string) []Candidate
}

// DNSResolver resolves MX records through the system resolver.
type DNSResolver struct {
	lookupMX func(ctx context.Context, domain string) ([]*net.MX, error)
}

// NewResolver creates a resolver backed by net.DefaultResolver.
func NewResolver() *DNSResolver {
	return &DNSResolver{lookupMX: net.DefaultResolver.LookupMX}
}

// Lookup returns the domain's MX candidates sorted ascending by priority.
// Equal-priority hosts keep the resolver's return order; per protocol
// semantics they are interchangeable. Any lookup error returns nil.
func (r *DNSResolver) Lookup(ctx context.Context, domain string) []Candidate {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil
	}

	records, err := r.lookupMX(ctx, domain)
	if err != nil {
		slog.Debug("MX lookup failed", "domain", domain, "error", err)
		return nil
	}

	candidates := make([]Candidate, 0, len(records))
	for _, rec := range records {
		host := strings.TrimSuffix(rec.Host, ".")
		if host == "" {
			continue
		}
		candidates = append(candidates, Candidate{Host: host, Priority: rec.Pref})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	return candidates
}
