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

// Package probe infers mailbox acceptance by driving a partial SMTP
// transaction — greeting, HELO, MAIL FROM, RCPT TO, QUIT — against a
// single mail-exchange host without sending mail. The whole exchange runs
// under one time budget; exceeding it at any point yields Indeterminate.
//
// Mail servers may lie: a catch-all server accepts RCPT for any address,
// and some servers block probing entirely. The verdict is a best-effort
// signal, never ground truth.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"time"
)

// Verdict is the tri-state outcome of a mailbox probe. Indeterminate covers
// timeouts, connection refusal, and ambiguous server responses; it must not
// be conflated with Rejected downstream.
type Verdict string

const (
	VerdictAccepted      Verdict = "accepted"
	VerdictRejected      Verdict = "rejected"
	VerdictIndeterminate Verdict = "indeterminate"
)

// state tracks the probe's position in the SMTP handshake. Each await state
// inspects the latest server response; a 2xx code advances the machine and
// issues the next command.
type state int

const (
	stateAwaitGreeting state = iota
	stateAwaitHeloAck
	stateAwaitMailAck
	stateAwaitRcptAck
)

// Result carries the verdict together with the last SMTP response seen,
// for diagnostics.
type Result struct {
	Verdict Verdict `json:"verdict"`
	Code    int     `json:"code,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Prober performs single-attempt mailbox probes. Each invocation opens
// exactly one outbound connection; there are no retries and no fallback to
// lower-priority hosts — a caller that wants resilience re-invokes.
type Prober struct {
	HeloDomain string
	MailFrom   string
	Port       int
	Timeout    time.Duration

	// dialContext overrides the dialer in tests.
	dialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New creates a prober with the given identity and overall time budget.
func New(heloDomain, mailFrom string, timeout time.Duration) *Prober {
	return &Prober{
		HeloDomain: heloDomain,
		MailFrom:   mailFrom,
		Port:       25,
		Timeout:    timeout,
	}
}

// Probe checks whether host appears willing to accept mail for email.
//
// The single deadline covers the entire state machine from connect to final
// verdict, not each step. QUIT is issued and the socket closed on every
// exit path.
func (p *Prober) Probe(ctx context.Context, email, host string) Result {
	deadline := time.Now().Add(p.Timeout)
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	dial := p.dialContext
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}

	addr := net.JoinHostPort(host, strconv.Itoa(p.Port))
	conn, err := dial(dialCtx, "tcp", addr)
	if err != nil {
		return Result{Verdict: VerdictIndeterminate, Message: fmt.Sprintf("connect %s: %v", addr, err)}
	}
	defer conn.Close()

	// One deadline for all reads and writes across the handshake.
	conn.SetDeadline(deadline)

	tc := textproto.NewConn(conn)
	// Always say goodbye, even on error paths. Runs before conn.Close.
	defer tc.PrintfLine("QUIT")

	st := stateAwaitGreeting
	for {
		code, msg, err := tc.ReadResponse(2)
		if err != nil {
			if te, ok := err.(*textproto.Error); ok {
				// A definitive non-2xx reply. At the RCPT step this is a
				// rejection of the mailbox; earlier it means the server
				// refused the probe itself, which proves nothing about
				// the address.
				if st == stateAwaitRcptAck {
					return Result{Verdict: VerdictRejected, Code: te.Code, Message: te.Msg}
				}
				return Result{Verdict: VerdictIndeterminate, Code: te.Code, Message: te.Msg}
			}
			// Timeout or connection failure mid-handshake.
			return Result{Verdict: VerdictIndeterminate, Message: err.Error()}
		}

		if st == stateAwaitRcptAck {
			if code == 250 || code == 251 {
				return Result{Verdict: VerdictAccepted, Code: code, Message: msg}
			}
			// Any other definitive code, 252 included, counts as a
			// rejection of this specific mailbox.
			return Result{Verdict: VerdictRejected, Code: code, Message: msg}
		}

		next, cmd := p.advance(st, email)
		if err := tc.PrintfLine("%s", cmd); err != nil {
			return Result{Verdict: VerdictIndeterminate, Message: err.Error()}
		}
		st = next
	}
}

// advance returns the state entered after a 2xx acknowledgement in s,
// together with the command that drives the transition.
func (p *Prober) advance(s state, email string) (state, string) {
	switch s {
	case stateAwaitGreeting:
		return stateAwaitHeloAck, "HELO " + p.HeloDomain
	case stateAwaitHeloAck:
		return stateAwaitMailAck, fmt.Sprintf("MAIL FROM:<%s>", p.MailFrom)
	default: // stateAwaitMailAck
		return stateAwaitRcptAck, fmt.Sprintf("RCPT TO:<%s>", email)
	}
}
