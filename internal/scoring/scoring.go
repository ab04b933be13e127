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

// Package scoring turns verification results into a 0-100 contact quality
// score. Email and phone each contribute up to half the raw points; the
// total is normalized against the maximum achievable for the channels
// actually present, so an email-only contact can still score 100.
package scoring

import (
	"github.com/bcem/contactverify/internal/probe"
	"github.com/bcem/contactverify/internal/verify"
)

// Factor is one scored signal with the points it contributed.
type Factor struct {
	Factor string `json:"factor"`
	Points int    `json:"points"`
}

// Score is the aggregate quality assessment for one contact.
type Score struct {
	Score   int      `json:"score"`
	Grade   string   `json:"grade"`
	Quality string   `json:"quality"`
	Factors []Factor `json:"factors"`
}

// Point weights per signal. Disposable domains carry a hard penalty
// because they indicate a throwaway identity, not a quality problem.
const (
	ptsEmailFormat     = 10
	ptsEmailMX         = 15
	ptsEmailSMTP       = 10
	ptsEmailClean      = 10 // not disposable
	ptsEmailPersonal   = 5  // not a role account
	penaltyDisposable  = 20
	ptsPhoneFormat     = 10
	ptsPhoneCountry    = 10
	ptsPhoneLength     = 5
	ptsPhoneReachable  = 25 // format, length and country all line up
	maxPointsPerSignal = 50
)

// Calculate scores a contact from whichever verification results exist.
// Nil inputs mean the channel was not provided and do not count against
// the contact.
func Calculate(email *verify.EmailResult, phone *verify.PhoneResult) Score {
	points, maxPoints := 0, 0
	var factors []Factor

	add := func(name string, pts int) {
		points += pts
		factors = append(factors, Factor{Factor: name, Points: pts})
	}

	if email != nil {
		maxPoints += maxPointsPerSignal

		if email.Checks.Format {
			add("email_format_valid", ptsEmailFormat)
		}
		if email.Checks.MX {
			add("email_mx_valid", ptsEmailMX)
		}
		if email.SMTP != nil {
			switch email.SMTP.Verdict {
			case probe.VerdictAccepted:
				add("email_smtp_verified", ptsEmailSMTP)
			case probe.VerdictRejected:
				add("email_smtp_failed", 0)
			}
			// Indeterminate contributes nothing either way.
		}
		if email.Checks.Disposable {
			add("email_is_disposable", -penaltyDisposable)
		} else {
			add("email_not_disposable", ptsEmailClean)
		}
		if !email.Checks.RoleAccount {
			add("email_not_role_account", ptsEmailPersonal)
		}
	}

	if phone != nil {
		maxPoints += maxPointsPerSignal

		if phone.Checks.Format {
			add("phone_format_valid", ptsPhoneFormat)
		}
		if phone.Checks.CountryCode {
			add("phone_country_valid", ptsPhoneCountry)
		}
		if phone.Checks.Length {
			add("phone_length_valid", ptsPhoneLength)
		}
		if phone.Valid {
			add("phone_reachable_format", ptsPhoneReachable)
		}
	}

	normalized := 0
	if maxPoints > 0 {
		normalized = points * 100 / maxPoints
	}
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 100 {
		normalized = 100
	}

	return Score{
		Score:   normalized,
		Grade:   grade(normalized),
		Quality: qualityLabel(normalized),
		Factors: factors,
	}
}

func grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func qualityLabel(score int) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 50:
		return "fair"
	case score >= 30:
		return "poor"
	default:
		return "bad"
	}
}
