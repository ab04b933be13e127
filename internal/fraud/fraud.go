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

// Package fraud scores contacts for abuse risk using offline heuristics:
// disposable domains, throwaway local-part patterns, satellite and
// premium-rate dialing prefixes, repetitive digit runs. Scores are
// additive per flag and capped at 100.
package fraud

import (
	"regexp"
	"strings"

	"github.com/bcem/contactverify/internal/verify"
)

// Risk levels by score: high >= 70, medium >= 40, low >= 20, else minimal.
const (
	RiskMinimal = "minimal"
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
)

// Flag weights.
const (
	weightDisposable     = 40
	weightSuspicious     = 20
	weightNoMX           = 25
	weightRoleAccount    = 5
	weightOddDomain      = 15
	weightTooLong        = 10
	weightHighRiskDial   = 30
	weightPremiumPrefix  = 25
	weightBadLength      = 20
	weightRepetitive     = 15
	weightUnknownCountry = 10
)

// suspiciousLocalParts match throwaway-looking mailbox names such as
// test42, fake1, keyboard walks, and dense letter/digit noise.
var suspiciousLocalParts = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^test[0-9]*$`),
	regexp.MustCompile(`(?i)^fake[0-9]*$`),
	regexp.MustCompile(`(?i)^spam[0-9]*$`),
	regexp.MustCompile(`(?i)^noreply[0-9]*$`),
	regexp.MustCompile(`(?i)^(asdf|qwerty|1234|abcd)+`),
	regexp.MustCompile(`(?i)^[a-z]{1,2}[0-9]{5,}$`),
	regexp.MustCompile(`(?i)^[0-9]+[a-z]+[0-9]+$`),
}

// highRiskDialCodes are global satellite and VOIP dialing codes that
// carry no territorial accountability.
var highRiskDialCodes = []string{"882", "883", "870", "881"}

// premiumPrefixes are premium-rate number blocks.
var premiumPrefixes = []string{"1900", "1976", "5900"}

var (
	repeatedDigits   = regexp.MustCompile(`(0{6,}|1{6,}|2{6,}|3{6,}|4{6,}|5{6,}|6{6,}|7{6,}|8{6,}|9{6,})`)
	sequentialDigits = regexp.MustCompile(`(012345|123456|234567|345678|456789|567890|987654|876543)`)
)

// EmailDetails itemizes the email risk signals.
type EmailDetails struct {
	IsDisposable        bool `json:"is_disposable"`
	IsSuspiciousPattern bool `json:"is_suspicious_pattern"`
	HasMXRecords        bool `json:"has_mx_records"`
	IsRoleAccount       bool `json:"is_role_account"`
}

// EmailAnalysis is the fraud assessment for one email address.
type EmailAnalysis struct {
	Email     string       `json:"email"`
	RiskLevel string       `json:"risk_level"`
	RiskScore int          `json:"risk_score"`
	Flags     []string     `json:"flags"`
	Details   EmailDetails `json:"details"`
}

// PhoneDetails itemizes the phone risk signals.
type PhoneDetails struct {
	IsHighRiskCountry bool `json:"is_high_risk_country"`
	IsPremiumNumber   bool `json:"is_premium_number"`
	IsValidFormat     bool `json:"is_valid_format"`
}

// PhoneAnalysis is the fraud assessment for one phone number.
type PhoneAnalysis struct {
	Phone     string       `json:"phone"`
	RiskLevel string       `json:"risk_level"`
	RiskScore int          `json:"risk_score"`
	Flags     []string     `json:"flags"`
	Details   PhoneDetails `json:"details"`
}

// ContactAnalysis is the combined assessment. The overall score is the
// mean of the per-channel scores for whichever channels were provided.
type ContactAnalysis struct {
	OverallRiskScore int            `json:"overall_risk_score"`
	OverallRiskLevel string         `json:"overall_risk_level"`
	Email            *EmailAnalysis `json:"email_analysis,omitempty"`
	Phone            *PhoneAnalysis `json:"phone_analysis,omitempty"`
	Recommendation   string         `json:"recommendation"`
	FlagsCount       int            `json:"flags_count"`
}

// Analyzer runs fraud heuristics. The disposable-domain check shares the
// verification tables so both layers agree on what counts as throwaway.
type Analyzer struct {
	tables *verify.Tables
}

// NewAnalyzer creates an analyzer. Nil tables use the defaults.
func NewAnalyzer(tables *verify.Tables) *Analyzer {
	if tables == nil {
		tables = verify.DefaultTables()
	}
	return &Analyzer{tables: tables}
}

// AnalyzeEmail scores an address. The verification result is optional;
// when present its MX and role-account checks feed the score.
func (a *Analyzer) AnalyzeEmail(email string, res *verify.EmailResult) *EmailAnalysis {
	normalized := strings.ToLower(strings.TrimSpace(email))
	local, domain := splitAddress(normalized)

	an := &EmailAnalysis{
		Email:   normalized,
		Flags:   []string{},
		Details: EmailDetails{HasMXRecords: true},
	}
	score := 0

	if domain != "" && a.tables.IsDisposable(domain) {
		score += weightDisposable
		an.Flags = append(an.Flags, "disposable_email")
		an.Details.IsDisposable = true
	}

	if hasSuspiciousLocalPart(local) {
		score += weightSuspicious
		an.Flags = append(an.Flags, "suspicious_pattern")
		an.Details.IsSuspiciousPattern = true
	}

	if res != nil && !res.Checks.MX {
		score += weightNoMX
		an.Flags = append(an.Flags, "no_mx_records")
		an.Details.HasMXRecords = false
	}

	if res != nil && res.Checks.RoleAccount {
		score += weightRoleAccount
		an.Flags = append(an.Flags, "role_account")
		an.Details.IsRoleAccount = true
	}

	if isSuspiciousDomain(domain) {
		score += weightOddDomain
		an.Flags = append(an.Flags, "suspicious_domain")
	}

	if len(normalized) > 50 {
		score += weightTooLong
		an.Flags = append(an.Flags, "excessively_long")
	}

	an.RiskScore = clamp(score)
	an.RiskLevel = riskLevel(an.RiskScore)
	return an
}

// AnalyzePhone scores a phone number. The verification result is
// optional; when present its country-code check feeds the score.
func (a *Analyzer) AnalyzePhone(phone string, res *verify.PhoneResult) *PhoneAnalysis {
	normalized := verify.NormalizePhone(phone)

	an := &PhoneAnalysis{
		Phone:   normalized,
		Flags:   []string{},
		Details: PhoneDetails{IsValidFormat: true},
	}
	score := 0

	for _, code := range highRiskDialCodes {
		if strings.HasPrefix(normalized, code) {
			score += weightHighRiskDial
			an.Flags = append(an.Flags, "high_risk_country_code")
			an.Details.IsHighRiskCountry = true
			break
		}
	}

	for _, prefix := range premiumPrefixes {
		if strings.Contains(normalized, prefix) {
			score += weightPremiumPrefix
			an.Flags = append(an.Flags, "premium_or_voip_number")
			an.Details.IsPremiumNumber = true
			break
		}
	}

	if len(normalized) < 10 || len(normalized) > 15 {
		score += weightBadLength
		an.Flags = append(an.Flags, "invalid_length")
		an.Details.IsValidFormat = false
	}

	if repeatedDigits.MatchString(normalized) || sequentialDigits.MatchString(normalized) {
		score += weightRepetitive
		an.Flags = append(an.Flags, "repetitive_pattern")
	}

	if res != nil && !res.Checks.CountryCode {
		score += weightUnknownCountry
		an.Flags = append(an.Flags, "unknown_country_code")
	}

	an.RiskScore = clamp(score)
	an.RiskLevel = riskLevel(an.RiskScore)
	return an
}

// AnalyzeContact combines the per-channel analyses. Empty email or phone
// skips that channel entirely.
func (a *Analyzer) AnalyzeContact(email, phone string, emailRes *verify.EmailResult, phoneRes *verify.PhoneResult) ContactAnalysis {
	var emailAn *EmailAnalysis
	var phoneAn *PhoneAnalysis

	total, count, flags := 0, 0, 0
	if email != "" {
		emailAn = a.AnalyzeEmail(email, emailRes)
		total += emailAn.RiskScore
		count++
		flags += len(emailAn.Flags)
	}
	if phone != "" {
		phoneAn = a.AnalyzePhone(phone, phoneRes)
		total += phoneAn.RiskScore
		count++
		flags += len(phoneAn.Flags)
	}

	overall := 0
	if count > 0 {
		overall = (total + count/2) / count
	}

	return ContactAnalysis{
		OverallRiskScore: overall,
		OverallRiskLevel: riskLevel(overall),
		Email:            emailAn,
		Phone:            phoneAn,
		Recommendation:   recommendation(overall),
		FlagsCount:       flags,
	}
}

func hasSuspiciousLocalPart(local string) bool {
	if local == "" {
		return false
	}
	for _, re := range suspiciousLocalParts {
		if re.MatchString(local) {
			return true
		}
	}
	return false
}

// isSuspiciousDomain flags domains with heavy digit or hyphen noise, a
// common shape for auto-registered throwaway domains.
func isSuspiciousDomain(domain string) bool {
	digits, hyphens := 0, 0
	for _, r := range domain {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
			hyphens++
		}
	}
	return digits > 4 || hyphens > 3 || len(domain) > 30
}

func splitAddress(email string) (local, domain string) {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return email, ""
	}
	return email[:i], email[i+1:]
}

func clamp(score int) int {
	if score > 100 {
		return 100
	}
	return score
}

func riskLevel(score int) string {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	case score >= 20:
		return RiskLow
	default:
		return RiskMinimal
	}
}

func recommendation(score int) string {
	switch {
	case score >= 70:
		return "Block or require additional verification"
	case score >= 40:
		return "Proceed with caution, consider verification"
	case score >= 20:
		return "Low risk, normal processing"
	default:
		return "Safe to proceed"
	}
}
