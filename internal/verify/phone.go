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

package verify

// PhoneChecks records the individual phone verification steps.
type PhoneChecks struct {
	Format      bool `json:"format"`
	CountryCode bool `json:"country_code"`
	Length      bool `json:"length"`
}

// PhoneResult is the outcome of verifying one phone number. Verification
// is purely offline: normalization, length bounds, and dialing-prefix
// detection against the injected country table.
type PhoneResult struct {
	Phone       string      `json:"phone"`
	Normalized  string      `json:"normalized"`
	Valid       bool        `json:"valid"`
	Checks      PhoneChecks `json:"checks"`
	CountryCode string      `json:"country_code,omitempty"`
	Country     string      `json:"country,omitempty"`
	FormatError string      `json:"format_error,omitempty"`
}

// PhoneVerifier validates phone numbers against the country-code table.
type PhoneVerifier struct {
	tables *Tables
}

// NewPhoneVerifier creates a phone verifier. Nil tables use the defaults.
func NewPhoneVerifier(tables *Tables) *PhoneVerifier {
	if tables == nil {
		tables = DefaultTables()
	}
	return &PhoneVerifier{tables: tables}
}

// Verify normalizes and validates a phone number.
func (v *PhoneVerifier) Verify(raw string) PhoneResult {
	res := PhoneResult{Phone: raw}
	res.Normalized = NormalizePhone(raw)

	if err := ValidatePhoneFormat(res.Normalized); err != nil {
		res.FormatError = err.Error()
		return res
	}
	res.Checks.Format = true
	res.Checks.Length = len(res.Normalized) >= 10 && len(res.Normalized) <= 15

	if prefix, country, ok := v.tables.Country(res.Normalized); ok {
		res.Checks.CountryCode = true
		res.CountryCode = prefix
		res.Country = country
	}

	res.Valid = res.Checks.Format && res.Checks.Length && res.Checks.CountryCode
	return res
}
