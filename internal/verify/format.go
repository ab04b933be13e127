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

import (
	"errors"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

var nonDigits = regexp.MustCompile(`\D`)

// ValidateEmailFormat checks address syntax and the RFC 5321 length limits.
// It returns nil for a syntactically plausible address.
func ValidateEmailFormat(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > 254 {
		return errors.New("email too long")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}

	local, domain, ok := splitAddress(email)
	if !ok || !strings.Contains(domain, ".") {
		return errors.New("invalid domain")
	}
	if len(local) > 64 {
		return errors.New("local part too long")
	}
	if strings.Contains(email, "..") {
		return errors.New("consecutive dots not allowed")
	}
	return nil
}

// splitAddress splits an email into local part and domain.
func splitAddress(email string) (local, domain string, ok bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

// NormalizePhone strips everything but digits and drops the 00
// international-dialing prefix some countries use in place of +.
func NormalizePhone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	return strings.TrimPrefix(digits, "00")
}

// ValidatePhoneFormat checks a normalized number against E.164 length
// bounds (10–15 digits).
func ValidatePhoneFormat(digits string) error {
	if digits == "" {
		return errors.New("phone number is required")
	}
	if len(digits) < 10 {
		return errors.New("phone number too short (min 10 digits)")
	}
	if len(digits) > 15 {
		return errors.New("phone number too long (max 15 digits)")
	}
	return nil
}
