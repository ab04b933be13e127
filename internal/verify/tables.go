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

import "strings"

// Tables holds the heuristic lookup data consumed by verification:
// disposable-domain membership, role-account names, typo suggestions, and
// phone dialing prefixes. All of it is swappable configuration, not logic.
type Tables struct {
	disposable  map[string]struct{}
	roles       map[string]struct{}
	suggestions map[string]string
	countries   map[string]string // dialing prefix -> country name
}

// NewTables builds a table set from explicit lists. Empty inputs fall back
// to the built-in defaults for that table.
func NewTables(disposable, roles []string, suggestions, countries map[string]string) *Tables {
	t := &Tables{
		disposable:  make(map[string]struct{}),
		roles:       make(map[string]struct{}),
		suggestions: suggestions,
		countries:   countries,
	}
	if len(disposable) == 0 {
		disposable = defaultDisposableDomains
	}
	if len(roles) == 0 {
		roles = defaultRoleAccounts
	}
	if len(t.suggestions) == 0 {
		t.suggestions = defaultSuggestions
	}
	if len(t.countries) == 0 {
		t.countries = defaultCountryCodes
	}
	for _, d := range disposable {
		t.disposable[strings.ToLower(d)] = struct{}{}
	}
	for _, r := range roles {
		t.roles[strings.ToLower(r)] = struct{}{}
	}
	return t
}

// DefaultTables returns the built-in heuristic data.
func DefaultTables() *Tables {
	return NewTables(nil, nil, nil, nil)
}

// IsDisposable reports whether the domain, or a parent of it, is a known
// disposable-mail provider.
func (t *Tables) IsDisposable(domain string) bool {
	domain = strings.ToLower(domain)
	if _, ok := t.disposable[domain]; ok {
		return true
	}
	for d := range t.disposable {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// IsRoleAccount reports whether the local part names a role mailbox
// (admin, support, noreply, ...) rather than a person.
func (t *Tables) IsRoleAccount(localPart string) bool {
	_, ok := t.roles[strings.ToLower(localPart)]
	return ok
}

// Suggest returns the likely intended domain for a common typo, or "".
func (t *Tables) Suggest(domain string) string {
	return t.suggestions[strings.ToLower(domain)]
}

// Country resolves a phone number's dialing prefix by longest match,
// trying prefixes of 4 digits down to 1.
func (t *Tables) Country(digits string) (prefix, country string, ok bool) {
	for l := 4; l >= 1; l-- {
		if len(digits) < l {
			continue
		}
		p := digits[:l]
		if c, found := t.countries[p]; found {
			return p, c, true
		}
	}
	return "", "", false
}

var defaultDisposableDomains = []string{
	"tempmail.com", "throwaway.email", "guerrillamail.com", "mailinator.com",
	"10minutemail.com", "temp-mail.org", "fakeinbox.com", "trashmail.com",
	"yopmail.com", "sharklasers.com", "mailnesia.com", "maildrop.cc",
	"dispostable.com", "getnada.com", "tmpail.org", "tempail.com",
	"mohmal.com", "emailondeck.com", "temp-mail.io", "burnermail.io",
	"grr.la", "guerrillamail.info", "guerrillamail.biz", "guerrillamail.de",
	"guerrillamail.net", "guerrillamail.org", "spam4.me", "getairmail.com",
	"generator.email", "mailcatch.com", "meltmail.com", "mintemail.com",
	"mytrashmail.com", "spambox.us", "tempmailaddress.com", "throwawaymail.com",
	"tempr.email", "discard.email", "discardmail.com", "spamgourmet.com",
	"mailnull.com", "tempinbox.com", "binkmail.com", "bobmail.info",
}

var defaultRoleAccounts = []string{
	"admin", "administrator", "webmaster", "postmaster", "hostmaster",
	"info", "support", "sales", "contact", "hello", "help",
	"billing", "abuse", "noreply", "no-reply", "mailer-daemon",
	"root", "security", "privacy", "legal", "hr", "marketing",
}

var defaultSuggestions = map[string]string{
	"gmial.com":   "gmail.com",
	"gmai.com":    "gmail.com",
	"gnail.com":   "gmail.com",
	"gamil.com":   "gmail.com",
	"hotmal.com":  "hotmail.com",
	"hotmai.com":  "hotmail.com",
	"hotamil.com": "hotmail.com",
	"outlok.com":  "outlook.com",
	"outloo.com":  "outlook.com",
	"yahooo.com":  "yahoo.com",
	"yaho.com":    "yahoo.com",
}

// defaultCountryCodes covers the dialing prefixes the service most often
// sees. Four-digit Caribbean prefixes must precede the bare "1" during
// matching, which Country handles by trying longest prefixes first.
var defaultCountryCodes = map[string]string{
	"1": "US/Canada",
	"7": "Russia/Kazakhstan",

	// Latin America & Caribbean
	"52": "Mexico", "53": "Cuba", "54": "Argentina", "55": "Brazil",
	"56": "Chile", "57": "Colombia", "58": "Venezuela", "51": "Peru",
	"502": "Guatemala", "503": "El Salvador", "504": "Honduras",
	"505": "Nicaragua", "506": "Costa Rica", "507": "Panama",
	"509": "Haiti", "591": "Bolivia", "593": "Ecuador", "595": "Paraguay",
	"598": "Uruguay", "1787": "Puerto Rico", "1809": "Dominican Republic",
	"1829": "Dominican Republic", "1876": "Jamaica", "1868": "Trinidad & Tobago",

	// Europe
	"30": "Greece", "31": "Netherlands", "32": "Belgium", "33": "France",
	"34": "Spain", "36": "Hungary", "39": "Italy", "40": "Romania",
	"41": "Switzerland", "43": "Austria", "44": "United Kingdom",
	"45": "Denmark", "46": "Sweden", "47": "Norway", "48": "Poland",
	"49": "Germany", "351": "Portugal", "353": "Ireland", "358": "Finland",
	"380": "Ukraine", "420": "Czechia", "421": "Slovakia",

	// Middle East & Asia
	"90": "Turkey", "91": "India", "92": "Pakistan", "94": "Sri Lanka",
	"60": "Malaysia", "61": "Australia", "62": "Indonesia",
	"63": "Philippines", "64": "New Zealand", "65": "Singapore",
	"66": "Thailand", "81": "Japan", "82": "South Korea", "84": "Vietnam",
	"86": "China", "852": "Hong Kong", "886": "Taiwan", "880": "Bangladesh",
	"966": "Saudi Arabia", "971": "UAE", "972": "Israel",

	// Africa
	"20": "Egypt", "27": "South Africa", "212": "Morocco", "213": "Algeria",
	"216": "Tunisia", "221": "Senegal", "233": "Ghana", "234": "Nigeria",
	"254": "Kenya", "255": "Tanzania", "256": "Uganda",
}
