package location

import (
	"sort"
	"strings"
	"unicode"
)

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"district of columbia": "DC", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN", "texas": "TX",
	"utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

var stateCodes = func() map[string]bool {
	m := make(map[string]bool, len(stateNames))
	for _, code := range stateNames {
		m[code] = true
	}
	return m
}()

// cityStates resolves well-known cities that are commonly written without a
// state. Keys are canonical city names (see CanonicalCity).
var cityStates = map[string]string{
	"SAINT LOUIS":   "MO",
	"KANSAS CITY":   "MO",
	"NEW YORK":      "NY",
	"NEW YORK CITY": "NY",
	"SAN FRANCISCO": "CA",
	"LOS ANGELES":   "CA",
	"CHICAGO":       "IL",
	"BOSTON":        "MA",
	"DALLAS":        "TX",
	"HOUSTON":       "TX",
	"MIAMI":         "FL",
	"SEATTLE":       "WA",
	"DENVER":        "CO",
	"ATLANTA":       "GA",
	"SAINT PAUL":    "MN",
	"MINNEAPOLIS":   "MN",
	"GREENWICH":     "CT",
}

// NormalizeState maps a two-letter code (any case) or a full state name to
// the upper-case postal code.
func NormalizeState(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) == 2 {
		code := strings.ToUpper(s)
		return code, stateCodes[code]
	}
	code, ok := stateNames[strings.ToLower(s)]
	return code, ok
}

// StateNames returns the lower-cased full state names.
func StateNames() []string {
	names := make([]string, 0, len(stateNames))
	for name := range stateNames {
		names = append(names, name)
	}
	return names
}

// StateForCity returns the state for a well-known city.
func StateForCity(city string) (string, bool) {
	st, ok := cityStates[CanonicalCity(city)]
	return st, ok
}

var stateNamesByLength = func() []string {
	names := StateNames()
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

var knownCitiesByLength = func() []string {
	cities := make([]string, 0, len(cityStates))
	for c := range cityStates {
		cities = append(cities, c)
	}
	sort.Slice(cities, func(i, j int) bool {
		if len(cities[i]) != len(cities[j]) {
			return len(cities[i]) > len(cities[j])
		}
		return cities[i] < cities[j]
	})
	return cities
}()

// canonicalWords upper-cases text, drops punctuation other than apostrophes
// and spells out every "St"/"St." token as SAINT. The result is padded with
// spaces so whole-phrase lookups can use " X " containment.
func canonicalWords(text string) string {
	fields := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '.'
	})
	for i, f := range fields {
		f = strings.Trim(f, ".")
		if f == "ST" {
			f = "SAINT"
		}
		fields[i] = f
	}
	return " " + strings.Join(fields, " ") + " "
}

// FindKnownCity scans free text for a well-known city and returns its
// canonical name and state.
func FindKnownCity(text string) (city, state string, ok bool) {
	words := canonicalWords(text)
	for _, c := range knownCitiesByLength {
		if strings.Contains(words, " "+c+" ") {
			return c, cityStates[c], true
		}
	}
	return "", "", false
}

// FindStateName scans free text for a full state name and returns its code.
func FindStateName(text string) (string, bool) {
	words := canonicalWords(text)
	for _, name := range stateNamesByLength {
		if strings.Contains(words, " "+strings.ToUpper(name)+" ") {
			return stateNames[name], true
		}
	}
	return "", false
}
