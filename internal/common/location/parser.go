// Package location turns free-text location phrases into a city/state pair.
package location

import (
	"strings"
	"unicode/utf8"

	"ria-hunter/internal/models"
)

// Parse splits a location phrase on commas.
//
//	""                         -> {nil, nil}
//	"St. Louis, MO"            -> {"St. Louis", "MO"}
//	"MO"                       -> {nil, "MO"}
//	"Chicago"                  -> {"Chicago", nil}
//	"Clayton, St. Louis County, MO" -> {"Clayton", "MO"}
//
// With more than two segments the first non-empty segment is the city and
// the first later segment that looks like a two-letter state code is the
// state. Parse never normalises case; see NormalizeState.
func Parse(text string) models.Location {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Location{}
	}

	raw := strings.Split(text, ",")
	parts := make([]string, len(raw))
	for i, p := range raw {
		parts[i] = strings.TrimSpace(p)
	}

	switch len(parts) {
	case 1:
		if utf8.RuneCountInString(parts[0]) == 2 {
			return models.Location{State: optional(parts[0])}
		}
		return models.Location{City: optional(parts[0])}
	case 2:
		return models.Location{City: optional(parts[0]), State: optional(parts[1])}
	}

	var loc models.Location
	rest := parts
	for i, p := range parts {
		if p != "" {
			loc.City = optional(p)
			rest = parts[i+1:]
			break
		}
	}
	for _, p := range rest {
		if isStateCode(p) {
			loc.State = optional(p)
			break
		}
	}
	return loc
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
