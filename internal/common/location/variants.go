package location

import (
	"sort"
	"strings"
)

var saintPrefixes = []string{"SAINT ", "ST. ", "ST "}

// CanonicalCity upper-cases a city name and spells out "St." as "SAINT".
func CanonicalCity(city string) string {
	c := strings.Join(strings.Fields(strings.ToUpper(city)), " ")
	for _, p := range saintPrefixes {
		if strings.HasPrefix(c, p) {
			return "SAINT " + strings.TrimPrefix(c, p)
		}
	}
	if strings.HasPrefix(c, "ST.") {
		return "SAINT " + strings.TrimPrefix(c, "ST.")
	}
	return c
}

// CityVariants lists the upper-case spellings a filing may use for city,
// e.g. "St. Louis" -> [SAINT LOUIS, SAINTLOUIS, ST LOUIS, ST. LOUIS].
func CityVariants(city string) []string {
	c := CanonicalCity(city)
	if c == "" {
		return nil
	}
	if !strings.HasPrefix(c, "SAINT ") {
		return []string{c}
	}
	rest := strings.TrimPrefix(c, "SAINT ")
	set := map[string]struct{}{
		"SAINT " + rest: {},
		"ST. " + rest:   {},
		"ST " + rest:    {},
		"SAINT" + strings.ReplaceAll(rest, " ", ""): {},
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
