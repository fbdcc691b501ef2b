package decomposequeryrules

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"ria-hunter/internal/common/location"
	"ria-hunter/internal/models"
)

var (
	digitsOnly     = regexp.MustCompile(`^\d+$`)
	crdPattern     = regexp.MustCompile(`(?i)\bcrd\s*(?:number|no\.?|#)?\s*:?\s*#?(\d+)\b`)
	topNPattern    = regexp.MustCompile(`(?i)\btop\s+(\d{1,3})\b`)
	rankingPattern = regexp.MustCompile(`(?i)\b(?:top|most|leading|largest|biggest|best|highest)\b`)

	prepositionPattern = regexp.MustCompile(`(?i)\b(?:in|near|around|from)\s+`)
	// locationPattern is applied right after a preposition. The phrase ends at
	// the next clause word or preposition.
	locationPattern = regexp.MustCompile(`(?i)^([a-z][a-z .'\-]*?(?:,\s*[a-z]{2}\b)?)\s*(?:\b(?:with|that|who|which|having|over|above|managing|and|for|by|ranked|sorted|in|near|around|from|of|at|to|on|specializing|focused|focusing|based|located|serving|investing)\b|[?!;$\d(]|$)`)
)

type activityPhrase struct {
	pattern  *regexp.Regexp
	fundType models.CanonicalFundType
}

// Checked in order; the first hit sets the intent and every hit is removed
// from the text before location extraction.
var activityPhrases = []activityPhrase{
	{regexp.MustCompile(`(?i)\bprivate\s+placements?\b`), models.FundTypePE},
	{regexp.MustCompile(`(?i)\bventure(?:\s+capital)?\b`), models.FundTypeVC},
	{regexp.MustCompile(`(?i)\bvc\b`), models.FundTypeVC},
	{regexp.MustCompile(`(?i)\bprivate\s+equity\b`), models.FundTypePE},
	{regexp.MustCompile(`(?i)\bhedge\s+funds?\b`), models.FundTypeHF},
	{regexp.MustCompile(`(?i)\bfunds?\s+of\s+funds\b`), models.FundTypeFoF},
	{regexp.MustCompile(`(?i)\breits?\b`), models.FundTypeREIT},
	{regexp.MustCompile(`(?i)\breal\s+estate\b`), models.FundTypeRE},
	{regexp.MustCompile(`(?i)\b(?:private\s+)?credit\b`), models.FundTypeCredit},
	{regexp.MustCompile(`(?i)\binfrastructure\b`), models.FundTypeInfra},
	{regexp.MustCompile(`(?i)\bcommodit(?:y|ies)\b`), models.FundTypeCommodity},
	{regexp.MustCompile(`(?i)\benergy\b`), models.FundTypeEnergy},
}

const amount = `(\d[\d,]*(?:\.\d+)?)`
const unit = `(thousand|million|billion|mm|bn|k|m|b)`

var aumPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\baum\s*(?:>=|>|over|above|at least|of at least|greater than|exceeding)\s*\$?\s*` + amount + `\s*` + unit + `?\b`),
	regexp.MustCompile(`(?i)\$\s*` + amount + `\s*` + unit + `?\b`),
	regexp.MustCompile(`(?i)\b` + amount + `\s*` + unit + `\b`),
}

var unitMultiplier = map[string]float64{
	"k": 1e3, "thousand": 1e3,
	"m": 1e6, "mm": 1e6, "million": 1e6,
	"b": 1e9, "bn": 1e9, "billion": 1e9,
}

// Words that can follow "in"/"from" without starting a place name.
var locationStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "our": true, "their": true,
	"this": true, "that": true, "terms": true, "total": true, "assets": true,
	"aum": true, "private": true, "public": true, "general": true, "order": true,
	"particular": true, "funds": true, "fund": true, "management": true,
}

// Decompose extracts structured filters from raw query text with keyword
// and pattern rules. It is total and pure: every input, including the empty
// string, yields a value, and equal inputs yield equal values.
func Decompose(text string, fallbackConfidence float64) models.StructuredFilters {
	filters := models.StructuredFilters{
		QueryType:  models.QueryTypeGeneric,
		Confidence: clamp01(fallbackConfidence),
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return filters
	}

	if digitsOnly.MatchString(trimmed) {
		filters.QueryType = models.QueryTypeFirmLookup
		filters.CRD = models.StringPtr(trimmed)
		return filters
	}

	rest := trimmed
	if m := crdPattern.FindStringSubmatch(rest); m != nil {
		filters.CRD = models.StringPtr(m[1])
		rest = crdPattern.ReplaceAllString(rest, " ")
	}

	filters.MinAum = parseMinAum(rest)
	rest = stripAum(rest)

	var intent *models.CanonicalFundType
	for _, p := range activityPhrases {
		if !p.pattern.MatchString(rest) {
			continue
		}
		if intent == nil {
			intent = models.FundTypePtr(p.fundType)
		}
		rest = p.pattern.ReplaceAllString(rest, " ")
	}
	filters.FundTypeIntent = intent

	ranking := rankingPattern.MatchString(rest)
	if m := topNPattern.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			filters.TopN = models.IntPtr(n)
		}
	}

	filters.Location = extractLocation(rest)

	switch {
	case filters.CRD != nil:
		filters.QueryType = models.QueryTypeFirmLookup
	case ranking:
		filters.QueryType = models.QueryTypeTopNRanking
	case intent != nil:
		filters.QueryType = models.QueryTypeActivityFilter
	}

	return filters
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseMinAum returns the first AUM threshold phrase in text, e.g.
// "$500 million", "over 1.5 billion", "2B", "750k", "aum > 100000000".
func parseMinAum(text string) *float64 {
	for _, p := range aumPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || v <= 0 {
			continue
		}
		if mult, ok := unitMultiplier[strings.ToLower(m[2])]; ok {
			v *= mult
		}
		return models.FloatPtr(v)
	}
	return nil
}

func stripAum(text string) string {
	for _, p := range aumPatterns {
		text = p.ReplaceAllString(text, " ")
	}
	return text
}

// extractLocation tries, in order: a prepositional phrase ("in St. Louis,
// MO"), the last one first; a well-known city anywhere in the text; a full
// state name anywhere in the text.
func extractLocation(text string) models.Location {
	starts := prepositionPattern.FindAllStringIndex(text, -1)
	for i := len(starts) - 1; i >= 0; i-- {
		if loc, ok := phraseLocation(text[starts[i][1]:]); ok {
			return loc
		}
	}

	if city, state, ok := location.FindKnownCity(text); ok {
		return models.Location{City: models.StringPtr(city), State: models.StringPtr(state)}
	}
	if state, ok := location.FindStateName(text); ok {
		return models.Location{State: models.StringPtr(state)}
	}
	return models.Location{}
}

// phraseLocation reads the place phrase at the start of text. A phrase is
// only a place when it resolves to a valid state, is a well-known city or is
// capitalised as written, so "in startups" is not a city.
func phraseLocation(text string) (models.Location, bool) {
	m := locationPattern.FindStringSubmatch(text)
	if m == nil {
		return models.Location{}, false
	}
	phrase := strings.TrimRight(strings.TrimSpace(m[1]), ",'- ")
	if phrase == "" || locationStopwords[strings.ToLower(strings.Fields(phrase)[0])] {
		return models.Location{}, false
	}

	loc := normalizeLocation(location.Parse(phrase))
	switch {
	case loc.State != nil:
		return loc, true
	case loc.City == nil:
		return models.Location{}, false
	}
	first, _ := utf8.DecodeRuneInString(phrase)
	return loc, unicode.IsUpper(first)
}

// normalizeLocation upper-cases valid state codes, drops invalid ones and
// fills the state of well-known cities. A lone full state name moves from
// city to state unless it is also a well-known city ("New York").
func normalizeLocation(loc models.Location) models.Location {
	if loc.State != nil {
		if code, ok := location.NormalizeState(*loc.State); ok {
			loc.State = models.StringPtr(code)
		} else {
			loc.State = nil
		}
	}

	if loc.City != nil && loc.State == nil {
		if code, ok := location.StateForCity(*loc.City); ok {
			loc.State = models.StringPtr(code)
			return loc
		}
		if code, ok := location.NormalizeState(*loc.City); ok && len(*loc.City) > 2 {
			return models.Location{State: models.StringPtr(code)}
		}
	}
	return loc
}
