package janaushadhi

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the minimum similarity score for accepting a match.
const DefaultThreshold = 85.0

// Matcher scores a free-text drug name against catalog entries.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher with the given acceptance threshold.
// Non-positive thresholds fall back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// similarityScore compares two names on a 0-100 scale. The sequence ratio
// alone undervalues an exact ingredient embedded in a longer branded name
// ("Atorvastatin" inside "Atorvastatin Calcium"), so a query longer than
// four runes found as a substring clamps the score to at least 95.
func similarityScore(query, target string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(target))

	// An empty side scores zero, never the degenerate 1.0 ratio
	if q == "" || t == "" {
		return 0
	}

	sm := difflib.NewMatcher(strings.Split(q, ""), strings.Split(t, ""))
	base := sm.Ratio() * 100

	if utf8.RuneCountInString(q) > 4 && strings.Contains(t, q) {
		return math.Max(base, 95.0)
	}

	return base
}

// Match resolves the query against the catalog and computes the savings of
// switching. Each entry is scored on its generic name and on its best brand
// alias, the generic winning only a strictly higher score; across entries
// the first highest scorer wins, so catalog order breaks ties.
func (m *Matcher) Match(query string, entries []CatalogEntry) MatchResult {
	if len(entries) == 0 {
		return MatchResult{Found: false, Message: "Database unavailable."}
	}

	var best *CatalogEntry
	var highest float64
	var source string

	for i := range entries {
		entry := &entries[i]

		genericScore := similarityScore(query, entry.GenericName)

		var brandScore float64
		var bestBrand string
		for _, brand := range entry.CommonBrands {
			if s := similarityScore(query, brand); s > brandScore {
				brandScore = s
				bestBrand = brand
			}
		}

		var entryScore float64
		var entrySource string
		if genericScore > brandScore {
			entryScore = genericScore
			entrySource = fmt.Sprintf("Generic Match (%s)", entry.GenericName)
		} else {
			entryScore = brandScore
			entrySource = fmt.Sprintf("Brand Match (%s)", bestBrand)
		}

		if entryScore > highest {
			highest = entryScore
			best = entry
			source = entrySource
		}
	}

	if highest < m.Threshold || best == nil {
		return MatchResult{
			Found:   false,
			Message: fmt.Sprintf("No direct Jan Aushadhi substitute found. (Best match: %.1f%%)", highest),
		}
	}

	savings := best.MarketAvgPrice - best.JanPrice
	if savings < 0 {
		return MatchResult{Found: false, Message: "Generic found but offers no savings."}
	}

	pct := best.SavingsPercentage
	if pct == "" {
		pct = "0%"
	}

	return MatchResult{
		Found: true,
		Drug: &DrugMatch{
			GenericName:       best.GenericName,
			QueryName:         query,
			MatchSource:       source,
			JanPrice:          best.JanPrice,
			MarketAvgPrice:    best.MarketAvgPrice,
			SavingsAmount:     savings,
			SavingsPercentage: pct,
		},
		Message: fmt.Sprintf(
			"Switch Available: Jan Aushadhi %s costs ₹%.2f (vs ₹%.2f). Save ₹%.2f.",
			best.GenericName, best.JanPrice, best.MarketAvgPrice, savings,
		),
	}
}
