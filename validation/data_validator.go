// Package validation provides input and data validation for the clinical API.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/medperplexity/clinical-api/interfaces"
	"github.com/medperplexity/clinical-api/janaushadhi"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Query validation: alphanumeric + the punctuation drug orders carry
	// (doses like "10mg/day", strengths like "0.5%", lists and parentheses)
	queryRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'/(),%]+$`)

	// Email validation: local@domain with a dotted domain part
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	// strings.Contains is 5-10x faster than regex for these patterns
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// LDAP injection patterns
		"*)(", "*|(", "*)%",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

const (
	maxQueryLength = 200
	maxQueryWords  = 30

	// How many offending generics a quality report names per category
	reportSampleSize = 10
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateQuery validates free-text doctor orders and drug search terms.
func (v *DataValidatorImpl) ValidateQuery(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if len(input) < 3 {
		return fmt.Errorf("query too short: minimum 3 characters")
	}

	if len(input) > maxQueryLength {
		return fmt.Errorf("query too long: maximum %d characters", maxQueryLength)
	}

	// Word count validation to prevent DoS attacks with many short words
	words := strings.Fields(input)
	if len(words) > maxQueryWords {
		return fmt.Errorf("query too complex: maximum %d words allowed", maxQueryWords)
	}

	// Check for potentially dangerous patterns using string matching (5-10x faster than regex)
	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("query contains potentially dangerous content")
		}
	}

	if !queryRegex.MatchString(input) {
		return fmt.Errorf("query contains invalid characters. Only letters, numbers, spaces, and common order punctuation are allowed")
	}

	// Additional checks for repeated characters (potential DoS)
	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("query contains excessive character repetition")
	}

	return nil
}

// ValidatePatientID validates patient identifiers of the form PAT-NNN.
// No regex used - strconv.Atoi() validates the numeric suffix for free.
func (v *DataValidatorImpl) ValidatePatientID(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("patient id cannot be empty")
	}

	// Reject if original input contained whitespace (spaces, tabs, etc.)
	if len(input) != len(trimmed) {
		return fmt.Errorf("patient id contains invalid characters")
	}

	suffix, found := strings.CutPrefix(trimmed, "PAT-")
	if !found {
		return fmt.Errorf("patient id should start with PAT-")
	}

	if len(suffix) < 3 {
		return fmt.Errorf("patient id should have at least 3 digits")
	}

	if _, err := strconv.Atoi(suffix); err != nil || strings.ContainsAny(suffix, "+-. ") {
		return fmt.Errorf("patient id contains invalid characters. Only numeric characters are allowed after PAT-")
	}

	return nil
}

// ValidateEmail validates login and registration email addresses.
func (v *DataValidatorImpl) ValidateEmail(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if len(trimmed) > 254 {
		return fmt.Errorf("email too long: maximum 254 characters")
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("email contains potentially dangerous content")
		}
	}

	if !emailRegex.MatchString(trimmed) {
		return fmt.Errorf("invalid email address")
	}

	return nil
}

// ReportCatalogQuality summarizes data problems in the generic-medicine
// catalog: duplicate generics, records missing names or brand lists, and
// price pairs that cannot produce savings. Only the first few offenders
// per category are named.
func (v *DataValidatorImpl) ReportCatalogQuality(entries []janaushadhi.CatalogEntry) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{
		TotalEntries:      len(entries),
		DuplicateGenerics: []string{},
		BadPriceGenerics:  []string{},
		NoSavingsGenerics: []string{},
	}

	// Check 1: duplicate generic names (case-insensitive)
	seen := make(map[string]bool)
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.GenericName))
		if key == "" {
			continue
		}
		if seen[key] {
			report.DuplicateGenerics = append(report.DuplicateGenerics, e.GenericName)
		}
		seen[key] = true
	}

	// Check 2: records missing a generic name or a brand list
	for _, e := range entries {
		if strings.TrimSpace(e.GenericName) == "" {
			report.EntriesWithoutName++
		}
		if len(e.CommonBrands) == 0 {
			report.EntriesWithoutBrands++
		}
	}

	// Check 3: non-positive prices (store first few generics)
	for _, e := range entries {
		if e.JanPrice <= 0 || e.MarketAvgPrice <= 0 {
			report.EntriesWithBadPrices++
			if len(report.BadPriceGenerics) < reportSampleSize {
				report.BadPriceGenerics = append(report.BadPriceGenerics, e.GenericName)
			}
		}
	}

	// Check 4: market price at or below the catalog price, so no margin
	for _, e := range entries {
		if e.JanPrice > 0 && e.MarketAvgPrice > 0 && e.MarketAvgPrice <= e.JanPrice {
			report.EntriesWithoutSavings++
			if len(report.NoSavingsGenerics) < reportSampleSize {
				report.NoSavingsGenerics = append(report.NoSavingsGenerics, e.GenericName)
			}
		}
	}

	return report
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
