package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medperplexity/clinical-api/data"
	"github.com/medperplexity/clinical-api/janaushadhi"
	"github.com/medperplexity/clinical-api/logging"
	"github.com/medperplexity/clinical-api/pubmed"
)

// Assembler turns patient context, gathered evidence, and the substitute
// match into the final verdict. The generator's draft is treated as
// untrusted input: it is parsed, validated, and repaired before use.
type Assembler struct {
	generator Generator
}

// NewAssembler creates an assembler around the given generator.
// A nil generator is valid and produces manual-review verdicts.
func NewAssembler(generator Generator) *Assembler {
	return &Assembler{generator: generator}
}

// draftVerdict is the schema the generator must answer with.
type draftVerdict struct {
	Status     string      `json:"status"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	Evidence   string      `json:"evidence"`
	Suggestion string      `json:"suggestion"`
	Savings    SavingsInfo `json:"savings"`
}

// parseDraft strips markdown fences from the raw generation, parses it,
// and validates the status value.
func parseDraft(raw string) (draftVerdict, error) {
	clean := strings.ReplaceAll(raw, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var d draftVerdict
	if err := json.Unmarshal([]byte(clean), &d); err != nil {
		return draftVerdict{}, fmt.Errorf("parsing draft verdict: %w", err)
	}

	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	switch d.Status {
	case StatusApproved, StatusBlocked, StatusCaution:
	default:
		return draftVerdict{}, fmt.Errorf("draft verdict has invalid status %q", d.Status)
	}

	return d, nil
}

// deterministicSavings formats the computed substitution into savings text.
func deterministicSavings(match janaushadhi.MatchResult) SavingsInfo {
	return SavingsInfo{
		Found: true,
		Text: fmt.Sprintf("Save ₹%.2f by switching to Jan Aushadhi %s.",
			match.Drug.SavingsAmount, match.Drug.GenericName),
	}
}

// analysisErrorVerdict is the fail-safe when generation or parsing breaks.
func analysisErrorVerdict(cause error, sources []pubmed.Article) DecisionPayload {
	return DecisionPayload{
		Status:   StatusCaution,
		Title:    "Analysis Error",
		Message:  "Could not complete automated safety check. Please review guidelines manually.",
		Evidence: fmt.Sprintf("System Error: %v", cause),
		Savings:  SavingsInfo{Found: false},
		Sources:  sources,
	}
}

// manualReviewVerdict is returned when no generator is configured. It still
// carries the computed savings and the full source list, deferring only the
// clinical judgment.
func manualReviewVerdict(query string, match janaushadhi.MatchResult, sources []pubmed.Article) DecisionPayload {
	savings := SavingsInfo{Found: false}
	if match.Found {
		savings = deterministicSavings(match)
	}

	return DecisionPayload{
		Status:   StatusCaution,
		Title:    "Manual Review Recommended",
		Message:  fmt.Sprintf("Query: %s. Please review PubMed evidence and patient history manually.", query),
		Evidence: "LLM not configured - using fallback mode",
		Savings:  savings,
		Sources:  sources,
	}
}

// Assemble produces the final verdict. Sources from the retrieval are
// always attached, whatever the decision outcome. When the substitute
// matcher found a valid switch and the draft does not block the order,
// the draft's savings are overwritten with the computed result: the
// generator's claims about money are never trusted over arithmetic.
func (a *Assembler) Assemble(ctx context.Context, patient data.Patient, patientFound bool, query string, retrieval pubmed.RetrievalResult, match janaushadhi.MatchResult) DecisionPayload {
	sources := retrieval.Articles
	if sources == nil {
		sources = []pubmed.Article{}
	}

	if a.generator == nil {
		return manualReviewVerdict(query, match, sources)
	}

	prompt, err := buildPrompt(patient, patientFound, query, retrieval, match)
	if err != nil {
		logging.Error("Failed to build safety prompt", "error", err)
		return analysisErrorVerdict(err, sources)
	}

	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		logging.Warn("Safety draft generation failed", "error", err)
		return analysisErrorVerdict(err, sources)
	}

	draft, err := parseDraft(raw)
	if err != nil {
		logging.Warn("Safety draft rejected", "error", err)
		return analysisErrorVerdict(err, sources)
	}

	payload := DecisionPayload{
		Status:     draft.Status,
		Title:      draft.Title,
		Message:    draft.Message,
		Evidence:   draft.Evidence,
		Suggestion: draft.Suggestion,
		Savings:    draft.Savings,
		Sources:    sources,
	}

	if match.Found && payload.Status != StatusBlocked {
		payload.Savings = deterministicSavings(match)
	}

	return payload
}
