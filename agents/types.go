// Package agents runs the clinical decision pipeline: load the patient
// profile, gather substitute and literature evidence, and assemble a
// structured safety verdict. The pipeline is stateless per request and
// always returns a well-formed payload, however many stages degrade.
package agents

import (
	"context"

	"github.com/medperplexity/clinical-api/data"
	"github.com/medperplexity/clinical-api/janaushadhi"
	"github.com/medperplexity/clinical-api/pubmed"
)

// Decision statuses. These are terminal; no payload transitions once returned.
const (
	StatusApproved = "approved"
	StatusBlocked  = "blocked"
	StatusCaution  = "caution"
)

// SavingsInfo is the cost-savings portion of a verdict.
type SavingsInfo struct {
	Found bool   `json:"found"`
	Text  string `json:"text,omitempty"`
}

// DecisionPayload is the structured safety verdict returned to the caller.
type DecisionPayload struct {
	Status     string           `json:"status"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Evidence   string           `json:"evidence"`
	Suggestion string           `json:"suggestion,omitempty"`
	Savings    SavingsInfo      `json:"savings"`
	Sources    []pubmed.Article `json:"sources"`
}

// PatientSource loads patient records for the personalization stage.
type PatientSource interface {
	GetPatient(id string) (data.Patient, bool)
}

// CatalogSource loads the substitute catalog for the research stage.
type CatalogSource interface {
	Load() []janaushadhi.CatalogEntry
}

// SubstituteFinder resolves a drug order against the catalog.
type SubstituteFinder interface {
	Match(query string, entries []janaushadhi.CatalogEntry) janaushadhi.MatchResult
}

// EvidenceSource retrieves literature for one search query.
type EvidenceSource interface {
	Retrieve(ctx context.Context, query string) pubmed.RetrievalResult
}

// Generator drafts the verdict text. A nil Generator means text generation
// is not configured and the assembler falls back to a manual-review verdict.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
