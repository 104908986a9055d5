package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/medperplexity/clinical-api/janaushadhi"
	"github.com/medperplexity/clinical-api/logging"
	"github.com/medperplexity/clinical-api/metrics"
	"github.com/medperplexity/clinical-api/pubmed"
)

// Workflow wires the three pipeline stages together: personalization,
// research, and safety assembly.
type Workflow struct {
	patients  PatientSource
	catalog   CatalogSource
	matcher   SubstituteFinder
	evidence  EvidenceSource
	assembler *Assembler
}

// NewWorkflow creates the decision pipeline. Generator may be nil when
// text generation is not configured.
func NewWorkflow(patients PatientSource, catalog CatalogSource, matcher SubstituteFinder, evidence EvidenceSource, generator Generator) *Workflow {
	return &Workflow{
		patients:  patients,
		catalog:   catalog,
		matcher:   matcher,
		evidence:  evidence,
		assembler: NewAssembler(generator),
	}
}

// research walks the search-term ladder from most to least specific and
// stops at the first variant the retriever answers with evidence. When
// every variant comes back empty the last error result is returned.
func (w *Workflow) research(ctx context.Context, query string, conditionTags []string) pubmed.RetrievalResult {
	conditions := strings.Join(conditionTags, " ")

	variants := []string{
		fmt.Sprintf("%s %s contraindications adverse effects", query, conditions),
		fmt.Sprintf("%s %s safety", query, conditions),
		fmt.Sprintf("%s chronic kidney disease", query),
		fmt.Sprintf("%s clinical guidelines", query),
	}

	var result pubmed.RetrievalResult
	tried := 0
	for _, variant := range variants {
		tried++
		result = w.evidence.Retrieve(ctx, variant)
		if result.Status == pubmed.StatusSuccess {
			break
		}
	}
	metrics.PubmedVariantsTried.Observe(float64(tried))

	return result
}

// Decide runs the full pipeline for one doctor order. An unknown patient
// degrades the context rather than failing; the substitute match and the
// literature search run concurrently and both finish before assembly.
func (w *Workflow) Decide(ctx context.Context, patientID, doctorQuery string) DecisionPayload {
	start := time.Now()

	patient, found := w.patients.GetPatient(patientID)
	if !found {
		logging.Warn("Patient not found, continuing with degraded context", "patient_id", patientID)
	}

	var (
		wg           sync.WaitGroup
		match        janaushadhi.MatchResult
		catalogEmpty bool
		retrieval    pubmed.RetrievalResult
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		entries := w.catalog.Load()
		catalogEmpty = len(entries) == 0
		match = w.matcher.Match(doctorQuery, entries)
	}()
	go func() {
		defer wg.Done()
		retrieval = w.research(ctx, doctorQuery, patient.ConditionTags)
	}()
	wg.Wait()

	switch {
	case catalogEmpty:
		metrics.CatalogMatchesTotal.WithLabelValues("unavailable").Inc()
	case match.Found:
		metrics.CatalogMatchesTotal.WithLabelValues("found").Inc()
	default:
		metrics.CatalogMatchesTotal.WithLabelValues("not_found").Inc()
	}

	payload := w.assembler.Assemble(ctx, patient, found, doctorQuery, retrieval, match)

	metrics.DecisionsTotal.WithLabelValues(payload.Status).Inc()
	metrics.DecisionDuration.Observe(time.Since(start).Seconds())

	return payload
}
