package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/medperplexity/clinical-api/data"
	"github.com/medperplexity/clinical-api/janaushadhi"
	"github.com/medperplexity/clinical-api/pubmed"
)

// safetyPromptTmpl instructs the model to weigh the order against patient
// conditions, allergies, and the gathered evidence, and to answer with raw
// JSON in the draft verdict schema.
var safetyPromptTmpl = template.Must(template.New("safety").Parse(`
ACT AS: Med Perplexity, an expert Clinical Safety Architect for India.

--- INPUT DATA ---
1. PATIENT PROFILE:
{{.PatientJSON}}

2. DOCTOR'S ORDER:
"{{.Query}}"

3. EXTERNAL EVIDENCE (PubMed):
{{.EvidenceJSON}}

4. COST SAVINGS (Jan Aushadhi Database):
{{.SavingsJSON}}

--- YOUR MISSION ---
Analyze the order for SAFETY and COST EFFICIENCY.

RULES:
1. CONTRAINDICATIONS: If the patient has a condition (e.g., CKD) and the drug is unsafe (e.g., NSAIDs), you MUST RETURN STATUS: "blocked". Cite the evidence.
2. COST SAVINGS: If the order is safe AND a Jan Aushadhi match was found (found=True), suggest the switch.
3. ALLERGIES: Check patient allergies against the drug class.

--- REQUIRED JSON OUTPUT FORMAT ---
Return ONLY raw JSON. No markdown.
{
  "status": "approved" | "blocked" | "caution",
  "title": "Short Headline (e.g. 'SAFETY ALERT')",
  "message": "Clear explanation for the doctor.",
  "evidence": "Source of truth (e.g. 'ICMR Guidelines 2024' or PubMed ID).",
  "suggestion": "Alternative drug or dosage if blocked.",
  "savings": {
     "found": true/false,
     "text": "Save ₹128 by switching to Jan Aushadhi Atorvastatin."
  }
}
`))

type promptData struct {
	PatientJSON  string
	Query        string
	EvidenceJSON string
	SavingsJSON  string
}

// buildPrompt renders the safety prompt. An unknown patient is embedded as
// an explicit not-found marker so the model sees the degraded context.
func buildPrompt(patient data.Patient, patientFound bool, query string, retrieval pubmed.RetrievalResult, match janaushadhi.MatchResult) (string, error) {
	var patientJSON []byte
	var err error
	if patientFound {
		patientJSON, err = json.MarshalIndent(patient, "", "  ")
	} else {
		patientJSON, err = json.MarshalIndent(map[string]string{"error": "Patient not found"}, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("marshaling patient profile: %w", err)
	}

	evidenceJSON, err := json.MarshalIndent(retrieval, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling research evidence: %w", err)
	}

	savingsJSON, err := json.MarshalIndent(match, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling substitute result: %w", err)
	}

	var buf bytes.Buffer
	err = safetyPromptTmpl.Execute(&buf, promptData{
		PatientJSON:  string(patientJSON),
		Query:        query,
		EvidenceJSON: string(evidenceJSON),
		SavingsJSON:  string(savingsJSON),
	})
	if err != nil {
		return "", fmt.Errorf("rendering safety prompt: %w", err)
	}

	return buf.String(), nil
}
