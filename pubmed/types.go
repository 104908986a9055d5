// Package pubmed retrieves biomedical literature from the NCBI E-Utilities
// API. Retrieval is two-phase: esearch resolves a query to PMIDs, efetch
// loads the article details. A strict high-evidence search runs first and a
// relaxed one takes over when it comes back empty.
package pubmed

// Retrieval outcome statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Article is one normalized literature record.
type Article struct {
	PMID     string `json:"pmid"`
	Title    string `json:"title"`
	Journal  string `json:"journal"`
	PubDate  string `json:"pub_date"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
}

// RetrievalResult is the outcome of a literature search. A success always
// carries at least one article; total failure is reported here as an
// error status, never as a Go error to the caller.
type RetrievalResult struct {
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	EvidenceCount int       `json:"evidence_count"`
	Articles      []Article `json:"articles,omitempty"`
}
