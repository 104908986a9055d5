// Package interfaces defines core abstractions for the clinical decision API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"

	"github.com/medperplexity/clinical-api/agents"
	"github.com/medperplexity/clinical-api/auth"
	"github.com/medperplexity/clinical-api/data"
	"github.com/medperplexity/clinical-api/janaushadhi"
	"github.com/medperplexity/clinical-api/pubmed"
)

// CatalogQualityReport provides a summary of catalog data quality issues
type CatalogQualityReport struct {
	TotalEntries          int
	DuplicateGenerics     []string
	EntriesWithoutName    int
	EntriesWithoutBrands  int
	EntriesWithBadPrices  int      // Non-positive jan or market price
	EntriesWithoutSavings int      // Market price at or below catalog price
	BadPriceGenerics      []string // First few generics with price problems
	NoSavingsGenerics     []string // First few generics with no savings margin
}

// PatientStore defines the contract for patient record access.
// Implementations re-read the backing store per call so results are
// always fresh; an unavailable store degrades to not-found/empty.
type PatientStore interface {
	// GetPatient returns the patient record and whether it exists
	GetPatient(id string) (data.Patient, bool)

	// ListByDoctor returns all patients assigned to a doctor
	ListByDoctor(doctorID string) map[string]data.Patient

	// Count returns how many patient records the store currently holds
	Count() int
}

// RoundStore defines the contract for daily ward-round briefings.
type RoundStore interface {
	// List returns all round entries, empty when the store is unavailable
	List() []data.Round
}

// CatalogStore defines the contract for the generic-medicine catalog.
type CatalogStore interface {
	// Load returns all catalog entries, empty when the store is unavailable
	Load() []janaushadhi.CatalogEntry

	// Stats summarizes the catalog for reporting endpoints
	Stats() janaushadhi.CatalogStats
}

// SubstituteMatcher defines the contract for fuzzy catalog matching.
type SubstituteMatcher interface {
	// Match scores a free-text drug name against the catalog
	Match(query string, entries []janaushadhi.CatalogEntry) janaushadhi.MatchResult
}

// EvidenceRetriever defines the contract for literature retrieval.
// A total failure is reported inside the result, never as an error.
type EvidenceRetriever interface {
	// Retrieve runs the strict-then-relaxed search and fetches articles
	Retrieve(ctx context.Context, query string) pubmed.RetrievalResult
}

// DecisionEngine defines the contract for the clinical decision pipeline.
// The returned payload is always well-formed, even when every upstream
// stage degrades.
type DecisionEngine interface {
	// Decide runs personalization, research, and safety assembly
	Decide(ctx context.Context, patientID, doctorQuery string) agents.DecisionPayload
}

// DoctorStore defines the contract for doctor account storage.
type DoctorStore interface {
	// Authenticate verifies credentials and returns the matching doctor
	Authenticate(identifier, password string) (auth.Doctor, bool)

	// Register creates a new doctor account
	Register(email, password, name, specialization string) (auth.Doctor, error)

	// GetDoctor returns a doctor by their DOC-NNN identifier
	GetDoctor(id string) (auth.Doctor, bool)
}

// SessionManager defines the contract for bearer-token sessions.
type SessionManager interface {
	// Issue creates a new session token for a doctor
	Issue(doctorID string) string

	// Resolve returns the doctor id for a live token
	Resolve(token string) (string, bool)

	// Revoke removes a session token
	Revoke(token string)

	// Sweep removes expired sessions and reports how many were dropped
	Sweep() int

	// Active returns the number of live sessions
	Active() int
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Root and operations endpoints
	Root(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)

	// Authentication endpoints
	Login(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)

	// Patient endpoints
	ListPatients(w http.ResponseWriter, r *http.Request)
	GetPatient(w http.ResponseWriter, r *http.Request)
	ListRounds(w http.ResponseWriter, r *http.Request)

	// Decision and catalog endpoints
	Chat(w http.ResponseWriter, r *http.Request)
	SearchJanAushadhi(w http.ResponseWriter, r *http.Request)
	JanAushadhiStats(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns the current status, the detail fields for the
	// health endpoint body, and the HTTP status code to respond with
	HealthCheck() (status string, data map[string]any, httpStatus int)
}

// DataValidator defines the contract for input and data validation.
type DataValidator interface {
	// ValidateQuery validates free-text doctor queries and drug names
	ValidateQuery(input string) error

	// ValidatePatientID validates patient identifiers (PAT-NNN)
	ValidatePatientID(input string) error

	// ValidateEmail validates login/registration email addresses
	ValidateEmail(input string) error

	// ReportCatalogQuality generates a catalog quality report
	ReportCatalogQuality(entries []janaushadhi.CatalogEntry) *CatalogQualityReport
}

// Scheduler defines the contract for background job scheduling.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}
